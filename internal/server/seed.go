package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teemow/mockbox/internal/github"
	"github.com/teemow/mockbox/internal/gmail"
)

// SeedFile is the combined fixture format. Either section may be omitted.
type SeedFile struct {
	Gmail  gmail.Seed  `yaml:"gmail"`
	Github github.Seed `yaml:"github"`
}

// LoadSeedFile reads and parses a YAML fixture file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	return &seed, nil
}

// ApplySeed loads a combined fixture into both stores.
func (sc *ServerContext) ApplySeed(seed *SeedFile) error {
	if seed == nil {
		return nil
	}

	if err := sc.gmailStore.ApplySeed(seed.Gmail); err != nil {
		return fmt.Errorf("gmail seed: %w", err)
	}
	if err := sc.githubStore.ApplySeed(seed.Github); err != nil {
		return fmt.Errorf("github seed: %w", err)
	}

	return nil
}

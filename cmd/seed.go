package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mockbox/internal/server"
)

func newSeedCmd() *cobra.Command {
	var (
		file         string
		validateOnly bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate a seed file and report what it would create",
		Long: `Load a YAML seed file, apply it to fresh simulated backends and print a
summary of the resulting state.

With --validate-only the file is parsed and applied to throwaway stores
without printing the summary, so the command can be used as a syntax and
consistency check in CI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, file, validateOnly)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the YAML seed file (required)")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Only validate the seed file, do not print a summary")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, file string, validateOnly bool) error {
	seed, err := server.LoadSeedFile(file)
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}

	// Applying to throwaway stores catches inconsistencies plain parsing
	// cannot, like duplicate labels or repositories without an owner.
	sc := server.NewServerContext(cmd.Context(), version, true)
	defer sc.Shutdown()
	if err := sc.ApplySeed(seed); err != nil {
		return fmt.Errorf("seed file is invalid: %w", err)
	}

	if validateOnly {
		return nil
	}

	messages := 0
	drafts := 0
	for _, u := range seed.Gmail.Users {
		messages += len(u.Messages)
		drafts += len(u.Drafts)
	}
	files := 0
	for _, r := range seed.Github.Repositories {
		files += len(r.Files)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seed file %s is valid.\n", file)
	fmt.Fprintf(out, "Gmail:  %d users, %d messages, %d drafts\n",
		len(seed.Gmail.Users), messages, drafts)
	fmt.Fprintf(out, "GitHub: %d users, %d repositories, %d files\n",
		len(seed.Github.Users), len(seed.Github.Repositories), files)
	return nil
}

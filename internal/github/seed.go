package github

import (
	"fmt"
)

// Seed is the GitHub half of a fixture file.
type Seed struct {
	Users        []SeedUser       `yaml:"users"`
	Repositories []SeedRepository `yaml:"repositories"`
}

// SeedUser describes one account to create. The first seeded user becomes
// the authenticated user when the store starts empty.
type SeedUser struct {
	Login     string `yaml:"login"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	Type      string `yaml:"type"`
	SiteAdmin bool   `yaml:"siteAdmin"`
}

// SeedRepository describes one repository to create. Files are committed to
// the default branch on top of the initial commit.
type SeedRepository struct {
	Name          string     `yaml:"name"`
	Owner         string     `yaml:"owner"`
	Description   string     `yaml:"description"`
	Private       bool       `yaml:"private"`
	Language      string     `yaml:"language"`
	Topics        []string   `yaml:"topics"`
	DefaultBranch string     `yaml:"defaultBranch"`
	Files         []FileSpec `yaml:"files"`
}

// ApplySeed loads fixture users and repositories into the store.
func (s *Store) ApplySeed(seed Seed) error {
	for _, su := range seed.Users {
		if su.Login == "" {
			return fmt.Errorf("seed user is missing a login")
		}
		s.mu.Lock()
		if s.findUser(su.Login) == nil {
			userType := su.Type
			if userType == "" {
				userType = "User"
			}
			s.addUserLocked(&User{
				Login: su.Login, Name: su.Name, Email: su.Email,
				Type: userType, SiteAdmin: su.SiteAdmin,
			})
		}
		s.mu.Unlock()
	}

	for _, sr := range seed.Repositories {
		if sr.Name == "" {
			return fmt.Errorf("seed repository is missing a name")
		}
		owner := sr.Owner
		if owner == "" {
			s.mu.RLock()
			if len(s.users) > 0 {
				owner = s.users[0].Login
			}
			s.mu.RUnlock()
			if owner == "" {
				return fmt.Errorf("seed repository %q has no owner and no users exist", sr.Name)
			}
		}
		if err := s.seedRepository(owner, sr); err != nil {
			return fmt.Errorf("seeding repository %q: %w", sr.Name, err)
		}
		if len(sr.Files) > 0 {
			branch := sr.DefaultBranch
			if branch == "" {
				branch = "main"
			}
			if _, err := s.PushFiles(owner, sr.Name, branch, sr.Files, "Seed data", "", ""); err != nil {
				return fmt.Errorf("seeding files for repository %q: %w", sr.Name, err)
			}
		}
	}
	return nil
}

// seedRepository creates an initialized repository owned by the named user.
// Unlike CreateRepository the owner is not forced to the authenticated user.
func (s *Store) seedRepository(owner string, sr SeedRepository) error {
	if err := validateRepositoryName(sr.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(owner)
	if u == nil {
		return fmt.Errorf("owner %q not found", owner)
	}
	fullName := u.Login + "/" + sr.Name
	if s.findRepository(fullName) != nil {
		return fmt.Errorf("repository %q already exists", fullName)
	}

	branch := sr.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	id := s.nextRepoID
	s.nextRepoID++
	timestamp := s.nowISO()

	repo := &Repository{
		ID:            id,
		NodeID:        repoNodeID(id),
		Name:          sr.Name,
		FullName:      fullName,
		Owner:         u.Ref(),
		Private:       sr.Private,
		Description:   sr.Description,
		Language:      sr.Language,
		Topics:        append([]string{}, sr.Topics...),
		CreatedAt:     timestamp,
		UpdatedAt:     timestamp,
		PushedAt:      timestamp,
		Size:          1,
		AllowForking:  true,
		DefaultBranch: branch,
		Visibility:    "public",
	}
	if sr.Private {
		repo.Visibility = "private"
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}

	initSHA := sha1Hex(fmt.Sprintf("initial_commit_for_repo_%d_%s", id, timestamp))
	treeSHA := sha1Hex(fmt.Sprintf("initial_tree_for_repo_%d_%s", id, timestamp))
	actor, _ := s.gitActorFor(u.Login, timestamp)
	ref := u.Ref()
	s.commits = append(s.commits, &Commit{
		SHA:          initSHA,
		NodeID:       commitNodeID(initSHA),
		RepositoryID: id,
		Commit: CommitDetail{
			Author: actor, Committer: actor,
			Message: "Initial commit", Tree: TreeRef{SHA: treeSHA},
		},
		Author:    &ref,
		Committer: &ref,
		Parents:   []CommitRef{},
		Stats:     &CommitStats{},
		Files:     []CommitFile{},
	})
	s.branches = append(s.branches, &Branch{
		Name: branch, Commit: CommitRef{SHA: initSHA}, RepositoryID: id,
	})
	s.repositories = append(s.repositories, repo)
	return nil
}

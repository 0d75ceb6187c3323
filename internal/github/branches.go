package github

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/mockbox/internal/simerr"
)

// BranchRef is the reference document returned by CreateBranch.
type BranchRef struct {
	Ref    string `json:"ref"`
	NodeID string `json:"node_id"`
	Object struct {
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"object"`
}

// CreateBranch creates a branch pointing at an existing commit of the
// repository.
func (s *Store) CreateBranch(owner, repo, branch, sha string) (*BranchRef, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, simerr.UnprocessableEntity("Owner cannot be empty.")
	}
	if strings.TrimSpace(repo) == "" {
		return nil, simerr.UnprocessableEntity("Repository name cannot be empty.")
	}
	if strings.TrimSpace(branch) == "" {
		return nil, simerr.UnprocessableEntity("Branch name cannot be empty.")
	}
	if strings.TrimSpace(sha) == "" {
		return nil, simerr.UnprocessableEntity("Commit SHA cannot be empty.")
	}
	if !isHexSHA(sha) {
		return nil, simerr.UnprocessableEntity(
			"Commit SHA must be a 40-character lowercase hexadecimal string.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.requireRepository(owner, repo)
	if err != nil {
		return nil, err
	}
	if s.findCommit(r.ID, sha) == nil {
		return nil, simerr.NotFound(fmt.Sprintf(
			"Commit '%s' not found in repository '%s'.", sha, r.FullName))
	}
	if s.findBranch(r.ID, branch) != nil {
		return nil, simerr.UnprocessableEntity(fmt.Sprintf(
			"Branch '%s' already exists in repository '%s'.", branch, r.FullName))
	}

	s.branches = append(s.branches, &Branch{
		Name: branch, Commit: CommitRef{SHA: sha}, RepositoryID: r.ID,
	})

	ref := &BranchRef{
		Ref:    "refs/heads/" + branch,
		NodeID: refNodeID(r.FullName, "refs/heads/"+branch),
	}
	ref.Object.Type = "commit"
	ref.Object.SHA = sha
	return ref, nil
}

// ListBranches returns one page of the repository's branches sorted by name.
func (s *Store) ListBranches(owner, repo string, page, perPage int) ([]*Branch, error) {
	if err := requireNoSpaces(owner, "Repository owner name"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(repo, "Repository name"); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, simerr.Validation("Page number must be a positive integer.")
	}
	if perPage < 1 {
		return nil, simerr.Validation("Results per page (per_page) must be a positive integer.")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.requireRepository(owner, repo)
	if err != nil {
		return nil, err
	}

	var branches []*Branch
	for _, b := range s.branches {
		if b.RepositoryID == r.ID {
			cp := *b
			branches = append(branches, &cp)
		}
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return paginate(branches, page, perPage), nil
}

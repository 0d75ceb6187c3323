package github

import (
	"fmt"
	"sort"

	"github.com/teemow/mockbox/internal/simerr"
)

// ListCommits walks the commit graph backwards from a starting point and
// returns one page of history, newest first. The start is the given sha
// (branch name or commit SHA) or the repository's default branch.
func (s *Store) ListCommits(owner, repo, sha, path string, page, perPage int) ([]*Commit, error) {
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

	startSHA := ""
	if sha != "" {
		if b := s.findBranch(r.ID, sha); b != nil {
			startSHA = b.Commit.SHA
		} else {
			startSHA = sha
		}
	} else {
		if r.DefaultBranch == "" {
			return nil, simerr.NotFound(fmt.Sprintf(
				"Repository '%s' has no default branch.", r.FullName))
		}
		b := s.findBranch(r.ID, r.DefaultBranch)
		if b == nil {
			return nil, simerr.NotFound(fmt.Sprintf(
				"Default branch '%s' not found in repository '%s'.", r.DefaultBranch, r.FullName))
		}
		startSHA = b.Commit.SHA
	}

	known := s.repoCommits(r.ID)
	if _, ok := known[startSHA]; !ok {
		return nil, simerr.NotFound(fmt.Sprintf(
			"Commit '%s' not found in repository '%s'.", startSHA, r.FullName))
	}

	// Breadth-first walk over parents, restricted to commits of this
	// repository.
	visited := map[string]bool{}
	queue := []string{startSHA}
	var history []*Commit
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		c, ok := known[cur]
		if !ok {
			continue
		}
		history = append(history, c)
		for _, p := range c.Parents {
			if !visited[p.SHA] {
				queue = append(queue, p.SHA)
			}
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Commit.Committer.Date > history[j].Commit.Committer.Date
	})

	if path != "" {
		var filtered []*Commit
		for _, c := range history {
			for _, f := range c.Files {
				if f.Filename == path {
					filtered = append(filtered, c)
					break
				}
			}
		}
		history = filtered
	}

	pageItems := paginate(history, page, perPage)
	result := make([]*Commit, len(pageItems))
	for i, c := range pageItems {
		cp := *c
		cp.Stats = nil
		cp.Files = nil
		result[i] = &cp
	}
	return result, nil
}

// GetCommit returns the full commit document including stats and the file
// change list. When page is set the file list is paginated; perPage defaults
// to 30 and is capped.
func (s *Store) GetCommit(owner, repo, sha string, page, perPage int) (*Commit, error) {
	if err := requireNoSpaces(owner, "Repository owner name"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(repo, "Repository name"); err != nil {
		return nil, err
	}
	if err := requireNonBlank(sha, "Commit SHA"); err != nil {
		return nil, err
	}
	if page != 0 && page < 1 {
		return nil, simerr.Validation("Page number must be a positive integer.")
	}
	if perPage < 0 {
		return nil, simerr.Validation("Results per page (per_page) must be a positive integer.")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.requireRepository(owner, repo)
	if err != nil {
		return nil, err
	}
	c := s.findCommit(r.ID, sha)
	if c == nil {
		return nil, simerr.NotFound(fmt.Sprintf(
			"Commit '%s' not found in repository '%s'.", sha, r.FullName))
	}

	cp := *c
	cp.Files = append([]CommitFile{}, c.Files...)
	if c.Stats != nil {
		stats := *c.Stats
		cp.Stats = &stats
	}
	if page > 0 {
		pp := perPage
		if pp == 0 {
			pp = 30
		}
		if pp > maxCommitFilesPerPage {
			pp = maxCommitFilesPerPage
		}
		cp.Files = paginate(cp.Files, page, pp)
	}
	return &cp, nil
}

// Package github implements an in-memory simulation of the GitHub REST API
// surface used by repository-file tooling: contents, commits, branches,
// forks and search. State lives in a Store; operations validate fully
// before mutating and fail with the typed errors from internal/simerr.
package github

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teemow/mockbox/internal/simerr"
)

// Validation limits mirroring the public API's documented constraints.
const (
	maxOwnerLength         = 255
	maxRepoLength          = 100
	maxBranchLength        = 255
	maxPathLength          = 1000
	maxCommitMessageLength = 50000
	maxContentSize         = 100 * 1024 * 1024
	maxSearchFileSize      = 384 * 1024
	maxCommitFilesPerPage  = 10000

	forkOwnerMaxLength = 39
	forkRepoMaxLength  = 100
	forkOrgMaxLength   = 39
)

// reservedFilenames are path segments rejected on file writes.
var reservedFilenames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Store holds the complete simulated GitHub state. The first user in Users
// is the authenticated user; write operations commit as that user.
type Store struct {
	mu sync.RWMutex

	users        []*User
	repositories []*Repository
	branches     []*Branch
	commits      []*Commit
	tags         []*Tag

	// files is keyed "{repoID}:{commitSHA}:{path}"; rootListings is keyed
	// "{repoID}:{commitSHA}:" and holds the synthesized root directory.
	files        map[string]*FileContent
	rootListings map[string][]DirEntry

	codeSearch []*CodeSearchResult
	rateLimit  RateLimit

	nextUserID int
	nextRepoID int

	now func() time.Time
}

// NewStore returns a store seeded with a default authenticated user.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.reset()
	return s
}

// Reset drops all state and re-seeds the default authenticated user.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.users = nil
	s.repositories = nil
	s.branches = nil
	s.commits = nil
	s.tags = nil
	s.files = map[string]*FileContent{}
	s.rootListings = map[string][]DirEntry{}
	s.codeSearch = nil
	s.rateLimit = RateLimit{SearchLimit: 30, SearchRemaining: 30}
	s.nextUserID = 0
	s.nextRepoID = 1
	s.addUserLocked(&User{
		Login: "octocat",
		Name:  "The Octocat",
		Email: "octocat@users.noreply.github.com",
		Type:  "User",
	})
}

func (s *Store) addUserLocked(u *User) *User {
	s.nextUserID++
	if u.ID == 0 {
		u.ID = s.nextUserID
	} else if u.ID >= s.nextUserID {
		s.nextUserID = u.ID
	}
	if u.Type == "" {
		u.Type = "User"
	}
	if u.NodeID == "" {
		u.NodeID = fmt.Sprintf("U_NODE_%d", u.ID)
	}
	s.users = append(s.users, u)
	return u
}

// AuthenticatedUser returns the committing user. Every store has one.
func (s *Store) AuthenticatedUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := *s.users[0]
	return &cp
}

// SetRateLimit replaces the simulated search quota state.
func (s *Store) SetRateLimit(rl RateLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimit = rl
}

func (s *Store) nowISO() string {
	return s.now().UTC().Format("2006-01-02T15:04:05") + "Z"
}

// ---- lookups; callers hold the lock ----

func (s *Store) findUser(login string) *User {
	for _, u := range s.users {
		if strings.EqualFold(u.Login, login) {
			return u
		}
	}
	return nil
}

func (s *Store) findRepository(fullName string) *Repository {
	for _, r := range s.repositories {
		if strings.EqualFold(r.FullName, fullName) {
			return r
		}
	}
	return nil
}

func (s *Store) findBranch(repoID int, name string) *Branch {
	for _, b := range s.branches {
		if b.RepositoryID == repoID && b.Name == name {
			return b
		}
	}
	return nil
}

func (s *Store) findTag(repoID int, name string) *Tag {
	for _, t := range s.tags {
		if t.RepositoryID == repoID && t.Name == name {
			return t
		}
	}
	return nil
}

func (s *Store) findCommit(repoID int, sha string) *Commit {
	for _, c := range s.commits {
		if c.RepositoryID == repoID && c.SHA == sha {
			return c
		}
	}
	return nil
}

func (s *Store) repoCommits(repoID int) map[string]*Commit {
	out := map[string]*Commit{}
	for _, c := range s.commits {
		if c.RepositoryID == repoID {
			out[c.SHA] = c
		}
	}
	return out
}

// requireRepository resolves owner/repo or fails with NotFoundError.
func (s *Store) requireRepository(owner, repo string) (*Repository, error) {
	fullName := owner + "/" + repo
	r := s.findRepository(fullName)
	if r == nil {
		return nil, simerr.NotFound(fmt.Sprintf("Repository '%s' not found.", fullName))
	}
	return r, nil
}

func fileKey(repoID int, commitSHA, path string) string {
	return fmt.Sprintf("%d:%s:%s", repoID, commitSHA, path)
}

// resolveRef maps a ref to a commit SHA: branch name, then tag name, then a
// commit SHA, then a SHA some branch head points at.
func (s *Store) resolveRef(r *Repository, ref string) (string, error) {
	if b := s.findBranch(r.ID, ref); b != nil {
		return b.Commit.SHA, nil
	}
	if t := s.findTag(r.ID, ref); t != nil {
		return t.Commit.SHA, nil
	}
	if c := s.findCommit(r.ID, ref); c != nil {
		return c.SHA, nil
	}
	for _, b := range s.branches {
		if b.RepositoryID == r.ID && b.Commit.SHA == ref {
			return ref, nil
		}
	}
	return "", simerr.NotFound(fmt.Sprintf(
		"Ref '%s' does not exist or could not be resolved to a commit in repository '%s'.", ref, r.FullName))
}

// touchRepository updates the repository's updated_at timestamp.
func (s *Store) touchRepository(r *Repository) {
	r.UpdatedAt = s.nowISO()
}

// gitActorFor builds the commit identity for a login, falling back to a
// noreply address when the user is unknown.
func (s *Store) gitActorFor(login, date string) (GitActor, *User) {
	u := s.findUser(login)
	name := login
	email := strings.ToLower(strings.NewReplacer(" ", "", ".", "").Replace(login)) + "@users.noreply.github.com"
	if u != nil {
		if u.Name != "" {
			name = u.Name
		}
		if u.Email != "" {
			email = u.Email
		}
	}
	return GitActor{Name: name, Email: email, Date: date}, u
}

func isHexSHA(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func validBranchName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-', r == '/':
		default:
			return false
		}
	}
	return true
}

func requireNonBlank(value, what string) error {
	if strings.TrimSpace(value) == "" {
		return simerr.Validation(fmt.Sprintf("%s must be provided", what))
	}
	return nil
}

func requireNoSpaces(value, what string) error {
	if err := requireNonBlank(value, what); err != nil {
		return err
	}
	if strings.Contains(value, " ") {
		return simerr.Validation(fmt.Sprintf("%s cannot contain whitespace characters", what))
	}
	return nil
}

func paginate[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func countLines(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n := strings.Count(string(b), "\n")
	if !strings.HasSuffix(string(b), "\n") {
		n++
	}
	return n
}

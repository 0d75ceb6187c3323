package github

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/mockbox/internal/simerr"
)

var repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

var reservedRepoNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
	"git": {}, "hooks": {},
}

func validateRepositoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return simerr.Validation("Repository name cannot be empty or contain only whitespace.")
	}
	if len(name) > maxRepoLength {
		return simerr.Validation(fmt.Sprintf("Repository name is too long (maximum %d characters).", maxRepoLength))
	}
	if !repoNamePattern.MatchString(name) {
		return simerr.Validation("Repository name can only contain alphanumeric characters, periods, hyphens, and underscores.")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return simerr.Validation("Repository name cannot start or end with a period.")
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return simerr.Validation("Repository name cannot start or end with a hyphen.")
	}
	if strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_") {
		return simerr.Validation("Repository name cannot start or end with an underscore.")
	}
	if strings.Contains(name, "--") {
		return simerr.Validation("Repository name cannot contain consecutive hyphens.")
	}
	if _, reserved := reservedRepoNames[strings.ToLower(name)]; reserved {
		return simerr.Validation(fmt.Sprintf("Repository name '%s' is reserved and cannot be used.", name))
	}
	if strings.Trim(name, ".") == "" {
		return simerr.Validation("Repository name cannot consist only of periods.")
	}
	return nil
}

// CreateRepositoryResponse is the trimmed document returned on creation.
type CreateRepositoryResponse struct {
	ID            int     `json:"id"`
	NodeID        string  `json:"node_id"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Private       bool    `json:"private"`
	Owner         UserRef `json:"owner"`
	Description   string  `json:"description,omitempty"`
	Fork          bool    `json:"fork"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	PushedAt      string  `json:"pushed_at"`
	DefaultBranch string  `json:"default_branch,omitempty"`
}

// CreateRepository creates a repository owned by the authenticated user.
// With autoInit an empty "Initial commit" is created and "main" becomes the
// default branch; otherwise the repository starts with no branches.
func (s *Store) CreateRepository(name, description string, private, autoInit bool) (*CreateRepositoryResponse, error) {
	if err := validateRepositoryName(name); err != nil {
		return nil, err
	}
	if len(description) > 1000 {
		return nil, simerr.Validation("Repository description is too long (maximum 1000 characters).")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.users) == 0 {
		return nil, simerr.Forbidden("Cannot create repository: No users found in the system to assign ownership.")
	}
	owner := s.users[0]

	fullName := owner.Login + "/" + name
	for _, r := range s.repositories {
		if r.FullName == fullName {
			return nil, simerr.UnprocessableEntity(fmt.Sprintf(
				"Repository with name '%s' already exists for owner '%s'.", name, owner.Login))
		}
	}

	id := s.nextRepoID
	s.nextRepoID++
	timestamp := s.nowISO()

	repo := &Repository{
		ID:           id,
		NodeID:       repoNodeID(id),
		Name:         name,
		FullName:     fullName,
		Owner:        owner.Ref(),
		Private:      private,
		Description:  description,
		CreatedAt:    timestamp,
		UpdatedAt:    timestamp,
		PushedAt:     timestamp,
		AllowForking: true,
		Topics:       []string{},
		Visibility:   "public",
	}
	if private {
		repo.Visibility = "private"
	}

	if autoInit {
		repo.DefaultBranch = "main"
		repo.Size = 1

		initSHA := sha1Hex(fmt.Sprintf("initial_commit_for_repo_%d_%s", id, timestamp))
		treeSHA := sha1Hex(fmt.Sprintf("initial_tree_for_repo_%d_%s", id, timestamp))
		actor, _ := s.gitActorFor(owner.Login, timestamp)
		ref := owner.Ref()
		s.commits = append(s.commits, &Commit{
			SHA:          initSHA,
			NodeID:       base64.StdEncoding.EncodeToString([]byte("Commit:" + initSHA)),
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
			Name: "main", Commit: CommitRef{SHA: initSHA}, RepositoryID: id,
		})
	}
	s.repositories = append(s.repositories, repo)

	return &CreateRepositoryResponse{
		ID: repo.ID, NodeID: repo.NodeID, Name: repo.Name, FullName: repo.FullName,
		Private: repo.Private, Owner: repo.Owner, Description: repo.Description,
		Fork: false, CreatedAt: repo.CreatedAt, UpdatedAt: repo.UpdatedAt,
		PushedAt: repo.PushedAt, DefaultBranch: repo.DefaultBranch,
	}, nil
}

// ForkedRepositoryResponse is the trimmed document returned by ForkRepository.
type ForkedRepositoryResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
		ID    int    `json:"id"`
		Type  string `json:"type"`
	} `json:"owner"`
	Private     bool   `json:"private"`
	Description string `json:"description,omitempty"`
	Fork        bool   `json:"fork"`
}

// ForkRepository forks owner/repo into the authenticated user's namespace, or
// into an organization when one is given. Branch refs are copied; git data is
// shared with the source.
func (s *Store) ForkRepository(owner, repo, organization string) (*ForkedRepositoryResponse, error) {
	if err := requireNoSpaces(owner, "Owner username"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(repo, "Repository name"); err != nil {
		return nil, err
	}
	if len(owner) > forkOwnerMaxLength {
		return nil, simerr.Validation(fmt.Sprintf("Owner username too long (max %d characters).", forkOwnerMaxLength))
	}
	if len(repo) > forkRepoMaxLength {
		return nil, simerr.Validation(fmt.Sprintf("Repository name too long (max %d characters).", forkRepoMaxLength))
	}
	if organization != "" {
		if err := requireNoSpaces(organization, "Organization name"); err != nil {
			return nil, err
		}
		if len(organization) > forkOrgMaxLength {
			return nil, simerr.Validation(fmt.Sprintf("Organization name too long (max %d characters).", forkOrgMaxLength))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.users) == 0 {
		return nil, simerr.Forbidden("No authenticated user available to own the fork.")
	}
	authUser := s.users[0]

	source := s.findRepository(owner + "/" + repo)
	if source == nil {
		return nil, simerr.NotFound(fmt.Sprintf("Source repository %s/%s not found.", owner, repo))
	}
	if !source.AllowForking {
		return nil, simerr.Forbidden(fmt.Sprintf("Forking is disabled for the repository %s/%s.", owner, repo))
	}

	target := authUser
	if organization != "" {
		target = s.findUser(organization)
		if target == nil || target.Type != "Organization" {
			return nil, simerr.NotFound(fmt.Sprintf(
				"Organization '%s' not found or is not an organization type.", organization))
		}
	}

	for _, existing := range s.repositories {
		if !strings.EqualFold(existing.Owner.Login, target.Login) {
			continue
		}
		if existing.ForkDetails != nil && existing.ForkDetails.ParentID == source.ID {
			return nil, simerr.UnprocessableEntity(fmt.Sprintf(
				"Repository '%s' has already been forked by '%s' as '%s'.",
				source.FullName, target.Login, existing.FullName))
		}
		if existing.Name == source.Name {
			return nil, simerr.UnprocessableEntity(fmt.Sprintf(
				"A repository named '%s' already exists for '%s'.", source.Name, target.Login))
		}
	}

	id := s.nextRepoID
	s.nextRepoID++
	timestamp := s.nowISO()

	lineage := &ForkDetails{
		ParentID:       source.ID,
		ParentFullName: source.FullName,
		SourceID:       source.ID,
		SourceFullName: source.FullName,
	}
	if source.ForkDetails != nil {
		lineage.SourceID = source.ForkDetails.SourceID
		lineage.SourceFullName = source.ForkDetails.SourceFullName
	}

	fork := &Repository{
		ID:            id,
		NodeID:        repoNodeID(id),
		Name:          source.Name,
		FullName:      target.Login + "/" + source.Name,
		Owner:         target.Ref(),
		Private:       source.Private,
		Description:   source.Description,
		Fork:          true,
		CreatedAt:     timestamp,
		UpdatedAt:     timestamp,
		PushedAt:      timestamp,
		Size:          source.Size,
		Language:      source.Language,
		WatchersCount: 1,
		AllowForking:  true,
		DefaultBranch: source.DefaultBranch,
		Visibility:    "public",
		Topics:        append([]string{}, source.Topics...),
		ForkDetails:   lineage,
	}
	if source.Private {
		fork.Visibility = "private"
	}
	s.repositories = append(s.repositories, fork)

	copied := false
	for _, b := range s.branches {
		if b.RepositoryID == source.ID {
			s.branches = append(s.branches, &Branch{
				Name: b.Name, Commit: b.Commit, Protected: b.Protected, RepositoryID: id,
			})
			copied = true
		}
	}
	if !copied {
		fork.DefaultBranch = ""
	}

	source.ForksCount++
	source.UpdatedAt = timestamp

	resp := &ForkedRepositoryResponse{
		ID: fork.ID, Name: fork.Name, FullName: fork.FullName,
		Private: fork.Private, Description: fork.Description, Fork: true,
	}
	resp.Owner.Login = target.Login
	resp.Owner.ID = target.ID
	resp.Owner.Type = target.Type
	return resp, nil
}

// RepoSearchResults wraps one page of repository matches.
type RepoSearchResults struct {
	TotalCount        int           `json:"total_count"`
	IncompleteResults bool          `json:"incomplete_results"`
	Items             []*Repository `json:"items"`
}

// SearchRepositoriesResponse mirrors the search endpoint envelope.
type SearchRepositoriesResponse struct {
	SearchResults RepoSearchResults `json:"search_results"`
}

var qualifierPattern = regexp.MustCompile(`^([a-zA-Z_]+):(.*)$`)

// SearchRepositories filters the repository table with a GitHub-style search
// query. Bare terms require word-boundary matches in the fields named by the
// in: qualifier (name and description by default).
func (s *Store) SearchRepositories(query, sortBy, order string, page, perPage int) (*SearchRepositoriesResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, simerr.InvalidInput("Search query must be a non-empty string.")
	}
	if page < 1 {
		return nil, simerr.InvalidInput("Page must be a positive integer.")
	}
	if perPage < 1 || perPage > 100 {
		return nil, simerr.InvalidInput("Per_page must be a positive integer between 1 and 100.")
	}

	parts, err := splitQuery(query)
	if err != nil {
		return nil, err
	}
	var terms []string
	qualifiers := map[string]string{}
	for _, part := range parts {
		if m := qualifierPattern.FindStringSubmatch(part); m != nil {
			qualifiers[strings.ToLower(m[1])] = m[2]
		} else {
			terms = append(terms, strings.ToLower(part))
		}
	}

	if sortBy != "" && sortBy != "stars" && sortBy != "forks" && sortBy != "updated" {
		return nil, simerr.InvalidInput("Invalid sort option. Use 'stars', 'forks', or 'updated'.")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Repository
	for _, r := range s.repositories {
		ok := true
		for key, value := range qualifiers {
			if !repoMatchesQualifier(r, key, value) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if len(terms) > 0 {
			searchIn := qualifiers["in"]
			if searchIn == "" {
				searchIn = "name,description"
			}
			var fields []string
			if strings.Contains(searchIn, "name") {
				fields = append(fields, strings.ToLower(r.Name))
			}
			if strings.Contains(searchIn, "description") && r.Description != "" {
				fields = append(fields, strings.ToLower(r.Description))
			}
			combined := strings.Join(fields, " ")
			all := true
			for _, term := range terms {
				if !wordBoundaryMatch(combined, term) {
					all = false
					break
				}
			}
			if !all {
				continue
			}
		}
		matched = append(matched, r)
	}

	desc := order != "asc"
	switch sortBy {
	case "stars":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].StargazersCount > matched[j].StargazersCount
			}
			return matched[i].StargazersCount < matched[j].StargazersCount
		})
	case "forks":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].ForksCount > matched[j].ForksCount
			}
			return matched[i].ForksCount < matched[j].ForksCount
		})
	case "updated":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].UpdatedAt > matched[j].UpdatedAt
			}
			return matched[i].UpdatedAt < matched[j].UpdatedAt
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Score > matched[j].Score
		})
	}

	total := len(matched)
	pageItems := paginate(matched, page, perPage)
	items := make([]*Repository, len(pageItems))
	for i, r := range pageItems {
		cp := *r
		items[i] = &cp
	}
	return &SearchRepositoriesResponse{
		SearchResults: RepoSearchResults{TotalCount: total, Items: items},
	}, nil
}

// splitQuery splits a search query on whitespace while keeping quoted
// phrases together. Mismatched quotes are a syntax error.
func splitQuery(query string) ([]string, error) {
	var parts []string
	var current strings.Builder
	var quote byte
	inPart := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inPart = true
		case c == ' ' || c == '\t':
			if inPart {
				parts = append(parts, current.String())
				current.Reset()
				inPart = false
			}
		default:
			current.WriteByte(c)
			inPart = true
		}
	}
	if quote != 0 {
		return nil, simerr.InvalidInput("Invalid query syntax: Mismatched quotes.")
	}
	if inPart {
		parts = append(parts, current.String())
	}
	return parts, nil
}

func wordBoundaryMatch(text, term string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func repoMatchesQualifier(r *Repository, key, value string) bool {
	switch key {
	case "is":
		switch value {
		case "public":
			return !r.Private
		case "private":
			return r.Private
		case "archived":
			return r.Archived
		case "template":
			return r.IsTemplate
		}
		return false
	case "fork":
		switch value {
		case "true", "only":
			return r.Fork
		case "false":
			return !r.Fork
		}
		return true
	case "user", "org":
		return strings.EqualFold(r.Owner.Login, value)
	case "language":
		return r.Language != "" && strings.EqualFold(r.Language, value)
	case "stars":
		return numericQualifier(r.StargazersCount, value)
	case "forks":
		return numericQualifier(r.ForksCount, value)
	case "watchers":
		return numericQualifier(r.WatchersCount, value)
	case "size":
		return numericQualifier(r.Size, value)
	case "created":
		return dateQualifier(r.CreatedAt, value)
	case "pushed":
		return dateQualifier(r.PushedAt, value)
	case "updated":
		return dateQualifier(r.UpdatedAt, value)
	}
	return true
}

func numericQualifier(actual int, value string) bool {
	if strings.Contains(value, "..") {
		bounds := strings.SplitN(value, "..", 2)
		low, high := bounds[0], bounds[1]
		if low != "*" {
			n, err := strconv.Atoi(low)
			if err != nil || actual < n {
				return false
			}
		}
		if high != "*" {
			n, err := strconv.Atoi(high)
			if err != nil || actual > n {
				return false
			}
		}
		return true
	}
	op, rest := splitCompareOp(value)
	n, err := strconv.Atoi(rest)
	if err != nil {
		return false
	}
	switch op {
	case ">=":
		return actual >= n
	case "<=":
		return actual <= n
	case ">":
		return actual > n
	case "<":
		return actual < n
	}
	return actual == n
}

func dateQualifier(actual, value string) bool {
	t, err := parseISOTimestamp(actual)
	if err != nil {
		return false
	}
	if strings.Contains(value, "..") {
		bounds := strings.SplitN(value, "..", 2)
		if bounds[0] != "*" {
			start, err := parseISOTimestamp(bounds[0])
			if err != nil || t.Before(start) {
				return false
			}
		}
		if bounds[1] != "*" {
			end, err := parseISOTimestamp(bounds[1])
			if err != nil || t.After(endOfDay(end)) {
				return false
			}
		}
		return true
	}
	op, rest := splitCompareOp(value)
	q, err := parseISOTimestamp(rest)
	if err != nil {
		return false
	}
	switch op {
	case ">=":
		return !t.Before(q)
	case "<=":
		return !t.After(q)
	case ">":
		return t.After(q)
	case "<":
		return t.Before(q)
	}
	// Exact date: matches anywhere on that day.
	return !t.Before(startOfDay(q)) && !t.After(endOfDay(q))
}

func splitCompareOp(value string) (op, rest string) {
	if strings.HasPrefix(value, ">=") || strings.HasPrefix(value, "<=") {
		return value[:2], value[2:]
	}
	if strings.HasPrefix(value, ">") || strings.HasPrefix(value, "<") {
		return value[:1], value[1:]
	}
	return "", value
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

package github

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/teemow/mockbox/internal/simerr"
)

// CodeSearchItem is one code match with its synthetic API URLs.
type CodeSearchItem struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	SHA        string      `json:"sha"`
	URL        string      `json:"url"`
	GitURL     string      `json:"git_url"`
	HTMLURL    string      `json:"html_url"`
	Repository RepoSummary `json:"repository"`
	Score      float64     `json:"score"`
}

// CodeSearchResponse is one page of code search matches.
type CodeSearchResponse struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []CodeSearchItem `json:"items"`
}

var (
	codeQuotePattern     = regexp.MustCompile(`"([^"]*)"`)
	codeQualifierPattern = regexp.MustCompile(`^(language|repo|user|org|path|extension|size|is|fork|in):(.*)$`)
)

var languageExtensions = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"typescript": ".ts",
	"html":       ".html",
	"css":        ".css",
}

// SearchCode searches indexed file content at each repository's default
// branch head. Terms match on word boundaries; files above the indexing size
// cutoff are excluded.
func (s *Store) SearchCode(query, sortBy, order string, page, perPage int) (*CodeSearchResponse, error) {
	s.mu.RLock()
	rl := s.rateLimit
	s.mu.RUnlock()
	if rl.SimulateExhaustion {
		return nil, simerr.RateLimit("API rate limit exceeded")
	}
	if rl.SearchRemaining <= 0 {
		return nil, simerr.RateLimit("API rate limit exceeded. Reset at the top of the next minute.")
	}

	if strings.TrimSpace(query) == "" {
		return nil, simerr.InvalidInput("Search query must be a non-empty string.")
	}

	// Quoted phrases come out first, the rest splits on whitespace.
	var quotedTerms []string
	remaining := codeQuotePattern.ReplaceAllStringFunc(query, func(m string) string {
		term := strings.TrimSpace(strings.Trim(m, `"`))
		if term != "" {
			quotedTerms = append(quotedTerms, strings.ToLower(term))
		}
		return " "
	})
	if strings.Contains(remaining, `"`) {
		return nil, simerr.InvalidInput("Invalid query syntax: Mismatched quotes.")
	}

	qualifiers := map[string]string{}
	var terms []string
	for _, part := range strings.Fields(remaining) {
		if m := codeQualifierPattern.FindStringSubmatch(part); m != nil {
			qualifiers[strings.ToLower(m[1])] = m[2]
		} else {
			terms = append(terms, strings.ToLower(part))
		}
	}
	terms = append(quotedTerms, terms...)
	if len(terms) == 0 {
		return nil, simerr.InvalidInput("Code search must include at least one search term.")
	}

	if page < 1 {
		return nil, simerr.InvalidInput("Page must be a positive integer.")
	}
	if perPage < 1 || perPage > 100 {
		return nil, simerr.InvalidInput("per_page must be an integer between 1 and 100.")
	}
	// Omitted arguments fall back to the API defaults.
	if sortBy == "" {
		sortBy = "best match"
	}
	if order == "" {
		order = "desc"
	}
	if sortBy != "best match" && sortBy != "indexed" {
		return nil, simerr.InvalidInput("Sort can only be 'indexed' or 'best match'.")
	}
	if order != "asc" && order != "desc" {
		return nil, simerr.InvalidInput("Invalid 'order' parameter. Must be one of ['asc', 'desc'].")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Head commit of each repository's default branch.
	headByRepo := map[int]string{}
	for _, r := range s.repositories {
		name := r.DefaultBranch
		if name == "" {
			name = "main"
		}
		if b := s.findBranch(r.ID, name); b != nil && b.Commit.SHA != "" {
			headByRepo[r.ID] = b.Commit.SHA
		}
	}
	repoByID := map[int]*Repository{}
	for _, r := range s.repositories {
		repoByID[r.ID] = r
	}

	var matched []CodeSearchItem
	for _, result := range s.codeSearch {
		ok := true
		for key, value := range qualifiers {
			if !codeMatchesQualifier(result, repoByID[result.Repository.ID], key, value) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		head, hasHead := headByRepo[result.Repository.ID]
		if !hasHead {
			continue
		}
		file := s.files[fileKey(result.Repository.ID, head, result.Path)]

		searchIn := qualifiers["in"]
		if searchIn == "" {
			searchIn = "file,path,repo"
		}
		var fields []string
		if strings.Contains(searchIn, "file") && file != nil && file.Content != "" {
			content := file.Content
			if file.Encoding == "base64" {
				decoded, err := base64.StdEncoding.DecodeString(file.Content)
				if err != nil {
					continue
				}
				content = string(decoded)
			}
			fields = append(fields, strings.ToLower(content))
		}
		if strings.Contains(searchIn, "path") && result.Path != "" {
			fields = append(fields, strings.ToLower(result.Path))
		}
		if strings.Contains(searchIn, "repo") {
			if r := repoByID[result.Repository.ID]; r != nil {
				fields = append(fields, strings.ToLower(r.Name))
				if r.Description != "" {
					fields = append(fields, strings.ToLower(r.Description))
				}
			}
		}
		if file != nil && file.Size > maxSearchFileSize {
			continue
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

		matched = append(matched, CodeSearchItem{
			Name: result.Name,
			Path: result.Path,
			SHA:  result.SHA,
			URL: fmt.Sprintf("https://api.github.com/repositories/%d/contents/%s",
				result.Repository.ID, result.Path),
			GitURL: fmt.Sprintf("https://api.github.com/repositories/%d/git/blobs/%s",
				result.Repository.ID, result.SHA),
			HTMLURL: fmt.Sprintf("https://github.com/%s/blob/master/%s",
				result.Repository.FullName, result.Path),
			Repository: result.Repository,
			Score:      result.Score,
		})
	}

	if sortBy == "indexed" {
		desc := order == "desc"
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].SHA > matched[j].SHA
			}
			return matched[i].SHA < matched[j].SHA
		})
	}

	return &CodeSearchResponse{
		TotalCount: len(matched),
		Items:      paginate(matched, page, perPage),
	}, nil
}

func codeMatchesQualifier(result *CodeSearchResult, repo *Repository, key, value string) bool {
	switch key {
	case "is", "fork":
		if repo == nil {
			return false
		}
		return repoMatchesQualifier(repo, key, value)
	case "language":
		ext, known := languageExtensions[strings.ToLower(value)]
		if !known {
			return false
		}
		return strings.HasSuffix(strings.ToLower(result.Path), ext)
	case "user", "org":
		return strings.EqualFold(result.Repository.Owner.Login, value)
	case "repo":
		return strings.EqualFold(result.Repository.FullName, value)
	case "path":
		return strings.Contains(strings.ToLower(result.Path), strings.ToLower(value))
	case "extension":
		return strings.HasSuffix(strings.ToLower(result.Path), "."+strings.ToLower(value))
	}
	return true
}

package github

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/mockbox/internal/simerr"
)

// GetFileContents resolves owner/repo/path at a ref (branch, then tag, then
// commit SHA; default branch when empty). Path "/" returns the root
// listing, an empty one for repositories without content. Other directory
// paths are synthesized from stored file keys.
func (s *Store) GetFileContents(owner, repo, path, ref string) (*ContentsResponse, error) {
	if err := requireNoSpaces(owner, "repository owner"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(repo, "repository name"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(path, "path"); err != nil {
		return nil, err
	}
	if ref != "" {
		if err := requireNoSpaces(ref, "ref"); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.requireRepository(owner, repo)
	if err != nil {
		return nil, err
	}

	refToResolve := ref
	if refToResolve == "" {
		refToResolve = r.DefaultBranch
		if refToResolve == "" {
			return nil, simerr.NotFound(fmt.Sprintf("Repository '%s' does not have a default branch.", r.FullName))
		}
	}
	commitSHA, err := s.resolveRef(r, refToResolve)
	if err != nil {
		return nil, err
	}

	if path == "/" {
		entries := s.rootListings[fileKey(r.ID, commitSHA, "")]
		return &ContentsResponse{Entries: append([]DirEntry{}, entries...)}, nil
	}

	cleanPath := strings.Trim(path, "/")
	if fc, ok := s.files[fileKey(r.ID, commitSHA, cleanPath)]; ok {
		cp := *fc
		if cp.Encoding == "text" {
			cp.Content = base64.StdEncoding.EncodeToString([]byte(fc.Content))
			cp.Encoding = "base64"
		}
		return &ContentsResponse{File: &cp}, nil
	}

	// Directory: collect direct children under the path prefix.
	prefix := fileKey(r.ID, commitSHA, cleanPath) + "/"
	var entries []DirEntry
	seenDirs := map[string]struct{}{}
	for key, fc := range s.files {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rel := key[len(prefix):]
		if idx := strings.Index(rel, "/"); idx >= 0 {
			sub := rel[:idx]
			if _, ok := seenDirs[sub]; !ok {
				seenDirs[sub] = struct{}{}
				entries = append(entries, DirEntry{
					Type: "dir", Name: sub, Path: cleanPath + "/" + sub,
				})
			}
			continue
		}
		entries = append(entries, DirEntry{
			Type: fc.Type, Size: fc.Size, Name: fc.Name, Path: fc.Path, SHA: fc.SHA,
		})
	}
	if len(entries) == 0 {
		return nil, simerr.NotFound(fmt.Sprintf(
			"Path '%s' not found at ref '%s' in repository '%s'.", path, refToResolve, r.FullName))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return &ContentsResponse{Entries: entries}, nil
}

// CreateFileResponse is the result of CreateOrUpdateFile.
type CreateFileResponse struct {
	Content struct {
		Name string `json:"name"`
		Path string `json:"path"`
		SHA  string `json:"sha"`
		Size int    `json:"size"`
		Type string `json:"type"`
	} `json:"content"`
	Commit struct {
		SHA       string   `json:"sha"`
		Message   string   `json:"message"`
		Author    GitActor `json:"author"`
		Committer GitActor `json:"committer"`
	} `json:"commit"`
}

// validateFilePath applies the path rules shared by file writes.
func validateFilePath(path string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(path), "/")
	if clean == "" {
		return "", simerr.Validation("Path cannot be empty or contain only slashes and whitespace.")
	}
	if len(path) > maxPathLength {
		return "", simerr.Validation(fmt.Sprintf("Path is too long (maximum %d characters).", maxPathLength))
	}
	if strings.Contains(clean, "..") {
		return "", simerr.Validation("Path cannot contain '..' (parent directory references).")
	}
	if strings.Contains(clean, "\\") {
		return "", simerr.Validation("Path cannot contain backslashes.")
	}
	if strings.Contains(clean, "//") {
		return "", simerr.Validation("Path cannot contain consecutive slashes.")
	}
	for _, part := range strings.Split(clean, "/") {
		if _, reserved := reservedFilenames[strings.ToUpper(part)]; reserved {
			return "", simerr.Validation(fmt.Sprintf("Path contains reserved filename: %s", part))
		}
	}
	return clean, nil
}

// CreateOrUpdateFile writes a single file as a new commit on the target
// branch (default branch when empty). Updates require the caller to pass
// the current blob SHA.
func (s *Store) CreateOrUpdateFile(owner, repo, path, message, content, branch, sha string) (*CreateFileResponse, error) {
	if err := requireNonBlank(owner, "Owner username"); err != nil {
		return nil, err
	}
	if err := requireNonBlank(repo, "Repository name"); err != nil {
		return nil, err
	}
	if err := requireNonBlank(path, "Path"); err != nil {
		return nil, err
	}
	if err := requireNonBlank(message, "Commit message"); err != nil {
		return nil, err
	}
	if err := requireNonBlank(content, "Content"); err != nil {
		return nil, err
	}
	if len(owner) > maxOwnerLength {
		return nil, simerr.Validation(fmt.Sprintf("Owner name is too long (maximum %d characters).", maxOwnerLength))
	}
	if len(repo) > maxRepoLength {
		return nil, simerr.Validation(fmt.Sprintf("Repository name is too long (maximum %d characters).", maxRepoLength))
	}
	if len(message) > maxCommitMessageLength {
		return nil, simerr.Validation(fmt.Sprintf("Commit message is too long (maximum %d characters).", maxCommitMessageLength))
	}
	if !validName(owner) {
		return nil, simerr.Validation("Owner name contains invalid characters. Only alphanumeric characters, dots, hyphens, and underscores are allowed.")
	}
	if !validName(repo) {
		return nil, simerr.Validation("Repository name contains invalid characters. Only alphanumeric characters, dots, hyphens, and underscores are allowed.")
	}
	if branch != "" {
		if len(branch) > maxBranchLength {
			return nil, simerr.Validation(fmt.Sprintf("Branch name is too long (maximum %d characters).", maxBranchLength))
		}
		if !validBranchName(branch) {
			return nil, simerr.Validation("Branch name contains invalid characters.")
		}
		if strings.HasPrefix(branch, "-") || strings.HasSuffix(branch, "-") {
			return nil, simerr.Validation("Branch name cannot start or end with '-'.")
		}
	}
	if sha != "" && !isHexSHA(sha) {
		return nil, simerr.Validation("SHA must be a 40-character hexadecimal string.")
	}
	cleanPath, err := validateFilePath(path)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, simerr.Validation("Content must be a valid base64 encoded string.")
	}
	if len(decoded) > maxContentSize {
		return nil, simerr.Validation(fmt.Sprintf(
			"Content size (%d bytes) exceeds maximum allowed size (%d bytes).", len(decoded), maxContentSize))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.requireRepository(owner, repo)
	if err != nil {
		return nil, err
	}
	if r.Archived {
		return nil, simerr.Forbidden(fmt.Sprintf("Repository '%s' is archived and cannot be modified.", r.FullName))
	}

	targetBranch := branch
	if targetBranch == "" {
		targetBranch = r.DefaultBranch
		if targetBranch == "" {
			return nil, simerr.NotFound(fmt.Sprintf(
				"Repository '%s' has no default branch and no branch was specified.", r.FullName))
		}
	}
	b := s.findBranch(r.ID, targetBranch)
	if b == nil {
		return nil, simerr.NotFound(fmt.Sprintf("Branch '%s' not found in repository '%s'.", targetBranch, r.FullName))
	}
	parentSHA := b.Commit.SHA

	timestamp := s.nowISO()
	actor, user := s.gitActorFor(owner, timestamp)
	if b.Protected {
		if user == nil || !user.SiteAdmin {
			return nil, simerr.Forbidden(fmt.Sprintf(
				"Branch '%s' is protected. Only site admins can write to this protected branch.", targetBranch))
		}
	}

	existing := s.files[fileKey(r.ID, parentSHA, cleanPath)]
	isUpdate := existing != nil
	if isUpdate {
		if sha == "" {
			return nil, simerr.Validation("SHA (blob SHA of the file) must be provided when updating an existing file.")
		}
		if existing.SHA != sha {
			return nil, simerr.Conflict("File SHA does not match. The file has been changed since the SHA was obtained.")
		}
	}

	newBlobSHA := blobSHA(decoded)
	fileName := cleanPath[strings.LastIndex(cleanPath, "/")+1:]
	tree := treeSHA(map[string]string{cleanPath: newBlobSHA})
	newCommitSHA := commitSHA(tree, parentSHA, actor, actor, message)

	status := "added"
	if isUpdate {
		status = "modified"
	}
	lines := countLines(decoded)
	change := CommitFile{
		SHA: newBlobSHA, Filename: cleanPath, Status: status,
		Additions: lines, Deletions: 0, Changes: lines,
	}
	userRef := s.commitUserRef(user, owner)
	var parents []CommitRef
	if parentSHA != "" {
		parents = []CommitRef{{SHA: parentSHA}}
	}
	s.commits = append(s.commits, &Commit{
		SHA:          newCommitSHA,
		NodeID:       commitNodeID(newCommitSHA),
		RepositoryID: r.ID,
		Commit: CommitDetail{
			Author: actor, Committer: actor, Message: message, Tree: TreeRef{SHA: tree},
		},
		Author:    userRef,
		Committer: userRef,
		Parents:   parents,
		Stats:     &CommitStats{Total: change.Changes, Additions: change.Additions, Deletions: change.Deletions},
		Files:     []CommitFile{change},
	})

	s.files[fileKey(r.ID, newCommitSHA, cleanPath)] = &FileContent{
		Type: "file", Encoding: "base64", Size: len(decoded),
		Name: fileName, Path: cleanPath,
		Content: base64.StdEncoding.EncodeToString(decoded), SHA: newBlobSHA,
	}

	s.updateSearchIndex(r, owner, cleanPath, newBlobSHA, isUpdate, user)
	s.extendRootListing(r.ID, parentSHA, newCommitSHA, map[string]string{cleanPath: newBlobSHA})

	b.Commit.SHA = newCommitSHA
	r.PushedAt = timestamp
	s.touchRepository(r)

	resp := &CreateFileResponse{}
	resp.Content.Name = fileName
	resp.Content.Path = cleanPath
	resp.Content.SHA = newBlobSHA
	resp.Content.Size = len(decoded)
	resp.Content.Type = "file"
	resp.Commit.SHA = newCommitSHA
	resp.Commit.Message = message
	resp.Commit.Author = actor
	resp.Commit.Committer = actor
	return resp, nil
}

func (s *Store) commitUserRef(u *User, login string) *UserRef {
	if u == nil {
		return &UserRef{Login: login, ID: 1, Type: "User"}
	}
	ref := u.Ref()
	return &ref
}

// updateSearchIndex maintains the code search rows for one written file.
func (s *Store) updateSearchIndex(r *Repository, owner, path, blob string, replace bool, u *User) {
	if replace {
		kept := s.codeSearch[:0]
		for _, item := range s.codeSearch {
			if item.Path == path && item.Repository.ID == r.ID {
				continue
			}
			kept = append(kept, item)
		}
		s.codeSearch = kept
	}
	item := &CodeSearchResult{
		Name:  path[strings.LastIndex(path, "/")+1:],
		Path:  path,
		SHA:   blob,
		Score: 1.0,
	}
	item.Repository.ID = r.ID
	item.Repository.Name = r.Name
	item.Repository.FullName = r.FullName
	item.Repository.Owner.Login = owner
	if u != nil {
		item.Repository.Owner.ID = u.ID
	} else {
		item.Repository.Owner.ID = 1
	}
	s.codeSearch = append(s.codeSearch, item)
}

// extendRootListing carries the parent commit's root listing forward and
// appends entries for the written paths.
func (s *Store) extendRootListing(repoID int, parentSHA, newSHA string, written map[string]string) {
	var listing []DirEntry
	if parentSHA != "" {
		listing = append(listing, s.rootListings[fileKey(repoID, parentSHA, "")]...)
	}
	has := func(name, typ string) bool {
		for _, e := range listing {
			if e.Name == name && e.Type == typ {
				return true
			}
		}
		return false
	}
	paths := make([]string, 0, len(written))
	for p := range written {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if idx := strings.Index(p, "/"); idx >= 0 {
			dir := p[:idx]
			if !has(dir, "dir") {
				listing = append(listing, DirEntry{Type: "dir", Name: dir, Path: dir, SHA: dirSHA(dir)})
			}
			continue
		}
		if !has(p, "file") {
			listing = append(listing, DirEntry{Type: "file", Name: p, Path: p, SHA: written[p]})
		}
	}
	s.rootListings[fileKey(repoID, newSHA, "")] = listing
}

// FileSpec is one file in a PushFiles request. Content is plain text.
type FileSpec struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// PushFilesResponse reports the created commit.
type PushFilesResponse struct {
	CommitSHA string `json:"commit_sha"`
	TreeSHA   string `json:"tree_sha"`
	Message   string `json:"message"`
}

// PushFiles commits multiple files at once on top of the branch head,
// carrying forward unchanged parent files. Files whose content matches the
// parent blob are excluded from the commit's change list. The fast-forward
// check runs after the new objects are stored; on conflict they are rolled
// back and the branch is left untouched.
func (s *Store) PushFiles(owner, repo, branch string, files []FileSpec, message, authorDate, committerDate string) (*PushFilesResponse, error) {
	if err := requireNoSpaces(owner, "owner"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(repo, "repository name"); err != nil {
		return nil, err
	}
	if err := requireNoSpaces(branch, "branch name"); err != nil {
		return nil, err
	}
	if err := requireNonBlank(message, "commit message"); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, simerr.Validation("Files list cannot be empty.")
	}
	for _, f := range files {
		if strings.TrimSpace(f.Path) == "" {
			return nil, simerr.Validation("Each file must have a path.")
		}
	}

	if authorDate != "" {
		if _, err := parseISOTimestamp(authorDate); err != nil {
			return nil, simerr.Validation(fmt.Sprintf(
				"Invalid author_date format '%s'. Expected ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ).", authorDate))
		}
	}
	if committerDate != "" {
		if _, err := parseISOTimestamp(committerDate); err != nil {
			return nil, simerr.Validation(fmt.Sprintf(
				"Invalid committer_date format '%s'. Expected ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ).", committerDate))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.requireRepository(owner, repo)
	if err != nil {
		return nil, err
	}
	b := s.findBranch(r.ID, branch)
	if b == nil {
		return nil, simerr.NotFound(fmt.Sprintf("Branch '%s' not found in repository '%s'.", branch, r.FullName))
	}
	parentSHA := b.Commit.SHA

	user := s.findUser(owner)
	if user == nil {
		return nil, simerr.NotFound(fmt.Sprintf("User '%s' (acting as committer) not found in Users table.", owner))
	}

	// Parent blob map: every file stored at the parent commit.
	parentBlobs := map[string]string{}
	parentPrefix := fileKey(r.ID, parentSHA, "")
	if parentSHA != "" {
		for key, fc := range s.files {
			if strings.HasPrefix(key, parentPrefix) {
				parentBlobs[fc.Path] = fc.SHA
			}
		}
	}

	newTree := map[string]string{}
	for p, sha := range parentBlobs {
		newTree[p] = sha
	}
	type pushed struct {
		blob    string
		content string
	}
	pushedFiles := map[string]pushed{}
	order := make([]string, 0, len(files))
	for _, f := range files {
		content := []byte(f.Content)
		blob := blobSHA(content)
		newTree[f.Path] = blob
		if _, seen := pushedFiles[f.Path]; !seen {
			order = append(order, f.Path)
		}
		pushedFiles[f.Path] = pushed{blob: blob, content: f.Content}
	}
	tree := treeSHA(newTree)

	timestamp := s.nowISO()
	authorTS, committerTS := timestamp, timestamp
	if authorDate != "" {
		authorTS = authorDate
	}
	if committerDate != "" {
		committerTS = committerDate
	}
	author, _ := s.gitActorFor(owner, authorTS)
	committer := author
	committer.Date = committerTS

	var changes []CommitFile
	for _, p := range order {
		d := pushedFiles[p]
		if prev, ok := parentBlobs[p]; ok && prev == d.blob {
			continue
		}
		status := "added"
		if _, ok := parentBlobs[p]; ok {
			status = "modified"
		}
		lines := countLines([]byte(d.content))
		changes = append(changes, CommitFile{
			SHA: d.blob, Filename: p, Status: status,
			Additions: lines, Deletions: 0, Changes: lines,
		})
	}

	newCommitSHA := commitSHA(tree, parentSHA, author, committer, message)
	userRef := user.Ref()
	var parents []CommitRef
	if parentSHA != "" {
		parents = []CommitRef{{SHA: parentSHA}}
	}
	totalAdd := 0
	for _, c := range changes {
		totalAdd += c.Additions
	}
	newCommit := &Commit{
		SHA:          newCommitSHA,
		NodeID:       fmt.Sprintf("C_kwDOAAB%d_%s", len(s.commits)+1, newCommitSHA[:20]),
		RepositoryID: r.ID,
		Commit: CommitDetail{
			Author: author, Committer: committer, Message: message, Tree: TreeRef{SHA: tree},
		},
		Author:    &userRef,
		Committer: &userRef,
		Parents:   parents,
		Stats:     &CommitStats{Total: totalAdd, Additions: totalAdd, Deletions: 0},
		Files:     changes,
	}
	s.commits = append(s.commits, newCommit)

	// Store every file of the new tree, pulling carried-forward content from
	// the parent commit.
	for p, blob := range newTree {
		var content string
		var size int
		if d, ok := pushedFiles[p]; ok {
			content = d.content
			size = len([]byte(d.content))
		} else if parent, ok := s.files[fileKey(r.ID, parentSHA, p)]; ok {
			content = parent.Content
			if parent.Encoding == "base64" {
				if decoded, err := base64.StdEncoding.DecodeString(parent.Content); err == nil {
					content = string(decoded)
				}
			}
			size = len([]byte(content))
		}
		s.files[fileKey(r.ID, newCommitSHA, p)] = &FileContent{
			Type: "file", Encoding: "text", Size: size,
			Name: p[strings.LastIndex(p, "/")+1:], Path: p,
			Content: content, SHA: blob,
		}
	}
	s.extendRootListing(r.ID, parentSHA, newCommitSHA, newTree)

	// Fast-forward check after storing; roll back on a concurrent update.
	if b.Commit.SHA != parentSHA {
		kept := s.commits[:0]
		for _, c := range s.commits {
			if c != newCommit {
				kept = append(kept, c)
			}
		}
		s.commits = kept
		newPrefix := fileKey(r.ID, newCommitSHA, "")
		for key := range s.files {
			if strings.HasPrefix(key, newPrefix) {
				delete(s.files, key)
			}
		}
		delete(s.rootListings, newPrefix)
		return nil, simerr.Conflict("Branch has been updated since last fetch. Push cannot be fast-forwarded.")
	}
	b.Commit.SHA = newCommitSHA

	r.PushedAt = committer.Date
	s.touchRepository(r)
	for _, p := range order {
		d := pushedFiles[p]
		s.updateSearchIndex(r, owner, p, d.blob, true, user)
	}

	return &PushFilesResponse{
		CommitSHA: newCommitSHA,
		TreeSHA:   tree,
		Message:   fmt.Sprintf("Successfully pushed %d file(s) (with changes) to %s/%s.", len(changes), r.FullName, branch),
	}, nil
}

package github

// UserRef is the owner/author sub-document embedded in repositories and
// commits.
type UserRef struct {
	Login     string `json:"login"`
	ID        int    `json:"id"`
	NodeID    string `json:"node_id,omitempty"`
	Type      string `json:"type,omitempty"`
	SiteAdmin bool   `json:"site_admin"`
}

// User is an account in the Users table. The first user is the
// authenticated user that owns write operations.
type User struct {
	ID        int    `json:"id" yaml:"id"`
	Login     string `json:"login" yaml:"login"`
	NodeID    string `json:"node_id,omitempty" yaml:"nodeId"`
	Name      string `json:"name,omitempty" yaml:"name"`
	Email     string `json:"email,omitempty" yaml:"email"`
	Type      string `json:"type" yaml:"type"`
	SiteAdmin bool   `json:"site_admin" yaml:"siteAdmin"`
}

// Ref returns the embeddable sub-document for this user.
func (u *User) Ref() UserRef {
	return UserRef{Login: u.Login, ID: u.ID, NodeID: u.NodeID, Type: u.Type, SiteAdmin: u.SiteAdmin}
}

// ForkDetails records fork lineage on a forked repository.
type ForkDetails struct {
	ParentID       int    `json:"parent_id"`
	ParentFullName string `json:"parent_full_name"`
	SourceID       int    `json:"source_id"`
	SourceFullName string `json:"source_full_name"`
}

// Repository is a row in the Repositories table.
type Repository struct {
	ID              int          `json:"id"`
	NodeID          string       `json:"node_id"`
	Name            string       `json:"name"`
	FullName        string       `json:"full_name"`
	Private         bool         `json:"private"`
	Owner           UserRef      `json:"owner"`
	Description     string       `json:"description,omitempty"`
	Fork            bool         `json:"fork"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
	PushedAt        string       `json:"pushed_at"`
	Size            int          `json:"size"`
	StargazersCount int          `json:"stargazers_count"`
	WatchersCount   int          `json:"watchers_count"`
	ForksCount      int          `json:"forks_count"`
	OpenIssuesCount int          `json:"open_issues_count"`
	Language        string       `json:"language,omitempty"`
	Archived        bool         `json:"archived"`
	Disabled        bool         `json:"disabled"`
	AllowForking    bool         `json:"allow_forking"`
	IsTemplate      bool         `json:"is_template"`
	Topics          []string     `json:"topics"`
	Visibility      string       `json:"visibility"`
	DefaultBranch   string       `json:"default_branch,omitempty"`
	ForkDetails     *ForkDetails `json:"fork_details,omitempty"`
	Score           float64      `json:"score,omitempty"`
}

// CommitRef is a bare sha reference to a commit.
type CommitRef struct {
	SHA    string `json:"sha"`
	NodeID string `json:"node_id,omitempty"`
}

// Branch is a row in the Branches table.
type Branch struct {
	Name         string    `json:"name"`
	Commit       CommitRef `json:"commit"`
	Protected    bool      `json:"protected"`
	RepositoryID int       `json:"-"`
}

// Tag is a row in the Tags table.
type Tag struct {
	Name         string    `json:"name"`
	Commit       CommitRef `json:"commit"`
	RepositoryID int       `json:"-"`
}

// GitActor is the author/committer identity on a git commit.
type GitActor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// TreeRef references a commit's tree object.
type TreeRef struct {
	SHA string `json:"sha"`
}

// CommitDetail is the core git commit data nested under a Commit.
type CommitDetail struct {
	Author       GitActor `json:"author"`
	Committer    GitActor `json:"committer"`
	Message      string   `json:"message"`
	Tree         TreeRef  `json:"tree"`
	CommentCount int      `json:"comment_count"`
}

// CommitStats aggregates line changes across a commit's files.
type CommitStats struct {
	Total     int `json:"total"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// CommitFile is one changed file inside a commit.
type CommitFile struct {
	SHA       string `json:"sha"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// Commit is a row in the Commits table.
type Commit struct {
	SHA          string       `json:"sha"`
	NodeID       string       `json:"node_id"`
	RepositoryID int          `json:"-"`
	Commit       CommitDetail `json:"commit"`
	Author       *UserRef     `json:"author"`
	Committer    *UserRef     `json:"committer"`
	Parents      []CommitRef  `json:"parents"`
	Stats        *CommitStats `json:"stats,omitempty"`
	Files        []CommitFile `json:"files,omitempty"`
}

// FileContent is a stored file snapshot at one commit.
type FileContent struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

// DirEntry is one entry in a directory listing.
type DirEntry struct {
	Type string `json:"type"`
	Size int    `json:"size"`
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// ContentsResponse is the result of GetFileContents: either a single file or
// a directory listing.
type ContentsResponse struct {
	File    *FileContent `json:"file,omitempty"`
	Entries []DirEntry   `json:"entries,omitempty"`
}

// RepoSummary is the repository sub-document on code search results.
type RepoSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
		ID    int    `json:"id"`
	} `json:"owner"`
}

// CodeSearchResult is one row in the code search index, maintained on every
// file write.
type CodeSearchResult struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	SHA        string      `json:"sha"`
	Repository RepoSummary `json:"repository"`
	Score      float64     `json:"score"`
}

// RateLimit simulates the search API quota.
type RateLimit struct {
	SimulateExhaustion bool `json:"simulateExhaustion" yaml:"simulateExhaustion"`
	SearchRemaining    int  `json:"searchRemaining" yaml:"searchRemaining"`
	SearchLimit        int  `json:"searchLimit" yaml:"searchLimit"`
}

package model

// RepoRef identifies a repository by owner and name, parsed from its API URL.
type RepoRef struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// Repository is one entry of the "list my repos" response.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	URL           string `json:"url"` // API URL: https://api.github.com/repos/{owner}/{repo}
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

// Commit is the slice of a commit we need to build on top of it.
type Commit struct {
	SHA     string `json:"sha"`
	TreeSHA string `json:"tree_sha"`
	Message string `json:"message"`
}

// TreeEntry mirrors GitHub's tree-entry shape. Only SHA is ever rewritten.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Tree is a recursively flattened directory snapshot.
type Tree struct {
	SHA       string      `json:"sha"`
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// FileChange is one (path, new content) pair of a commit request.
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// CommitChangesRequest is everything RepoWriter needs for one commit.
type CommitChangesRequest struct {
	RepoURL string       `json:"repo_url"`
	Branch  string       `json:"branch"`
	Message string       `json:"message"`
	Files   []FileChange `json:"files"`
}

// CommitRequest is the transient body of the create-commit call.
type CommitRequest struct {
	Message   string
	TreeSHA   string
	ParentSHA string
}

// CommitResult reports what a successful write sequence produced.
type CommitResult struct {
	CommitSHA string   `json:"commit_sha"`
	TreeSHA   string   `json:"tree_sha"`
	ParentSHA string   `json:"parent_sha"`
	Updated   []string `json:"updated"`
	Skipped   []string `json:"skipped"`
}

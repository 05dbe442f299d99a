// Package github is the GitHub REST adapter. Every call takes the caller's
// bearer token and builds a fresh go-github client for it, so a decrypted
// token lives only as long as the operation that needed it.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
)

const (
	defaultAPIURL = "https://api.github.com/"

	reposPerPage = 100
	maxRepoPages = 10

	noContents = "could not determine contents"
)

// Client talks to the GitHub (or a mock-GitHub) REST API.
type Client struct {
	baseURL *url.URL
	logger  *slog.Logger
}

// New creates a Client rooted at apiURL. Pass "" for the public GitHub API.
func New(apiURL string, logger *slog.Logger) (*Client, error) {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("github: parsing API URL %q: %w", apiURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("github: API URL %q must be absolute", apiURL)
	}
	return &Client{baseURL: u, logger: logger}, nil
}

// client returns a go-github client that authenticates with token.
func (c *Client) client(ctx context.Context, token string) *gogithub.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := gogithub.NewClient(oauth2.NewClient(ctx, ts))
	base := *c.baseURL
	gh.BaseURL = &base
	return gh
}

// Profile fetches the authenticated user.
func (c *Client) Profile(ctx context.Context, token string) (*model.GitHubProfile, error) {
	u, resp, err := c.client(ctx, token).Users.Get(ctx, "")
	if err != nil {
		return nil, classify("GET /user", resp, err)
	}
	if u.GetLogin() == "" {
		return nil, apperror.Malformed("user has no login")
	}
	return &model.GitHubProfile{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		Email:     u.GetEmail(),
		AvatarURL: u.GetAvatarURL(),
	}, nil
}

// ListRepositories lists every repository the user can see (visibility=all),
// following pagination up to maxRepoPages pages.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]model.Repository, error) {
	gh := c.client(ctx, token)
	opts := &gogithub.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		ListOptions: gogithub.ListOptions{PerPage: reposPerPage},
	}

	repos := make([]model.Repository, 0)
	for page := 0; page < maxRepoPages; page++ {
		batch, resp, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, classify("GET /user/repos", resp, err)
		}
		for _, r := range batch {
			repos = append(repos, model.Repository{
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				URL:           r.GetURL(),
				DefaultBranch: r.GetDefaultBranch(),
				Private:       r.GetPrivate(),
			})
		}
		if resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}

	c.logger.Warn("repository listing truncated",
		slog.Int("pages", maxRepoPages),
		slog.Int("repos", len(repos)),
	)
	return repos, nil
}

// LatestCommit resolves branch to its head commit.
func (c *Client) LatestCommit(ctx context.Context, token string, ref model.RepoRef, branch string) (*model.Commit, error) {
	rc, resp, err := c.client(ctx, token).Repositories.GetCommit(ctx, ref.Owner, ref.Name, branch, nil)
	if err != nil {
		return nil, classify(fmt.Sprintf("GET /repos/%s/commits/%s", ref, branch), resp, err)
	}
	if rc.GetSHA() == "" {
		return nil, apperror.Malformed("commit has no sha")
	}
	tree := rc.GetCommit().GetTree()
	if tree.GetSHA() == "" {
		return nil, apperror.Malformed("commit has no tree")
	}
	return &model.Commit{
		SHA:     rc.GetSHA(),
		TreeSHA: tree.GetSHA(),
		Message: rc.GetCommit().GetMessage(),
	}, nil
}

// Tree fetches the recursive listing of treeSHA.
func (c *Client) Tree(ctx context.Context, token string, ref model.RepoRef, treeSHA string) (*model.Tree, error) {
	t, resp, err := c.client(ctx, token).Git.GetTree(ctx, ref.Owner, ref.Name, treeSHA, true)
	if err != nil {
		return nil, classify(fmt.Sprintf("GET /repos/%s/git/trees/%s", ref, treeSHA), resp, err)
	}
	if t.GetSHA() == "" {
		return nil, apperror.Malformed("tree has no sha")
	}

	out := &model.Tree{
		SHA:       t.GetSHA(),
		Entries:   make([]model.TreeEntry, 0, len(t.Entries)),
		Truncated: t.GetTruncated(),
	}
	for _, e := range t.Entries {
		out.Entries = append(out.Entries, model.TreeEntry{
			Path: e.GetPath(),
			Mode: e.GetMode(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
			URL:  e.GetURL(),
		})
	}
	return out, nil
}

// FileContents GETs a blob or contents URL and returns the decoded text.
//
// The URL must point at the configured API host; the bearer token is never
// sent anywhere else.
func (c *Client) FileContents(ctx context.Context, token, contentURL string) (string, error) {
	u, err := url.Parse(contentURL)
	if err != nil || u.Host != c.baseURL.Host || u.Scheme != c.baseURL.Scheme {
		return "", apperror.ValidationFailed("url", "content url must point at the GitHub API")
	}

	gh := c.client(ctx, token)
	req, err := gh.NewRequest("GET", u.String(), nil)
	if err != nil {
		return "", apperror.Transport("GET "+u.Path, err)
	}

	var raw json.RawMessage
	resp, err := gh.Do(ctx, req, &raw)
	if err != nil {
		return "", classify("GET "+u.Path, resp, err)
	}

	// The contents API answers a directory with an array of entries.
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
		return "", apperror.NotFoundMessage(noContents)
	}
	var blob gogithub.Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return "", apperror.Malformed("GET " + u.Path)
	}
	// Files over the API size limit come back with encoding "none".
	if blob.Content == nil || blob.GetEncoding() == "none" {
		return "", apperror.NotFoundMessage(noContents)
	}
	return decodeContent(blob.GetContent(), blob.GetEncoding())
}

// CreateBlob stores content as a UTF-8 blob and returns its sha.
func (c *Client) CreateBlob(ctx context.Context, token string, ref model.RepoRef, content string) (string, error) {
	b, resp, err := c.client(ctx, token).Git.CreateBlob(ctx, ref.Owner, ref.Name, gogithub.Blob{
		Content:  gogithub.Ptr(content),
		Encoding: gogithub.Ptr("utf-8"),
	})
	if err != nil {
		return "", classify(fmt.Sprintf("POST /repos/%s/git/blobs", ref), resp, err)
	}
	if b.GetSHA() == "" {
		return "", apperror.Malformed("blob has no sha")
	}
	return b.GetSHA(), nil
}

// CreateTree writes entries on top of baseTreeSHA and returns the new tree sha.
// Only path, mode, type and sha of each entry are sent.
func (c *Client) CreateTree(ctx context.Context, token string, ref model.RepoRef, baseTreeSHA string, entries []model.TreeEntry) (string, error) {
	ghEntries := make([]*gogithub.TreeEntry, 0, len(entries))
	for _, e := range entries {
		ghEntries = append(ghEntries, &gogithub.TreeEntry{
			Path: gogithub.Ptr(e.Path),
			Mode: gogithub.Ptr(e.Mode),
			Type: gogithub.Ptr(e.Type),
			SHA:  gogithub.Ptr(e.SHA),
		})
	}

	t, resp, err := c.client(ctx, token).Git.CreateTree(ctx, ref.Owner, ref.Name, baseTreeSHA, ghEntries)
	if err != nil {
		return "", classify(fmt.Sprintf("POST /repos/%s/git/trees", ref), resp, err)
	}
	if t.GetSHA() == "" {
		return "", apperror.Malformed("tree has no sha")
	}
	return t.GetSHA(), nil
}

// CreateCommit creates a commit object and returns its sha.
func (c *Client) CreateCommit(ctx context.Context, token string, ref model.RepoRef, req model.CommitRequest) (string, error) {
	commit, resp, err := c.client(ctx, token).Git.CreateCommit(ctx, ref.Owner, ref.Name, gogithub.Commit{
		Message: gogithub.Ptr(req.Message),
		Tree:    &gogithub.Tree{SHA: gogithub.Ptr(req.TreeSHA)},
		Parents: []*gogithub.Commit{{SHA: gogithub.Ptr(req.ParentSHA)}},
	}, nil)
	if err != nil {
		return "", classify(fmt.Sprintf("POST /repos/%s/git/commits", ref), resp, err)
	}
	if commit.GetSHA() == "" {
		return "", apperror.Malformed("commit has no sha")
	}
	return commit.GetSHA(), nil
}

// UpdateRef moves heads/{branch} to commitSHA.
func (c *Client) UpdateRef(ctx context.Context, token string, ref model.RepoRef, branch, commitSHA string) error {
	_, resp, err := c.client(ctx, token).Git.UpdateRef(ctx, ref.Owner, ref.Name, "heads/"+branch, gogithub.UpdateRef{
		SHA: commitSHA,
	})
	if err != nil {
		return classify(fmt.Sprintf("PATCH /repos/%s/git/refs/heads/%s", ref, branch), resp, err)
	}
	return nil
}

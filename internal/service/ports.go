package service

import (
	"context"

	"github.com/sakif/repoedit/internal/model"
)

// GitHost is the slice of the GitHub REST API the services use.
// *github.Client satisfies it; tests use an in-memory fake.
//
// Every method takes the bearer token explicitly. Implementations must not
// keep it past the call.
type GitHost interface {
	Profile(ctx context.Context, token string) (*model.GitHubProfile, error)
	ListRepositories(ctx context.Context, token string) ([]model.Repository, error)
	LatestCommit(ctx context.Context, token string, ref model.RepoRef, branch string) (*model.Commit, error)
	Tree(ctx context.Context, token string, ref model.RepoRef, treeSHA string) (*model.Tree, error)
	FileContents(ctx context.Context, token, contentURL string) (string, error)
	CreateBlob(ctx context.Context, token string, ref model.RepoRef, content string) (string, error)
	CreateTree(ctx context.Context, token string, ref model.RepoRef, baseTreeSHA string, entries []model.TreeEntry) (string, error)
	CreateCommit(ctx context.Context, token string, ref model.RepoRef, req model.CommitRequest) (string, error)
	UpdateRef(ctx context.Context, token string, ref model.RepoRef, branch, commitSHA string) error
}

// CodeExchanger trades an OAuth authorization code for an access token.
// *auth.GitHubProvider satisfies it.
type CodeExchanger interface {
	Exchange(ctx context.Context, code, state string) (string, error)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/github"
	"github.com/sakif/repoedit/internal/model"
)

// RepoReader serves the read-only GitHub views of a session: repositories,
// head commits, trees and file contents.
//
// Each method decrypts the session's token once and drops it on return.
type RepoReader struct {
	tokens *TokenVault
	host   GitHost
	logger *slog.Logger
}

// NewRepoReader creates a RepoReader.
func NewRepoReader(tokens *TokenVault, host GitHost, logger *slog.Logger) *RepoReader {
	return &RepoReader{tokens: tokens, host: host, logger: logger}
}

// ListRepositories lists every repository the session's GitHub user can see.
func (r *RepoReader) ListRepositories(ctx context.Context, sessionID string) ([]model.Repository, error) {
	token, err := r.tokens.DecryptTokenFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	repos, err := r.host.ListRepositories(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("service/repo: listing repositories: %w", err)
	}
	return repos, nil
}

// LatestCommit resolves branch of the repository at repoURL to its head commit.
func (r *RepoReader) LatestCommit(ctx context.Context, sessionID, repoURL, branch string) (*model.Commit, error) {
	ref, err := parseTarget(repoURL, branch)
	if err != nil {
		return nil, err
	}
	token, err := r.tokens.DecryptTokenFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	commit, err := r.host.LatestCommit(ctx, token, ref, branch)
	if err != nil {
		return nil, fmt.Errorf("service/repo: latest commit of %s@%s: %w", ref, branch, err)
	}
	return commit, nil
}

// Tree returns the recursive file listing at the head of branch.
func (r *RepoReader) Tree(ctx context.Context, sessionID, repoURL, branch string) (*model.Tree, error) {
	ref, err := parseTarget(repoURL, branch)
	if err != nil {
		return nil, err
	}
	token, err := r.tokens.DecryptTokenFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	commit, err := r.host.LatestCommit(ctx, token, ref, branch)
	if err != nil {
		return nil, fmt.Errorf("service/repo: latest commit of %s@%s: %w", ref, branch, err)
	}
	tree, err := r.host.Tree(ctx, token, ref, commit.TreeSHA)
	if err != nil {
		return nil, fmt.Errorf("service/repo: tree of %s@%s: %w", ref, branch, err)
	}
	if tree.Truncated {
		r.logger.Warn("tree listing truncated by GitHub",
			slog.String("repo", ref.String()),
			slog.Int("entries", len(tree.Entries)),
		)
	}
	return tree, nil
}

// FileContents fetches and decodes the blob or contents resource at contentURL.
func (r *RepoReader) FileContents(ctx context.Context, sessionID, contentURL string) (string, error) {
	if strings.TrimSpace(contentURL) == "" {
		return "", apperror.ValidationFailed("url", "url is required")
	}
	token, err := r.tokens.DecryptTokenFor(ctx, sessionID)
	if err != nil {
		return "", err
	}
	contents, err := r.host.FileContents(ctx, token, contentURL)
	if err != nil {
		return "", fmt.Errorf("service/repo: file contents: %w", err)
	}
	return contents, nil
}

// parseTarget validates the (repo URL, branch) pair shared by tree reads and writes.
func parseTarget(repoURL, branch string) (model.RepoRef, error) {
	if strings.TrimSpace(branch) == "" {
		return model.RepoRef{}, apperror.ValidationFailed("branch", "branch is required")
	}
	return github.ParseRepoURL(repoURL)
}

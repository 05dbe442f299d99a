package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
)

// RepoWriter commits edited files back to a branch through the Git Data API.
type RepoWriter struct {
	tokens *TokenVault
	host   GitHost
	logger *slog.Logger
}

// NewRepoWriter creates a RepoWriter.
func NewRepoWriter(tokens *TokenVault, host GitHost, logger *slog.Logger) *RepoWriter {
	return &RepoWriter{tokens: tokens, host: host, logger: logger}
}

// CommitChanges replaces the contents of existing files on a branch with one
// new commit.
//
// THE WRITE CHAIN (sequential, each step needs the previous one's sha):
//
//  1. head commit of the branch  → parent sha + base tree sha
//  2. recursive base tree        → which paths exist
//  3. one blob per changed file  → new blob shas
//  4. new tree on top of base    → new tree sha
//  5. commit {tree, parents}     → new commit sha
//  6. PATCH heads/{branch}       → branch now points at the commit
//
// Only paths already present in the base tree are rewritten. A change for an
// unknown path is skipped and listed in CommitResult.Skipped; no file is
// ever created or deleted. When a path is listed more than once, the last
// content wins and the path keeps its first position.
//
// The chain is not atomic. If step 4 fails, blobs from step 3 are left
// unreferenced on GitHub; if step 6 fails, the commit exists but the branch
// does not move. Nothing is rolled back.
func (w *RepoWriter) CommitChanges(ctx context.Context, sessionID string, req model.CommitChangesRequest) (*model.CommitResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.ValidationFailed("message", "commit message is required")
	}
	ref, err := parseTarget(req.RepoURL, req.Branch)
	if err != nil {
		return nil, err
	}

	token, err := w.tokens.DecryptTokenFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	head, err := w.host.LatestCommit(ctx, token, ref, req.Branch)
	if err != nil {
		return nil, fmt.Errorf("service/writer: latest commit: %w", err)
	}
	base, err := w.host.Tree(ctx, token, ref, head.TreeSHA)
	if err != nil {
		return nil, fmt.Errorf("service/writer: base tree: %w", err)
	}

	result := &model.CommitResult{
		ParentSHA: head.SHA,
		Updated:   []string{},
		Skipped:   []string{},
	}

	var changed []model.TreeEntry
	for _, file := range latestChanges(req.Files) {
		matched := false
		for _, entry := range base.Entries {
			if entry.Path != file.Path {
				continue
			}
			matched = true
			blobSHA, err := w.host.CreateBlob(ctx, token, ref, file.Content)
			if err != nil {
				return nil, fmt.Errorf("service/writer: blob for %s: %w", file.Path, err)
			}
			entry.SHA = blobSHA
			changed = append(changed, entry)
			result.Updated = append(result.Updated, file.Path)
		}
		if !matched {
			result.Skipped = append(result.Skipped, file.Path)
		}
	}

	if len(changed) == 0 {
		w.logger.Warn("commit has no matching paths; writing an unchanged tree",
			slog.String("repo", ref.String()),
			slog.Int("files", len(req.Files)),
		)
	}

	treeSHA, err := w.host.CreateTree(ctx, token, ref, base.SHA, changed)
	if err != nil {
		return nil, fmt.Errorf("service/writer: create tree: %w", err)
	}
	result.TreeSHA = treeSHA

	commitSHA, err := w.host.CreateCommit(ctx, token, ref, model.CommitRequest{
		Message:   req.Message,
		TreeSHA:   treeSHA,
		ParentSHA: head.SHA,
	})
	if err != nil {
		return nil, fmt.Errorf("service/writer: create commit: %w", err)
	}
	result.CommitSHA = commitSHA

	if err := w.host.UpdateRef(ctx, token, ref, req.Branch, commitSHA); err != nil {
		return nil, fmt.Errorf("service/writer: update heads/%s: %w", req.Branch, err)
	}

	w.logger.Info("changes committed",
		slog.String("repo", ref.String()),
		slog.String("branch", req.Branch),
		slog.String("commit", commitSHA),
		slog.Int("updated", len(result.Updated)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// latestChanges collapses repeated paths into one change carrying the last
// content given for that path.
func latestChanges(files []model.FileChange) []model.FileChange {
	out := make([]model.FileChange, 0, len(files))
	index := make(map[string]int, len(files))
	for _, f := range files {
		if i, ok := index[f.Path]; ok {
			out[i].Content = f.Content
			continue
		}
		index[f.Path] = len(out)
		out = append(out, f)
	}
	return out
}

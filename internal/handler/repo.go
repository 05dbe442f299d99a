package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/repoedit/internal/auth"
	"github.com/sakif/repoedit/internal/model"
)

// maxCommitBody caps the JSON body of a commit request.
const maxCommitBody = 10 << 20

// RepoBrowser is the slice of *service.RepoReader the repo routes use.
type RepoBrowser interface {
	ListRepositories(ctx context.Context, sessionID string) ([]model.Repository, error)
	Tree(ctx context.Context, sessionID, repoURL, branch string) (*model.Tree, error)
	FileContents(ctx context.Context, sessionID, contentURL string) (string, error)
}

// RepoCommitter is the slice of *service.RepoWriter the repo routes use.
type RepoCommitter interface {
	CommitChanges(ctx context.Context, sessionID string, req model.CommitChangesRequest) (*model.CommitResult, error)
}

// RepoHandler serves the repository browse and edit endpoints.
// Every route sits behind RequireAuth.
type RepoHandler struct {
	reader RepoBrowser
	writer RepoCommitter
	logger *slog.Logger
}

// NewRepoHandler creates a RepoHandler.
func NewRepoHandler(reader RepoBrowser, writer RepoCommitter, logger *slog.Logger) *RepoHandler {
	return &RepoHandler{reader: reader, writer: writer, logger: logger}
}

type reposResponse struct {
	Repos []model.Repository `json:"repos"`
	Error *string            `json:"error"`
}

type treeResponse struct {
	Tree      []model.TreeEntry `json:"tree"`
	SHA       string            `json:"sha"`
	Truncated bool              `json:"truncated"`
	Error     *string           `json:"error"`
}

type contentsResponse struct {
	Contents string  `json:"contents"`
	Error    *string `json:"error"`
}

type commitResponse struct {
	Success bool `json:"success"`
	*model.CommitResult
	Error *string `json:"error"`
}

// HandleListRepos lists the session's repositories.
//
// HTTP: GET /api/repos
func (h *RepoHandler) HandleListRepos(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())

	repos, err := h.reader.ListRepositories(r.Context(), sessionID)
	if err != nil {
		logFailure(h.logger, r, "list repositories failed", err)
		writeEnvelopeError(w, err, "repos")
		return
	}
	writeJSON(w, http.StatusOK, reposResponse{Repos: repos})
}

// HandleTree returns the recursive tree at the head of a branch.
//
// HTTP: GET /api/repos/tree?repo_url=https://api.github.com/repos/o/r&branch=main
func (h *RepoHandler) HandleTree(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	q := r.URL.Query()

	tree, err := h.reader.Tree(r.Context(), sessionID, q.Get("repo_url"), q.Get("branch"))
	if err != nil {
		logFailure(h.logger, r, "tree lookup failed", err)
		writeEnvelopeError(w, err, "tree")
		return
	}
	writeJSON(w, http.StatusOK, treeResponse{Tree: tree.Entries, SHA: tree.SHA, Truncated: tree.Truncated})
}

// HandleFile returns the decoded text of a blob.
//
// HTTP: GET /api/repos/file?url=<blob or contents API url>
func (h *RepoHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())

	contents, err := h.reader.FileContents(r.Context(), sessionID, r.URL.Query().Get("url"))
	if err != nil {
		logFailure(h.logger, r, "file contents failed", err)
		writeEnvelopeError(w, err, "contents")
		return
	}
	writeJSON(w, http.StatusOK, contentsResponse{Contents: contents})
}

// HandleCommit commits edited files to a branch.
//
// HTTP: POST /api/repos/commit
//
//	{"repo_url": "...", "branch": "main", "message": "...",
//	 "files": [{"path": "a.txt", "content": "..."}]}
//
// Paths that don't exist on the branch are skipped and listed in "skipped".
func (h *RepoHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())

	var req model.CommitChangesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommitBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("invalid commit JSON", slog.String("error", err.Error()))
		msg := "invalid JSON body"
		writeJSON(w, http.StatusBadRequest, commitResponse{Error: &msg})
		return
	}

	result, err := h.writer.CommitChanges(r.Context(), sessionID, req)
	if err != nil {
		logFailure(h.logger, r, "commit failed", err)
		status, _, message := classifyError(err)
		writeJSON(w, status, commitResponse{Error: &message})
		return
	}
	writeJSON(w, http.StatusOK, commitResponse{Success: true, CommitResult: result})
}

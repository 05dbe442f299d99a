package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/auth"
	"github.com/sakif/repoedit/internal/logging"
	"github.com/sakif/repoedit/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

const testKey = "0123456789abcdef0123456789abcdef-test-key"

// fakeAccounts is an in-memory repository.AccountRepository.
type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]model.Account

	// createConflicts makes the next N Create calls fail with ErrConflict,
	// simulating a concurrent insert of the same id.
	createConflicts int
	getErr          error
	countErr        error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]model.Account)}
}

func (f *fakeAccounts) Create(ctx context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createConflicts > 0 {
		f.createConflicts--
		return apperror.Conflict("account", a.UserID)
	}
	if _, ok := f.accounts[a.UserID]; ok {
		return apperror.Conflict("account", a.UserID)
	}
	a.CreatedAt = time.Now().UTC()
	f.accounts[a.UserID] = *a
	return nil
}

func (f *fakeAccounts) GetByUserID(ctx context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	return &a, nil
}

func (f *fakeAccounts) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[id]
	return ok, nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, id)
	return nil
}

func (f *fakeAccounts) CountByGitHubID(ctx context.Context, githubID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, a := range f.accounts {
		if a.GitHubID == githubID {
			n++
		}
	}
	return n, nil
}

// fakeExchanger is a CodeExchanger returning a fixed token or error.
type fakeExchanger struct {
	token string
	err   error

	gotCode, gotState string
}

func (f *fakeExchanger) Exchange(ctx context.Context, code, state string) (string, error) {
	f.gotCode, f.gotState = code, state
	return f.token, f.err
}

// fakeHost is an in-memory GitHost. It records every call by method name and
// fails a method when errs has an entry for it.
type fakeHost struct {
	mu sync.Mutex

	profile  *model.GitHubProfile
	repos    []model.Repository
	commit   *model.Commit
	tree     *model.Tree
	contents map[string]string
	errs     map[string]error

	calls       []string
	tokens      []string
	blobs       []string
	baseTree    string
	treeEntries []model.TreeEntry
	commitReq   model.CommitRequest
	refBranch   string
	refSHA      string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		profile: &model.GitHubProfile{ID: 42, Login: "octocat", Name: "The Octocat", AvatarURL: "https://avatars.example/octo.png"},
		commit:  &model.Commit{SHA: "c1", TreeSHA: "t1"},
		tree: &model.Tree{SHA: "t1", Entries: []model.TreeEntry{
			{Path: "a.txt", Mode: "100644", Type: "blob", SHA: "old-a"},
			{Path: "dir", Mode: "040000", Type: "tree", SHA: "d1"},
			{Path: "dir/c.txt", Mode: "100644", Type: "blob", SHA: "old-c"},
		}},
		contents: make(map[string]string),
		errs:     make(map[string]error),
	}
}

func (f *fakeHost) record(method, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	f.tokens = append(f.tokens, token)
	return f.errs[method]
}

func (f *fakeHost) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeHost) Profile(ctx context.Context, token string) (*model.GitHubProfile, error) {
	if err := f.record("Profile", token); err != nil {
		return nil, err
	}
	p := *f.profile
	return &p, nil
}

func (f *fakeHost) ListRepositories(ctx context.Context, token string) ([]model.Repository, error) {
	if err := f.record("ListRepositories", token); err != nil {
		return nil, err
	}
	return f.repos, nil
}

func (f *fakeHost) LatestCommit(ctx context.Context, token string, ref model.RepoRef, branch string) (*model.Commit, error) {
	if err := f.record("LatestCommit", token); err != nil {
		return nil, err
	}
	c := *f.commit
	return &c, nil
}

func (f *fakeHost) Tree(ctx context.Context, token string, ref model.RepoRef, treeSHA string) (*model.Tree, error) {
	if err := f.record("Tree", token); err != nil {
		return nil, err
	}
	t := *f.tree
	t.Entries = append([]model.TreeEntry(nil), f.tree.Entries...)
	return &t, nil
}

func (f *fakeHost) FileContents(ctx context.Context, token, contentURL string) (string, error) {
	if err := f.record("FileContents", token); err != nil {
		return "", err
	}
	c, ok := f.contents[contentURL]
	if !ok {
		return "", apperror.NotFoundMessage("could not determine contents")
	}
	return c, nil
}

func (f *fakeHost) CreateBlob(ctx context.Context, token string, ref model.RepoRef, content string) (string, error) {
	if err := f.record("CreateBlob", token); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs = append(f.blobs, content)
	return fmt.Sprintf("blob-%d", len(f.blobs)), nil
}

func (f *fakeHost) CreateTree(ctx context.Context, token string, ref model.RepoRef, baseTreeSHA string, entries []model.TreeEntry) (string, error) {
	if err := f.record("CreateTree", token); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseTree = baseTreeSHA
	f.treeEntries = entries
	return "t2", nil
}

func (f *fakeHost) CreateCommit(ctx context.Context, token string, ref model.RepoRef, req model.CommitRequest) (string, error) {
	if err := f.record("CreateCommit", token); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitReq = req
	return "c2", nil
}

func (f *fakeHost) UpdateRef(ctx context.Context, token string, ref model.RepoRef, branch, commitSHA string) error {
	if err := f.record("UpdateRef", token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refBranch, f.refSHA = branch, commitSHA
	return nil
}

func newTestVault(t *testing.T) *auth.Vault {
	t.Helper()
	v, err := auth.NewVault(testKey)
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	return v
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// seedSession stores an account whose encrypted token is accessToken and
// returns its session id.
func seedSession(t *testing.T, accounts *fakeAccounts, vault *auth.Vault, accessToken string) string {
	t.Helper()
	sealed, err := vault.Encrypt([]byte(accessToken))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	id, err := generateUserID()
	if err != nil {
		t.Fatalf("generateUserID: %v", err)
	}
	if err := accounts.Create(context.Background(), &model.Account{
		UserID: id, GitHubID: 42, Login: "octocat", EncryptedAccessToken: sealed,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return id
}

var testLogger = logging.Discard()

package sqlite

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// t.Helper() makes failures point at the caller's line, and t.Cleanup closes
// the DB when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestAccount creates an account and fails the test if it errors.
func createTestAccount(t *testing.T, db *DB, userID string, githubID int64, login string) *model.Account {
	t.Helper()
	account := &model.Account{
		UserID:               userID,
		GitHubID:             githubID,
		Login:                login,
		DisplayName:          "Test " + login,
		Email:                login + "@example.com",
		AvatarURL:            "https://avatars.githubusercontent.com/u/123",
		EncryptedAccessToken: []byte{0x01, 0x02, 0x03, 0xff},
	}
	if err := db.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestAccountCreate(t *testing.T) {
	db := newTestDB(t)

	account := &model.Account{
		UserID:               "0123456789abcdef0123456789abcdef",
		GitHubID:             12345,
		Login:                "testuser",
		EncryptedAccessToken: []byte("sealed"),
	}

	if err := db.Create(context.Background(), account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Create fills CreatedAt in-place (pointer receiver)
	if account.CreatedAt.IsZero() {
		t.Error("Create() did not set account.CreatedAt")
	}
}

func TestAccountCreate_DuplicateUserIDIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "same-id", 1, "first")

	duplicate := &model.Account{
		UserID:               "same-id",
		GitHubID:             2,
		Login:                "second",
		EncryptedAccessToken: []byte("x"),
	}
	err := db.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should have returned an error for duplicate user_id")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestAccountCreate_SameGitHubIDTwiceIsAllowed(t *testing.T) {
	db := newTestDB(t)

	// Two logins of the same GitHub account produce two rows.
	createTestAccount(t, db, "session-one", 4242, "octocat")
	createTestAccount(t, db, "session-two", 4242, "octocat")

	n, err := db.CountByGitHubID(context.Background(), 4242)
	if err != nil {
		t.Fatalf("CountByGitHubID() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountByGitHubID() = %d, want 2", n)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestAccountGetByUserID(t *testing.T) {
	db := newTestDB(t)
	created := createTestAccount(t, db, "lookup-id", 111, "lookup_user")

	found, err := db.GetByUserID(context.Background(), "lookup-id")
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}

	if found.Login != "lookup_user" {
		t.Errorf("Login = %q, want %q", found.Login, "lookup_user")
	}
	if found.GitHubID != 111 {
		t.Errorf("GitHubID = %d, want %d", found.GitHubID, 111)
	}
	if found.DisplayName != created.DisplayName {
		t.Errorf("DisplayName = %q, want %q", found.DisplayName, created.DisplayName)
	}
	// The sealed token is opaque bytes: it must come back byte-for-byte.
	if !bytes.Equal(found.EncryptedAccessToken, created.EncryptedAccessToken) {
		t.Errorf("EncryptedAccessToken = %x, want %x", found.EncryptedAccessToken, created.EncryptedAccessToken)
	}
}

func TestAccountGetByUserID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByUserID(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("GetByUserID() should have returned an error for nonexistent id")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUserID() error = %v, want ErrNotFound", err)
	}
}

func TestAccountExists(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "present", 1, "someone")

	tests := []struct {
		id   string
		want bool
	}{
		{"present", true},
		{"absent", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := db.Exists(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestAccountDelete(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "doomed", 1, "bye")

	if err := db.Delete(context.Background(), "doomed"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.GetByUserID(context.Background(), "doomed")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUserID() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestAccountDelete_UnknownIsNoop(t *testing.T) {
	db := newTestDB(t)

	// Logout of an already-deleted session must not fail.
	if err := db.Delete(context.Background(), "never-existed"); err != nil {
		t.Fatalf("Delete() of unknown id error = %v, want nil", err)
	}
	if err := db.Delete(context.Background(), "never-existed"); err != nil {
		t.Fatalf("second Delete() error = %v, want nil", err)
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
	"github.com/sakif/repoedit/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

// Create inserts a new account row.
//
// The caller picks the UserID. If that id is already taken, the PRIMARY KEY
// constraint fails and Create returns apperror.Conflict so the caller can draw
// a new id and try again.
func (db *DB) Create(ctx context.Context, account *model.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (user_id, github_id, login, display_name, email, avatar_url, encrypted_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.UserID,
		account.GitHubID,
		account.Login,
		account.DisplayName,
		account.Email,
		account.AvatarURL,
		account.EncryptedAccessToken,
		account.CreatedAt,
	)
	if err != nil {
		if isConstraintError(err) {
			return apperror.Conflict("account", account.UserID)
		}
		return fmt.Errorf("sqlite: inserting account (githubID=%d): %w", account.GitHubID, err)
	}

	return nil
}

// GetByUserID retrieves an account by its session id.
// Returns apperror.ErrNotFound if no account exists with that id.
func (db *DB) GetByUserID(ctx context.Context, userID string) (*model.Account, error) {
	var a model.Account

	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, github_id, login, display_name, email, avatar_url, encrypted_token, created_at
		 FROM accounts WHERE user_id = ?`,
		userID,
	).Scan(
		&a.UserID,
		&a.GitHubID,
		&a.Login,
		&a.DisplayName,
		&a.Email,
		&a.AvatarURL,
		&a.EncryptedAccessToken,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", userID)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", userID, err)
	}

	return &a, nil
}

// Exists reports whether an account with this id is stored.
func (db *DB) Exists(ctx context.Context, userID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking account %s: %w", userID, err)
	}
	return n > 0, nil
}

// Delete removes the account if present. Deleting an unknown id is a no-op.
func (db *DB) Delete(ctx context.Context, userID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: deleting account %s: %w", userID, err)
	}
	return nil
}

// CountByGitHubID returns how many live accounts belong to one GitHub user.
func (db *DB) CountByGitHubID(ctx context.Context, githubID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE github_id = ?`, githubID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting accounts for githubID=%d: %w", githubID, err)
	}
	return n, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

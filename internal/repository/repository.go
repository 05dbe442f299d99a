// Package repository declares the storage ports used by the service layer.
package repository

import (
	"context"

	"github.com/sakif/repoedit/internal/model"
)

// AccountRepository stores one Account per session.
//
// Implementations must enforce UserID uniqueness themselves: Create returns
// an error wrapping apperror.ErrConflict when the UserID is already taken.
// GetByUserID returns apperror.ErrNotFound for an unknown id. Delete of an
// unknown id is not an error. CountByGitHubID reports how many live
// sessions one GitHub user has; every login adds one.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByUserID(ctx context.Context, userID string) (*model.Account, error)
	Exists(ctx context.Context, userID string) (bool, error)
	Delete(ctx context.Context, userID string) error
	CountByGitHubID(ctx context.Context, githubID int64) (int, error)
}

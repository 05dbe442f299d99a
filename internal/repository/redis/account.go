// Package redis implements repository.AccountRepository on Redis.
//
// Each account is a hash at account:{user_id}. A set at
// github:{github_id}:accounts indexes the session ids belonging to one GitHub
// user, which is what CountByGitHubID reads.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
	"github.com/sakif/repoedit/internal/repository"
)

const (
	accountKeyPrefix = "account:"
	githubKeyPrefix  = "github:"
)

const (
	fieldUserID      = "user_id"
	fieldGitHubID    = "github_id"
	fieldLogin       = "login"
	fieldDisplayName = "display_name"
	fieldEmail       = "email"
	fieldAvatarURL   = "avatar_url"
	fieldToken       = "encrypted_token"
	fieldCreatedAt   = "created_at"
)

// Compile-time check: *AccountStore implements repository.AccountRepository.
var _ repository.AccountRepository = (*AccountStore)(nil)

// AccountStore implements AccountRepository using go-redis directly.
type AccountStore struct {
	rdb *redis.Client
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(rdb *redis.Client) *AccountStore {
	return &AccountStore{rdb: rdb}
}

func accountKey(userID string) string { return accountKeyPrefix + userID }

func githubKey(githubID int64) string {
	return githubKeyPrefix + strconv.FormatInt(githubID, 10) + ":accounts"
}

// Create claims account:{user_id} with HSETNX, so a taken id fails at the
// store, then writes the remaining fields and the github index.
func (s *AccountStore) Create(ctx context.Context, a *model.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	key := accountKey(a.UserID)

	claimed, err := s.rdb.HSetNX(ctx, key, fieldUserID, a.UserID).Result()
	if err != nil {
		return fmt.Errorf("redis: claiming account %s: %w", a.UserID, err)
	}
	if !claimed {
		return apperror.Conflict("account", a.UserID)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldGitHubID, strconv.FormatInt(a.GitHubID, 10),
			fieldLogin, a.Login,
			fieldDisplayName, a.DisplayName,
			fieldEmail, a.Email,
			fieldAvatarURL, a.AvatarURL,
			fieldToken, a.EncryptedAccessToken,
			fieldCreatedAt, a.CreatedAt.Format(time.RFC3339Nano),
		)
		pipe.SAdd(ctx, githubKey(a.GitHubID), a.UserID)
		return nil
	})
	if err != nil {
		// Release the claim so the id isn't left half-written.
		_ = s.rdb.Del(ctx, key).Err()
		return fmt.Errorf("redis: writing account %s: %w", a.UserID, err)
	}
	return nil
}

// GetByUserID loads account:{user_id}.
func (s *AccountStore) GetByUserID(ctx context.Context, userID string) (*model.Account, error) {
	fields, err := s.rdb.HGetAll(ctx, accountKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: getting account %s: %w", userID, err)
	}
	// A half-written claim (no token yet) is treated as absent.
	if len(fields) == 0 || fields[fieldToken] == "" {
		return nil, apperror.NotFound("account", userID)
	}

	githubID, err := strconv.ParseInt(fields[fieldGitHubID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: account %s has bad github_id %q: %w", userID, fields[fieldGitHubID], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("redis: account %s has bad created_at: %w", userID, err)
	}

	return &model.Account{
		UserID:               userID,
		GitHubID:             githubID,
		Login:                fields[fieldLogin],
		DisplayName:          fields[fieldDisplayName],
		Email:                fields[fieldEmail],
		AvatarURL:            fields[fieldAvatarURL],
		EncryptedAccessToken: []byte(fields[fieldToken]),
		CreatedAt:            createdAt,
	}, nil
}

// Exists reports whether account:{user_id} is present, including a claim in
// flight, so id generation never reuses one.
func (s *AccountStore) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, accountKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: checking account %s: %w", userID, err)
	}
	return n > 0, nil
}

// Delete removes the account and its github index entry. Unknown ids are a no-op.
func (s *AccountStore) Delete(ctx context.Context, userID string) error {
	key := accountKey(userID)
	raw, err := s.rdb.HGet(ctx, key, fieldGitHubID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis: reading account %s: %w", userID, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if githubID, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			pipe.SRem(ctx, githubKey(githubID), userID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: deleting account %s: %w", userID, err)
	}
	return nil
}

// CountByGitHubID returns how many live accounts belong to one GitHub user.
func (s *AccountStore) CountByGitHubID(ctx context.Context, githubID int64) (int, error) {
	n, err := s.rdb.SCard(ctx, githubKey(githubID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: counting accounts for githubID=%d: %w", githubID, err)
	}
	return int(n), nil
}

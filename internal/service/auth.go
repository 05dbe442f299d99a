// Package service holds the business logic of a repo-editing session.
//
//	AuthHandler (HTTP) → AuthService  → AccountRepository (sqlite / redis)
//	                                  ↘ GitHost (GitHub REST), Vault, TokenService
//	RepoHandler (HTTP) → RepoReader / RepoWriter → TokenVault → AccountRepository
//	                                             ↘ GitHost
//
// KEY RESPONSIBILITIES:
//   - Turn an OAuth callback into a new account + signed session
//   - Keep the GitHub token encrypted at rest, decrypted once per operation
//   - Run the blob → tree → commit → ref chain for edits
//
// Nothing here knows about HTTP, cookies or chi.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/auth"
	"github.com/sakif/repoedit/internal/model"
	"github.com/sakif/repoedit/internal/repository"
)

// maxIDAttempts bounds the collision-retry loop when allocating a user id.
const maxIDAttempts = 5

// AuthService is the Authenticator: OAuth callback, profile and logout.
//
// DEPENDENCIES (injected via NewAuthService):
//   - accounts  repository.AccountRepository → account rows keyed by session id
//   - oauth     CodeExchanger                → code + state → access token
//   - host      GitHost                      → GET /user
//   - vault     *auth.Vault                  → token encryption at rest
//   - tokens    *auth.TokenService           → signed session cookie
//   - logger    *slog.Logger                 → structured logging
type AuthService struct {
	accounts repository.AccountRepository
	oauth    CodeExchanger
	host     GitHost
	vault    *auth.Vault
	tokens   *auth.TokenService
	logger   *slog.Logger

	// newID generates candidate user ids. Swapped in tests to force collisions.
	newID func() (string, error)
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	accounts repository.AccountRepository,
	oauth CodeExchanger,
	host GitHost,
	vault *auth.Vault,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		oauth:    oauth,
		host:     host,
		vault:    vault,
		tokens:   tokens,
		logger:   logger,
		newID:    generateUserID,
	}
}

// AuthResult bundles the new account and the signed session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	Account *model.Account
	Token   string
}

// Authenticate completes the OAuth callback: exchange code+state for an
// access token, then register a new account for it.
func (s *AuthService) Authenticate(ctx context.Context, code, state string) (*AuthResult, error) {
	accessToken, err := s.oauth.Exchange(ctx, code, state)
	if err != nil {
		return nil, fmt.Errorf("service/auth: exchanging code: %w", err)
	}
	return s.RegisterOrLogin(ctx, accessToken)
}

// RegisterOrLogin creates a NEW account for accessToken and returns a session for it.
//
// There is no lookup by GitHub id: logging in twice with the same GitHub
// account yields two accounts and two independent sessions. Logging out of
// one leaves the other intact.
//
//  1. GET /user with the token (login, name, email, avatar)
//  2. Pick an unused 32-hex user id (retry on collision)
//  3. Encrypt the token and insert the account
//  4. Sign the user id into a session token
func (s *AuthService) RegisterOrLogin(ctx context.Context, accessToken string) (*AuthResult, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, apperror.AuthFailed("empty access token")
	}

	profile, err := s.host.Profile(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching GitHub profile: %w", err)
	}

	sealed, err := s.vault.Encrypt([]byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("service/auth: encrypting access token: %w", err)
	}

	account := &model.Account{
		GitHubID:             profile.ID,
		Login:                profile.Login,
		DisplayName:          profile.Name,
		Email:                profile.Email,
		AvatarURL:            profile.AvatarURL,
		EncryptedAccessToken: sealed,
	}
	if err := s.createWithFreshID(ctx, account); err != nil {
		return nil, err
	}

	sessions, err := s.accounts.CountByGitHubID(ctx, account.GitHubID)
	if err != nil {
		s.logger.Warn("counting sessions failed",
			slog.Int64("githubID", account.GitHubID),
			slog.Any("error", err),
		)
	}
	s.logger.Info("account registered",
		slog.String("login", account.Login),
		slog.Int64("githubID", account.GitHubID),
		slog.Int("sessions", sessions),
	)

	token, err := s.tokens.Generate(account.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: signing session: %w", err)
	}

	return &AuthResult{Account: account, Token: token}, nil
}

// createWithFreshID assigns account.UserID and inserts it.
//
// Exists catches the common collision before the write; the store's own
// uniqueness check (ErrConflict) catches the race between two inserts.
func (s *AuthService) createWithFreshID(ctx context.Context, account *model.Account) error {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return fmt.Errorf("service/auth: generating user id: %w", err)
		}

		taken, err := s.accounts.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("service/auth: checking user id: %w", err)
		}
		if taken {
			s.logger.Warn("user id collision", slog.Int("attempt", attempt))
			continue
		}

		account.UserID = id
		err = s.accounts.Create(ctx, account)
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("user id collision on insert", slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return fmt.Errorf("service/auth: creating account: %w", err)
		}
		return nil
	}
	account.UserID = ""
	return fmt.Errorf("service/auth: no free user id after %d attempts: %w", maxIDAttempts, apperror.ErrConflict)
}

// Logout deletes the session's account. Logging out an unknown or already
// deleted session is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.accounts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: deleting account: %w", err)
	}
	s.logger.Info("session logged out")
	return nil
}

// Profile returns the login and avatar stored for the session.
// Read from the account row; GitHub is not contacted.
func (s *AuthService) Profile(ctx context.Context, sessionID string) (*model.Profile, error) {
	if sessionID == "" {
		return nil, apperror.ValidationFailed("session", "session id must not be empty")
	}
	account, err := s.accounts.GetByUserID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: loading profile: %w", err)
	}
	return &model.Profile{
		Login:        account.Login,
		ProfileImage: account.AvatarURL,
	}, nil
}

// ValidateSession validates a signed session token and returns the session id.
//
// This is a thin delegation to TokenService.Validate. Having it on
// AuthService means callers only need to import the service package.
func (s *AuthService) ValidateSession(token string) (string, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return id, nil
}

// generateUserID returns 16 random bytes as 32 lowercase hex characters.
func generateUserID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

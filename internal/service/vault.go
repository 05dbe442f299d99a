package service

import (
	"context"
	"fmt"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/auth"
	"github.com/sakif/repoedit/internal/repository"
)

// TokenVault recovers a session's GitHub bearer token.
//
// Nothing is cached: every call reads the account and decrypts again, so the
// plaintext token lives exactly as long as the caller's operation.
type TokenVault struct {
	accounts repository.AccountRepository
	vault    *auth.Vault
}

// NewTokenVault creates a TokenVault.
func NewTokenVault(accounts repository.AccountRepository, vault *auth.Vault) *TokenVault {
	return &TokenVault{accounts: accounts, vault: vault}
}

// DecryptTokenFor returns the plaintext token of the session's account.
//
// Errors: ErrNotFound for an unknown session, ErrDecrypt when the stored
// ciphertext doesn't open with the current key.
func (v *TokenVault) DecryptTokenFor(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", apperror.ValidationFailed("session", "session id must not be empty")
	}
	account, err := v.accounts.GetByUserID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("service/vault: loading account: %w", err)
	}
	plain, err := v.vault.Decrypt(account.EncryptedAccessToken)
	if err != nil {
		return "", fmt.Errorf("service/vault: %w", err)
	}
	return string(plain), nil
}

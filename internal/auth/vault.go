// Access-token encryption at rest.
//
// The GitHub bearer token is the most sensitive thing we store. It is sealed
// with XChaCha20-Poly1305 under a key derived from ACCESS_TOKEN_KEY:
//
//	key    = HKDF-SHA256(ACCESS_TOKEN_KEY, salt=nil, info="repoedit access token v1")
//	stored = nonce (24 bytes, random) || ciphertext+tag
//
// XChaCha's 24-byte nonce is large enough to pick at random for every
// encryption without tracking counters.
//
// KEY ROTATION:
// There is one process-wide key. Changing ACCESS_TOKEN_KEY makes every stored
// token undecryptable at once; Decrypt then returns apperror.ErrDecrypt and
// the user has to log in again.

package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/sakif/repoedit/internal/apperror"
)

const vaultInfo = "repoedit access token v1"

// Vault seals and opens access tokens with the process key.
type Vault struct {
	aead cipher.AEAD
}

// NewVault derives the AEAD key from keyMaterial.
func NewVault(keyMaterial string) (*Vault, error) {
	if keyMaterial == "" {
		return nil, errors.New("auth: vault key must not be empty")
	}

	hk := hkdf.New(sha256.New, []byte(keyMaterial), nil, []byte(vaultInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, fmt.Errorf("auth: deriving vault key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("auth: creating vault cipher: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals a token. An empty token is rejected: GitHub never issues one.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, apperror.ValidationFailed("access_token", "access token must not be empty")
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("auth: reading nonce: %w", err)
	}

	// Seal appends to nonce, giving nonce || ciphertext in one allocation.
	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a value produced by Encrypt. Wrong key, truncated input
// and tampered input are all reported as apperror.ErrDecrypt.
func (v *Vault) Decrypt(sealed []byte) ([]byte, error) {
	ns := v.aead.NonceSize()
	if len(sealed) < ns+v.aead.Overhead() {
		return nil, apperror.DecryptFailed(fmt.Errorf("ciphertext too short: got %d bytes, need at least %d", len(sealed), ns+v.aead.Overhead()))
	}

	nonce, ciphertext := sealed[:ns], sealed[ns:]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, apperror.DecryptFailed(err)
	}
	return plaintext, nil
}

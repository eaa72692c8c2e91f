// Package crypto provides authenticated encryption for credentials at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
)

// Ensure Cipher implements the TokenCipher interface.
var _ driven.TokenCipher = (*Cipher)(nil)

// Cipher encrypts secrets with AES-256-GCM under a key derived from the
// server master secret. Tokens are base64(nonce || ciphertext || tag), so
// decryption needs only the token and the key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the master key from the environment-provided secret and
// prepares the AEAD. An empty secret fails with domain.ErrNotConfigured; the
// subsystem must never run unencrypted.
func NewCipher(masterSecret string) (*Cipher, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("%w: token encryption key is empty", domain.ErrNotConfigured)
	}

	// SHA-256 maps a secret of any length onto the 32-byte AES-256 key.
	key := sha256.Sum256([]byte(masterSecret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext with a fresh random nonce.
// Two calls with the same plaintext produce different tokens.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Any malformed, tampered, or
// wrong-key token fails with domain.ErrIntegrity.
func (c *Cipher) Decrypt(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: malformed token encoding", domain.ErrIntegrity)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: token too short", domain.ErrIntegrity)
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		// Authentication tag mismatch: wrong key or tampered data.
		return "", fmt.Errorf("%w: %v", domain.ErrIntegrity, err)
	}

	return string(plaintext), nil
}

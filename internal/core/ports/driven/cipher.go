package driven

// TokenCipher encrypts and decrypts opaque secret strings with the
// server-held master key.
//
// Encrypt embeds a random nonce and the authentication tag in the returned
// token, so Decrypt is self-contained given only the token. Two encryptions
// of the same plaintext produce different tokens.
type TokenCipher interface {
	// Encrypt returns an opaque ciphertext token for the plaintext.
	Encrypt(plaintext string) (string, error)

	// Decrypt recovers the plaintext from a token produced by Encrypt.
	// A malformed, tampered, or wrong-key token fails with
	// domain.ErrIntegrity; partially decrypted data is never returned.
	Decrypt(token string) (string, error)
}

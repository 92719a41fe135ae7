// Package secrets provides reversible authenticated encryption for sensitive
// stored fields. Encryption hides content from readers; it is independent of
// the audit signature, which proves integrity to key holders.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrTamperedOrWrongKey means the ciphertext failed authentication. The
// caller must treat the record as compromised, never as best-effort valid.
var ErrTamperedOrWrongKey = errors.New("ciphertext tampered with or wrong key")

// Codec seals and opens field values with AES-256-GCM. A nil *Codec is
// valid and passes values through unchanged (sealing disabled by
// configuration). Safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a codec from a 32-byte key. Returns nil (sealing
// disabled) when the key is absent.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, nil
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Enabled reports whether sealing is active.
func (c *Codec) Enabled() bool {
	return c != nil
}

// Seal encrypts a field value. Empty input is a no-op returning the input
// unchanged, as is a disabled codec.
func (c *Codec) Seal(plaintext string) (string, error) {
	if c == nil || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed field value. Any authentication failure returns
// ErrTamperedOrWrongKey; garbage plaintext is never returned.
func (c *Codec) Open(ciphertext string) (string, error) {
	if c == nil || ciphertext == "" {
		return ciphertext, nil
	}

	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrTamperedOrWrongKey
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrTamperedOrWrongKey
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrTamperedOrWrongKey
	}
	return string(plaintext), nil
}

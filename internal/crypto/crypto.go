// Package crypto seals Discord access tokens before they reach the session
// store, so a leaked Redis dump does not leak usable credentials.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// TokenCipher encrypts and decrypts opaque token strings.
type TokenCipher interface {
	Seal(token string) (string, error)
	Open(sealed string) (string, error)
}

// PlainCipher stores tokens as-is. Used when no encryption key is configured.
type PlainCipher struct{}

func (PlainCipher) Seal(token string) (string, error)  { return token, nil }
func (PlainCipher) Open(sealed string) (string, error) { return sealed, nil }

// AESCipher seals tokens with AES-256-GCM. The stored form is
// hex(nonce || ciphertext || tag).
type AESCipher struct {
	aead cipher.AEAD
}

// NewAESCipher builds a TokenCipher from a 64-character hex key (32 bytes).
func NewAESCipher(hexKey string) (*AESCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key hex: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESCipher{aead: aead}, nil
}

func (c *AESCipher) Seal(token string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(token), nil)
	return hex.EncodeToString(sealed), nil
}

func (c *AESCipher) Open(sealed string) (string, error) {
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("sealed token too short")
	}

	token, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(token), nil
}

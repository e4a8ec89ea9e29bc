package sqlite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SecretKeySize is the required length of the configured master key in bytes.
const SecretKeySize = 32

// hkdfInfo labels the derived key so the master key can never be used directly.
const hkdfInfo = "pandabot credentials v1"

// SecretCipher seals credential values with AES-256-GCM. The AES key is
// derived from the configured master key with HKDF-SHA256.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher creates a SecretCipher from a 32-byte master key.
func NewSecretCipher(masterKey []byte) (*SecretCipher, error) {
	if len(masterKey) != SecretKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", SecretKeySize, len(masterKey))
	}

	derived := make([]byte, SecretKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo)), derived); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &SecretCipher{aead: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
// aad is authenticated but not stored; the same value must be passed to Decrypt.
func (c *SecretCipher) Encrypt(plaintext, aad string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(aad))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt with the same aad.
func (c *SecretCipher) Decrypt(encoded, aad string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, []byte(aad))
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

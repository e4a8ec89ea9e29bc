package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// API keys are sealed with the SecretCipher before write and opened after read.
// The user id is bound as additional data, so a value copied between rows fails to open.
type CredentialRepo struct {
	db     *DB
	cipher *SecretCipher // nil when no key is configured.
	now    func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo. A nil cipher disables
// Set and Get, which then return driven.ErrEncryptionKeyNotSet.
func NewCredentialRepo(db *DB, c *SecretCipher) *CredentialRepo {
	return &CredentialRepo{db: db, cipher: c, now: time.Now}
}

// Set stores or replaces the API key for the given user.
func (r *CredentialRepo) Set(ctx context.Context, userID, plaintext string) error {
	if r.cipher == nil {
		return driven.ErrEncryptionKeyNotSet
	}

	encrypted, err := r.cipher.Encrypt(plaintext, userID)
	if err != nil {
		return fmt.Errorf("encrypt credential for %q: %w", userID, err)
	}

	const query = `INSERT INTO credentials (user_id, api_key, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET api_key = excluded.api_key, updated_at = excluded.updated_at`
	_, err = r.db.Writer.ExecContext(ctx, query, userID, encrypted, r.now().UTC().Format(sqliteTimeFormat))
	if err != nil {
		return fmt.Errorf("set credential for %q: %w: %w", userID, driven.ErrPersistence, err)
	}
	return nil
}

// Get retrieves the plaintext API key for the given user.
func (r *CredentialRepo) Get(ctx context.Context, userID string) (string, error) {
	if r.cipher == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT api_key FROM credentials WHERE user_id = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", driven.ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential for %q: %w: %w", userID, driven.ErrPersistence, err)
	}
	if encrypted == "" {
		return "", driven.ErrCredentialNotFound
	}

	plaintext, err := r.cipher.Decrypt(encrypted, userID)
	if err != nil {
		return "", fmt.Errorf("credential for %q: %w: %w", userID, driven.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// Delete removes the API key for the given user.
func (r *CredentialRepo) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM credentials WHERE user_id = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete credential for %q: %w: %w", userID, driven.ErrPersistence, err)
	}
	return nil
}

package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// PANDABOT_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set PANDABOT_SECRET_KEY")

// ErrCredentialNotFound is returned by CredentialStore.Get when the user has
// never linked an account, has logged out, or the stored value is empty.
var ErrCredentialNotFound = errors.New("credential not found")

// ErrDecryptionFailed is returned when a stored credential cannot be
// authenticated under the current key. It is never returned for missing rows.
var ErrDecryptionFailed = errors.New("credential decryption failed")

// ErrPersistence wraps failures of the underlying storage.
var ErrPersistence = errors.New("credential storage failure")

// CredentialStore defines the driven port for encrypted per-user API key
// persistence. The adapter layer is responsible for encryption/decryption;
// this interface operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the API key for userID. Last write wins.
	// Returns ErrEncryptionKeyNotSet if the adapter was constructed without
	// a cipher, or an error wrapping ErrPersistence if the write fails.
	Set(ctx context.Context, userID, plaintext string) error

	// Get returns the decrypted API key for userID.
	// Returns ErrCredentialNotFound if nothing is stored and
	// ErrDecryptionFailed if the stored value fails authentication.
	Get(ctx context.Context, userID string) (string, error)

	// Delete removes the API key for userID. Deleting a missing record is not an error.
	Delete(ctx context.Context, userID string) error
}

package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/pandabot/internal/domain/model"
)

// ChatUserStore defines the driven port for first-seen tracking of chat users.
type ChatUserStore interface {
	// Touch records userID as seen at seenAt if it has never been seen before.
	// Returns true when this call created the record.
	Touch(ctx context.Context, userID string, seenAt time.Time) (bool, error)

	// Get returns the stored chat user, or (nil, nil) if userID was never seen.
	Get(ctx context.Context, userID string) (*model.ChatUser, error)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/pandabot/internal/domain/model"
	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChatUserStore = (*ChatUserRepo)(nil)

// ChatUserRepo is the SQLite implementation of the ChatUserStore port interface.
type ChatUserRepo struct {
	db *DB
}

// NewChatUserRepo creates a new ChatUserRepo.
func NewChatUserRepo(db *DB) *ChatUserRepo {
	return &ChatUserRepo{db: db}
}

// Touch inserts the user with seenAt as first-seen time. An existing row is left alone.
func (r *ChatUserRepo) Touch(ctx context.Context, userID string, seenAt time.Time) (bool, error) {
	const query = `INSERT INTO chat_users (user_id, first_seen) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`
	res, err := r.db.Writer.ExecContext(ctx, query, userID, seenAt.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return false, fmt.Errorf("touch chat user %q: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for chat user %q: %w", userID, err)
	}
	return n == 1, nil
}

// Get returns the chat user, or nil if the user has never been seen.
func (r *ChatUserRepo) Get(ctx context.Context, userID string) (*model.ChatUser, error) {
	const query = `SELECT user_id, first_seen FROM chat_users WHERE user_id = ?`

	var u model.ChatUser
	var firstSeen string
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&u.UserID, &firstSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat user %q: %w", userID, err)
	}

	u.FirstSeen, err = parseTime(firstSeen)
	if err != nil {
		return nil, fmt.Errorf("parse first_seen for chat user %q: %w", userID, err)
	}
	return &u, nil
}

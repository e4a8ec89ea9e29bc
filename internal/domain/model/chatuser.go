package model

import "time"

// ChatUser records when a chat identity first talked to the bot.
type ChatUser struct {
	UserID    string
	FirstSeen time.Time
}

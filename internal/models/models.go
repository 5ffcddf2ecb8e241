package models

import (
	"time"
)

// Role values for users. Educators build the knowledge base; students chat.
const (
	RoleEducator = "educator"
	RoleStudent  = "student"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChatLog is one audited question/answer pair. Written best-effort after a
// successful conversational turn.
type ChatLog struct {
	ID          int64     `db:"id" json:"id"`
	UserRole    string    `db:"user_role" json:"user_role"`
	UserMessage string    `db:"user_message" json:"user_message"`
	BotResponse string    `db:"bot_response" json:"bot_response"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

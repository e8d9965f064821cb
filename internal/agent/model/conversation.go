package model

import (
	"context"
	"time"
)

// Role of a stored chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryEntry is one persisted chat message. A user-role entry never carries ToolUsed.
type HistoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	ToolUsed  Route     `json:"tool_used,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryResult is what a fetch returns: entries in chronological order.
type ChatHistoryResult struct {
	SessionID string
	Entries   []HistoryEntry
	Count     int
}

// PersistRequest describes one message to append. An empty SessionID asks the
// repository to allocate a new session.
type PersistRequest struct {
	UserID    string
	SessionID string
	Role      Role
	Message   string
	ToolUsed  Route
}

type HistoryRepository interface {
	// FetchHistory returns at most limit of the most recent entries for the session.
	// An empty sessionID yields an empty result, never an error.
	FetchHistory(ctx context.Context, userID, sessionID string, limit int) (*ChatHistoryResult, error)

	// PersistMessage appends a message and returns the session id it was stored under.
	PersistMessage(ctx context.Context, req PersistRequest) (string, error)
}

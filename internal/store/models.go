package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

type Thread struct {
	ID        string    `json:"id"` // Using UUID for external ID
	UserID    int64     `json:"user_id"`
	Title     *string   `json:"title"` // Nullable
	CreatedAt time.Time `json:"created_at"`
}

// Message is one side of a query exchange. User messages carry the raw
// question; assistant messages additionally carry the corrected question,
// the executed SQL and the result payload.
type Message struct {
	ID           string          `json:"id"` // Using UUID for external ID
	ThreadID     string          `json:"thread_id"`
	Role         string          `json:"role"` // "user" or "assistant"
	Message      string          `json:"message"`
	ContextTag   *string         `json:"context_tag,omitempty"`
	CorrectedMsg *string         `json:"corrected_msg,omitempty"`
	GenSQL       *string         `json:"gen_sql,omitempty"`
	ResultData   json.RawMessage `json:"result_data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

package models

import "time"

type SessionEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	Operation Operation `json:"operation,omitempty"`
	Parameter *int      `json:"parameter,omitempty"`
	Size      int64     `json:"size,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	EventImageSelected    = "image_selected"
	EventOperationApplied = "operation_applied"
	EventOperationFailed  = "operation_failed"
)

package models

import "time"

// SessionSnapshot is a consistent view of one editing session for the UI.
type SessionSnapshot struct {
	SessionID         string         `json:"session_id"`
	Artifact          *ImageArtifact `json:"-"`
	HasImage          bool           `json:"has_image"`
	MIMEType          string         `json:"mime_type,omitempty"`
	Size              int64          `json:"size,omitempty"`
	PreviewHandle     string         `json:"preview_handle,omitempty"`
	IsProcessing      bool           `json:"is_processing"`
	AwaitingParameter bool           `json:"awaiting_parameter"`
	Operation         Operation      `json:"operation,omitempty"`
	LastError         string         `json:"last_error,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

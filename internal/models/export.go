package models

import "time"

type ExportResult struct {
	URL        string    `json:"url"`
	Backend    string    `json:"backend"`
	FileSize   int64     `json:"file_size"`
	ExportedAt time.Time `json:"exported_at"`
}

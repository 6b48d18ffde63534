package models

import "time"

// StandupEntry is a generated standup summary persisted to history for
// continuity between runs.
type StandupEntry struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"` // YYYY-MM-DD
	Summary   string         `json:"summary"`
	RawData   map[string]any `json:"raw_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

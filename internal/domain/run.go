package domain

import "time"

// RunRecord is the history row written for every resolution pass.
type RunRecord struct {
	RunID        string    `json:"run_id"`
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	TableVersion uint64    `json:"table_version"`
	Attempts     int       `json:"attempts"`
	Records      int       `json:"records"`
	Resolved     int       `json:"resolved"`
	Partial      int       `json:"partial"`
	Unresolved   int       `json:"unresolved"`
	Exceptions   int       `json:"exceptions"`
}

// Summary aggregates the current results of a session.
type Summary struct {
	SessionID      string  `json:"session_id"`
	TableVersion   uint64  `json:"table_version"`
	Total          int     `json:"total"`
	Resolved       int     `json:"resolved"`
	Partial        int     `json:"partial"`
	Unresolved     int     `json:"unresolved"`
	ColorReady     int     `json:"color_ready"`
	SizeReady      int     `json:"size_ready"`
	NoMatch        int     `json:"no_match"`
	Ambiguous      int     `json:"ambiguous"`
	Overridden     int     `json:"overridden"`
	ConversionRate float64 `json:"conversion_rate"` // (ColorReady + SizeReady) / (2 * Total)
	Blocked        bool    `json:"blocked"`
}

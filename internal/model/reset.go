package model

import "time"

// ResetRecord is the last-reset timestamp for one cadence class. Version is an
// optimistic-concurrency token: a reset commit only succeeds if the version it
// read is still current.
type ResetRecord struct {
	Frequency Frequency  `json:"frequency"`
	LastReset *time.Time `json:"last_reset"`
	Version   int64      `json:"version"`
}

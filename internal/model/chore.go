package model

import "time"

// Frequency is the reset cadence class for a chore.
type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqBiweekly  Frequency = "biweekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
)

// Frequencies lists every cadence class in reset-evaluation order.
var Frequencies = []Frequency{FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly, FreqQuarterly}

// Valid reports whether f is a known cadence class.
func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly, FreqQuarterly:
		return true
	}
	return false
}

// Origin distinguishes permanent chores (bound to one person) from rotating
// chores (redistributed every cycle).
type Origin string

const (
	OriginPermanent Origin = "permanent"
	OriginRotating  Origin = "rotating"
)

// ChoreDef is a catalog entry: a task that exists independent of who currently
// holds it.
type ChoreDef struct {
	ID             int64     `json:"id"`
	Task           string    `json:"task"`
	Frequency      Frequency `json:"frequency"`
	Origin         Origin    `json:"origin"`
	PermanentOwner string    `json:"permanent_owner,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Assignment is one chore instance currently held by a person. Instance IDs are
// minted at partition time so two assignments sharing a task name stay
// distinguishable.
type Assignment struct {
	ID            string    `json:"id"`
	PersonID      int64     `json:"person_id"`
	Task          string    `json:"task"`
	Frequency     Frequency `json:"frequency"`
	Origin        Origin    `json:"origin"`
	OriginalOwner string    `json:"original_owner,omitempty"`
	Locked        bool      `json:"locked"`
	Completed     bool      `json:"completed"`
	AssignedAt    time.Time `json:"assigned_at"`
}

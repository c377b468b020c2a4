package renaming

import (
	"time"
)

// Event is a single creation notification delivered by the watch service.
type Event struct {
	Path      string
	IsDir     bool
	Timestamp time.Time
}

// Outcome is the terminal state of a processed event.
type Outcome string

const (
	// OutcomeFiltered: directory event, non-image extension, or the name is
	// already canonical.
	OutcomeFiltered Outcome = "filtered"
	// OutcomeRenamed: the file was moved to its canonical name.
	OutcomeRenamed Outcome = "renamed"
	// OutcomeSkipped: destination occupied or the source vanished; nothing
	// was modified.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed: the file could not be read or renamed for another
	// reason. Never fatal to the watch loop.
	OutcomeFailed Outcome = "failed"
)

// Result describes how a single event resolved.
type Result struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	NewPath string    `json:"newPath,omitempty"`
	Outcome Outcome   `json:"outcome"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Recorder keeps a bounded record of recent results.
type Recorder interface {
	Record(result Result)
	Recent(limit int) []Result
}

// Notifier is told about resolved events. Implementations decide which
// outcomes are worth relaying.
type Notifier interface {
	Notify(result Result)
}

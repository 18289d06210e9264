// Package timer provides cancelable delayed and periodic tasks for call sessions.
package timer

import "time"

// TaskID identifies a scheduled task. Zero is never issued.
type TaskID uint64

// Scheduler runs functions after a delay or on a fixed period.
type Scheduler interface {
	// After runs fn once, d from now.
	After(d time.Duration, fn func()) TaskID
	// Every runs fn every d until canceled.
	Every(d time.Duration, fn func()) TaskID
	// Cancel stops the task. It reports whether the task was still pending.
	Cancel(id TaskID) bool
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

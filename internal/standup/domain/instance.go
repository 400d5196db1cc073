package domain

import "time"

// InstanceState is the response-collection lifecycle state of an instance.
type InstanceState string

const (
	// StateCollecting accepts answers. Initial state.
	StateCollecting InstanceState = "collecting"

	// StateCompleted is terminal: the window closed with at least one
	// answer, or every participant answered early.
	StateCompleted InstanceState = "completed"

	// StateCancelled is terminal: the window closed with no answers.
	StateCancelled InstanceState = "cancelled"
)

// Terminal reports whether no further transitions may leave the state.
func (s InstanceState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// CanTransition reports whether from -> to is a legal lifecycle move.
// Only collecting -> completed and collecting -> cancelled exist.
func CanTransition(from, to InstanceState) bool {
	return from == StateCollecting && to.Terminal()
}

// StandupInstance is one materialized occurrence of a config for a target
// date. At most one instance exists per (config, target date); the database
// enforces this, not in-process locking.
type StandupInstance struct {
	ID         string
	ConfigID   string
	OrgID      string
	TargetDate string // local date in the config's timezone, "2006-01-02"

	Snapshot ConfigSnapshot

	State        InstanceState
	ReminderSent bool
	CreatedAt    time.Time
}

// Deadline is when the response window closes, derived from the snapshot.
func (i StandupInstance) Deadline() time.Time {
	return i.CreatedAt.Add(time.Duration(i.Snapshot.ResponseWindowHours) * time.Hour)
}

// ReminderOpensAt is the start of the pre-deadline reminder window.
func (i StandupInstance) ReminderOpensAt() time.Time {
	return i.Deadline().Add(-time.Duration(i.Snapshot.ReminderMinutes) * time.Minute)
}

// InResponseWindow reports whether answers may still be accepted at now.
// The window comes from the snapshot, never from a token's own expiry.
func (i StandupInstance) InResponseWindow(now time.Time) bool {
	return now.Before(i.Deadline())
}

// InReminderWindow reports whether now falls in [deadline-reminder, deadline).
func (i StandupInstance) InReminderWindow(now time.Time) bool {
	return !now.Before(i.ReminderOpensAt()) && now.Before(i.Deadline())
}

package analysis

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of one analysis
type Status string

const (
	// StatusInitializing is the state of an accepted analysis before its
	// first successful iteration
	StatusInitializing Status = "Initializing"
	// StatusOngoing means the runner is iterating
	StatusOngoing Status = "Ongoing"
	// StatusStopping means cancellation was requested and the in-flight
	// iteration is finishing
	StatusStopping Status = "Stopping"
	// StatusCompleted means a stopping condition was reached
	StatusCompleted Status = "Completed"
	// StatusStopped means the analysis was cancelled cleanly
	StatusStopped Status = "Stopped"
	// StatusError means the analysis aborted on an unrecoverable fault
	StatusError Status = "Error"
)

// ErrInvalidTransition is returned for a status change the state machine
// does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions encodes the one-directional status machine
var transitions = map[Status][]Status{
	StatusInitializing: {StatusOngoing, StatusStopping, StatusError},
	StatusOngoing:      {StatusCompleted, StatusStopping, StatusError},
	StatusStopping:     {StatusStopped},
	StatusCompleted:    {},
	StatusStopped:      {},
	StatusError:        {},
}

// Terminal reports whether the status is final
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped || s == StatusError
}

// CanTransition reports whether the state machine allows moving to next
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// checkTransition returns ErrInvalidTransition when the move is not allowed
func checkTransition(from, to Status) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Package workflow drives the per (job, candidate) assessment lifecycle:
// deciding which submission affordance to offer, submitting exactly once and
// recording the reviewer side transitions.
package workflow

import (
	"errors"
	"fmt"
	"sync"
)

// State of a job/candidate pair.
type State int

const (
	StateNoAssessment State = iota
	StateNotSubmitted
	StateSubmitted
	StateUnderReview
	StateApproved
)

func (s State) String() string {
	switch s {
	case StateNoAssessment:
		return "no_assessment"
	case StateNotSubmitted:
		return "not_submitted"
	case StateSubmitted:
		return "submitted"
	case StateUnderReview:
		return "under_review"
	case StateApproved:
		return "approved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State]State{
	StateNoAssessment: StateNotSubmitted,
	StateNotSubmitted: StateSubmitted,
	StateSubmitted:    StateUnderReview,
	StateUnderReview:  StateApproved,
}

// PairKey identifies a job/candidate pair.
type PairKey struct {
	JobID       int64
	CandidateID int64
}

func (k PairKey) String() string {
	return fmt.Sprintf("%d/%d", k.JobID, k.CandidateID)
}

// Tracker holds the state of every pair seen by a process.
type Tracker struct {
	mu     sync.Mutex
	states map[PairKey]State
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[PairKey]State)}
}

// State returns the current state, StateNoAssessment for unknown pairs.
func (t *Tracker) State(key PairKey) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.states[key]
}

// Observe records a state learned from the backend. States only move forward.
func (t *Tracker) Observe(key PairKey, s State) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s > t.states[key] {
		t.states[key] = s
	}
	return t.states[key]
}

// Advance moves the pair one step forward to s. Re-entering the current
// state is accepted so retried operations stay idempotent.
func (t *Tracker) Advance(key PairKey, s State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.states[key]
	if current == s {
		return nil
	}

	if next, ok := transitions[current]; !ok || next != s {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, current, s, key)
	}

	t.states[key] = s
	return nil
}

package review

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spigell/assessment-flow/internal/ai"
	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/workflow"
)

// Entry is one pair awaiting or having passed review.
type Entry struct {
	Key          workflow.PairKey
	SubmissionID int64
	SubmittedAt  time.Time
	Kind         assessment.ResponseKind
	Suggested    assessment.ContractType
	Hint         *ai.ReviewHint
	// Resolved fields are set once the submission is approved.
	Resolved     bool
	ContractType assessment.ContractType
	ContractID   int64
	ResolvedAt   time.Time
}

// Ledger is the reviewer's collection of pending and resolved pairs.
type Ledger interface {
	// Track records the latest submission of a pair as pending review. A
	// resolved pair stays resolved.
	Track(ctx context.Context, e Entry) error
	// Lookup finds the entry of a submission; nil when unknown.
	Lookup(ctx context.Context, submissionID int64) (*Entry, error)
	// Resolve marks the submission approved and removes it from Pending.
	Resolve(ctx context.Context, submissionID int64, key workflow.PairKey, ct assessment.ContractType, contractID int64) error
	// Pending lists unresolved entries, oldest submission first.
	Pending(ctx context.Context) ([]Entry, error)
}

// MemoryLedger keeps the ledger in process.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[int64]Entry
	now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[int64]Entry), now: time.Now}
}

func (l *MemoryLedger) Track(_ context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// a newer submission of the same pair supersedes older pending ones
	for id, existing := range l.entries {
		if existing.Key == e.Key && !existing.Resolved && id != e.SubmissionID {
			delete(l.entries, id)
		}
	}

	if existing, ok := l.entries[e.SubmissionID]; ok && existing.Resolved {
		return nil
	}

	e.Resolved = false
	l.entries[e.SubmissionID] = e
	return nil
}

func (l *MemoryLedger) Lookup(_ context.Context, submissionID int64) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[submissionID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (l *MemoryLedger) Resolve(_ context.Context, submissionID int64, key workflow.PairKey, ct assessment.ContractType, contractID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[submissionID]
	if !ok {
		e = Entry{Key: key, SubmissionID: submissionID}
	}

	e.Resolved = true
	e.ContractType = ct
	e.ContractID = contractID
	e.ResolvedAt = l.now().UTC()
	l.entries[submissionID] = e
	return nil
}

func (l *MemoryLedger) Pending(_ context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if !e.Resolved {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

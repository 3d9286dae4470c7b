// Package guard tracks, per candidate, the jobs for which a record (a
// submission or an application) is known to exist, so callers can suppress
// actions that would create a duplicate.
package guard

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/assessment-flow/internal/logger"
)

const (
	defaultConcurrency  = 4
	defaultCheckTimeout = 5 * time.Second
)

// CheckFunc reports whether a record exists for the pair.
type CheckFunc func(ctx context.Context, candidateID, jobID int64) (bool, error)

type Config struct {
	// Concurrency bounds the number of checks in flight.
	Concurrency int
	// CheckTimeout bounds a single existence check.
	CheckTimeout time.Duration
}

// Report summarizes one Load.
type Report struct {
	Checked int
	Present int
	Failed  int
	// Stale is set when a newer Load superseded this one and its results were dropped.
	Stale bool
}

// Membership is the set of job ids with a known record for one candidate.
type Membership struct {
	name   string
	check  CheckFunc
	cfg    Config
	logger *zap.Logger

	mu          sync.Mutex
	generation  uint64
	candidateID int64
	loaded      bool
	present     map[int64]struct{}
	// marked holds records confirmed locally; they survive reloads for the
	// same candidate even if the backend check fails.
	marked map[int64]struct{}
}

// New returns an empty, not yet loaded membership.
func New(name string, check CheckFunc, cfg Config, log *zap.Logger) *Membership {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = defaultCheckTimeout
	}

	return &Membership{
		name:    name,
		check:   check,
		cfg:     cfg,
		logger:  logger.WithFields(log, zap.String("guard", name)),
		present: make(map[int64]struct{}),
		marked:  make(map[int64]struct{}),
	}
}

type checkResult struct {
	jobID   int64
	present bool
	err     error
}

// Load rebuilds the set for candidateID by checking every job concurrently.
// A failed check counts the job as absent; failures are logged and reported
// but never returned.
func (m *Membership) Load(ctx context.Context, candidateID int64, jobIDs []int64) Report {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	if m.candidateID != candidateID {
		m.candidateID = candidateID
		m.loaded = false
		m.present = make(map[int64]struct{})
		m.marked = make(map[int64]struct{})
	}
	m.mu.Unlock()

	ids := unique(jobIDs)
	results := make([]checkResult, len(ids))

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, m.cfg.CheckTimeout)
			defer cancel()

			ok, err := m.check(checkCtx, candidateID, id)
			results[i] = checkResult{jobID: id, present: ok, err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Checked: len(ids)}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		report.Stale = true
		m.logger.Debug("dropping stale guard load", logger.PairFields(0, candidateID)...)
		return report
	}

	present := make(map[int64]struct{}, len(ids)+len(m.marked))
	for _, r := range results {
		if r.err != nil {
			report.Failed++
			m.logger.Warn("existence check failed, treating as absent",
				append(logger.PairFields(r.jobID, candidateID), zap.Error(r.err))...,
			)
			continue
		}
		if r.present {
			present[r.jobID] = struct{}{}
		}
	}
	for id := range m.marked {
		present[id] = struct{}{}
	}

	m.present = present
	m.loaded = true
	report.Present = len(present)

	m.logger.Debug("guard loaded",
		zap.Int64(logger.FieldCandidateID, candidateID),
		zap.Int("checked", report.Checked),
		zap.Int("present", report.Present),
		zap.Int("failed", report.Failed),
	)

	return report
}

// Contains reports whether a record is known for jobID.
func (m *Membership) Contains(jobID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.present[jobID]
	return ok
}

// Mark records a confirmed record for jobID.
func (m *Membership) Mark(jobID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.present[jobID] = struct{}{}
	m.marked[jobID] = struct{}{}
}

// Loaded reports whether a Load has completed for the current candidate.
func (m *Membership) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loaded
}

// CandidateID returns the candidate the set belongs to.
func (m *Membership) CandidateID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.candidateID
}

// JobIDs returns the known job ids in ascending order.
func (m *Membership) JobIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.present))
	for id := range m.present {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Membership) Name() string { return m.name }

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

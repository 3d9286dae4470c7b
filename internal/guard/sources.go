package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/devmatch"
)

type SubmissionLister interface {
	ListSubmissions(ctx context.Context, jobID, candidateID int64) ([]devmatch.SubmissionSummary, error)
}

type ApplicationChecker interface {
	HasApplied(ctx context.Context, candidateID, jobID int64) (bool, error)
}

// NewSubmissionGuard tracks jobs with at least one stored submission.
func NewSubmissionGuard(lister SubmissionLister, cfg Config, log *zap.Logger) *Membership {
	return New("submissions", func(ctx context.Context, candidateID, jobID int64) (bool, error) {
		list, err := lister.ListSubmissions(ctx, jobID, candidateID)
		if err != nil {
			return false, err
		}
		return len(list) > 0, nil
	}, cfg, log)
}

// NewApplicationGuard tracks jobs the candidate already applied to.
func NewApplicationGuard(checker ApplicationChecker, cfg Config, log *zap.Logger) *Membership {
	return New("applications", checker.HasApplied, cfg, log)
}

// Package review is the reviewer side of the assessment workflow: loading the
// latest submission of a pair and approving it into a contract.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/ai"
	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/logger"
	"github.com/spigell/assessment-flow/internal/workflow"
)

var (
	// ErrNotAuthorized is returned before any network call when the actor
	// may not approve submissions.
	ErrNotAuthorized = errors.New("only company accounts can approve submissions")
	// ErrListFailed means the submission history could not be fetched. It is
	// distinct from an empty history.
	ErrListFailed = errors.New("could not list submissions")
	// ErrSubmissionMissing means the latest listed submission has no detail
	// on the backend.
	ErrSubmissionMissing = errors.New("listed submission could not be found")
	// ErrUnknownSubmission is returned by Approve for a submission that was
	// never loaded through LoadLatest.
	ErrUnknownSubmission = errors.New("submission was not loaded for review")
	// ErrResolution means the contract exists but the pair could not be
	// recorded as resolved. Approve may be retried.
	ErrResolution = errors.New("approved but failed to record resolution")
)

// Role of the acting user.
type Role string

const (
	RoleCompany   Role = "company"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Actor is the trusted identity performing an action.
type Actor struct {
	ID   int64
	Role Role
}

func (a Actor) canApprove() bool { return a.Role == RoleCompany }

// Gateway is the part of the backend the reviewer side needs.
type Gateway interface {
	ListSubmissions(ctx context.Context, jobID, candidateID int64) ([]devmatch.SubmissionSummary, error)
	GetSubmissionDetail(ctx context.Context, submissionID int64) (*devmatch.SubmissionDetail, error)
	ApproveSubmission(ctx context.Context, submissionID int64, contractType assessment.ContractType, approverID int64) (int64, error)
	GetJob(ctx context.Context, jobID int64) (*devmatch.Job, error)
}

// Review is the latest submission of a pair, ready to be shown.
type Review struct {
	Key          workflow.PairKey
	SubmissionID int64
	SubmittedAt  time.Time
	Status       string
	Response     *assessment.Response
	// Answers carries grading results when the backend stored any.
	Answers []devmatch.AnswerDetail
	// Assessment is the job's assessment, for question context. May be nil.
	Assessment *assessment.Spec
	JobTitle   string
	Suggested  assessment.ContractType
	// Hint is an optional AI opinion on structured answers.
	Hint *ai.ReviewHint
}

// Contract is the result of an approval.
type Contract struct {
	ID           int64
	SubmissionID int64
	Key          workflow.PairKey
	Type         assessment.ContractType
	// Existing is set when the approval had already been recorded.
	Existing bool
}

// Coordinator loads submissions for review and approves them.
type Coordinator struct {
	gw       Gateway
	ledger   Ledger
	tracker  *workflow.Tracker
	reviewer ai.Reviewer
	logger   *zap.Logger
}

// Deps aggregates the collaborators of a Coordinator. Only Gateway is required.
type Deps struct {
	Gateway  Gateway
	Ledger   Ledger
	Tracker  *workflow.Tracker
	Reviewer ai.Reviewer
	Logger   *zap.Logger
}

func NewCoordinator(deps Deps) *Coordinator {
	if deps.Ledger == nil {
		deps.Ledger = NewMemoryLedger()
	}
	if deps.Tracker == nil {
		deps.Tracker = workflow.NewTracker()
	}

	return &Coordinator{
		gw:       deps.Gateway,
		ledger:   deps.Ledger,
		tracker:  deps.Tracker,
		reviewer: deps.Reviewer,
		logger:   logger.WithFields(deps.Logger),
	}
}

// LoadLatest returns the most recent submission of a pair, or nil when the
// candidate has not submitted anything. A listing failure is reported as
// ErrListFailed and a listed submission without detail as
// ErrSubmissionMissing, never as an empty history.
func (c *Coordinator) LoadLatest(ctx context.Context, jobID, candidateID int64) (*Review, error) {
	key := workflow.PairKey{JobID: jobID, CandidateID: candidateID}
	log := c.logger.With(logger.PairFields(jobID, candidateID)...)

	list, err := c.gw.ListSubmissions(ctx, jobID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}

	latest, ok := Latest(list)
	if !ok {
		log.Info("no submission found")
		return nil, nil
	}

	detail, err := c.gw.GetSubmissionDetail(ctx, latest.ID)
	if err != nil {
		return nil, fmt.Errorf("get submission %d: %w", latest.ID, err)
	}
	if detail == nil {
		log.Warn("listed submission has no detail", zap.Int64(logger.FieldSubmissionID, latest.ID))
		return nil, fmt.Errorf("%w: submission %d", ErrSubmissionMissing, latest.ID)
	}

	rv := &Review{
		Key:          key,
		SubmissionID: latest.ID,
		SubmittedAt:  latest.SubmittedAt,
		Status:       latest.Status,
		Response:     detail.Response(),
		Answers:      detail.Answers,
		Suggested:    assessment.ContractPJ,
	}

	job, err := c.gw.GetJob(ctx, jobID)
	switch {
	case err != nil:
		log.Warn("job lookup failed, suggesting default contract type", zap.Error(err))
	case job != nil:
		rv.Suggested = job.ContractType()
		rv.Assessment = job.Assessment()
		rv.JobTitle = job.Title
	}

	if c.reviewer != nil && rv.Response.Kind == assessment.ResponseAnswers {
		hint, err := c.reviewer.Review(ctx, ai.ReviewRequest{
			JobTitle:   rv.JobTitle,
			Assessment: rv.Assessment,
			Answers:    rv.Response.Answers,
		})
		if err != nil {
			log.Warn("ai review failed", zap.Error(err))
		} else {
			rv.Hint = hint
		}
	}

	if err := c.ledger.Track(ctx, Entry{
		Key:          key,
		SubmissionID: rv.SubmissionID,
		SubmittedAt:  rv.SubmittedAt,
		Kind:         rv.Response.Kind,
		Suggested:    rv.Suggested,
		Hint:         rv.Hint,
	}); err != nil {
		return nil, fmt.Errorf("track review: %w", err)
	}

	c.tracker.Observe(key, workflow.StateUnderReview)

	log.Info("submission loaded for review",
		zap.Int64(logger.FieldSubmissionID, rv.SubmissionID),
		zap.Stringer("response", rv.Response.Kind),
		zap.String(logger.FieldContractType, rv.Suggested.String()),
	)

	return rv, nil
}

// Latest picks the most recent submission. Ties keep the first listed entry.
func Latest(list []devmatch.SubmissionSummary) (devmatch.SubmissionSummary, bool) {
	if len(list) == 0 {
		return devmatch.SubmissionSummary{}, false
	}

	best := list[0]
	for _, s := range list[1:] {
		if s.SubmittedAt.After(best.SubmittedAt) {
			best = s
		}
	}
	return best, true
}

// Approve turns a reviewed submission into a contract. The role check
// happens before any call. An already resolved submission returns the
// recorded contract; otherwise the backend approval, which is idempotent per
// submission, is followed by the local resolution.
func (c *Coordinator) Approve(ctx context.Context, actor Actor, submissionID int64, contractType assessment.ContractType) (*Contract, error) {
	if !actor.canApprove() {
		return nil, ErrNotAuthorized
	}

	if _, err := assessment.ParseContractType(string(contractType)); err != nil {
		return nil, err
	}

	entry, err := c.ledger.Lookup(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("lookup review: %w", err)
	}
	if entry == nil {
		return nil, ErrUnknownSubmission
	}

	if entry.Resolved {
		c.tracker.Observe(entry.Key, workflow.StateApproved)
		return &Contract{
			ID:           entry.ContractID,
			SubmissionID: submissionID,
			Key:          entry.Key,
			Type:         entry.ContractType,
			Existing:     true,
		}, nil
	}

	log := c.logger.With(logger.SubmissionFields(entry.Key.JobID, entry.Key.CandidateID, submissionID)...)

	contractID, err := c.gw.ApproveSubmission(ctx, submissionID, contractType, actor.ID)
	if err != nil {
		log.Warn("approval failed", zap.Error(err))
		return nil, fmt.Errorf("approve submission: %w", err)
	}

	if err := c.ledger.Resolve(ctx, submissionID, entry.Key, contractType, contractID); err != nil {
		log.Error("contract created but resolution was not recorded", zap.Int64("contract_id", contractID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}

	c.tracker.Observe(entry.Key, workflow.StateApproved)

	log.Info("submission approved",
		zap.Int64("contract_id", contractID),
		zap.String(logger.FieldContractType, contractType.String()),
	)

	return &Contract{ID: contractID, SubmissionID: submissionID, Key: entry.Key, Type: contractType}, nil
}

// Pending lists pairs awaiting review.
func (c *Coordinator) Pending(ctx context.Context) ([]Entry, error) {
	return c.ledger.Pending(ctx)
}

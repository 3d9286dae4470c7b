package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/guard"
	"github.com/spigell/assessment-flow/internal/logger"
)

const jobLookupConcurrency = 4

// Gateway is the part of the backend the candidate side needs.
type Gateway interface {
	SubmitAssessment(ctx context.Context, sub *assessment.Submission) (int64, error)
	ListSubmissions(ctx context.Context, jobID, candidateID int64) ([]devmatch.SubmissionSummary, error)
	ListApplications(ctx context.Context, candidateID int64) ([]devmatch.ApplicationRecord, error)
	GetJob(ctx context.Context, jobID int64) (*devmatch.Job, error)
}

// Application is a candidate's application joined with the job assessment.
type Application struct {
	ID          int64
	JobID       int64
	CandidateID int64
	Status      devmatch.ApplicationStatus
	AppliedAt   time.Time
	JobTitle    string
	Regime      string
	Assessment  *assessment.Spec
}

func (a *Application) Key() PairKey {
	return PairKey{JobID: a.JobID, CandidateID: a.CandidateID}
}

// Affordance is the candidate facing action offered for an application.
type Affordance int

const (
	AffordanceNone Affordance = iota
	AffordanceLoading
	AffordanceAwaitingAcceptance
	AffordanceQuestionsForm
	AffordancePDFUpload
	AffordanceAlreadySubmitted
)

func (a Affordance) String() string {
	switch a {
	case AffordanceLoading:
		return "loading"
	case AffordanceAwaitingAcceptance:
		return "awaiting_acceptance"
	case AffordanceQuestionsForm:
		return "questions_form"
	case AffordancePDFUpload:
		return "pdf_upload"
	case AffordanceAlreadySubmitted:
		return "already_submitted"
	default:
		return "none"
	}
}

// View is what a UI should render for one application.
type View struct {
	State      State
	Affordance Affordance
	// PDFURL is set for AffordancePDFUpload.
	PDFURL string
	// Answers is set for AffordanceQuestionsForm.
	Answers *AnswerBuffer
}

type Config struct {
	Guard guard.Config
}

// CandidateFlow is the candidate side of the workflow for a single candidate.
// It owns the submission guard, the answer buffers and the upload sessions.
type CandidateFlow struct {
	candidateID int64
	gw          Gateway
	tracker     *Tracker
	guard       *guard.Membership
	logger      *zap.Logger

	mu          sync.Mutex
	inFlight    map[int64]struct{}
	submissions map[int64]int64
	answers     map[int64]*AnswerBuffer
	uploads     map[int64]*Upload
}

// NewCandidateFlow builds a flow for candidateID. A nil tracker gets a private one.
func NewCandidateFlow(candidateID int64, gw Gateway, tracker *Tracker, cfg Config, log *zap.Logger) *CandidateFlow {
	if tracker == nil {
		tracker = NewTracker()
	}
	log = logger.WithFields(log, logger.PairFields(0, candidateID)...)

	return &CandidateFlow{
		candidateID: candidateID,
		gw:          gw,
		tracker:     tracker,
		guard:       guard.NewSubmissionGuard(gw, cfg.Guard, log),
		logger:      log,
		inFlight:    make(map[int64]struct{}),
		submissions: make(map[int64]int64),
		answers:     make(map[int64]*AnswerBuffer),
		uploads:     make(map[int64]*Upload),
	}
}

func (f *CandidateFlow) CandidateID() int64 { return f.candidateID }

// Load fetches the candidate's applications with their job assessments and
// populates the submission guard. Only the application listing can fail; a
// failed job lookup leaves that application without an assessment.
func (f *CandidateFlow) Load(ctx context.Context) ([]*Application, guard.Report, error) {
	records, err := f.gw.ListApplications(ctx, f.candidateID)
	if err != nil {
		return nil, guard.Report{}, fmt.Errorf("list applications: %w", err)
	}

	apps := f.joinJobs(ctx, records)
	report := f.Populate(ctx, apps)

	return apps, report, nil
}

func (f *CandidateFlow) joinJobs(ctx context.Context, records []devmatch.ApplicationRecord) []*Application {
	apps := make([]*Application, len(records))

	var g errgroup.Group
	g.SetLimit(jobLookupConcurrency)
	for i, rec := range records {
		apps[i] = &Application{
			ID:          rec.ID,
			JobID:       rec.JobID,
			CandidateID: f.candidateID,
			Status:      rec.Status(),
			AppliedAt:   rec.AppliedAt,
			JobTitle:    rec.JobTitle,
		}

		g.Go(func() error {
			job, err := f.gw.GetJob(ctx, rec.JobID)
			if err != nil {
				f.logger.Warn("job lookup failed, assessment unknown",
					append(logger.PairFields(rec.JobID, 0), zap.Error(err))...,
				)
				return nil
			}
			if job == nil {
				return nil
			}

			apps[i].Assessment = job.Assessment()
			apps[i].Regime = job.Regime
			if apps[i].JobTitle == "" {
				apps[i].JobTitle = job.Title
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(apps, func(i, j int) bool { return apps[i].AppliedAt.After(apps[j].AppliedAt) })
	return apps
}

// Populate rebuilds the submission guard for the jobs of apps that carry an
// assessment and seeds the pair states. It never fails: unreachable checks
// count as not submitted.
func (f *CandidateFlow) Populate(ctx context.Context, apps []*Application) guard.Report {
	jobIDs := make([]int64, 0, len(apps))
	for _, app := range apps {
		if app.Assessment != nil {
			jobIDs = append(jobIDs, app.JobID)
		}
	}

	report := f.guard.Load(ctx, f.candidateID, jobIDs)
	if report.Stale {
		return report
	}

	for _, app := range apps {
		if app.Assessment == nil {
			continue
		}
		state := StateNotSubmitted
		if f.guard.Contains(app.JobID) {
			state = StateSubmitted
		}
		f.tracker.Observe(app.Key(), state)
	}

	return report
}

// View decides what to offer for app.
func (f *CandidateFlow) View(app *Application) View {
	state := f.tracker.State(app.Key())

	if app.Assessment == nil {
		return View{State: StateNoAssessment, Affordance: AffordanceNone}
	}
	if !f.guard.Loaded() {
		return View{State: state, Affordance: AffordanceLoading}
	}
	if f.guard.Contains(app.JobID) {
		return View{State: state, Affordance: AffordanceAlreadySubmitted}
	}
	if app.Status != devmatch.StatusAccepted {
		return View{State: state, Affordance: AffordanceAwaitingAcceptance}
	}

	if app.Assessment.HasQuestions() {
		buf, _ := f.Answers(app)
		return View{State: state, Affordance: AffordanceQuestionsForm, Answers: buf}
	}

	return View{State: state, Affordance: AffordancePDFUpload, PDFURL: app.Assessment.URL}
}

// Answers returns the answer buffer of app, creating it from the question
// starter code on first use.
func (f *CandidateFlow) Answers(app *Application) (*AnswerBuffer, error) {
	if !app.Assessment.HasQuestions() {
		return nil, ErrUnsupportedResponse
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	buf, ok := f.answers[app.ID]
	if !ok {
		buf = newAnswerBuffer(app.Assessment.Questions)
		f.answers[app.ID] = buf
	}
	return buf, nil
}

// Submitted reports whether a submission is known for jobID.
func (f *CandidateFlow) Submitted(jobID int64) bool {
	return f.guard.Contains(jobID)
}

// SubmissionID returns the id of a submission made through this flow.
func (f *CandidateFlow) SubmissionID(jobID int64) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.submissions[jobID]
	return id, ok
}

// SubmitAnswers sends the assembled answers for a questions assessment.
func (f *CandidateFlow) SubmitAnswers(ctx context.Context, app *Application) (int64, error) {
	if !app.Assessment.HasQuestions() {
		return 0, ErrUnsupportedResponse
	}

	buf, err := f.Answers(app)
	if err != nil {
		return 0, err
	}

	return f.submit(ctx, app, func() (*assessment.Submission, error) {
		return assessment.NewAnswersSubmission(app.JobID, f.candidateID, buf.Assemble())
	})
}

// SubmitUpload sends a converted file for a PDF assessment. The upload must
// be the live session of its application.
func (f *CandidateFlow) SubmitUpload(ctx context.Context, u *Upload) (int64, error) {
	if u == nil {
		return 0, ErrUploadNotReady
	}

	app := u.app
	if !app.Assessment.IsPDF() {
		return 0, ErrUnsupportedResponse
	}

	f.mu.Lock()
	current := f.uploads[app.ID]
	f.mu.Unlock()
	if current != u {
		return 0, ErrStaleUpload
	}

	filename, body, err := u.result()
	if err != nil {
		return 0, err
	}

	return f.submit(ctx, app, func() (*assessment.Submission, error) {
		return assessment.NewEncodedFileSubmission(app.JobID, f.candidateID, filename, body)
	})
}

// submit reserves the job, sends the submission and, on success, marks the
// guard and advances the pair while still holding the reservation lock. On
// failure nothing but the reservation changes.
func (f *CandidateFlow) submit(ctx context.Context, app *Application, build func() (*assessment.Submission, error)) (int64, error) {
	if err := f.reserve(app); err != nil {
		f.logger.Info("submission refused", append(logger.PairFields(app.JobID, 0), zap.Error(err))...)
		return 0, err
	}

	sub, err := build()
	if err != nil {
		f.release(app.JobID)
		return 0, fmt.Errorf("build submission: %w", err)
	}

	id, err := f.gw.SubmitAssessment(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, app.JobID)

	if err != nil {
		f.logger.Warn("submission failed", append(logger.PairFields(app.JobID, 0), zap.Error(err))...)
		return 0, fmt.Errorf("submit assessment: %w", err)
	}

	f.guard.Mark(app.JobID)
	f.submissions[app.JobID] = id
	f.tracker.Observe(app.Key(), StateSubmitted)
	delete(f.answers, app.ID)
	if u, ok := f.uploads[app.ID]; ok {
		u.cancel()
		delete(f.uploads, app.ID)
	}

	f.logger.Info("assessment submitted", logger.SubmissionFields(app.JobID, 0, id)...)

	return id, nil
}

func (f *CandidateFlow) reserve(app *Application) error {
	if app.CandidateID != f.candidateID {
		return ErrForeignApplication
	}
	if app.Assessment == nil {
		return ErrNoAssessment
	}
	if app.Status != devmatch.StatusAccepted {
		return ErrNotEligible
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.guard.Loaded() {
		return ErrGuardNotLoaded
	}
	if f.guard.Contains(app.JobID) {
		return ErrAlreadySubmitted
	}
	if _, busy := f.inFlight[app.JobID]; busy {
		return ErrSubmissionInFlight
	}

	f.inFlight[app.JobID] = struct{}{}
	return nil
}

func (f *CandidateFlow) release(jobID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inFlight, jobID)
}

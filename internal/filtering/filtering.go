// Package filtering narrows a candidate's application list in named steps.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/workflow"
)

// Filter represents a single filtering step applied to applications.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, apps []*workflow.Application) ([]*workflow.Application, Step, error)
}

// SubmissionChecker reports known submissions. *workflow.CandidateFlow
// satisfies it.
type SubmissionChecker interface {
	Submitted(jobID int64) bool
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Submissions SubmissionChecker
	Logger      *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	// Statuses keeps only applications in one of these statuses. Empty keeps all.
	Statuses []devmatch.ApplicationStatus
	// ExcludeFile lists job ids to hide.
	ExcludeFile string
	// IncludeSubmitted keeps applications whose assessment was already sent.
	IncludeSubmitted bool
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DefaultSteps is the standard pipeline for the applications listing.
func DefaultSteps() []Filter {
	return []Filter{
		NewWithAssessment(),
		NewStatus(),
		NewExcludeFile(),
		NewSubmitted(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates every enabled filter, then applies them in order.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, apps []*workflow.Application) ([]*workflow.Application, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, apps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		apps = next
	}

	return apps, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the applications matching pred and the job ids of the others.
func keep(apps []*workflow.Application, pred func(*workflow.Application) bool) ([]*workflow.Application, []int64) {
	out := make([]*workflow.Application, 0, len(apps))
	var dropped []int64
	for _, app := range apps {
		if pred(app) {
			out = append(out, app)
			continue
		}
		dropped = append(dropped, app.JobID)
	}
	return out, dropped
}

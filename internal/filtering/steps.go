package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/workflow"
)

const includeSubmittedMsg = "include-submitted flag is set"

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type withAssessmentFilter struct {
	toggle
}

// NewWithAssessment creates a filter that removes applications whose job has
// no assessment assigned.
func NewWithAssessment() Filter {
	return &withAssessmentFilter{}
}

func (f *withAssessmentFilter) Name() string { return "with_assessment" }

func (f *withAssessmentFilter) Validate(*Config) error { return nil }

func (f *withAssessmentFilter) Apply(_ context.Context, deps Deps, apps []*workflow.Application) ([]*workflow.Application, Step, error) {
	initial := len(apps)
	out, dropped := keep(apps, func(a *workflow.Application) bool { return a.Assessment != nil })
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding applications without assessment",
			zap.Int64s("excluded_jobs", dropped),
			zap.Int("applications_left", len(out)),
		)
	}

	return out, Step{Initial: initial, Dropped: len(dropped), Left: len(out)}, nil
}

func (f *withAssessmentFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type statusFilter struct {
	toggle
	allowed map[devmatch.ApplicationStatus]struct{}
}

// NewStatus creates a filter that keeps applications in the configured statuses.
func NewStatus() Filter {
	return &statusFilter{}
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Validate(cfg *Config) error {
	f.allowed = make(map[devmatch.ApplicationStatus]struct{}, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		switch s {
		case devmatch.StatusPending, devmatch.StatusInReview, devmatch.StatusAccepted, devmatch.StatusRejected:
			f.allowed[s] = struct{}{}
		default:
			return fmt.Errorf("unknown application status %q", s)
		}
	}
	return nil
}

func (f *statusFilter) Apply(_ context.Context, deps Deps, apps []*workflow.Application) ([]*workflow.Application, Step, error) {
	initial := len(apps)
	if len(f.allowed) == 0 {
		return apps, Step{Initial: initial, Left: initial}, nil
	}

	out, dropped := keep(apps, func(a *workflow.Application) bool {
		_, ok := f.allowed[a.Status]
		return ok
	})
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding applications by status",
			zap.Int64s("excluded_jobs", dropped),
			zap.Int("applications_left", len(out)),
		)
	}

	return out, Step{Initial: initial, Dropped: len(dropped), Left: len(out)}, nil
}

func (f *statusFilter) Status() Status {
	statuses := make([]string, 0, len(f.allowed))
	for s := range f.allowed {
		statuses = append(statuses, string(s))
	}
	details := map[string]string{}
	if len(statuses) > 0 {
		details["statuses"] = strings.Join(statuses, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeFileFilter struct {
	toggle
	path string
	jobs map[int64]struct{}
}

// NewExcludeFile creates a filter that removes applications for jobs listed
// under the "jobs" key of a YAML or JSON file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = strings.TrimSpace(cfg.ExcludeFile)
	f.jobs = nil
	if f.path == "" {
		return nil
	}

	ids, err := ReadExcludedJobs(f.path)
	if err != nil {
		return err
	}

	f.jobs = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		f.jobs[id] = struct{}{}
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, apps []*workflow.Application) ([]*workflow.Application, Step, error) {
	initial := len(apps)
	if len(f.jobs) == 0 {
		return apps, Step{Initial: initial, Left: initial}, nil
	}

	out, dropped := keep(apps, func(a *workflow.Application) bool {
		_, excluded := f.jobs[a.JobID]
		return !excluded
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding applications based on exclude file",
			zap.String("path", f.path),
			zap.Int64s("excluded_jobs", dropped),
			zap.Int("applications_left", len(out)),
		)
	}

	return out, Step{Initial: initial, Dropped: len(dropped), Left: len(out)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
		details["jobs"] = strconv.Itoa(len(f.jobs))
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// ReadExcludedJobs loads the "jobs" list of an exclude file.
func ReadExcludedJobs(path string) ([]int64, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read exclude file %s: %w", path, err)
	}

	raw := v.GetIntSlice("jobs")
	ids := make([]int64, 0, len(raw))
	for _, id := range raw {
		if id <= 0 {
			return nil, fmt.Errorf("exclude file %s: invalid job id %d", path, id)
		}
		ids = append(ids, int64(id))
	}
	return ids, nil
}

type submittedFilter struct {
	toggle
	include bool
}

// NewSubmitted creates a filter that removes applications whose assessment
// was already submitted.
func NewSubmitted() Filter {
	return &submittedFilter{}
}

func (f *submittedFilter) Name() string { return "already_submitted" }

func (f *submittedFilter) Validate(cfg *Config) error {
	f.include = cfg.IncludeSubmitted
	return nil
}

func (f *submittedFilter) Apply(_ context.Context, deps Deps, apps []*workflow.Application) ([]*workflow.Application, Step, error) {
	initial := len(apps)
	if f.include {
		deps.Logger.Debug("keeping submitted applications", zap.String("reason", includeSubmittedMsg))
		return apps, Step{Initial: initial, Left: initial}, nil
	}

	if deps.Submissions == nil {
		return apps, Step{}, errors.New("submission checker is required")
	}

	out, dropped := keep(apps, func(a *workflow.Application) bool { return !deps.Submissions.Submitted(a.JobID) })
	if len(dropped) > 0 {
		deps.Logger.Info("excluding applications with a submitted assessment",
			zap.Int64s("excluded_jobs", dropped),
			zap.Int("applications_left", len(out)),
		)
	}

	return out, Step{Initial: initial, Dropped: len(dropped), Left: len(out)}, nil
}

func (f *submittedFilter) Status() Status {
	details := map[string]string{
		"exclude_submitted": strconv.FormatBool(!f.include),
	}
	reason := f.reason
	if f.include && reason == "" {
		reason = includeSubmittedMsg
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}

package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/workflow"
)

type submittedSet map[int64]bool

func (s submittedSet) Submitted(jobID int64) bool { return s[jobID] }

func sampleApps() []*workflow.Application {
	pdf := assessment.PDF("https://example.com/test.pdf")
	return []*workflow.Application{
		{ID: 1, JobID: 10, Status: devmatch.StatusAccepted, Assessment: pdf},
		{ID: 2, JobID: 20, Status: devmatch.StatusPending, Assessment: pdf},
		{ID: 3, JobID: 30, Status: devmatch.StatusAccepted},
		{ID: 4, JobID: 40, Status: devmatch.StatusAccepted, Assessment: pdf},
	}
}

func jobIDs(apps []*workflow.Application) []int64 {
	out := make([]int64, len(apps))
	for i, a := range apps {
		out[i] = a.JobID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunDefaultSteps(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	deps := Deps{Submissions: submittedSet{40: true}, Logger: zap.New(core)}
	cfg := &Config{Statuses: []devmatch.ApplicationStatus{devmatch.StatusAccepted}}

	out, err := Run(context.Background(), cfg, deps, DefaultSteps(), sampleApps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := jobIDs(out); !equalIDs(got, []int64{10}) {
		t.Fatalf("unexpected applications left: %v", got)
	}

	if logs.FilterMessage("excluding applications with a submitted assessment").Len() != 1 {
		t.Fatalf("expected log entry for submitted applications")
	}
}

func TestRunIncludeSubmitted(t *testing.T) {
	deps := Deps{Submissions: submittedSet{40: true}}
	cfg := &Config{IncludeSubmitted: true}

	out, err := Run(context.Background(), cfg, deps, DefaultSteps(), sampleApps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := jobIDs(out); !equalIDs(got, []int64{10, 20, 40}) {
		t.Fatalf("unexpected applications left: %v", got)
	}
}

func TestRunRejectsUnknownStatus(t *testing.T) {
	cfg := &Config{Statuses: []devmatch.ApplicationStatus{"hired"}}

	if _, err := Run(context.Background(), cfg, Deps{}, DefaultSteps(), sampleApps()); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDisabledStepIsSkipped(t *testing.T) {
	steps := DefaultSteps()
	DisableByName(steps, "with_assessment", "show everything")

	out, err := Run(context.Background(), &Config{IncludeSubmitted: true}, Deps{}, steps, sampleApps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected all applications, got %d", len(out))
	}

	for _, status := range Describe(steps) {
		if status.Name == "with_assessment" {
			if status.Enabled || status.Reason != "show everything" {
				t.Fatalf("unexpected status %+v", status)
			}
			return
		}
	}
	t.Fatal("with_assessment status not described")
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.yaml")
	if err := os.WriteFile(path, []byte("jobs:\n  - 10\n  - 99\n"), 0o600); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	cfg := &Config{ExcludeFile: path, IncludeSubmitted: true}
	out, err := Run(context.Background(), cfg, Deps{}, DefaultSteps(), sampleApps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := jobIDs(out); !equalIDs(got, []int64{20, 40}) {
		t.Fatalf("unexpected applications left: %v", got)
	}
}

func TestExcludeFileMissing(t *testing.T) {
	cfg := &Config{ExcludeFile: filepath.Join(t.TempDir(), "absent.yaml")}

	if _, err := Run(context.Background(), cfg, Deps{}, DefaultSteps(), sampleApps()); err == nil {
		t.Fatal("expected error for missing exclude file")
	}
}

func TestSubmittedRequiresChecker(t *testing.T) {
	if _, err := Run(context.Background(), &Config{}, Deps{}, []Filter{NewSubmitted()}, sampleApps()); err == nil {
		t.Fatal("expected error without submission checker")
	}
}

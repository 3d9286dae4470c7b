package ai

import (
	"context"

	"github.com/spigell/assessment-flow/internal/assessment"
)

// ReviewHint is an AI opinion on a set of answers. It is advisory only and
// never changes the workflow.
type ReviewHint struct {
	Score     float64
	Summary   string
	Strengths []string
	Concerns  []string
	Raw       string
}

// ReviewRequest is the context given to a Reviewer.
type ReviewRequest struct {
	JobTitle string
	// Assessment may be nil when the job could not be loaded.
	Assessment *assessment.Spec
	Answers    []assessment.Answer
}

type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (*ReviewHint, error)
}

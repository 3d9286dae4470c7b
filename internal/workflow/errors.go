package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/assessment-flow/internal/devmatch"
)

var (
	ErrNoAssessment        = errors.New("job has no assessment")
	ErrNotEligible         = errors.New("application is not accepted")
	ErrGuardNotLoaded      = errors.New("submission history is still loading")
	ErrAlreadySubmitted    = errors.New("assessment already submitted")
	ErrSubmissionInFlight  = errors.New("submission already in progress")
	ErrUnsupportedResponse = errors.New("response type does not match the assessment")
	ErrForeignApplication  = errors.New("application belongs to another candidate")
	ErrQuestionIndex       = errors.New("question index out of range")
	ErrStaleUpload         = errors.New("upload was dismissed or replaced")
	ErrUploadNotReady      = errors.New("file conversion has not finished")
	ErrFileTooLarge        = errors.New("file is too large")
)

// UserMessage renders err as a short message suitable for a dismissible
// notice. Unknown errors get a generic text.
func UserMessage(err error) string {
	var apiErr *devmatch.APIError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadySubmitted):
		return "You have already submitted this assessment."
	case errors.Is(err, ErrSubmissionInFlight):
		return "Your submission is being sent, please wait."
	case errors.Is(err, ErrGuardNotLoaded):
		return "Still checking your previous submissions, try again in a moment."
	case errors.Is(err, ErrNotEligible):
		return "The assessment becomes available once your application is accepted."
	case errors.Is(err, ErrNoAssessment):
		return "This job has no assessment."
	case errors.Is(err, ErrUnsupportedResponse):
		return "This assessment expects a different kind of answer."
	case errors.Is(err, ErrStaleUpload):
		return "The upload was cancelled."
	case errors.Is(err, ErrUploadNotReady):
		return "The file is still being prepared."
	case errors.Is(err, ErrFileTooLarge):
		return fmt.Sprintf("The file exceeds the %d MB limit.", MaxUploadSize>>20)
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer. Please try again."
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return fmt.Sprintf("The server rejected the request: %s", apiErr.Message)
		}
		return fmt.Sprintf("The server rejected the request (%s).", apiErr.Status)
	case errors.Is(err, devmatch.ErrRequestFailed):
		return "Could not reach the server. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

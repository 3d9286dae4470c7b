package devmatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/assessment"
)

const apiSubmissionsPath = "/tests/submissions"

// SubmissionSummary is one entry of the submission history for a pair.
type SubmissionSummary struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"vagaId"`
	CandidateID int64     `json:"usuarioId"`
	SubmittedAt time.Time `json:"submittedAt"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score"`
}

// AnswerDetail is a stored answer with the optional grading result.
type AnswerDetail struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code"`
	Result   string `json:"result"`
}

// SubmissionDetail is the full stored submission.
type SubmissionDetail struct {
	ID          int64          `json:"id"`
	JobID       int64          `json:"vagaId"`
	CandidateID int64          `json:"usuarioId"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Status      string         `json:"status"`
	Score       *float64       `json:"score"`
	RawPayload  string         `json:"rawPayload"`
	Answers     []AnswerDetail `json:"answers"`
}

// Response decodes the detail into its presentable form.
func (d *SubmissionDetail) Response() *assessment.Response {
	answers := make([]assessment.Answer, 0, len(d.Answers))
	for _, a := range d.Answers {
		answers = append(answers, assessment.Answer{Title: a.Title, Language: a.Language, Code: a.Code})
	}
	return assessment.ParseResponse(answers, d.RawPayload)
}

type approveRequest struct {
	ContractType assessment.ContractType `json:"contractType"`
}

// SubmitAssessment stores a submission and returns its id.
func (c *Client) SubmitAssessment(ctx context.Context, sub *assessment.Submission) (int64, error) {
	if sub == nil {
		return 0, fmt.Errorf("submission is required")
	}

	payload, err := c.do(ctx, http.MethodPost, apiSubmissionsPath, sub)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := decodeJSON(payload, &id); err != nil {
		return 0, fmt.Errorf("submit assessment: %w", err)
	}

	c.logger.Debug("assessment submitted",
		zap.Int64("job_id", sub.JobID),
		zap.Int64("candidate_id", sub.CandidateID),
		zap.Int64("submission_id", id),
	)

	return id, nil
}

// ListSubmissions returns every submission of a candidate for a job.
func (c *Client) ListSubmissions(ctx context.Context, jobID, candidateID int64) ([]SubmissionSummary, error) {
	path := fmt.Sprintf("%s/by-user/%d/%d", apiSubmissionsPath, jobID, candidateID)

	var out []SubmissionSummary
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// GetSubmissionDetail returns nil without error when the submission does not exist.
func (c *Client) GetSubmissionDetail(ctx context.Context, submissionID int64) (*SubmissionDetail, error) {
	path := fmt.Sprintf("%s/detail/%d", apiSubmissionsPath, submissionID)

	var out SubmissionDetail
	if err := c.getJSON(ctx, path, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &out, nil
}

// ApproveSubmission approves a submission and returns the created contract id.
// The backend treats repeated approvals of one submission as the same contract.
func (c *Client) ApproveSubmission(ctx context.Context, submissionID int64, contractType assessment.ContractType, approverID int64) (int64, error) {
	path := fmt.Sprintf("%s/%d/approve", apiSubmissionsPath, submissionID)

	payload, err := c.do(ctx, http.MethodPost, path, approveRequest{ContractType: contractType}, withActor(approverID))
	if err != nil {
		return 0, err
	}

	var contractID int64
	if err := decodeJSON(payload, &contractID); err != nil {
		return 0, fmt.Errorf("approve submission: %w", err)
	}

	return contractID, nil
}

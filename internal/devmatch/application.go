package devmatch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const apiApplicationsPath = "/candidaturas"

// ApplicationStatus is the normalized status of a job application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusInReview ApplicationStatus = "in_review"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

var wireStatuses = map[string]ApplicationStatus{
	"pendente":   StatusPending,
	"pending":    StatusPending,
	"em_analise": StatusInReview,
	"in_review":  StatusInReview,
	"aceito":     StatusAccepted,
	"aceita":     StatusAccepted,
	"accepted":   StatusAccepted,
	"rejeitado":  StatusRejected,
	"rejeitada":  StatusRejected,
	"rejected":   StatusRejected,
}

// ParseApplicationStatus maps a backend status onto the normalized set.
// Unknown values are reported as pending.
func ParseApplicationStatus(value string) ApplicationStatus {
	if status, ok := wireStatuses[strings.ToLower(strings.TrimSpace(value))]; ok {
		return status
	}
	return StatusPending
}

// ApplicationRecord is an application as listed by the backend.
type ApplicationRecord struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"vagaId"`
	CandidateID int64     `json:"usuarioId"`
	RawStatus   string    `json:"status"`
	AppliedAt   time.Time `json:"dataCandidatura"`
	Message     string    `json:"mensagem"`
	JobTitle    string    `json:"tituloVaga"`
	Candidate   string    `json:"nomeUsuario"`
}

func (a *ApplicationRecord) Status() ApplicationStatus {
	return ParseApplicationStatus(a.RawStatus)
}

// ListApplications returns every application made by a candidate.
func (c *Client) ListApplications(ctx context.Context, candidateID int64) ([]ApplicationRecord, error) {
	var out []ApplicationRecord
	if err := c.getJSON(ctx, fmt.Sprintf("%s/usuario/%d", apiApplicationsPath, candidateID), &out); err != nil {
		return nil, err
	}

	return out, nil
}

// HasApplied reports whether the candidate already applied to the job.
func (c *Client) HasApplied(ctx context.Context, candidateID, jobID int64) (bool, error) {
	var applied bool
	if err := c.getJSON(ctx, fmt.Sprintf("%s/verificar/%d/%d", apiApplicationsPath, candidateID, jobID), &applied); err != nil {
		return false, err
	}

	return applied, nil
}

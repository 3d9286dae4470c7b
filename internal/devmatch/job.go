package devmatch

import (
	"context"
	"fmt"

	"github.com/spigell/assessment-flow/internal/assessment"
)

const apiJobsPath = "/jobs"

type Job struct {
	ID                int64    `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ExperienceLevel   string   `json:"experienceLevel"`
	Regime            string   `json:"regime"`
	CompensationModel string   `json:"modeloRemuneracao"`
	ReferenceValue    string   `json:"valorReferencia"`
	Modality          string   `json:"localModalidade"`
	Skills            []string `json:"skills"`
	Status            string   `json:"status"`
	// Attachment carries the encoded assessment token.
	Attachment  string `json:"anexo"`
	OwnerID     int64  `json:"usuarioId"`
	CompanyName string `json:"nomeEmpresa"`
}

// Assessment decodes the job attachment. Nil means no assessment.
func (j *Job) Assessment() *assessment.Spec {
	if j == nil {
		return nil
	}
	return assessment.Decode(j.Attachment)
}

// ContractType derives the contract type from the job regime.
func (j *Job) ContractType() assessment.ContractType {
	if j == nil {
		return assessment.ContractPJ
	}
	return assessment.ResolveContractType(j.Regime)
}

// GetJob returns nil without error when the job does not exist.
func (c *Client) GetJob(ctx context.Context, jobID int64) (*Job, error) {
	var out Job
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", apiJobsPath, jobID), &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &out, nil
}

package devmatch

import (
	"context"
	"fmt"
)

const apiMatchingPath = "/matching"

// MatchingDetails is the per criterion breakdown computed by the scoring service.
// Scores are pointers because the service omits criteria it could not evaluate.
type MatchingDetails struct {
	LocationScore    *float64 `json:"scoreLocalizacao"`
	SalaryScore      *float64 `json:"scoreSalario"`
	ContractScore    *float64 `json:"scoreContrato"`
	PreferencesScore *float64 `json:"scorePreferencias"`
	SkillsScore      *float64 `json:"scoreSkills"`
	CommonSkills     []string `json:"skillsEmComum"`
	MissingSkills    []string `json:"skillsFaltantes"`
	PositiveReasons  []string `json:"motivosPositivos"`
	ImprovementIdeas []string `json:"sugestoesMelhoria"`
}

// JobMatch is a job ranked for a candidate.
type JobMatch struct {
	JobID           int64            `json:"vagaId"`
	Title           string           `json:"titulo"`
	Description     string           `json:"descricao"`
	ExperienceLevel string           `json:"experienceLevel"`
	Modality        string           `json:"localModalidade"`
	ReferenceValue  string           `json:"valorReferencia"`
	Regime          string           `json:"regime"`
	Compatibility   float64          `json:"compatibilidade"`
	Skills          []string         `json:"skills"`
	CompanyName     string           `json:"nomeEmpresa"`
	Details         *MatchingDetails `json:"matchingDetails"`
}

// GetCompatibility returns the overall compatibility percentage for a pair.
func (c *Client) GetCompatibility(ctx context.Context, candidateID, jobID int64) (float64, error) {
	var score float64
	if err := c.getJSON(ctx, fmt.Sprintf("%s/compatibilidade/%d/%d", apiMatchingPath, candidateID, jobID), &score); err != nil {
		return 0, err
	}

	return score, nil
}

// GetCompatibleJobs returns the jobs the scoring service matched to a candidate.
func (c *Client) GetCompatibleJobs(ctx context.Context, candidateID int64) ([]JobMatch, error) {
	var out []JobMatch
	if err := c.getJSON(ctx, fmt.Sprintf("%s/vagas-compativeis/%d", apiMatchingPath, candidateID), &out); err != nil {
		return nil, err
	}

	return out, nil
}

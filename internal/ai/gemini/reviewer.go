package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/ai"
	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

// Reviewer asks Gemini for an advisory opinion on structured answers.
type Reviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

var _ ai.Reviewer = (*Reviewer)(nil)

func NewReviewer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Reviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (r *Reviewer) Review(ctx context.Context, req ai.ReviewRequest) (*ai.ReviewHint, error) {
	if len(req.Answers) == 0 {
		return nil, errors.New("answers are required")
	}

	var questions []assessment.Question
	if req.Assessment.HasQuestions() {
		questions = req.Assessment.Questions
	}

	questionsJSON, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}

	answersJSON, err := json.MarshalIndent(req.Answers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	prompt := buildPrompt(req.JobTitle, string(questionsJSON), string(answersJSON))

	r.logger.Debug("gemini review request",
		zap.Int("answers", len(req.Answers)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini review response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	hint, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	hint.Raw = raw
	return hint, nil
}

func buildPrompt(jobTitle, questionsJSON, answersJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job: {{JOB_TITLE}}\n\nQuestions:\n{{QUESTIONS_JSON}}\n\nAnswers:\n{{ANSWERS_JSON}}\n\nJSON Response:"
	}

	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" {
		jobTitle = "unknown"
	}

	prompt := strings.ReplaceAll(template, "{{JOB_TITLE}}", jobTitle)
	prompt = strings.ReplaceAll(prompt, "{{QUESTIONS_JSON}}", questionsJSON)
	prompt = strings.ReplaceAll(prompt, "{{ANSWERS_JSON}}", answersJSON)
	return prompt
}

func parseResponse(raw string) (*ai.ReviewHint, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	switch {
	case math.IsNaN(score) || score < 0:
		score = 0
	case score > 100:
		score = 100
	}

	return &ai.ReviewHint{
		Score:     score,
		Summary:   coerceString(data["summary"]),
		Strengths: coerceStrings(data["strengths"]),
		Concerns:  coerceStrings(data["concerns"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a list or a single string.
func coerceStrings(v any) []string {
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}

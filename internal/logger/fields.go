package logger

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	FieldJobID        = "job_id"
	FieldCandidateID  = "candidate_id"
	FieldSubmissionID = "submission_id"
	FieldContractType = "contract_type"
	FieldActorID      = "actor_id"
	FieldRole         = "role"

	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
)

// StringField is a string valued structured field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Entries with an
// empty key or value are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// PairFields describes a job/candidate pair. Zero ids are omitted.
func PairFields(jobID, candidateID int64) []zap.Field {
	return StringFields(
		StringField{Key: FieldJobID, Value: formatID(jobID)},
		StringField{Key: FieldCandidateID, Value: formatID(candidateID)},
	)
}

// SubmissionFields extends PairFields with the submission id.
func SubmissionFields(jobID, candidateID, submissionID int64) []zap.Field {
	fields := PairFields(jobID, candidateID)
	return append(fields, StringFields(StringField{Key: FieldSubmissionID, Value: formatID(submissionID)})...)
}

// AIFields describes the AI provider and model used for a request.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

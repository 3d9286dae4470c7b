// Package storage persists the review ledger in SQLite so pending reviews
// survive restarts of the operator CLI.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spigell/assessment-flow/internal/ai"
	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/review"
	"github.com/spigell/assessment-flow/internal/workflow"
)

// Store implements review.Ledger on top of gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ review.Ledger = (*Store)(nil)

// NewStore opens the database at dbPath and migrates the schema.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&ReviewRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Track stores e as pending. Older pending submissions of the same pair are
// dropped and a resolved submission is left untouched.
func (s *Store) Track(ctx context.Context, e review.Entry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("job_id = ? AND candidate_id = ? AND resolved = ? AND submission_id <> ?",
				e.Key.JobID, e.Key.CandidateID, false, e.SubmissionID).
			Delete(&ReviewRecord{}).Error; err != nil {
			return fmt.Errorf("drop superseded reviews: %w", err)
		}

		var existing ReviewRecord
		err := tx.First(&existing, "submission_id = ?", e.SubmissionID).Error
		switch {
		case err == nil && existing.Resolved:
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("query review: %w", err)
		}

		rec := toRecord(e)
		rec.Resolved = false
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"job_id",
				"candidate_id",
				"submitted_at",
				"response_kind",
				"suggested",
				"hint",
				"updated_at",
			}),
		}).Create(&rec).Error; err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		return nil
	})
}

// Lookup returns nil without error for an unknown submission.
func (s *Store) Lookup(ctx context.Context, submissionID int64) (*review.Entry, error) {
	var rec ReviewRecord
	if err := s.db.WithContext(ctx).First(&rec, "submission_id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup review: %w", err)
	}

	e := fromRecord(rec)
	return &e, nil
}

func (s *Store) Resolve(ctx context.Context, submissionID int64, key workflow.PairKey, ct assessment.ContractType, contractID int64) error {
	resolvedAt := s.now().UTC()
	rec := ReviewRecord{
		SubmissionID: submissionID,
		JobID:        key.JobID,
		CandidateID:  key.CandidateID,
		Resolved:     true,
		ContractType: string(ct),
		ContractID:   contractID,
		ResolvedAt:   &resolvedAt,
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"resolved", "contract_type", "contract_id", "resolved_at", "updated_at"}),
	}).Create(&rec)
	if tx.Error != nil {
		return fmt.Errorf("resolve review: %w", tx.Error)
	}
	return nil
}

func (s *Store) Pending(ctx context.Context) ([]review.Entry, error) {
	var recs []ReviewRecord
	if err := s.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("submitted_at ASC").
		Order("submission_id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}

	out := make([]review.Entry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

func toRecord(e review.Entry) ReviewRecord {
	rec := ReviewRecord{
		SubmissionID: e.SubmissionID,
		JobID:        e.Key.JobID,
		CandidateID:  e.Key.CandidateID,
		SubmittedAt:  e.SubmittedAt.UTC(),
		ResponseKind: int(e.Kind),
		Suggested:    string(e.Suggested),
		Hint:         hintToMap(e.Hint),
		Resolved:     e.Resolved,
		ContractType: string(e.ContractType),
		ContractID:   e.ContractID,
	}
	if !e.ResolvedAt.IsZero() {
		at := e.ResolvedAt.UTC()
		rec.ResolvedAt = &at
	}
	return rec
}

func fromRecord(rec ReviewRecord) review.Entry {
	e := review.Entry{
		Key:          workflow.PairKey{JobID: rec.JobID, CandidateID: rec.CandidateID},
		SubmissionID: rec.SubmissionID,
		SubmittedAt:  rec.SubmittedAt.UTC(),
		Kind:         assessment.ResponseKind(rec.ResponseKind),
		Suggested:    assessment.ContractType(rec.Suggested),
		Hint:         hintFromMap(rec.Hint),
		Resolved:     rec.Resolved,
		ContractType: assessment.ContractType(rec.ContractType),
		ContractID:   rec.ContractID,
	}
	if rec.ResolvedAt != nil {
		e.ResolvedAt = rec.ResolvedAt.UTC()
	}
	return e
}

func hintToMap(h *ai.ReviewHint) datatypes.JSONMap {
	if h == nil {
		return nil
	}
	return datatypes.JSONMap{
		"score":     h.Score,
		"summary":   h.Summary,
		"strengths": h.Strengths,
		"concerns":  h.Concerns,
	}
}

func hintFromMap(m datatypes.JSONMap) *ai.ReviewHint {
	if len(m) == 0 {
		return nil
	}

	h := &ai.ReviewHint{}
	if score, ok := m["score"].(float64); ok {
		h.Score = score
	}
	h.Summary, _ = m["summary"].(string)
	h.Strengths = stringList(m["strengths"])
	h.Concerns = stringList(m["concerns"])
	return h
}

func stringList(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

package storage

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewRecord is the persisted form of a review ledger entry, one row per
// submission.
type ReviewRecord struct {
	SubmissionID int64     `gorm:"primaryKey;autoIncrement:false"`
	JobID        int64     `gorm:"index:idx_review_pair"`
	CandidateID  int64     `gorm:"index:idx_review_pair"`
	SubmittedAt  time.Time `gorm:"index"`
	ResponseKind int
	Suggested    string
	// Hint holds the AI opinion, if any.
	Hint         datatypes.JSONMap
	Resolved     bool `gorm:"index"`
	ContractType string
	ContractID   int64
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ReviewRecord) TableName() string { return "review_ledger" }

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/assessment-flow/internal/ai"
	"github.com/spigell/assessment-flow/internal/assessment"
	"github.com/spigell/assessment-flow/internal/review"
	"github.com/spigell/assessment-flow/internal/workflow"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreTrackAndPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key := workflow.PairKey{JobID: 5, CandidateID: 9}
	at := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Track(ctx, review.Entry{Key: key, SubmissionID: 10, SubmittedAt: at, Kind: assessment.ResponseFile}))
	require.NoError(t, store.Track(ctx, review.Entry{
		Key:          key,
		SubmissionID: 11,
		SubmittedAt:  at.Add(time.Hour),
		Kind:         assessment.ResponseAnswers,
		Suggested:    assessment.ContractCLT,
		Hint:         &ai.ReviewHint{Score: 72, Summary: "ok", Strengths: []string{"tests"}},
	}))
	require.NoError(t, store.Track(ctx, review.Entry{Key: workflow.PairKey{JobID: 6, CandidateID: 9}, SubmissionID: 3, SubmittedAt: at.Add(-time.Hour)}))

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(3), pending[0].SubmissionID)
	assert.Equal(t, int64(11), pending[1].SubmissionID)
	assert.Equal(t, assessment.ResponseAnswers, pending[1].Kind)
	assert.Equal(t, assessment.ContractCLT, pending[1].Suggested)
	require.NotNil(t, pending[1].Hint)
	assert.Equal(t, 72.0, pending[1].Hint.Score)
	assert.Equal(t, []string{"tests"}, pending[1].Hint.Strengths)

	superseded, err := store.Lookup(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, superseded)
}

func TestStoreResolve(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key := workflow.PairKey{JobID: 5, CandidateID: 9}

	require.NoError(t, store.Track(ctx, review.Entry{Key: key, SubmissionID: 10, SubmittedAt: time.Now()}))
	require.NoError(t, store.Resolve(ctx, 10, key, assessment.ContractPJ, 700))

	entry, err := store.Lookup(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Resolved)
	assert.Equal(t, int64(700), entry.ContractID)
	assert.Equal(t, assessment.ContractPJ, entry.ContractType)
	assert.False(t, entry.ResolvedAt.IsZero())

	// tracking the same submission again keeps it resolved
	require.NoError(t, store.Track(ctx, review.Entry{Key: key, SubmissionID: 10, SubmittedAt: time.Now()}))
	entry, err = store.Lookup(ctx, 10)
	require.NoError(t, err)
	assert.True(t, entry.Resolved)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	key := workflow.PairKey{JobID: 1, CandidateID: 2}

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Track(ctx, review.Entry{Key: key, SubmissionID: 8, SubmittedAt: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entry, err := reopened.Lookup(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, key, entry.Key)
}

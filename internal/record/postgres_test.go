package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-lottery/internal/domain"
)

func TestPostgresRecorder_RecordAndLatestRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	recorder := NewPostgresRecorder(pool)

	result := sampleResult()
	require.NoError(t, recorder.Record(ctx, result))

	got, err := recorder.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.Timestamp.Equal(result.Timestamp), "timestamps differ: %v vs %v", got.Timestamp, result.Timestamp)
	assert.Equal(t, result.Endpoint, got.Endpoint)
	assert.Equal(t, result.HolderCount, got.HolderCount)
	assert.Equal(t, result.Overall, got.Overall)
	assert.Equal(t, result.Winners, got.Winners)
	assert.Equal(t, result.Batches, got.Batches)
}

func TestPostgresRecorder_LatestRunPicksNewest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	recorder := NewPostgresRecorder(pool)

	old := sampleResult()
	require.NoError(t, recorder.Record(ctx, old))

	newest := sampleResult()
	newest.Timestamp = old.Timestamp.Add(48 * time.Hour)
	newest.Overall = domain.OverallSuccess
	require.NoError(t, recorder.Record(ctx, newest))

	got, err := recorder.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.OverallSuccess, got.Overall)
	assert.True(t, got.Timestamp.Equal(newest.Timestamp))
}

func TestPostgresRecorder_LatestRunEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	recorder := NewPostgresRecorder(pool)
	got, err := recorder.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

package record

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-lottery/internal/domain"
)

func sampleResult() *domain.RunResult {
	return &domain.RunResult{
		Timestamp:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Endpoint:    "https://api.mainnet-beta.solana.com",
		HolderCount: 120,
		Winners: []domain.WinnerResult{
			{Address: "winner1", Amount: 1000, Outcome: domain.WinnerPaid, Signature: "sigA"},
			{Address: "winner2", Amount: 1000, Outcome: domain.WinnerFailed, Reason: "send transaction: rate limited (429)"},
			{Address: "winner3", Amount: 1000, Outcome: domain.WinnerNotAttempted},
		},
		Batches: []domain.BatchReport{
			{Index: 0, Winners: []string{"winner1"}, Status: domain.BatchConfirmed, Signature: "sigA"},
			{Index: 1, Winners: []string{"winner2"}, Status: domain.BatchFailed, Error: "send transaction: rate limited (429)"},
			{Index: 2, Winners: []string{"winner3"}, Status: domain.BatchPending},
		},
		Overall: domain.OverallPartialFailure,
	}
}

func TestFileRecorder_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lottery_history.json")
	recorder := NewFileRecorder(path)

	require.NoError(t, recorder.Record(context.Background(), sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out historyFile
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "2026-08-28T12:00:00Z", out.LastRun)
	require.Len(t, out.Winners, 3)

	assert.Equal(t, "winner1", out.Winners[0].Address)
	assert.Equal(t, float64(1000), out.Winners[0].Amount)
	assert.Equal(t, "https://solscan.io/tx/sigA", out.Winners[0].Tx)

	// Unpaid winners carry their outcome instead of an explorer link.
	assert.Equal(t, "Failed", out.Winners[1].Tx)
	assert.Equal(t, "NotAttempted", out.Winners[2].Tx)

	assert.Equal(t, domain.OverallPartialFailure, out.Result.Overall)
	assert.Equal(t, 120, out.Result.HolderCount)
	require.Len(t, out.Result.Batches, 3)
	assert.Equal(t, domain.BatchFailed, out.Result.Batches[1].Status)
}

func TestFileRecorder_ReplacesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lottery_history.json")
	recorder := NewFileRecorder(path)

	first := sampleResult()
	require.NoError(t, recorder.Record(context.Background(), first))

	second := sampleResult()
	second.Timestamp = second.Timestamp.Add(24 * time.Hour)
	second.Winners = second.Winners[:1]
	second.Batches = second.Batches[:1]
	second.Overall = domain.OverallSuccess
	require.NoError(t, recorder.Record(context.Background(), second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out historyFile
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "2026-08-29T12:00:00Z", out.LastRun)
	assert.Len(t, out.Winners, 1)
	assert.Equal(t, domain.OverallSuccess, out.Result.Overall)
}

func TestFileRecorder_BadPath(t *testing.T) {
	recorder := NewFileRecorder(filepath.Join(t.TempDir(), "no-such-dir", "history.json"))
	err := recorder.Record(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write history file")
}

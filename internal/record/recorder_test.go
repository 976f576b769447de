package record

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-lottery/internal/domain"
)

type fakeSink struct {
	calls int
	err   error
}

func (f *fakeSink) Record(context.Context, *domain.RunResult) error {
	f.calls++
	return f.err
}

func TestMulti_FansOutToAllSinks(t *testing.T) {
	a := &fakeSink{}
	b := &fakeSink{}
	multi := NewMulti(zap.NewNop(), a, b)

	require.NoError(t, multi.Record(context.Background(), sampleResult()))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestMulti_SinkFailureDoesNotStopOthers(t *testing.T) {
	a := &fakeSink{err: errors.New("disk full")}
	b := &fakeSink{}
	multi := NewMulti(zap.NewNop(), a, b)

	require.NoError(t, multi.Record(context.Background(), sampleResult()))
	assert.Equal(t, 1, b.calls, "second sink must still run")
}

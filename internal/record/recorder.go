// Package record persists run results for downstream consumers.
package record

import (
	"context"

	"go.uber.org/zap"

	"solana-lottery/internal/domain"
)

// Recorder persists one completed run's result.
type Recorder interface {
	Record(ctx context.Context, result *domain.RunResult) error
}

// Multi fans a result out to several sinks. Each sink's failure is logged
// and does not stop the others: losing the audit trail is bad, crashing a
// run that already moved funds is worse.
type Multi struct {
	recorders []Recorder
	logger    *zap.Logger
}

// NewMulti creates a Multi over the given sinks.
func NewMulti(logger *zap.Logger, recorders ...Recorder) *Multi {
	return &Multi{recorders: recorders, logger: logger}
}

// Record writes the result to every sink.
func (m *Multi) Record(ctx context.Context, result *domain.RunResult) error {
	for _, r := range m.recorders {
		if err := r.Record(ctx, result); err != nil {
			m.logger.Error("result recorder failed", zap.Error(err))
		}
	}
	return nil
}

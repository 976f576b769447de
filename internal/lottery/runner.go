// Package lottery coordinates one full run: endpoint selection, holder
// scan, fair draw, batched transfers, result recording. Each phase hands a
// fully materialized result to the next; the engine keeps no state across
// runs.
package lottery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-lottery/internal/domain"
	"solana-lottery/internal/record"
	"solana-lottery/internal/sampler"
	"solana-lottery/internal/solana"
)

// EndpointSelector picks the first live RPC endpoint.
type EndpointSelector interface {
	Select(ctx context.Context, endpoints []domain.Endpoint) (solana.RPCClient, string, error)
}

// HolderScanner builds the eligible holder set.
type HolderScanner interface {
	Scan(ctx context.Context, rpc solana.RPCClient) ([]domain.HolderRecord, error)
}

// Distributor pays winners and reports per-batch and per-winner outcomes.
type Distributor interface {
	Distribute(ctx context.Context, rpc solana.RPCClient, winners []string) ([]domain.TransferBatch, []domain.WinnerResult)
}

// DrawFunc draws winners from the holder set.
type DrawFunc func(holders []domain.HolderRecord, count int) ([]string, error)

// Options for creating a Runner.
type Options struct {
	Endpoints []domain.Endpoint
	Winners   int

	Selector    EndpointSelector
	Scanner     HolderScanner
	Distributor Distributor
	Recorder    record.Recorder

	// Draw defaults to sampler.Draw.
	Draw DrawFunc
	// Now defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// Runner executes one lottery run end to end.
type Runner struct {
	opts Options
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Draw == nil {
		opts.Draw = sampler.Draw
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{opts: opts}
}

// Run executes the full cycle and returns the run result. An error return
// means the run died before any transfer was attempted (no endpoint, scan
// failure); partial transfer failures are reported inside the result, via
// RunResult.Failed, never as an error.
func (r *Runner) Run(ctx context.Context) (*domain.RunResult, error) {
	log := r.opts.Logger
	log.Info("lottery run starting", zap.Int("requested_winners", r.opts.Winners))

	rpc, endpointURL, err := r.opts.Selector.Select(ctx, r.opts.Endpoints)
	if err != nil {
		return nil, fmt.Errorf("select endpoint: %w", err)
	}

	holders, err := r.opts.Scanner.Scan(ctx, rpc)
	if err != nil {
		// No partial snapshot is ever used; a failed scan fails the run.
		return nil, fmt.Errorf("scan holders: %w", err)
	}

	result := &domain.RunResult{
		Timestamp:   r.opts.Now(),
		Endpoint:    endpointURL,
		HolderCount: len(holders),
		Winners:     []domain.WinnerResult{},
		Batches:     []domain.BatchReport{},
	}

	if len(holders) == 0 {
		result.Overall = domain.OverallNoEligibleHolders
		log.Info("no eligible holders, skipping draw and transfers")
		r.record(ctx, result)
		return result, nil
	}

	winners, err := r.opts.Draw(holders, r.opts.Winners)
	if err != nil {
		return nil, fmt.Errorf("draw winners: %w", err)
	}
	log.Info("winners drawn",
		zap.Int("eligible", len(holders)),
		zap.Int("winners", len(winners)))

	batches, winnerResults := r.opts.Distributor.Distribute(ctx, rpc, winners)
	result.Winners = winnerResults
	result.Batches = make([]domain.BatchReport, len(batches))
	for i, b := range batches {
		result.Batches[i] = domain.BatchReport{
			Index:     b.Index,
			Winners:   b.Winners,
			Status:    b.Status,
			Signature: b.Signature,
			Error:     b.Error,
		}
	}

	if result.Failed() {
		result.Overall = domain.OverallPartialFailure
	} else {
		result.Overall = domain.OverallSuccess
	}

	log.Info("lottery run finished",
		zap.String("status", string(result.Overall)),
		zap.Int("batches", len(result.Batches)))

	r.record(ctx, result)
	return result, nil
}

// record hands the result to the recorder exactly once. Persistence
// failures are logged, never fatal: the transfers already happened.
func (r *Runner) record(ctx context.Context, result *domain.RunResult) {
	if r.opts.Recorder == nil {
		return
	}
	if err := r.opts.Recorder.Record(ctx, result); err != nil {
		r.opts.Logger.Error("failed to record run result", zap.Error(err))
	}
}

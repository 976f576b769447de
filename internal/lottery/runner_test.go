package lottery

import (
	"context"
	"errors"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-lottery/internal/domain"
	"solana-lottery/internal/endpoint"
	"solana-lottery/internal/scanner"
	"solana-lottery/internal/solana"
	"solana-lottery/internal/solana/stub"
	"solana-lottery/internal/transfer"
)

// memoryRecorder captures recorded results for assertions.
type memoryRecorder struct {
	results []*domain.RunResult
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, r *domain.RunResult) error {
	if m.err != nil {
		return m.err
	}
	m.results = append(m.results, r)
	return nil
}

// fixture assembles a full runner over stub RPC clients with real selector,
// scanner, and batcher components.
type fixture struct {
	rpc      *stub.RPCClient
	recorder *memoryRecorder
	mint     solanago.PublicKey
	payer    solanago.PrivateKey
	holders  []solanago.PublicKey
}

func newFixture(t *testing.T, holderCount int) *fixture {
	t.Helper()

	f := &fixture{
		rpc:      stub.NewRPCClient(),
		recorder: &memoryRecorder{},
		mint:     solanago.NewWallet().PublicKey(),
		payer:    solanago.NewWallet().PrivateKey,
	}
	for range holderCount {
		owner := solanago.NewWallet().PublicKey()
		f.holders = append(f.holders, owner)
		f.rpc.TokenAccounts = append(f.rpc.TokenAccounts, solana.TokenAccount{
			Address:  "acct-" + owner.String(),
			Owner:    owner.String(),
			Mint:     f.mint.String(),
			UIAmount: 100,
			Decimals: 6,
		})
		ata, _, err := solanago.FindAssociatedTokenAddress(owner, f.mint)
		require.NoError(t, err)
		f.rpc.Accounts[ata.String()] = &solana.AccountInfo{Owner: solana.TokenProgramID}
	}
	return f
}

func (f *fixture) runner(t *testing.T, winners int) *Runner {
	t.Helper()

	batcher, err := transfer.New(transfer.Config{
		Payer:        f.payer,
		Mint:         f.mint,
		Decimals:     6,
		Prize:        1000,
		BatchSize:    2,
		PollInterval: time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	factory := func(string) solana.RPCClient { return f.rpc }
	return New(Options{
		Endpoints:   []domain.Endpoint{{URL: "https://primary", Priority: 0}},
		Winners:     winners,
		Selector:    endpoint.New(factory, time.Second, zap.NewNop()),
		Scanner:     scanner.New(f.mint.String(), f.payer.PublicKey().String(), nil, zap.NewNop()),
		Distributor: batcher,
		Recorder:    f.recorder,
		Now:         func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) },
		Logger:      zap.NewNop(),
	})
}

func TestRun_TwoWinnersFromFiveHoldersAllPaid(t *testing.T) {
	f := newFixture(t, 5)

	result, err := f.runner(t, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OverallSuccess, result.Overall)
	assert.Equal(t, 5, result.HolderCount)
	assert.Equal(t, "https://primary", result.Endpoint)
	assert.False(t, result.Failed())

	require.Len(t, result.Winners, 2)
	eligible := make(map[string]bool)
	for _, h := range f.holders {
		eligible[h.String()] = true
	}
	seen := make(map[string]bool)
	for _, w := range result.Winners {
		assert.Equal(t, domain.WinnerPaid, w.Outcome)
		assert.True(t, eligible[w.Address], "winner %s not from eligible set", w.Address)
		assert.False(t, seen[w.Address], "duplicate winner %s", w.Address)
		seen[w.Address] = true
	}

	// Recorded exactly once.
	require.Len(t, f.recorder.results, 1)
	assert.Equal(t, result, f.recorder.results[0])
}

func TestRun_ZeroEligibleHoldersStopsGracefully(t *testing.T) {
	f := newFixture(t, 0)

	result, err := f.runner(t, 5).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OverallNoEligibleHolders, result.Overall)
	assert.Equal(t, 0, result.HolderCount)
	assert.Empty(t, result.Winners)
	assert.Empty(t, f.rpc.SentTxs, "no transfer may be attempted")
	require.Len(t, f.recorder.results, 1)
}

func TestRun_RequestedCountClampedToEligibleSize(t *testing.T) {
	f := newFixture(t, 3)

	result, err := f.runner(t, 10).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Winners, 3)
	assert.Equal(t, domain.OverallSuccess, result.Overall)
}

func TestRun_AllEndpointsDownFailsBeforeAnyHolderQuery(t *testing.T) {
	f := newFixture(t, 5)
	f.rpc.VersionErr = errors.New("connection refused")

	_, err := f.runner(t, 2).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, endpoint.ErrNoEndpointAvailable)
	assert.NotContains(t, f.rpc.Calls, "getProgramAccounts")
	assert.Empty(t, f.recorder.results)
}

func TestRun_SecondBatchFailurePartialResult(t *testing.T) {
	f := newFixture(t, 4)

	sends := 0
	f.rpc.SendFunc = func(string) (string, error) {
		sends++
		if sends == 1 {
			return "sig-batch-0", nil
		}
		return "", errors.New("blockhash not found")
	}

	// 4 winners, batch size 2 → two batches.
	result, err := f.runner(t, 4).Run(context.Background())
	require.NoError(t, err, "partial batch failure is reported in the result, not as an error")

	assert.Equal(t, domain.OverallPartialFailure, result.Overall)
	assert.True(t, result.Failed())

	require.Len(t, result.Batches, 2)
	assert.Equal(t, domain.BatchConfirmed, result.Batches[0].Status)
	assert.Equal(t, domain.BatchFailed, result.Batches[1].Status)

	assert.Equal(t, domain.WinnerPaid, result.Winners[0].Outcome)
	assert.Equal(t, domain.WinnerPaid, result.Winners[1].Outcome)
	assert.Equal(t, domain.WinnerFailed, result.Winners[2].Outcome)
	assert.Equal(t, domain.WinnerFailed, result.Winners[3].Outcome)

	require.Len(t, f.recorder.results, 1)
}

func TestRun_ScanFailureIsFatal(t *testing.T) {
	f := newFixture(t, 5)
	f.rpc.TokenAccountsErr = errors.New("rate limited (429)")

	_, err := f.runner(t, 2).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, scanner.ErrScanFailed)
	assert.Empty(t, f.rpc.SentTxs)
	assert.Empty(t, f.recorder.results)
}

func TestRun_RecorderFailureDoesNotFailTheRun(t *testing.T) {
	f := newFixture(t, 5)
	f.recorder.err = errors.New("disk full")

	result, err := f.runner(t, 2).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OverallSuccess, result.Overall)
}

// Package scanner enumerates eligible holders of the target mint.
package scanner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-lottery/internal/domain"
	"solana-lottery/internal/solana"
)

// ErrScanFailed wraps holder query failures. The scanner never retries: a
// failure here usually means a rate limit or a dead endpoint, and the
// operator should see it rather than wait behind silent retries.
var ErrScanFailed = errors.New("holder scan failed")

// Scanner builds the eligible holder set for one mint.
type Scanner struct {
	mint     string
	payer    string
	excluded map[string]struct{}
	logger   *zap.Logger
}

// New creates a Scanner. payer is always excluded from the draw; excluded
// lists additional addresses (known pool custodians and the like).
func New(mint, payer string, excluded map[string]struct{}, logger *zap.Logger) *Scanner {
	return &Scanner{mint: mint, payer: payer, excluded: excluded, logger: logger}
}

// Scan queries all token accounts of the mint and returns the filtered,
// deduplicated holder list. An empty result is a valid outcome, not an
// error. Filters apply in order: zero balance, payer self-exclusion,
// configured exclusions; duplicates keep the first occurrence.
func (s *Scanner) Scan(ctx context.Context, rpc solana.RPCClient) ([]domain.HolderRecord, error) {
	accounts, err := rpc.GetTokenAccountsByMint(ctx, s.mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	seen := make(map[string]struct{}, len(accounts))
	holders := make([]domain.HolderRecord, 0, len(accounts))
	dropped := 0

	for _, acct := range accounts {
		if acct.UIAmount <= 0 {
			dropped++
			continue
		}
		if acct.Owner == s.payer {
			dropped++
			continue
		}
		if _, ok := s.excluded[acct.Owner]; ok {
			dropped++
			continue
		}
		// A well-formed ledger response should not repeat an owner, but
		// the contract tolerates it: first occurrence wins.
		if _, ok := seen[acct.Owner]; ok {
			dropped++
			continue
		}
		seen[acct.Owner] = struct{}{}
		holders = append(holders, domain.HolderRecord{
			Owner:     acct.Owner,
			UIBalance: acct.UIAmount,
		})
	}

	s.logger.Info("holder scan complete",
		zap.String("mint", s.mint),
		zap.Int("accounts", len(accounts)),
		zap.Int("eligible", len(holders)),
		zap.Int("dropped", dropped))

	return holders, nil
}

// Package sampler draws a uniform random subset of winners.
package sampler

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"solana-lottery/internal/domain"
)

// Draw selects min(count, len(holders)) distinct winner addresses with
// uniform probability over all subsets of that size. Randomness comes from
// crypto/rand: a predictable generator would let an adversary game the draw.
//
// Semantics are a partial Fisher-Yates shuffle: each round draws a uniform
// index into the not-yet-selected suffix, emits that element, and removes
// it. Removal swaps the chosen element with the last live one and shrinks
// the live window, so each round is O(1).
func Draw(holders []domain.HolderRecord, count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("winner count must be >= 0, got %d", count)
	}
	if count > len(holders) {
		count = len(holders)
	}
	if count == 0 {
		return []string{}, nil
	}

	pool := make([]string, len(holders))
	for i, h := range holders {
		pool[i] = h.Owner
	}

	winners := make([]string, 0, count)
	live := len(pool)
	for range count {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(live)))
		if err != nil {
			return nil, fmt.Errorf("read random index: %w", err)
		}
		i := int(idx.Int64())
		winners = append(winners, pool[i])
		pool[i] = pool[live-1]
		live--
	}
	return winners, nil
}

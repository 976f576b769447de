// Package endpoint selects a live RPC endpoint from a prioritized list.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"solana-lottery/internal/domain"
	"solana-lottery/internal/solana"
)

// ErrNoEndpointAvailable is returned when every candidate fails its probe.
var ErrNoEndpointAvailable = errors.New("no endpoint available")

// ClientFactory builds an RPC client for a URL. Injected so tests can
// substitute stubs per endpoint.
type ClientFactory func(url string) solana.RPCClient

// ProbeError records why one candidate was disqualified.
type ProbeError struct {
	URL string
	Err error
}

// NoEndpointError carries the per-candidate probe errors.
type NoEndpointError struct {
	Attempts []ProbeError
}

func (e *NoEndpointError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.URL, a.Err)
	}
	return fmt.Sprintf("no endpoint available: %s", strings.Join(parts, "; "))
}

func (e *NoEndpointError) Unwrap() error {
	return ErrNoEndpointAvailable
}

// Selector probes candidates strictly in priority order and returns the
// first that answers getVersion. Probes run sequentially, never in parallel.
type Selector struct {
	factory ClientFactory
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Selector. timeout bounds each candidate's probe. A failed
// probe disqualifies the candidate; it is not retried.
func New(factory ClientFactory, timeout time.Duration, logger *zap.Logger) *Selector {
	return &Selector{factory: factory, timeout: timeout, logger: logger}
}

// Select returns a client for the first live endpoint and its URL.
func (s *Selector) Select(ctx context.Context, endpoints []domain.Endpoint) (solana.RPCClient, string, error) {
	ordered := make([]domain.Endpoint, len(endpoints))
	copy(ordered, endpoints)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var attempts []ProbeError
	for _, ep := range ordered {
		client := s.factory(ep.URL)

		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		version, err := client.GetVersion(probeCtx)
		cancel()

		if err != nil {
			s.logger.Warn("endpoint probe failed",
				zap.String("url", ep.URL),
				zap.Error(err))
			attempts = append(attempts, ProbeError{URL: ep.URL, Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.logger.Info("endpoint selected",
			zap.String("url", ep.URL),
			zap.String("version", version.SolanaCore))
		return client, ep.URL, nil
	}

	return nil, "", &NoEndpointError{Attempts: attempts}
}

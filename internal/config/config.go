// Package config builds the immutable run configuration from environment
// variables and flags. Components receive the validated value by parameter;
// nothing reads the environment after startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"solana-lottery/internal/domain"
)

// Validation errors.
var (
	ErrNoEndpoints   = errors.New("at least one RPC endpoint is required")
	ErrBadAddress    = errors.New("malformed address")
	ErrBadPrivateKey = errors.New("malformed payer private key")
)

// Options is the raw flag/env surface, parsed by go-flags in main.
type Options struct {
	RPCURLs        string        `long:"rpc-urls" env:"RPC_URLS" description:"comma-separated RPC endpoints in priority order" default:"https://api.mainnet-beta.solana.com"`
	WSURL          string        `long:"ws-url" env:"WS_URL" description:"optional websocket endpoint for transaction confirmation"`
	Mint           string        `long:"mint" env:"MINT_ADDRESS" description:"token mint address" required:"true"`
	Decimals       uint8         `long:"decimals" env:"TOKEN_DECIMALS" description:"token decimal exponent" default:"6"`
	Prize          float64       `long:"prize" env:"PRIZE_AMOUNT" description:"per-winner prize in whole tokens" default:"1000"`
	Winners        int           `long:"winners" env:"WINNERS_COUNT" description:"requested winner count" default:"5"`
	PayerKey       string        `long:"payer-key" env:"PAYER_PRIVATE_KEY" description:"payer secret key, JSON array or base58" required:"true"`
	Excluded       string        `long:"excluded" env:"EXCLUDED_ADDRESSES" description:"comma-separated addresses excluded from the draw"`
	HistoryFile    string        `long:"history-file" env:"HISTORY_FILE" description:"JSON audit file path" default:"lottery_history.json"`
	DatabaseURL    string        `long:"database-url" env:"DATABASE_URL" description:"optional Postgres DSN for the run history sink"`
	BatchSize      int           `long:"batch-size" env:"BATCH_SIZE" description:"max winners per transaction" default:"5"`
	RPCRateLimit   int           `long:"rpc-rate-limit" env:"RPC_RATE_LIMIT" description:"max RPC requests per second" default:"10"`
	ProbeTimeout   time.Duration `long:"probe-timeout" env:"PROBE_TIMEOUT" description:"per-endpoint liveness probe timeout" default:"10s"`
	ConfirmTimeout time.Duration `long:"confirm-timeout" env:"CONFIRM_TIMEOUT" description:"transaction confirmation timeout" default:"60s"`
}

// Lottery is the validated, immutable run configuration.
type Lottery struct {
	Endpoints []domain.Endpoint
	WSURL     string

	Mint     solanago.PublicKey
	Decimals uint8
	Prize    float64
	Winners  int

	Payer    solanago.PrivateKey
	Excluded map[string]struct{}

	HistoryFile string
	DatabaseURL string

	BatchSize      int
	RPCRateLimit   int
	ProbeTimeout   time.Duration
	ConfirmTimeout time.Duration
}

// Build validates raw options into a Lottery configuration.
func Build(opts Options) (*Lottery, error) {
	endpoints, err := parseEndpoints(opts.RPCURLs)
	if err != nil {
		return nil, err
	}

	mint, err := parseAddress(opts.Mint)
	if err != nil {
		return nil, fmt.Errorf("mint: %w", err)
	}

	payer, err := ParsePrivateKey(opts.PayerKey)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{})
	for _, raw := range splitList(opts.Excluded) {
		addr, err := parseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("excluded address %q: %w", raw, err)
		}
		excluded[addr.String()] = struct{}{}
	}

	if opts.Winners < 0 {
		return nil, fmt.Errorf("winners count must be >= 0, got %d", opts.Winners)
	}
	if opts.Prize <= 0 {
		return nil, fmt.Errorf("prize amount must be positive, got %v", opts.Prize)
	}
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", opts.BatchSize)
	}
	if opts.RPCRateLimit < 1 {
		return nil, fmt.Errorf("rpc rate limit must be >= 1, got %d", opts.RPCRateLimit)
	}

	return &Lottery{
		Endpoints:      endpoints,
		WSURL:          opts.WSURL,
		Mint:           mint,
		Decimals:       opts.Decimals,
		Prize:          opts.Prize,
		Winners:        opts.Winners,
		Payer:          payer,
		Excluded:       excluded,
		HistoryFile:    opts.HistoryFile,
		DatabaseURL:    opts.DatabaseURL,
		BatchSize:      opts.BatchSize,
		RPCRateLimit:   opts.RPCRateLimit,
		ProbeTimeout:   opts.ProbeTimeout,
		ConfirmTimeout: opts.ConfirmTimeout,
	}, nil
}

// PayerAddress returns the payer's public address.
func (c *Lottery) PayerAddress() string {
	return c.Payer.PublicKey().String()
}

func parseEndpoints(raw string) ([]domain.Endpoint, error) {
	urls := splitList(raw)
	if len(urls) == 0 {
		return nil, ErrNoEndpoints
	}
	endpoints := make([]domain.Endpoint, len(urls))
	for i, u := range urls {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return nil, fmt.Errorf("endpoint %q: scheme must be http or https", u)
		}
		endpoints[i] = domain.Endpoint{URL: u, Priority: i}
	}
	return endpoints, nil
}

// parseAddress validates a base58 address and returns it as a public key.
func parseAddress(raw string) (solanago.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	decoded, err := base58.Decode(raw)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	if len(decoded) != 32 {
		return solanago.PublicKey{}, fmt.Errorf("%w: got %d bytes, want 32", ErrBadAddress, len(decoded))
	}
	return solanago.PublicKeyFromBytes(decoded), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

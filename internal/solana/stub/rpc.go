package stub

import (
	"context"
	"fmt"

	"solana-lottery/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Zero value behaves like a healthy node with no accounts; populate the
// maps and error fields to script scenarios.
type RPCClient struct {
	Version    *solana.Version
	VersionErr error

	TokenAccounts    []solana.TokenAccount
	TokenAccountsErr error

	// Accounts maps pubkey to account info; absent keys resolve to nil
	// (account does not exist).
	Accounts map[string]*solana.AccountInfo

	Blockhash    string
	BlockhashErr error

	// SendFunc, when set, overrides SendTransaction for per-call behavior.
	SendFunc  func(txBase64 string) (string, error)
	SendErr   error
	SentTxs   []string
	sendCount int

	// Statuses maps signature to scripted status. Unknown signatures get
	// a confirmed status so happy-path tests need no extra setup.
	Statuses map[string]*solana.SignatureStatus

	// Calls records method names in invocation order.
	Calls []string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Version:   &solana.Version{SolanaCore: "1.18.0", FeatureSet: 1},
		Accounts:  make(map[string]*solana.AccountInfo),
		Blockhash: "GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W",
		Statuses:  make(map[string]*solana.SignatureStatus),
	}
}

// GetVersion returns the scripted version or error.
func (c *RPCClient) GetVersion(_ context.Context) (*solana.Version, error) {
	c.Calls = append(c.Calls, "getVersion")
	if c.VersionErr != nil {
		return nil, c.VersionErr
	}
	return c.Version, nil
}

// GetTokenAccountsByMint returns the scripted token accounts.
func (c *RPCClient) GetTokenAccountsByMint(_ context.Context, _ string) ([]solana.TokenAccount, error) {
	c.Calls = append(c.Calls, "getProgramAccounts")
	if c.TokenAccountsErr != nil {
		return nil, c.TokenAccountsErr
	}
	return c.TokenAccounts, nil
}

// GetAccountInfo returns the scripted account info, nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.Calls = append(c.Calls, "getAccountInfo")
	return c.Accounts[pubkey], nil
}

// GetLatestBlockhash returns the scripted blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	c.Calls = append(c.Calls, "getLatestBlockhash")
	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	return &solana.LatestBlockhash{Blockhash: c.Blockhash, LastValidBlockHeight: 100}, nil
}

// SendTransaction records the transaction and returns a synthetic signature.
func (c *RPCClient) SendTransaction(_ context.Context, txBase64 string) (string, error) {
	c.Calls = append(c.Calls, "sendTransaction")
	if c.SendFunc != nil {
		sig, err := c.SendFunc(txBase64)
		if err == nil {
			c.SentTxs = append(c.SentTxs, txBase64)
		}
		return sig, err
	}
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.SentTxs = append(c.SentTxs, txBase64)
	c.sendCount++
	return fmt.Sprintf("stubsig%d", c.sendCount), nil
}

// GetSignatureStatuses returns scripted statuses, defaulting to confirmed.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.Calls = append(c.Calls, "getSignatureStatuses")
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if s, ok := c.Statuses[sig]; ok {
			statuses[i] = s
			continue
		}
		statuses[i] = &solana.SignatureStatus{Slot: 1, ConfirmationStatus: "confirmed"}
	}
	return statuses, nil
}

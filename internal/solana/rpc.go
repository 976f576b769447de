package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the engine needs.
type RPCClient interface {
	// GetVersion retrieves the node software version. Used as a cheap
	// liveness probe by the endpoint selector.
	GetVersion(ctx context.Context) (*Version, error)

	// GetTokenAccountsByMint retrieves every token account of the given
	// mint via a filtered getProgramAccounts query.
	GetTokenAccountsByMint(ctx context.Context, mint string) ([]TokenAccount, error)

	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction building.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// SendTransaction submits a signed, base64-encoded transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetSignatureStatuses retrieves confirmation status for signatures.
	// The result slice matches the input order; nil entries mean the
	// signature is not yet known to the node.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

package solana

// TokenProgramID is the SPL token program address.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// tokenAccountSize is the byte length of an SPL token account record.
const tokenAccountSize = 165

// Version from getVersion.
type Version struct {
	SolanaCore string
	FeatureSet uint64
}

// TokenAccount is one account holding the target mint.
type TokenAccount struct {
	Address  string  // token account address
	Owner    string  // wallet that owns the token account
	Mint     string
	UIAmount float64 // balance scaled by the mint's decimals
	Amount   string  // raw balance in smallest units
	Decimals uint8
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Executable bool
	RentEpoch  uint64
}

// LatestBlockhash from getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64
	ConfirmationStatus string // "processed" | "confirmed" | "finalized"
	Err                interface{}
}

// Confirmed reports whether the status has reached at least the
// "confirmed" commitment without a transaction error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

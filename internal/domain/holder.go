package domain

// Endpoint is one RPC candidate, tried in ascending Priority order.
type Endpoint struct {
	URL      string
	Priority int
}

// HolderRecord is one eligible holder captured by the snapshot.
// Immutable once captured; the final list never contains two records
// with the same Owner.
type HolderRecord struct {
	Owner     string  // wallet address (token account owner)
	UIBalance float64 // human-readable balance at snapshot time
}

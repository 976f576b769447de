package domain

import "time"

// BatchStatus is the lifecycle state of one transfer batch.
type BatchStatus string

const (
	BatchPending   BatchStatus = "Pending"
	BatchConfirmed BatchStatus = "Confirmed"
	BatchFailed    BatchStatus = "Failed"
)

// WinnerOutcome is the terminal state of one winner at the end of a run.
type WinnerOutcome string

const (
	WinnerPaid         WinnerOutcome = "Paid"
	WinnerNotAttempted WinnerOutcome = "NotAttempted"
	WinnerFailed       WinnerOutcome = "Failed"
)

// OverallStatus summarizes a whole run.
type OverallStatus string

const (
	OverallSuccess           OverallStatus = "Success"
	OverallPartialFailure    OverallStatus = "PartialFailure"
	OverallNoEligibleHolders OverallStatus = "NoEligibleHolders"
)

// TransferBatch is one group of at most BatchSize winners paid by a single
// atomic transaction. Batches exist only for the duration of a run.
type TransferBatch struct {
	Index     int
	Winners   []string
	Signature string // transaction signature, empty until submitted
	Status    BatchStatus
	Error     string // human-readable cause when Status == BatchFailed
}

// WinnerResult is the per-winner outcome recorded in RunResult.
type WinnerResult struct {
	Address   string        `json:"address"`
	Amount    float64       `json:"amount"`
	Outcome   WinnerOutcome `json:"outcome"`
	Signature string        `json:"tx,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

// BatchReport is the per-batch outcome recorded in RunResult.
type BatchReport struct {
	Index     int         `json:"index"`
	Winners   []string    `json:"winners"`
	Status    BatchStatus `json:"status"`
	Signature string      `json:"tx,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RunResult is the single artifact a run hands to the result recorder.
// The engine keeps no state across runs; everything downstream consumers
// need must be in here.
type RunResult struct {
	Timestamp   time.Time      `json:"timestamp"`
	Endpoint    string         `json:"endpoint"`
	HolderCount int            `json:"holderCount"`
	Winners     []WinnerResult `json:"winners"`
	Batches     []BatchReport  `json:"batches"`
	Overall     OverallStatus  `json:"overallStatus"`
}

// Failed reports whether any winner ended the run unpaid after an attempt.
func (r *RunResult) Failed() bool {
	for _, b := range r.Batches {
		if b.Status == BatchFailed {
			return true
		}
	}
	return false
}

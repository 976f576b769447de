package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"solana-lottery/internal/domain"
)

// solscanTxURL is the explorer link prefix used in the history file.
const solscanTxURL = "https://solscan.io/tx/"

// FileRecorder writes the run history JSON consumed by the status frontend.
type FileRecorder struct {
	path string
}

// NewFileRecorder creates a FileRecorder writing to path.
func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

// historyFile is the on-disk shape. The winners block keeps the compact
// address/amount/tx form the frontend already reads; the full result rides
// along for anything richer.
type historyFile struct {
	LastRun string           `json:"lastRun"`
	Winners []historyWinner  `json:"winners"`
	Result  domain.RunResult `json:"result"`
}

type historyWinner struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Tx      string  `json:"tx"`
}

// Record writes the result to the history file, replacing any previous run.
func (f *FileRecorder) Record(_ context.Context, result *domain.RunResult) error {
	out := historyFile{
		LastRun: result.Timestamp.Format(time.RFC3339),
		Winners: make([]historyWinner, 0, len(result.Winners)),
		Result:  *result,
	}
	for _, w := range result.Winners {
		hw := historyWinner{Address: w.Address, Amount: w.Amount}
		switch {
		case w.Signature != "":
			hw.Tx = solscanTxURL + w.Signature
		case w.Outcome == domain.WinnerPaid:
			hw.Tx = "Pending..."
		default:
			hw.Tx = string(w.Outcome)
		}
		out.Winners = append(out.Winners, hw)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

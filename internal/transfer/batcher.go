// Package transfer pays winners in bounded, sequentially executed batches.
package transfer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"solana-lottery/internal/domain"
	"solana-lottery/internal/solana"
)

// ErrRecipientAccountMissing marks a winner whose associated token account
// does not exist. The engine never creates recipient accounts; the winner
// is skipped and recorded, not treated as a fatal run error.
var ErrRecipientAccountMissing = errors.New("recipient token account missing")

// Default batching values.
const (
	DefaultBatchSize      = 5
	DefaultResolveWorkers = 4
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 2 * time.Second
)

// Confirmer waits until a submitted signature reaches confirmed commitment.
type Confirmer interface {
	ConfirmSignature(ctx context.Context, signature string) error
}

// Config parameterizes a Batcher. Zero fields take the package defaults.
type Config struct {
	Payer          solanago.PrivateKey
	Mint           solanago.PublicKey
	Decimals       uint8
	Prize          float64 // whole tokens per winner
	BatchSize      int
	ResolveWorkers int
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Confirmer      Confirmer // optional WebSocket path; polling otherwise
}

// Batcher submits one atomic transaction per batch of winners. Batches run
// strictly in draw order and never in parallel: all transfers spend from
// one signer, and concurrent submission would race its balance and
// sequencing state.
type Batcher struct {
	cfg       Config
	payerPub  solanago.PublicKey
	sourceATA solanago.PublicKey
	amount    uint64 // per-winner amount in smallest units
	logger    *zap.Logger
}

// New creates a Batcher. The payer's own token account for the mint is
// derived once up front.
func New(cfg Config, logger *zap.Logger) (*Batcher, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ResolveWorkers <= 0 {
		cfg.ResolveWorkers = DefaultResolveWorkers
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	payerPub := cfg.Payer.PublicKey()
	sourceATA, _, err := solanago.FindAssociatedTokenAddress(payerPub, cfg.Mint)
	if err != nil {
		return nil, fmt.Errorf("derive payer token account: %w", err)
	}

	return &Batcher{
		cfg:       cfg,
		payerPub:  payerPub,
		sourceATA: sourceATA,
		amount:    BaseAmount(cfg.Prize, cfg.Decimals),
		logger:    logger,
	}, nil
}

// BaseAmount converts a whole-token quantity to smallest units,
// rounding down.
func BaseAmount(prize float64, decimals uint8) uint64 {
	return uint64(math.Floor(prize * math.Pow10(int(decimals))))
}

// Partition splits winners into groups of at most size, preserving order.
func Partition(winners []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(winners); start += size {
		end := start + size
		if end > len(winners) {
			end = len(winners)
		}
		batches = append(batches, winners[start:end])
	}
	return batches
}

// Distribute pays every winner and reports per-batch and per-winner
// outcomes. A failed batch is recorded and never retried, since a
// transaction can confirm after its submission appears to time out and
// resubmitting would risk double payment. Later batches still execute.
func (b *Batcher) Distribute(ctx context.Context, rpc solana.RPCClient, winners []string) ([]domain.TransferBatch, []domain.WinnerResult) {
	results := make([]domain.WinnerResult, len(winners))
	byAddress := make(map[string]*domain.WinnerResult, len(winners))
	for i, w := range winners {
		results[i] = domain.WinnerResult{
			Address: w,
			Amount:  b.cfg.Prize,
			Outcome: domain.WinnerNotAttempted,
		}
		byAddress[w] = &results[i]
	}

	groups := Partition(winners, b.cfg.BatchSize)
	batches := make([]domain.TransferBatch, len(groups))
	for i, group := range groups {
		batches[i] = domain.TransferBatch{
			Index:   i,
			Winners: group,
			Status:  domain.BatchPending,
		}
	}

	for i := range batches {
		if ctx.Err() != nil {
			// Run aborted; remaining winners stay NotAttempted.
			b.logger.Warn("run cancelled before batch", zap.Int("batch", i))
			break
		}

		b.runBatch(ctx, rpc, &batches[i], byAddress)
	}

	return batches, results
}

// runBatch executes one batch end to end and fills in winner outcomes.
func (b *Batcher) runBatch(ctx context.Context, rpc solana.RPCClient, batch *domain.TransferBatch, byAddress map[string]*domain.WinnerResult) {
	log := b.logger.With(zap.Int("batch", batch.Index))

	recipients := b.resolveRecipients(ctx, rpc, batch.Winners, byAddress, log)
	if len(recipients) == 0 {
		// Every winner in the batch lacked a token account; nothing to send.
		batch.Status = domain.BatchConfirmed
		log.Warn("batch empty after recipient resolution, skipping submission")
		return
	}

	sig, err := b.submit(ctx, rpc, recipients)
	if err != nil {
		b.failBatch(batch, byAddress, fmt.Sprintf("submission failed: %v", err))
		log.Error("batch submission failed", zap.Error(err))
		return
	}
	batch.Signature = sig
	log.Info("batch submitted", zap.String("signature", sig), zap.Int("transfers", len(recipients)))

	if err := b.awaitConfirmation(ctx, rpc, sig); err != nil {
		b.failBatch(batch, byAddress, fmt.Sprintf("confirmation failed: %v", err))
		log.Error("batch confirmation failed", zap.String("signature", sig), zap.Error(err))
		return
	}

	batch.Status = domain.BatchConfirmed
	for _, r := range recipients {
		w := byAddress[r.owner]
		w.Outcome = domain.WinnerPaid
		w.Signature = sig
	}
	log.Info("batch confirmed", zap.String("signature", sig))
}

// recipient is a winner whose associated token account exists.
type recipient struct {
	owner string
	ata   solanago.PublicKey
}

// resolveRecipients derives and existence-checks each winner's associated
// token account. Lookups are pure reads with no ordering dependency, so
// they run concurrently, capped to stay within endpoint rate limits.
// Winners without an account are recorded Failed and skipped.
func (b *Batcher) resolveRecipients(ctx context.Context, rpc solana.RPCClient, winners []string, byAddress map[string]*domain.WinnerResult, log *zap.Logger) []recipient {
	type resolved struct {
		idx int
		rec recipient
		err error
	}

	out := make([]resolved, len(winners))
	sem := make(chan struct{}, b.cfg.ResolveWorkers)
	done := make(chan int, len(winners))

	for i, w := range winners {
		go func(i int, owner string) {
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = resolved{idx: i, rec: recipient{owner: owner}}

			ownerPub, err := solanago.PublicKeyFromBase58(owner)
			if err != nil {
				out[i].err = fmt.Errorf("parse winner address: %w", err)
				done <- i
				return
			}
			ata, _, err := solanago.FindAssociatedTokenAddress(ownerPub, b.cfg.Mint)
			if err != nil {
				out[i].err = fmt.Errorf("derive token account: %w", err)
				done <- i
				return
			}
			info, err := rpc.GetAccountInfo(ctx, ata.String())
			if err != nil {
				out[i].err = fmt.Errorf("check token account: %w", err)
				done <- i
				return
			}
			if info == nil {
				out[i].err = ErrRecipientAccountMissing
				done <- i
				return
			}
			out[i].rec.ata = ata
			done <- i
		}(i, w)
	}
	for range winners {
		<-done
	}

	recipients := make([]recipient, 0, len(winners))
	for _, r := range out {
		if r.err != nil {
			w := byAddress[r.rec.owner]
			w.Outcome = domain.WinnerFailed
			w.Reason = r.err.Error()
			log.Warn("winner skipped",
				zap.String("winner", r.rec.owner),
				zap.Error(r.err))
			continue
		}
		recipients = append(recipients, r.rec)
	}
	return recipients
}

// submit builds, signs, and sends one atomic transaction carrying a
// transfer instruction per recipient.
func (b *Batcher) submit(ctx context.Context, rpc solana.RPCClient, recipients []recipient) (string, error) {
	blockhash, err := rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch blockhash: %w", err)
	}
	recent, err := solanago.HashFromBase58(blockhash.Blockhash)
	if err != nil {
		return "", fmt.Errorf("parse blockhash: %w", err)
	}

	instructions := make([]solanago.Instruction, len(recipients))
	for i, r := range recipients {
		instructions[i] = token.NewTransferInstruction(
			b.amount,
			b.sourceATA,
			r.ata,
			b.payerPub,
			nil,
		).Build()
	}

	tx, err := solanago.NewTransaction(instructions, recent, solanago.TransactionPayer(b.payerPub))
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(b.payerPub) {
			return &b.cfg.Payer
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// awaitConfirmation waits up to ConfirmTimeout for the signature to reach
// confirmed commitment, via WebSocket when configured, polling otherwise.
func (b *Batcher) awaitConfirmation(ctx context.Context, rpc solana.RPCClient, sig string) error {
	waitCtx, cancel := context.WithTimeout(ctx, b.cfg.ConfirmTimeout)
	defer cancel()

	if b.cfg.Confirmer != nil {
		err := b.cfg.Confirmer.ConfirmSignature(waitCtx, sig)
		if err == nil || waitCtx.Err() != nil {
			return err
		}
		// Subscription path broke mid-wait; the status query still answers.
		b.logger.Warn("websocket confirmation failed, falling back to polling",
			zap.String("signature", sig), zap.Error(err))
	}

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		statuses, err := rpc.GetSignatureStatuses(waitCtx, []string{sig})
		if err == nil && len(statuses) == 1 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", st.Err)
			}
			if st.Confirmed() {
				return nil
			}
		}

		select {
		case <-waitCtx.Done():
			return fmt.Errorf("confirmation timeout: %w", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// failBatch marks a batch and every not-yet-terminal winner in it Failed.
func (b *Batcher) failBatch(batch *domain.TransferBatch, byAddress map[string]*domain.WinnerResult, reason string) {
	batch.Status = domain.BatchFailed
	batch.Error = reason
	for _, w := range batch.Winners {
		r := byAddress[w]
		if r.Outcome != domain.WinnerNotAttempted {
			continue
		}
		r.Outcome = domain.WinnerFailed
		r.Reason = reason
		r.Signature = batch.Signature
	}
}

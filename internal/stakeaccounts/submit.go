package stakeaccounts

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// Sender submits transactions and waits for them to be confirmed.
type Sender interface {
	RecentHash(ctx context.Context) (types.Hash, error)
	SendAndConfirm(ctx context.Context, t *tx.Transaction) (types.Hash, error)
}

// BatchResult is the outcome of a sequential batch submission.
type BatchResult struct {
	Total int
	// Succeeded lists the batch positions that were confirmed, in order.
	Succeeded []int
	// TxHashes holds the confirmed transaction id for each Succeeded entry.
	TxHashes []types.Hash
	// FailedIndex is the position of the first failure, or -1.
	FailedIndex int
	Err         error
}

// Completed returns how many transactions were confirmed.
func (r *BatchResult) Completed() int {
	return len(r.Succeeded)
}

// Attempted reports whether position i was submitted.
func (r *BatchResult) Attempted(i int) bool {
	if r.FailedIndex < 0 {
		return i < r.Total
	}
	return i <= r.FailedIndex
}

// SubmissionError reports the first failed transaction of a batch.
// Transactions before Index are confirmed and are not rolled back.
type SubmissionError struct {
	Index     int
	Completed int
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction %d failed after %d confirmed: %v", e.Index, e.Completed, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// SubmitAll signs and submits txs one at a time in order, waiting for each
// to be confirmed before starting the next. The first failure stops the
// batch; later transactions are not attempted and nothing is retried. The
// returned BatchResult is always non-nil.
func SubmitAll(ctx context.Context, sender Sender, txs []*tx.Transaction, signers []crypto.Signer) (*BatchResult, error) {
	res := &BatchResult{Total: len(txs), FailedIndex: -1}

	fail := func(i int, err error) (*BatchResult, error) {
		res.FailedIndex = i
		res.Err = err
		log.Submit.Error().
			Int("index", i).
			Int("completed", res.Completed()).
			Err(err).
			Msg("Transaction failed, stopping batch")
		return res, &SubmissionError{Index: i, Completed: res.Completed(), Err: err}
	}

	for i, t := range txs {
		if err := ctx.Err(); err != nil {
			return fail(i, err)
		}

		recent, err := sender.RecentHash(ctx)
		if err != nil {
			return fail(i, fmt.Errorf("recent hash: %w", err))
		}
		t.RecentHash = recent
		if err := tx.Sign(t, signers...); err != nil {
			return fail(i, err)
		}

		hash, err := sender.SendAndConfirm(ctx, t)
		if err != nil {
			return fail(i, err)
		}
		res.Succeeded = append(res.Succeeded, i)
		res.TxHashes = append(res.TxHashes, hash)
		log.Submit.Info().
			Int("index", i).
			Int("total", len(txs)).
			Str("tx", hash.String()).
			Msg("Transaction confirmed")
	}
	return res, nil
}

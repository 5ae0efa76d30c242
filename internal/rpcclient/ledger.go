package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// Confirmation defaults.
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// ErrConfirmTimeout is returned when a submitted transaction is still
// pending after the confirmation timeout.
var ErrConfirmTimeout = errors.New("timed out waiting for confirmation")

// TxFailedError reports a transaction the ledger accepted but failed to
// execute.
type TxFailedError struct {
	Hash   types.Hash
	Reason string
}

func (e *TxFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Hash, e.Reason)
}

// Ledger reads balances and stake accounts and submits transactions over
// JSON-RPC. Submission is never retried.
type Ledger struct {
	client         *Client
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// NewLedger wraps client. Non-positive durations select the defaults.
func NewLedger(client *Client, confirmTimeout, pollInterval time.Duration) *Ledger {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Ledger{
		client:         client,
		confirmTimeout: confirmTimeout,
		pollInterval:   pollInterval,
	}
}

// GetBalance returns the balance of addr; unknown accounts report zero.
func (l *Ledger) GetBalance(ctx context.Context, addr types.Address) (uint64, error) {
	var res BalanceResult
	if err := l.client.CallContext(ctx, MethodGetBalance, AddressParam{Address: addr}, &res); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

// GetStakeAccount returns the ledger state of a stake account. An account
// the node does not know is reported with zero balance and no authorities.
func (l *Ledger) GetStakeAccount(ctx context.Context, addr types.Address) (*stake.AccountState, error) {
	var res StakeAccountResult
	err := l.client.CallContext(ctx, MethodGetStakeAccount, AddressParam{Address: addr}, &res)
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeNotFound {
		return &stake.AccountState{Address: addr}, nil
	}
	if err != nil {
		return nil, err
	}
	res.Address = addr
	return &res, nil
}

// ChainInfo returns the node's chain id, height and tip.
func (l *Ledger) ChainInfo(ctx context.Context) (*ChainInfoResult, error) {
	var res ChainInfoResult
	if err := l.client.CallContext(ctx, MethodChainInfo, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RecentHash returns the current tip hash to anchor a transaction to.
func (l *Ledger) RecentHash(ctx context.Context) (types.Hash, error) {
	info, err := l.ChainInfo(ctx)
	if err != nil {
		return types.Hash{}, err
	}
	return info.TipHash, nil
}

// Submit sends a signed transaction without waiting for confirmation.
func (l *Ledger) Submit(ctx context.Context, t *tx.Transaction) (types.Hash, error) {
	var res TxSubmitResult
	if err := l.client.CallContext(ctx, MethodTxSubmit, TxSubmitParam{Transaction: t}, &res); err != nil {
		return types.Hash{}, err
	}
	return res.TxHash, nil
}

// Status returns the ledger's view of a submitted transaction.
func (l *Ledger) Status(ctx context.Context, hash types.Hash) (*TxStatusResult, error) {
	var res TxStatusResult
	if err := l.client.CallContext(ctx, MethodTxStatus, HashParam{Hash: hash}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendAndConfirm submits t and polls its status until it is confirmed,
// fails, the confirmation timeout passes or ctx is done.
func (l *Ledger) SendAndConfirm(ctx context.Context, t *tx.Transaction) (types.Hash, error) {
	hash, err := l.Submit(ctx, t)
	if err != nil {
		return types.Hash{}, fmt.Errorf("submit: %w", err)
	}
	log.RPC.Debug().Str("tx", hash.String()).Msg("Transaction submitted")

	deadline := time.NewTimer(l.confirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		st, err := l.Status(ctx, hash)
		if err != nil {
			return hash, fmt.Errorf("status of %s: %w", hash, err)
		}
		switch st.Status {
		case StatusConfirmed:
			return hash, nil
		case StatusFailed:
			return hash, &TxFailedError{Hash: hash, Reason: st.Error}
		case StatusPending:
		default:
			return hash, fmt.Errorf("status of %s: unknown status %q", hash, st.Status)
		}

		select {
		case <-ctx.Done():
			return hash, ctx.Err()
		case <-deadline.C:
			return hash, fmt.Errorf("%s: %w", hash, ErrConfirmTimeout)
		case <-ticker.C:
		}
	}
}

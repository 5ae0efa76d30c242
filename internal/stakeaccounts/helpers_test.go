package stakeaccounts

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

var errRejected = errors.New("rejected by ledger")

// fakeLedger is an in-memory ledger double. SendAndConfirm verifies
// signatures and fails the call numbered failAt (0-based) when set.
type fakeLedger struct {
	balances     map[types.Address]uint64
	states       map[types.Address]*stake.AccountState
	balanceCalls int
	attempts     int
	failAt       int
	sent         []*tx.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[types.Address]uint64),
		states:   make(map[types.Address]*stake.AccountState),
		failAt:   -1,
	}
}

func (l *fakeLedger) GetBalance(_ context.Context, addr types.Address) (uint64, error) {
	l.balanceCalls++
	return l.balances[addr], nil
}

func (l *fakeLedger) GetStakeAccount(_ context.Context, addr types.Address) (*stake.AccountState, error) {
	if st, ok := l.states[addr]; ok {
		return st, nil
	}
	return &stake.AccountState{Address: addr, Balance: l.balances[addr]}, nil
}

func (l *fakeLedger) RecentHash(context.Context) (types.Hash, error) {
	return types.Hash{0x77}, nil
}

func (l *fakeLedger) SendAndConfirm(_ context.Context, t *tx.Transaction) (types.Hash, error) {
	n := l.attempts
	l.attempts++
	if err := t.Validate(); err != nil {
		return types.Hash{}, err
	}
	if err := t.VerifySignatures(); err != nil {
		return types.Hash{}, err
	}
	if n == l.failAt {
		return types.Hash{}, errRejected
	}
	l.sent = append(l.sent, t)
	return t.Hash(), nil
}

func newKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	return k
}

func newDeriver(t *testing.T) *Deriver {
	t.Helper()
	d, err := NewDeriver(stake.ProgramID, 128)
	if err != nil {
		t.Fatalf("NewDeriver() error: %v", err)
	}
	return d
}

func mustDerive(t *testing.T, d *Deriver, base types.Address, index uint64) types.Address {
	t.Helper()
	addr, err := d.Derive(base, index)
	if err != nil {
		t.Fatalf("Derive(%d) error: %v", index, err)
	}
	return addr
}

func parseStake(t *testing.T, ix tx.Instruction) *stake.Parsed {
	t.Helper()
	p, err := stake.Parse(ix)
	if err != nil {
		t.Fatalf("stake.Parse() error: %v", err)
	}
	return p
}

func u64(v uint64) *uint64 { return &v }

package stakeaccounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
	"github.com/Klingon-tech/klingnet-stake-accounts/internal/vesting"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// AccountReader fetches the ledger state of a stake account.
type AccountReader interface {
	GetStakeAccount(ctx context.Context, addr types.Address) (*stake.AccountState, error)
}

// Ledger is everything the Manager needs from the remote ledger.
type Ledger interface {
	BalanceOracle
	Sender
	AccountReader
}

// Manager errors.
var (
	ErrAccountsExist = errors.New("derived stake accounts already exist for this base")
	ErrZeroAuthority = errors.New("authority must not be the zero address")
	ErrZeroRecipient = errors.New("recipient must not be the zero address")
)

// Manager runs the top-level intents against one ledger. It keeps no state
// between calls; every address is re-derived from the base.
type Manager struct {
	deriver *Deriver
	ledger  Ledger
	now     func() time.Time
}

// NewManager creates a Manager.
func NewManager(deriver *Deriver, ledger Ledger) *Manager {
	return &Manager{deriver: deriver, ledger: ledger, now: time.Now}
}

// Deriver returns the Manager's address deriver.
func (m *Manager) Deriver() *Deriver {
	return m.deriver
}

// AccountBalance is one derived account and its balance.
type AccountBalance struct {
	Index   uint64        `json:"index"`
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// FundParams describes funding for new or existing derived accounts.
type FundParams struct {
	Base   types.Address
	Amount uint64
	// Schedule splits Amount across accounts; nil funds account 0 only.
	Schedule *vesting.Schedule
	// Start anchors the schedule; zero means now.
	Start time.Time
}

// NewParams describes a new derived account family.
type NewParams struct {
	FundParams
	Authorized stake.Authorized
	Custodian  types.Address
}

// New creates, funds and initializes the derived accounts for p.Base. It
// refuses when account 0 already holds a balance.
func (m *Manager) New(ctx context.Context, p NewParams, keys Keys) (*BatchResult, error) {
	if err := keys.Check(IntentNew); err != nil {
		return nil, err
	}
	if p.Authorized.Staker.IsZero() || p.Authorized.Withdrawer.IsZero() {
		return nil, ErrZeroAuthority
	}

	first, err := m.deriver.Derive(p.Base, 0)
	if err != nil {
		return nil, err
	}
	bal, err := m.ledger.GetBalance(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", first, err)
	}
	if bal > 0 {
		return nil, fmt.Errorf("%w: %s holds %d", ErrAccountsExist, first, bal)
	}

	allocs, err := vesting.Allocate(p.Amount, p.Schedule, m.start(p.Start))
	if err != nil {
		return nil, err
	}

	sender := keys.Address(RoleSender)
	feePayer := keys.Address(RoleFeePayer)
	txs := make([]*tx.Transaction, 0, len(allocs))
	for _, a := range allocs {
		lockup := stake.Lockup{Custodian: p.Custodian}
		if a.Locked() {
			lockup.UnixTimestamp = a.UnlockTime.Unix()
		}
		ixs, _, err := CreateInstructions(m.deriver, sender, p.Base, a.Index, a.Amount, p.Authorized, lockup)
		if err != nil {
			return nil, err
		}
		txs = append(txs, Assemble(ixs, feePayer))
	}
	return m.submit(ctx, IntentNew, txs, keys)
}

// Deposit transfers funds into existing derived accounts of p.Base.
func (m *Manager) Deposit(ctx context.Context, p FundParams, keys Keys) (*BatchResult, error) {
	if err := keys.Check(IntentDeposit); err != nil {
		return nil, err
	}
	allocs, err := vesting.Allocate(p.Amount, p.Schedule, m.start(p.Start))
	if err != nil {
		return nil, err
	}

	sender := keys.Address(RoleSender)
	feePayer := keys.Address(RoleFeePayer)
	txs := make([]*tx.Transaction, 0, len(allocs))
	for _, a := range allocs {
		ixs, _, err := DepositInstructions(m.deriver, sender, p.Base, a.Index, a.Amount)
		if err != nil {
			return nil, err
		}
		txs = append(txs, Assemble(ixs, feePayer))
	}
	return m.submit(ctx, IntentDeposit, txs, keys)
}

// Balances returns each active account of base with its balance, and the
// total.
func (m *Manager) Balances(ctx context.Context, base types.Address, count *uint64) ([]AccountBalance, uint64, error) {
	var out []AccountBalance
	var total uint64

	record := func(ctx context.Context, index uint64, addr types.Address) (bool, error) {
		bal, err := m.ledger.GetBalance(ctx, addr)
		if err != nil {
			return false, fmt.Errorf("balance of account %d (%s): %w", index, addr, err)
		}
		if count == nil && bal == 0 {
			return false, nil
		}
		out = append(out, AccountBalance{Index: index, Address: addr, Balance: bal})
		total += bal
		return true, nil
	}

	if count == nil {
		if _, err := DiscoverWhile(ctx, m.deriver, base, record); err != nil {
			return nil, 0, err
		}
		return out, total, nil
	}

	addrs, err := m.deriver.DeriveRange(ctx, base, *count)
	if err != nil {
		return nil, 0, err
	}
	for i, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if _, err := record(ctx, uint64(i), addr); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// Pubkeys returns the addresses of the active accounts of base.
func (m *Manager) Pubkeys(ctx context.Context, base types.Address, count *uint64) ([]types.Address, error) {
	return Discover(ctx, m.deriver, m.ledger, base, count)
}

// Show returns the ledger state of each active account of base.
func (m *Manager) Show(ctx context.Context, base types.Address, count *uint64) ([]*stake.AccountState, error) {
	addrs, err := Discover(ctx, m.deriver, m.ledger, base, count)
	if err != nil {
		return nil, err
	}
	states := make([]*stake.AccountState, 0, len(addrs))
	for i, addr := range addrs {
		st, err := m.ledger.GetStakeAccount(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("account %d (%s): %w", i, addr, err)
		}
		states = append(states, st)
	}
	return states, nil
}

// WithdrawParams describes a withdrawal from one derived account.
type WithdrawParams struct {
	Base      types.Address
	Index     uint64
	Recipient types.Address
	Amount    uint64
}

// Withdraw moves p.Amount out of account p.Index of p.Base.
func (m *Manager) Withdraw(ctx context.Context, p WithdrawParams, keys Keys) (*BatchResult, error) {
	if err := keys.Check(IntentWithdraw); err != nil {
		return nil, err
	}
	if p.Recipient.IsZero() {
		return nil, ErrZeroRecipient
	}
	account, err := m.deriver.Derive(p.Base, p.Index)
	if err != nil {
		return nil, err
	}
	ixs := WithdrawInstructions(account, keys.Address(RoleWithdrawAuthority), p.Recipient, p.Amount)
	txs := []*tx.Transaction{Assemble(ixs, keys.Address(RoleFeePayer))}
	return m.submit(ctx, IntentWithdraw, txs, keys)
}

// AuthorizeParams describes an authority rotation across a family.
type AuthorizeParams struct {
	Base                 types.Address
	Count                *uint64
	NewStakeAuthority    types.Address
	NewWithdrawAuthority types.Address
}

// Authorize re-points both authorities of every active account of p.Base,
// one transaction per account.
func (m *Manager) Authorize(ctx context.Context, p AuthorizeParams, keys Keys) (*BatchResult, error) {
	if err := keys.Check(IntentAuthorize); err != nil {
		return nil, err
	}
	if p.NewStakeAuthority.IsZero() || p.NewWithdrawAuthority.IsZero() {
		return nil, ErrZeroAuthority
	}
	addrs, err := Discover(ctx, m.deriver, m.ledger, p.Base, p.Count)
	if err != nil {
		return nil, err
	}

	stakeAuth := keys.Address(RoleStakeAuthority)
	withdrawAuth := keys.Address(RoleWithdrawAuthority)
	feePayer := keys.Address(RoleFeePayer)
	txs := make([]*tx.Transaction, 0, len(addrs))
	for _, addr := range addrs {
		ixs := AuthorizeInstructions(addr, stakeAuth, withdrawAuth, p.NewStakeAuthority, p.NewWithdrawAuthority)
		txs = append(txs, Assemble(ixs, feePayer))
	}
	return m.submit(ctx, IntentAuthorize, txs, keys)
}

// RebaseParams describes relocating a family to a new base.
type RebaseParams struct {
	Base    types.Address
	NewBase types.Address
	Count   *uint64
}

// Rebase splits the full balance of every active account of p.Base into
// the account at the same index under p.NewBase, keeping the current
// authorities. A partially completed rebase must not be re-run without
// rediscovering balances.
func (m *Manager) Rebase(ctx context.Context, p RebaseParams, keys Keys) (*BatchResult, error) {
	if err := keys.Check(IntentRebase); err != nil {
		return nil, err
	}
	return m.relocate(ctx, IntentRebase, p, keys.Address(RoleStakeAuthority), keys.Address(RoleWithdrawAuthority), keys)
}

// MoveParams describes relocating a family and rotating its authorities.
type MoveParams struct {
	RebaseParams
	NewStakeAuthority    types.Address
	NewWithdrawAuthority types.Address
}

// Move rebases every active account of p.Base and re-points both
// authorities of each destination in the same transaction.
func (m *Manager) Move(ctx context.Context, p MoveParams, keys Keys) (*BatchResult, error) {
	if err := keys.Check(IntentMove); err != nil {
		return nil, err
	}
	if p.NewStakeAuthority.IsZero() || p.NewWithdrawAuthority.IsZero() {
		return nil, ErrZeroAuthority
	}
	return m.relocate(ctx, IntentMove, p.RebaseParams, p.NewStakeAuthority, p.NewWithdrawAuthority, keys)
}

func (m *Manager) relocate(ctx context.Context, intent Intent, p RebaseParams, newStake, newWithdraw types.Address, keys Keys) (*BatchResult, error) {
	sources, err := Discover(ctx, m.deriver, m.ledger, p.Base, p.Count)
	if err != nil {
		return nil, err
	}

	stakeAuth := keys.Address(RoleStakeAuthority)
	withdrawAuth := keys.Address(RoleWithdrawAuthority)
	feePayer := keys.Address(RoleFeePayer)
	txs := make([]*tx.Transaction, 0, len(sources))
	for i, src := range sources {
		bal, err := m.ledger.GetBalance(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("balance of account %d (%s): %w", i, src, err)
		}
		ixs, _, err := RelocateInstructions(m.deriver, src, stakeAuth, withdrawAuth, bal, p.NewBase, uint64(i), newStake, newWithdraw)
		if err != nil {
			return nil, err
		}
		txs = append(txs, Assemble(ixs, feePayer))
	}
	return m.submit(ctx, intent, txs, keys)
}

func (m *Manager) submit(ctx context.Context, intent Intent, txs []*tx.Transaction, keys Keys) (*BatchResult, error) {
	log.Submit.Info().
		Str("intent", intent.String()).
		Int("transactions", len(txs)).
		Msg("Submitting batch")
	return SubmitAll(ctx, m.ledger, txs, keys.Signers(intent))
}

func (m *Manager) start(t time.Time) time.Time {
	if t.IsZero() {
		return m.now()
	}
	return t
}

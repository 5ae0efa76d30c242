package stakeaccounts

import (
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/stake"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/system"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// AuthorizeInstructions re-points both authorities of account. The staker
// change is signed by the current stake authority and the withdrawer change
// by the current withdraw authority; both land in one transaction.
func AuthorizeInstructions(account, stakeAuthority, withdrawAuthority, newStakeAuthority, newWithdrawAuthority types.Address) []tx.Instruction {
	return []tx.Instruction{
		stake.Authorize(account, stakeAuthority, newStakeAuthority, stake.Staker),
		stake.Authorize(account, withdrawAuthority, newWithdrawAuthority, stake.Withdrawer),
	}
}

// RelocateInstructions splits lamports out of source into the account at
// destIndex under destBase, then sets the destination's authorities. It
// returns the instructions and the destination address.
func RelocateInstructions(
	d *Deriver,
	source, stakeAuthority, withdrawAuthority types.Address,
	lamports uint64,
	destBase types.Address, destIndex uint64,
	newStakeAuthority, newWithdrawAuthority types.Address,
) ([]tx.Instruction, types.Address, error) {
	dest, err := d.Derive(destBase, destIndex)
	if err != nil {
		return nil, types.Address{}, err
	}
	ixs := []tx.Instruction{
		stake.SplitWithSeed(source, stakeAuthority, lamports, dest, destBase, Seed(destIndex)),
	}
	ixs = append(ixs, AuthorizeInstructions(dest, stakeAuthority, withdrawAuthority, newStakeAuthority, newWithdrawAuthority)...)
	return ixs, dest, nil
}

// WithdrawInstructions moves lamports out of account to recipient. The
// ledger rejects amounts above the withdrawable balance.
func WithdrawInstructions(account, withdrawAuthority, recipient types.Address, lamports uint64) []tx.Instruction {
	return []tx.Instruction{
		stake.Withdraw(account, withdrawAuthority, recipient, lamports),
	}
}

// CreateInstructions funds and initializes the account at index under base
// with the given authorities and lockup.
func CreateInstructions(
	d *Deriver,
	sender, base types.Address, index uint64,
	lamports uint64,
	authorized stake.Authorized, lockup stake.Lockup,
) ([]tx.Instruction, types.Address, error) {
	addr, err := d.Derive(base, index)
	if err != nil {
		return nil, types.Address{}, err
	}
	return []tx.Instruction{
		system.CreateAccountWithSeed(sender, addr, base, Seed(index), lamports, stake.AccountSpace, d.Program()),
		stake.Initialize(addr, authorized, lockup),
	}, addr, nil
}

// DepositInstructions transfers lamports from sender into the account at
// index under base.
func DepositInstructions(d *Deriver, sender, base types.Address, index, lamports uint64) ([]tx.Instruction, types.Address, error) {
	addr, err := d.Derive(base, index)
	if err != nil {
		return nil, types.Address{}, err
	}
	return []tx.Instruction{system.Transfer(sender, addr, lamports)}, addr, nil
}

package stake

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// Instruction tags.
const (
	TagInitialize    uint32 = 0
	TagAuthorize     uint32 = 1
	TagSplitWithSeed uint32 = 2
	TagWithdraw      uint32 = 3
)

// Initialize sets the authorities and lockup of a freshly created stake
// account. Accounts: stake (writable).
func Initialize(account types.Address, authorized Authorized, lockup Lockup) tx.Instruction {
	data := tx.NewData(TagInitialize).
		Address(authorized.Staker).
		Address(authorized.Withdrawer).
		Int64(lockup.UnixTimestamp).
		Address(lockup.Custodian).
		Bytes()
	return tx.Instruction{
		ProgramID: ProgramID,
		Accounts:  []tx.AccountMeta{tx.Writable(account)},
		Data:      data,
	}
}

// Authorize replaces one authority of account. The current holder of that
// authority signs. Accounts: stake (writable), authority (signer).
func Authorize(account, authority, newAuthority types.Address, kind StakeAuthorize) tx.Instruction {
	return tx.Instruction{
		ProgramID: ProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(account),
			tx.SignerMeta(authority, false),
		},
		Data: tx.NewData(TagAuthorize).Address(newAuthority).Uint32(uint32(kind)).Bytes(),
	}
}

// SplitWithSeed moves lamports from source into the stake account derived
// from (base, seed). The destination inherits the source's authorities and
// lockup. Accounts: source (writable), dest (writable), authority (signer).
func SplitWithSeed(source, authority types.Address, lamports uint64, dest, base types.Address, seed string) tx.Instruction {
	data := tx.NewData(TagSplitWithSeed).
		Uint64(lamports).
		Address(base).
		String(seed).
		Bytes()
	return tx.Instruction{
		ProgramID: ProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(source),
			tx.Writable(dest),
			tx.SignerMeta(authority, false),
		},
		Data: data,
	}
}

// Withdraw moves lamports out of a stake account to recipient.
// Accounts: stake (writable), recipient (writable), withdraw authority (signer).
func Withdraw(account, withdrawAuthority, recipient types.Address, lamports uint64) tx.Instruction {
	return tx.Instruction{
		ProgramID: ProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(account),
			tx.Writable(recipient),
			tx.SignerMeta(withdrawAuthority, false),
		},
		Data: tx.NewData(TagWithdraw).Uint64(lamports).Bytes(),
	}
}

// Parsed is a decoded stake instruction. Only the fields of the decoded
// tag are set.
type Parsed struct {
	Tag      uint32
	Accounts []types.Address

	Authorized   Authorized
	Lockup       Lockup
	NewAuthority types.Address
	Kind         StakeAuthorize
	Lamports     uint64
	Base         types.Address
	Seed         string
}

var accountCounts = map[uint32]int{
	TagInitialize:    1,
	TagAuthorize:     2,
	TagSplitWithSeed: 3,
	TagWithdraw:      3,
}

// Parse decodes a stake program instruction.
func Parse(ix tx.Instruction) (*Parsed, error) {
	if ix.ProgramID != ProgramID {
		return nil, fmt.Errorf("not a stake instruction: program %s", ix.ProgramID)
	}
	r := tx.NewDataReader(ix.Data)
	p := &Parsed{Tag: r.Uint32()}

	want, ok := accountCounts[p.Tag]
	if !ok {
		return nil, fmt.Errorf("unknown stake instruction tag %d", p.Tag)
	}
	if len(ix.Accounts) != want {
		return nil, fmt.Errorf("stake instruction %d: want %d accounts, got %d", p.Tag, want, len(ix.Accounts))
	}
	for _, m := range ix.Accounts {
		p.Accounts = append(p.Accounts, m.Address)
	}

	switch p.Tag {
	case TagInitialize:
		p.Authorized.Staker = r.Address()
		p.Authorized.Withdrawer = r.Address()
		p.Lockup.UnixTimestamp = r.Int64()
		p.Lockup.Custodian = r.Address()
	case TagAuthorize:
		p.NewAuthority = r.Address()
		p.Kind = StakeAuthorize(r.Uint32())
	case TagSplitWithSeed:
		p.Lamports = r.Uint64()
		p.Base = r.Address()
		p.Seed = r.String()
	case TagWithdraw:
		p.Lamports = r.Uint64()
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("stake instruction %d: %w", p.Tag, err)
	}
	return p, nil
}

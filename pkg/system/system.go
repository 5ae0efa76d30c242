// Package system encodes instructions for the built-in system program,
// which creates accounts and moves native balance between them.
package system

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// ProgramID is the fixed address of the system program.
var ProgramID = crypto.NamedAddress("klingnet/program/system")

// Instruction tags.
const (
	TagCreateAccountWithSeed uint32 = 0
	TagTransfer              uint32 = 1
)

// CreateAccountWithSeed funds and allocates the account derived from
// (base, seed, owner). Accounts: from (signer, writable), to (writable).
// The base does not sign.
func CreateAccountWithSeed(from, to, base types.Address, seed string, lamports, space uint64, owner types.Address) tx.Instruction {
	data := tx.NewData(TagCreateAccountWithSeed).
		Address(base).
		String(seed).
		Uint64(lamports).
		Uint64(space).
		Address(owner).
		Bytes()
	return tx.Instruction{
		ProgramID: ProgramID,
		Accounts: []tx.AccountMeta{
			tx.SignerMeta(from, true),
			tx.Writable(to),
		},
		Data: data,
	}
}

// Transfer moves lamports from one account to another.
// Accounts: from (signer, writable), to (writable).
func Transfer(from, to types.Address, lamports uint64) tx.Instruction {
	return tx.Instruction{
		ProgramID: ProgramID,
		Accounts: []tx.AccountMeta{
			tx.SignerMeta(from, true),
			tx.Writable(to),
		},
		Data: tx.NewData(TagTransfer).Uint64(lamports).Bytes(),
	}
}

// Parsed is a decoded system instruction. Only the fields of the decoded
// tag are set.
type Parsed struct {
	Tag      uint32
	From     types.Address
	To       types.Address
	Base     types.Address
	Seed     string
	Lamports uint64
	Space    uint64
	Owner    types.Address
}

// Parse decodes a system program instruction.
func Parse(ix tx.Instruction) (*Parsed, error) {
	if ix.ProgramID != ProgramID {
		return nil, fmt.Errorf("not a system instruction: program %s", ix.ProgramID)
	}
	if len(ix.Accounts) != 2 {
		return nil, fmt.Errorf("system instruction: want 2 accounts, got %d", len(ix.Accounts))
	}
	r := tx.NewDataReader(ix.Data)
	p := &Parsed{
		Tag:  r.Uint32(),
		From: ix.Accounts[0].Address,
		To:   ix.Accounts[1].Address,
	}
	switch p.Tag {
	case TagCreateAccountWithSeed:
		p.Base = r.Address()
		p.Seed = r.String()
		p.Lamports = r.Uint64()
		p.Space = r.Uint64()
		p.Owner = r.Address()
	case TagTransfer:
		p.Lamports = r.Uint64()
	default:
		return nil, fmt.Errorf("unknown system instruction tag %d", p.Tag)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("system instruction %d: %w", p.Tag, err)
	}
	return p, nil
}

package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: 1},
	}
}

// SetFeePayer sets the account that pays the transaction fee.
func (b *Builder) SetFeePayer(addr types.Address) *Builder {
	b.tx.FeePayer = addr
	return b
}

// SetRecentHash sets the recent ledger hash the transaction is anchored to.
func (b *Builder) SetRecentHash(h types.Hash) *Builder {
	b.tx.RecentHash = h
	return b
}

// AddInstruction appends one instruction.
func (b *Builder) AddInstruction(ix Instruction) *Builder {
	b.tx.Instructions = append(b.tx.Instructions, ix)
	return b
}

// AddInstructions appends instructions in order.
func (b *Builder) AddInstructions(ixs ...Instruction) *Builder {
	b.tx.Instructions = append(b.tx.Instructions, ixs...)
	return b
}

// Build returns the constructed transaction.
// Does NOT validate or sign; call Sign and tx.Validate() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}

// Sign replaces the signatures of tx with fresh ones from signers.
// Every required signer must be covered; extra signers are ignored, so a
// batch can share one signer set across transactions that need a subset.
// Signatures are stored in required-signer order.
func Sign(tx *Transaction, signers ...crypto.Signer) error {
	byAddr := make(map[types.Address]crypto.Signer, len(signers))
	for _, s := range signers {
		byAddr[crypto.SignerAddress(s)] = s
	}

	hash := tx.Hash()
	required := tx.RequiredSigners()
	sigs := make([]Signature, 0, len(required))
	for i, addr := range required {
		s, ok := byAddr[addr]
		if !ok {
			return fmt.Errorf("signer %d (%s): %w", i, addr, ErrMissingSigner)
		}
		sig, err := s.Sign(hash[:])
		if err != nil {
			return fmt.Errorf("sign as %s: %w", addr, err)
		}
		sigs = append(sigs, Signature{PubKey: s.PublicKey(), Signature: sig})
	}
	tx.Signatures = sigs
	return nil
}

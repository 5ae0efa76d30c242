package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
)

// Structural limits enforced by Validate.
const (
	MaxInstructions        = 64
	MaxInstructionAccounts = 32
	MaxInstructionData     = 1024
)

// Validation errors.
var (
	ErrNoInstructions      = errors.New("transaction has no instructions")
	ErrTooManyInstructions = errors.New("too many instructions")
	ErrTooManyAccounts     = errors.New("too many instruction accounts")
	ErrDataTooLarge        = errors.New("instruction data too large")
	ErrZeroFeePayer        = errors.New("fee payer is the zero address")
	ErrMissingSigner       = errors.New("missing signer")
	ErrSignatureCount      = errors.New("signature count does not match required signers")
	ErrSignerMismatch      = errors.New("signature public key does not match required signer")
	ErrInvalidSig          = errors.New("invalid signature")
)

// Validate checks transaction structure. It does not check signatures.
func (tx *Transaction) Validate() error {
	if tx.FeePayer.IsZero() {
		return ErrZeroFeePayer
	}
	if len(tx.Instructions) == 0 {
		return ErrNoInstructions
	}
	if len(tx.Instructions) > MaxInstructions {
		return fmt.Errorf("%w: %d instructions, max %d", ErrTooManyInstructions, len(tx.Instructions), MaxInstructions)
	}
	for i, ix := range tx.Instructions {
		if len(ix.Accounts) > MaxInstructionAccounts {
			return fmt.Errorf("instruction %d: %w: %d accounts, max %d", i, ErrTooManyAccounts, len(ix.Accounts), MaxInstructionAccounts)
		}
		if len(ix.Data) > MaxInstructionData {
			return fmt.Errorf("instruction %d: %w: %d bytes, max %d", i, ErrDataTooLarge, len(ix.Data), MaxInstructionData)
		}
	}
	return nil
}

// VerifySignatures checks that there is exactly one valid signature per
// required signer, in required-signer order.
func (tx *Transaction) VerifySignatures() error {
	required := tx.RequiredSigners()
	if len(tx.Signatures) != len(required) {
		return fmt.Errorf("%w: have %d, need %d", ErrSignatureCount, len(tx.Signatures), len(required))
	}
	hash := tx.Hash()
	for i, addr := range required {
		sig := tx.Signatures[i]
		if crypto.AddressFromPubKey(sig.PubKey) != addr {
			return fmt.Errorf("signature %d: %w", i, ErrSignerMismatch)
		}
		if !crypto.VerifySignature(hash[:], sig.Signature, sig.PubKey) {
			return fmt.Errorf("signature %d: %w", i, ErrInvalidSig)
		}
	}
	return nil
}

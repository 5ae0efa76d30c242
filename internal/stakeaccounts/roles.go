package stakeaccounts

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/tx"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// Intent is a top-level operation on a derived account family.
type Intent int

// Intents.
const (
	IntentNew Intent = iota
	IntentDeposit
	IntentBalance
	IntentPubkeys
	IntentShow
	IntentWithdraw
	IntentRebase
	IntentAuthorize
	IntentMove
)

var intentNames = map[Intent]string{
	IntentNew:       "new",
	IntentDeposit:   "deposit",
	IntentBalance:   "balance",
	IntentPubkeys:   "pubkeys",
	IntentShow:      "show",
	IntentWithdraw:  "withdraw",
	IntentRebase:    "rebase",
	IntentAuthorize: "authorize",
	IntentMove:      "move",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// Role is a signing capacity a transaction needs.
type Role int

// Signer roles.
const (
	RoleFeePayer Role = iota
	RoleSender
	RoleStakeAuthority
	RoleWithdrawAuthority
)

func (r Role) String() string {
	switch r {
	case RoleFeePayer:
		return "fee payer"
	case RoleSender:
		return "sender"
	case RoleStakeAuthority:
		return "stake authority"
	case RoleWithdrawAuthority:
		return "withdraw authority"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// RequiredRoles returns the fixed signer roles for a write intent. Read-only
// intents need no signers.
func RequiredRoles(intent Intent) []Role {
	switch intent {
	case IntentAuthorize, IntentRebase, IntentMove:
		return []Role{RoleStakeAuthority, RoleWithdrawAuthority, RoleFeePayer}
	case IntentWithdraw:
		return []Role{RoleWithdrawAuthority, RoleFeePayer}
	case IntentNew, IntentDeposit:
		return []Role{RoleSender, RoleFeePayer}
	default:
		return nil
	}
}

// ErrMissingSigner is matched by every MissingSignerError.
var ErrMissingSigner = errors.New("missing required signer")

// MissingSignerError reports the first absent role for an intent.
type MissingSignerError struct {
	Intent Intent
	Role   Role
}

func (e *MissingSignerError) Error() string {
	return fmt.Sprintf("%s: missing %s signer", e.Intent, e.Role)
}

// Unwrap returns ErrMissingSigner.
func (e *MissingSignerError) Unwrap() error {
	return ErrMissingSigner
}

// Keys holds the signers supplied for one invocation. Unused roles may be nil.
type Keys struct {
	FeePayer          crypto.Signer
	Sender            crypto.Signer
	StakeAuthority    crypto.Signer
	WithdrawAuthority crypto.Signer
}

// Signer returns the signer for role, or nil.
func (k Keys) Signer(role Role) crypto.Signer {
	switch role {
	case RoleFeePayer:
		return k.FeePayer
	case RoleSender:
		return k.Sender
	case RoleStakeAuthority:
		return k.StakeAuthority
	case RoleWithdrawAuthority:
		return k.WithdrawAuthority
	default:
		return nil
	}
}

// Address returns the identity of the signer for role. It panics if the
// role is unset; call Check first.
func (k Keys) Address(role Role) types.Address {
	return crypto.SignerAddress(k.Signer(role))
}

// Check verifies every role intent requires has a signer. It runs once per
// batch, before any instruction is built.
func (k Keys) Check(intent Intent) error {
	for _, role := range RequiredRoles(intent) {
		if k.Signer(role) == nil {
			return &MissingSignerError{Intent: intent, Role: role}
		}
	}
	return nil
}

// Signers returns the distinct signers for intent's roles, fee payer first.
func (k Keys) Signers(intent Intent) []crypto.Signer {
	var out []crypto.Signer
	seen := make(map[types.Address]bool)
	add := func(s crypto.Signer) {
		if s == nil {
			return
		}
		addr := crypto.SignerAddress(s)
		if seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, s)
	}
	add(k.FeePayer)
	for _, role := range RequiredRoles(intent) {
		add(k.Signer(role))
	}
	return out
}

// Assemble wraps instructions in an unsigned transaction paid by feePayer.
// The recent hash is set at submission time.
func Assemble(instructions []tx.Instruction, feePayer types.Address) *tx.Transaction {
	return tx.NewBuilder().
		SetFeePayer(feePayer).
		AddInstructions(instructions...).
		Build()
}

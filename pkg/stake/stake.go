// Package stake defines the stake program's account model and encodes its
// instructions.
package stake

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// ProgramID is the fixed address of the stake program. Derived stake
// account addresses are namespaced under it.
var ProgramID = crypto.NamedAddress("klingnet/program/stake")

// AccountSpace is the data size allocated for a stake account.
const AccountSpace = 200

// StakeAuthorize selects which authority an Authorize instruction replaces.
type StakeAuthorize uint32

// Authority kinds.
const (
	Staker     StakeAuthorize = 0
	Withdrawer StakeAuthorize = 1
)

// String returns the authority kind name.
func (k StakeAuthorize) String() string {
	switch k {
	case Staker:
		return "staker"
	case Withdrawer:
		return "withdrawer"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(k))
	}
}

// MarshalJSON encodes the kind by name.
func (k StakeAuthorize) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *StakeAuthorize) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "staker":
		*k = Staker
	case "withdrawer":
		*k = Withdrawer
	default:
		return fmt.Errorf("unknown stake authority %q", s)
	}
	return nil
}

// Authorized is the pair of authorities controlling a stake account.
type Authorized struct {
	Staker     types.Address `json:"staker"`
	Withdrawer types.Address `json:"withdrawer"`
}

// Lockup restricts withdrawals until UnixTimestamp unless the custodian
// signs.
type Lockup struct {
	UnixTimestamp int64         `json:"unix_timestamp"`
	Custodian     types.Address `json:"custodian"`
}

// IsLocked reports whether the lockup is in force at unix time now.
func (l Lockup) IsLocked(now int64) bool {
	return l.UnixTimestamp > now
}

// AccountState is the ledger's view of a stake account.
type AccountState struct {
	Address    types.Address `json:"address"`
	Balance    uint64        `json:"balance"`
	Authorized Authorized    `json:"authorized"`
	Lockup     Lockup        `json:"lockup"`
}

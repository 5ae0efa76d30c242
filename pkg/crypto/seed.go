package crypto

import (
	"errors"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// MaxSeedLen is the maximum seed length accepted by CreateWithSeed.
const MaxSeedLen = 32

// ErrMaxSeedLengthExceeded is returned when a derivation seed is too long.
var ErrMaxSeedLengthExceeded = errors.New("seed exceeds maximum length")

// CreateWithSeed derives the address owned by program for the (base, seed)
// pair:
//
//	BLAKE3(base || seed || program)[:20]
//
// The derivation is pure and needs no private key for base.
func CreateWithSeed(base types.Address, seed string, program types.Address) (types.Address, error) {
	if len(seed) > MaxSeedLen {
		return types.Address{}, ErrMaxSeedLengthExceeded
	}
	h := HashParts(base[:], []byte(seed), program[:])
	return truncate(h), nil
}

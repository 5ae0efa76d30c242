// Package stakeaccounts manages a family of stake accounts derived from one
// base address: addressing, discovery, instruction building, transaction
// assembly and sequential batch submission.
package stakeaccounts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of memoized derivations.
const DefaultCacheSize = 4096

// rangePrealloc bounds the capacity DeriveRange reserves up front.
const rangePrealloc = 1 << 16

// Seed returns the derivation seed for an account index: its decimal form.
func Seed(index uint64) string {
	return strconv.FormatUint(index, 10)
}

// DeriveAddress returns the address of account index under base in the
// program namespace.
func DeriveAddress(base types.Address, index uint64, program types.Address) (types.Address, error) {
	addr, err := crypto.CreateWithSeed(base, Seed(index), program)
	if err != nil {
		return types.Address{}, fmt.Errorf("derive index %d: %w", index, err)
	}
	return addr, nil
}

type deriveKey struct {
	base  types.Address
	index uint64
}

// Deriver computes derived account addresses for one program namespace,
// memoizing results in a bounded in-memory cache.
type Deriver struct {
	program types.Address
	cache   *lru.Cache[deriveKey, types.Address]
}

// NewDeriver creates a Deriver for program. A cacheSize <= 0 disables
// memoization.
func NewDeriver(program types.Address, cacheSize int) (*Deriver, error) {
	d := &Deriver{program: program}
	if cacheSize > 0 {
		c, err := lru.New[deriveKey, types.Address](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("derive cache: %w", err)
		}
		d.cache = c
	}
	return d, nil
}

// Program returns the namespace the Deriver derives under.
func (d *Deriver) Program() types.Address {
	return d.program
}

// Derive returns the address of account index under base.
func (d *Deriver) Derive(base types.Address, index uint64) (types.Address, error) {
	key := deriveKey{base: base, index: index}
	if d.cache != nil {
		if addr, ok := d.cache.Get(key); ok {
			return addr, nil
		}
	}
	addr, err := DeriveAddress(base, index, d.program)
	if err != nil {
		return types.Address{}, err
	}
	if d.cache != nil {
		d.cache.Add(key, addr)
	}
	return addr, nil
}

// DeriveRange returns the addresses of accounts 0..n-1 under base. It stops
// with ctx's error when ctx is done.
func (d *Deriver) DeriveRange(ctx context.Context, base types.Address, n uint64) ([]types.Address, error) {
	addrs := make([]types.Address, 0, min(n, rangePrealloc))
	for i := uint64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addr, err := d.Derive(base, i)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

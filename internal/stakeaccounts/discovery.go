package stakeaccounts

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/internal/log"
	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// BalanceOracle reports account balances. Unknown accounts report zero.
type BalanceOracle interface {
	GetBalance(ctx context.Context, addr types.Address) (uint64, error)
}

// KeepFunc decides whether the account at index is part of the family.
// Discovery stops at the first index for which it returns false.
type KeepFunc func(ctx context.Context, index uint64, addr types.Address) (bool, error)

// Funded keeps accounts holding a non-zero balance.
func Funded(oracle BalanceOracle) KeepFunc {
	return func(ctx context.Context, index uint64, addr types.Address) (bool, error) {
		bal, err := oracle.GetBalance(ctx, addr)
		if err != nil {
			return false, fmt.Errorf("balance of account %d (%s): %w", index, addr, err)
		}
		log.Discovery.Debug().
			Uint64("index", index).
			Str("address", addr.String()).
			Uint64("balance", bal).
			Msg("Probed account")
		return bal > 0, nil
	}
}

// Iterator walks derived addresses of one base from index 0 upward.
// A new Iterator always starts at index 0.
type Iterator struct {
	deriver *Deriver
	base    types.Address
	next    uint64
	index   uint64
	addr    types.Address
	err     error
}

// Iterate returns an iterator over the accounts derived from base.
func (d *Deriver) Iterate(base types.Address) *Iterator {
	return &Iterator{deriver: d, base: base}
}

// Next advances to the next index. It returns false once derivation fails.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	addr, err := it.deriver.Derive(it.base, it.next)
	if err != nil {
		it.err = err
		return false
	}
	it.index = it.next
	it.addr = addr
	it.next++
	return true
}

// Index returns the current index.
func (it *Iterator) Index() uint64 { return it.index }

// Address returns the current address.
func (it *Iterator) Address() types.Address { return it.addr }

// Err returns the derivation error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }

// DiscoverWhile returns the addresses at indices 0, 1, 2, ... up to but
// excluding the first one keep rejects. Probing is strictly sequential.
// An account funded after a gap is never found.
func DiscoverWhile(ctx context.Context, d *Deriver, base types.Address, keep KeepFunc) ([]types.Address, error) {
	var addrs []types.Address
	it := d.Iterate(base)
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := keep(ctx, it.Index(), it.Address())
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Discovery.Debug().
				Str("base", base.String()).
				Int("found", len(addrs)).
				Msg("Discovery stopped")
			return addrs, nil
		}
		addrs = append(addrs, it.Address())
	}
	return nil, it.Err()
}

// Discover returns the active accounts derived from base. With an explicit
// count it derives indices 0..count-1 without consulting the oracle;
// otherwise it probes until the first zero balance.
func Discover(ctx context.Context, d *Deriver, oracle BalanceOracle, base types.Address, count *uint64) ([]types.Address, error) {
	if count != nil {
		return d.DeriveRange(ctx, base, *count)
	}
	return DiscoverWhile(ctx, d, base, Funded(oracle))
}

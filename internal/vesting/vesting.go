// Package vesting turns a cliff-and-unlocks schedule into per-account
// funding amounts and lockup times for a family of derived stake accounts.
package vesting

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// SecondsPerYear is the length of a Julian year.
const SecondsPerYear = 31_557_600

// Schedule errors.
var (
	ErrInvalidSchedule = errors.New("invalid vesting schedule")
	ErrZeroAllocation  = errors.New("allocation would be zero")
)

// Schedule describes how a total amount unlocks over time. Account 0 holds
// CliffFraction of the total and unlocks after CliffYears. The remainder is
// split evenly across Unlocks further accounts, the k-th unlocking
// k*UnlockYears after the cliff.
type Schedule struct {
	CliffFraction decimal.Decimal
	CliffYears    decimal.Decimal
	UnlockYears   decimal.Decimal
	Unlocks       uint64
}

// Allocation is the funding for one derived account.
type Allocation struct {
	Index  uint64
	Amount uint64
	// UnlockTime is the zero time when the allocation is never locked.
	UnlockTime time.Time
}

// Locked reports whether the allocation carries a lockup.
func (a Allocation) Locked() bool {
	return !a.UnlockTime.IsZero()
}

// ParseSchedule builds a Schedule from decimal strings.
func ParseSchedule(cliffFraction, cliffYears, unlockYears string, unlocks uint64) (*Schedule, error) {
	cf, err := decimal.NewFromString(cliffFraction)
	if err != nil {
		return nil, fmt.Errorf("%w: cliff fraction: %v", ErrInvalidSchedule, err)
	}
	cy, err := decimal.NewFromString(cliffYears)
	if err != nil {
		return nil, fmt.Errorf("%w: cliff years: %v", ErrInvalidSchedule, err)
	}
	uy, err := decimal.NewFromString(unlockYears)
	if err != nil {
		return nil, fmt.Errorf("%w: unlock years: %v", ErrInvalidSchedule, err)
	}
	s := &Schedule{CliffFraction: cf, CliffYears: cy, UnlockYears: uy, Unlocks: unlocks}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the schedule parameters.
func (s *Schedule) Validate() error {
	if s.CliffFraction.IsNegative() || s.CliffFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: cliff fraction %s not in [0, 1]", ErrInvalidSchedule, s.CliffFraction)
	}
	if s.CliffYears.IsNegative() {
		return fmt.Errorf("%w: negative cliff years", ErrInvalidSchedule)
	}
	if s.UnlockYears.IsNegative() {
		return fmt.Errorf("%w: negative unlock years", ErrInvalidSchedule)
	}
	if s.Unlocks == 0 && !s.CliffFraction.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: no unlocks after the cliff but cliff fraction is %s", ErrInvalidSchedule, s.CliffFraction)
	}
	return nil
}

// NumAccounts returns how many derived accounts the schedule funds.
func (s *Schedule) NumAccounts() uint64 {
	return 1 + s.Unlocks
}

// Allocate splits total across derived accounts. With a nil schedule the
// whole amount goes unlocked into account 0. Every allocation must be
// non-zero.
func Allocate(total uint64, s *Schedule, start time.Time) ([]Allocation, error) {
	if s == nil {
		if total == 0 {
			return nil, fmt.Errorf("account 0: %w", ErrZeroAllocation)
		}
		return []Allocation{{Index: 0, Amount: total}}, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cliffAmount := decimalFromUint(total).Mul(s.CliffFraction).Floor().BigInt().Uint64()
	rest := total - cliffAmount

	cliffAt := start.Add(yearsToDuration(s.CliffYears))
	allocs := make([]Allocation, 0, s.NumAccounts())
	allocs = append(allocs, Allocation{Index: 0, Amount: cliffAmount, UnlockTime: cliffAt})

	if s.Unlocks > 0 {
		each := rest / s.Unlocks
		remainder := rest % s.Unlocks
		step := yearsToDuration(s.UnlockYears)
		for k := uint64(1); k <= s.Unlocks; k++ {
			amount := each
			if k == s.Unlocks {
				amount += remainder
			}
			allocs = append(allocs, Allocation{
				Index:      k,
				Amount:     amount,
				UnlockTime: cliffAt.Add(time.Duration(k) * step),
			})
		}
	}

	for _, a := range allocs {
		if a.Amount == 0 {
			return nil, fmt.Errorf("account %d: %w", a.Index, ErrZeroAllocation)
		}
	}
	return allocs, nil
}

func decimalFromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// yearsToDuration converts fractional years to whole seconds.
func yearsToDuration(years decimal.Decimal) time.Duration {
	secs := years.Mul(decimal.NewFromInt(SecondsPerYear)).Floor().IntPart()
	return time.Duration(secs) * time.Second
}

package config

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Denomination.
const (
	Decimals = 12
	Coin     = 1_000_000_000_000 // 10^12 base units per coin
)

var (
	coinDecimal = decimal.New(1, Decimals)
	maxUnits    = decimalFromUint(math.MaxUint64)
)

// ParseAmount converts a decimal coin string ("1.5") to base units.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount")
	}
	if !d.Equal(d.Truncate(Decimals)) {
		return 0, fmt.Errorf("too many decimal places (max %d)", Decimals)
	}
	units := d.Mul(coinDecimal)
	if units.GreaterThan(maxUnits) {
		return 0, fmt.Errorf("amount too large")
	}
	return units.BigInt().Uint64(), nil
}

// FormatAmount renders base units as a decimal coin string with all
// Decimals places.
func FormatAmount(units uint64) string {
	return decimalFromUint(units).Shift(-Decimals).StringFixed(Decimals)
}

func decimalFromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

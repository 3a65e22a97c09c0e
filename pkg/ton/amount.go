package ton

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// NanoPerTON is the number of nanotons in one TON.
const NanoPerTON = 1_000_000_000

const decimals = 9

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrBelowMinimum       = errors.New("amount is below the minimum")
	ErrAboveMaximum       = errors.New("amount is above the maximum")
	ErrCancelled          = errors.New("transfer cancelled by user")
	ErrConversionMismatch = errors.New("amount conversion mismatch")
)

// Limits bounds the amounts accepted for a single transfer, in TON.
type Limits struct {
	Min           float64 `mapstructure:"min"`
	Max           float64 `mapstructure:"max"`
	LargeTransfer float64 `mapstructure:"largeTransfer"`
}

var DefaultLimits = Limits{
	Min:           0.0001,
	Max:           1000,
	LargeTransfer: 100,
}

func (l Limits) Validate(amount float64) error {
	switch {
	case math.IsNaN(amount), math.IsInf(amount, 0), amount <= 0:
		return ErrInvalidAmount
	case amount < l.Min:
		return ErrBelowMinimum
	case amount > l.Max:
		return ErrAboveMaximum
	}
	return nil
}

// RequiresConfirmation reports whether the user has to approve the amount
// explicitly before a transfer request is built.
func (l Limits) RequiresConfirmation(amount float64) bool {
	return l.LargeTransfer > 0 && amount >= l.LargeTransfer
}

// ToNanotons converts a TON amount to its nanoton string, truncating
// anything below one nanoton.
func (l Limits) ToNanotons(amount float64) (string, error) {
	if err := l.Validate(amount); err != nil {
		return "", err
	}

	nano := decimal.NewFromFloat(amount).Shift(decimals).Floor()

	// the float product has to land within one nanoton of the decimal result
	product := amount * NanoPerTON
	if math.Abs(product-nano.InexactFloat64()) >= 1 {
		return "", ErrConversionMismatch
	}

	return nano.String(), nil
}

func ToNanotons(amount float64) (string, error) {
	return DefaultLimits.ToNanotons(amount)
}

// FromNanotons parses a nanoton string back into TON.
func FromNanotons(nano string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(nano)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsInteger() || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Shift(-decimals), nil
}

// Format renders a TON amount without trailing zeros.
func Format(amount decimal.Decimal) string {
	return amount.Truncate(decimals).String()
}

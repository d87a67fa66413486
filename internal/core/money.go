// Package core provides money parsing and handling utilities.
//
// Amounts are kept in integer cents so that adding and then removing the same
// transaction always restores the previous totals exactly.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Largest accepted amount in major units.
var maxAmount = decimal.New(1, 13)

type Money struct {
	Cents int64
}

// Cents builds a Money value from a cent count.
func Cents(c int64) Money { return Money{Cents: c} }

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

// Decimal returns m in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats m with exactly two decimals, e.g. "4.50" or "-4.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Validate rejects negative amounts. Zero is a valid amount.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON encodes m as a bare decimal number in major units (4.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a decimal number, quoted or not, rounding half-up to
// cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	m.Cents = toCents(d)
	return nil
}

// ParseAmount converts user input to Money.
//
// Only digits and a single decimal separator are accepted; both dot (12.34)
// and comma (12,34) work. Signs, exponents and spaces inside the number are
// rejected. A third fraction digit is rounded half-up:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("0")      -> 0 cents
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || s == "." {
		return Money{}, ErrInvalidAmount
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	if dots > 1 {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: %s exceeds limit", ErrInvalidAmount, s)
	}
	return Money{Cents: toCents(d)}, nil
}

func toCents(d decimal.Decimal) int64 {
	// Round is half away from zero, which is half-up for non-negative input.
	return d.Shift(2).Round(0).IntPart()
}

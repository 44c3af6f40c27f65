// Package core holds the domain types shared by every layer of the engine.
//
// This file contains money parsing and handling. Amounts are kept as integer
// micros (1e-6 units) so grouped sums stay exact; floats appear only at the
// API boundary.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a positive expense amount in integer micros.
type Money struct {
	Micros int64
}

const microsPerUnit = 1_000_000

func (m Money) Validate() error {
	if m.Micros <= 0 {
		return fmt.Errorf("amount must be positive: %w", ErrValidation)
	}
	return nil
}

// Units returns the amount as a unit float for API responses.
func (m Money) Units() float64 {
	return float64(m.Micros) / microsPerUnit
}

// Format renders the amount with two decimals for display strings.
func (m Money) Format() string {
	return decimal.New(m.Micros, -6).StringFixed(2)
}

// MoneyFromUnits converts a unit amount, as decoded from a JSON number, to
// micros with half-up rounding on the seventh decimal.
func MoneyFromUnits(v float64) Money {
	return Money{Micros: decimal.NewFromFloat(v).Shift(6).Round(0).IntPart()}
}

// ParseMoney parses a decimal amount string ("12.34", also "12,34") into
// micros. Only positive amounts are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, ErrValidation)
	}
	m := Money{Micros: d.Shift(6).Round(0).IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

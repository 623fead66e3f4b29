// Package core provides the expense record, its validation rules and
// the amount type shared by every layer.
//
// This file contains amount parsing, JSON encoding and display helpers.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount with two fractional digits.
type Money struct {
	decimal.Decimal
}

// maxAmount mirrors a NUMERIC(12,2) column.
var maxAmount = decimal.New(1, 10)

const maxExponent = 64

// NewMoney rounds d half away from zero to two fractional digits.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MustMoney parses s and panics on failure. Intended for tests and constants.
func MustMoney(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount converts a decimal string to Money.
//
// It accepts a plain decimal with a dot separator and an optional leading
// sign. Commas, exponents, spaces and anything else are rejected with
// ErrInvalidAmount, so "45,000" is never mistaken for 45. Digits beyond the
// second fractional place are rounded half-up.
//
// Examples:
//
//	ParseAmount("45000")   -> 45000.00
//	ParseAmount("12.345")  -> 12.35
//	ParseAmount("-1")      -> -1.00 (rejected later by Validate)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if body == "" || body == "." {
		return Money{}, ErrInvalidAmount
	}
	dots := 0
	for _, r := range body {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return Money{}, ErrInvalidAmount
		}
	}
	if dots > 1 {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d), nil
}

// ParseNumber converts a JSON number literal, exponent form included
// (4.5e4), to Money. String input goes through ParseAmount instead.
func ParseNumber(n json.Number) (Money, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Rounding rescales the coefficient, so an extreme exponent would
	// expand to millions of digits.
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		if d.IsZero() {
			return Money{}, nil
		}
		if exp > 0 {
			return Money{}, ErrAmountTooLarge
		}
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d), nil
}

// Validate enforces the range accepted for a new record.
func (m Money) Validate() error {
	if m.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if m.Abs().GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return ErrInvalidAmount
		}
	}
	var (
		parsed Money
		err    error
	)
	if len(b) > 0 && b[0] == '"' {
		parsed, err = ParseAmount(raw)
	} else {
		parsed, err = ParseNumber(json.Number(raw))
	}
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var vndPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND renders the amount the way the browser client does for vi-VN
// (e.g. "45.000 ₫"). Fractions are only shown when present.
func (m Money) FormatVND() string {
	if m.Decimal.Equal(m.Decimal.Truncate(0)) {
		return vndPrinter.Sprintf("%d ₫", m.IntPart())
	}
	return vndPrinter.Sprintf("%.2f ₫", m.InexactFloat64())
}

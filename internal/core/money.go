// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings and
// from loosely typed document values, and for converting between minor units
// (kuruş) and the major-unit numbers the document store keeps.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// maxUnits is the largest whole-unit amount whose cents fit in an int64.
const maxUnits = math.MaxInt64 / 100

// ParseAmount converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Zero and negative amounts parse; deciding whether they
// make sense is left to the caller. A blank string yields ErrMissingAmount and
// anything else that is not a decimal yields ErrUnparseableAmount, so callers
// can tell "zero" from "unparseable".
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,34")  -> 1234
//	ParseAmount("12.345") -> 1235 (half-up)
//	ParseAmount("-5")     -> -500
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrMissingAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrUnparseableAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Money{}, ErrUnparseableAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return Money{}, ErrUnparseableAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrUnparseableAmount
	}
	if iv >= maxUnits {
		return Money{}, ErrUnparseableAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat converts a major-unit number to Money, rounding half away
// from zero. NaN and infinities are unparseable.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrUnparseableAmount
	}
	c := math.Round(f * 100)
	if c > math.MaxInt64/2 || c < math.MinInt64/2 {
		return Money{}, ErrUnparseableAmount
	}
	return Money{Cents: int64(c)}, nil
}

// CoerceAmount turns a stored amount of any shape into Money. Missing or
// non-numeric values come back as zero together with ErrUnparseableAmount;
// whether that zero is kept is the caller's policy.
func CoerceAmount(v any) (Money, error) {
	switch n := v.(type) {
	case float64:
		return MoneyFromFloat(n)
	case float32:
		return MoneyFromFloat(float64(n))
	case int:
		return fromUnits(int64(n))
	case int32:
		return fromUnits(int64(n))
	case int64:
		return fromUnits(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return Money{}, ErrUnparseableAmount
		}
		return MoneyFromFloat(f)
	case string:
		m, err := ParseAmount(n)
		if err != nil {
			return Money{}, ErrUnparseableAmount
		}
		return m, nil
	default:
		return Money{}, ErrUnparseableAmount
	}
}

// fromUnits converts a whole major-unit amount. Amounts whose cents do not
// fit in an int64 are unparseable.
func fromUnits(n int64) (Money, error) {
	if n > maxUnits || n < -maxUnits {
		return Money{}, ErrUnparseableAmount
	}
	return Money{Cents: n * 100}, nil
}

// Add returns m + o, saturating at the int64 bounds.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// Sub returns m - o, saturating at the int64 bounds.
func (m Money) Sub(o Money) Money {
	diff := m.Cents - o.Cents
	switch {
	case o.Cents > 0 && diff > m.Cents:
		return Money{Cents: math.MinInt64}
	case o.Cents < 0 && diff < m.Cents:
		return Money{Cents: math.MaxInt64}
	}
	return Money{Cents: diff}
}

// Cmp compares two amounts and returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m.Cents < o.Cents:
		return -1
	case m.Cents > o.Cents:
		return 1
	default:
		return 0
	}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Float returns the major-unit value, the shape the document store keeps.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals and a dot separator.
func (m Money) String() string {
	cents := uint64(m.Cents)
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatUint(cents/100, 10) + "." + twoDigits(int64(cents%100))
}

// MarshalJSON renders Money as a plain JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*m = Money{}
		return nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

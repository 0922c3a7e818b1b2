package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPriceLength is the width of the string price columns.
const MaxPriceLength = 30

// Amount is a monetary value that always travels as a two-decimal string.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func NewAmountFromInt(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

// MustAmount parses raw and panics on malformed input. Use it for literals.
func MustAmount(raw string) Amount {
	a, err := AmountFromString(raw)
	if err != nil {
		panic(err)
	}
	return a
}

func AmountFromString(raw string) (Amount, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

// ParseAmount reads a stored money string. Blank values count as zero and a
// decimal comma is accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return decimal.Zero, nil
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// Cents is the amount as it is persisted, rounded once to two decimals.
// Balance deltas are computed from this value so that a cancel reverses
// exactly what the create applied.
func (a Amount) Cents() decimal.Decimal {
	return a.Decimal.Round(2)
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// TruncatePrice keeps a price string within the column width.
func TruncatePrice(raw string) string {
	if len(raw) <= MaxPriceLength {
		return raw
	}
	return raw[:MaxPriceLength]
}

func (a Amount) String() string {
	return FormatAmount(a.Decimal)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	d, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

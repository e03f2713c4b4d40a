package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point currency amount with two fractional digits. All payout
// arithmetic goes through this type; float64 is never used for money. Rounding is
// half-up to the nearest cent and is applied once at the end of a calculation.
type Money struct {
	dec decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{dec: decimal.Zero}
}

// NewMoney wraps a raw decimal without rounding. The caller owns the scale.
func NewMoney(d decimal.Decimal) Money {
	return Money{dec: d}
}

// MoneyFromString parses a decimal string such as "2129.03".
func MoneyFromString(value string) (Money, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Money{}, fmt.Errorf("empty money value")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("parsing money %q: %w", value, err)
	}
	return Money{dec: d}, nil
}

// MoneyFromFloat converts a float at the input boundary, rounding to cents once.
func MoneyFromFloat(value float64) Money {
	return Money{dec: decimal.NewFromFloat(value).Round(2)}
}

// MoneyFromInt converts a whole currency amount.
func MoneyFromInt(value int64) Money {
	return Money{dec: decimal.NewFromInt(value)}
}

// Decimal exposes the underlying decimal for calculations that need
// intermediate precision. Callers round once when they are done.
func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

func (m Money) Add(other Money) Money {
	return Money{dec: m.dec.Add(other.dec)}
}

func (m Money) Sub(other Money) Money {
	return Money{dec: m.dec.Sub(other.dec)}
}

// MulRound multiplies by an arbitrary factor and rounds the product to cents.
func (m Money) MulRound(factor decimal.Decimal) Money {
	return Money{dec: m.dec.Mul(factor).Round(2)}
}

func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

func (m Money) IsPositive() bool {
	return m.dec.IsPositive()
}

func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.dec.Equal(other.dec)
}

func (m Money) GreaterThan(other Money) bool {
	return m.dec.GreaterThan(other.dec)
}

func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.dec.GreaterThanOrEqual(other.dec)
}

func (m Money) LessThanOrEqual(other Money) bool {
	return m.dec.LessThanOrEqual(other.dec)
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	return m.dec.StringFixed(2)
}

// Value implements driver.Valuer so Money maps onto numeric(12,2) columns.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	if src == nil {
		m.dec = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scanning money: %w", err)
	}
	m.dec = d
	return nil
}

// MarshalJSON renders Money as a decimal string to keep API clients away from floats.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		m.dec = decimal.Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := MoneyFromString(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	parsed, err := MoneyFromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

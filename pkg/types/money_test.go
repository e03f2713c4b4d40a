package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyArithmetic(t *testing.T) {
	a, err := MoneyFromString("100.10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := MoneyFromString("0.20")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := a.Add(b).String(); got != "100.30" {
		t.Fatalf("add: got %s", got)
	}
	if got := a.Sub(b).String(); got != "99.90" {
		t.Fatalf("sub: got %s", got)
	}
	if !b.Sub(a).IsNegative() {
		t.Fatal("expected negative result")
	}
}

func TestMoneyComparisons(t *testing.T) {
	a := MoneyFromInt(500)
	b := MoneyFromFloat(499.99)

	if !a.GreaterThan(b) {
		t.Fatal("500 should be greater than 499.99")
	}
	if !b.LessThanOrEqual(a) {
		t.Fatal("499.99 should be <= 500")
	}
	if !a.GreaterThanOrEqual(MoneyFromInt(500)) {
		t.Fatal("500 should be >= 500")
	}
	if !Zero().IsZero() {
		t.Fatal("Zero should report IsZero")
	}
}

func TestMoneyMulRoundHalfUp(t *testing.T) {
	// 3000 * 22/31 = 2129.032258... -> 2129.03
	monthly := MoneyFromInt(3000)
	factor := decimal.NewFromInt(22).Div(decimal.NewFromInt(31))
	if got := monthly.MulRound(factor).String(); got != "2129.03" {
		t.Fatalf("expected 2129.03, got %s", got)
	}

	// 0.005 boundary rounds up.
	price, _ := MoneyFromString("0.01")
	half := decimal.NewFromFloat(0.5)
	if got := price.MulRound(half).String(); got != "0.01" {
		t.Fatalf("expected half-up to 0.01, got %s", got)
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m, _ := MoneyFromString("42.50")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"42.50"` {
		t.Fatalf("unexpected JSON: %s", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip mismatch: %s", back)
	}

	var numeric Money
	if err := json.Unmarshal([]byte(`42.5`), &numeric); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !numeric.Equal(m) {
		t.Fatalf("numeric parse mismatch: %s", numeric)
	}
}

func TestMoneyScan(t *testing.T) {
	var m Money
	if err := m.Scan([]byte("15.75")); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if m.String() != "15.75" {
		t.Fatalf("unexpected value: %s", m)
	}

	var null Money
	if err := null.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !null.IsZero() {
		t.Fatal("nil should scan to zero")
	}
}

package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceLevelTruncation(t *testing.T) {
	a := NewPriceLevel(decimal.RequireFromString("100.019"))
	b := NewPriceLevel(decimal.RequireFromString("100.01"))

	if !a.Equal(b) {
		t.Fatalf("expected %v and %v to quantize to the same level", a, b)
	}
	if a.String() != "100.01" {
		t.Errorf("expected 100.01, got %s", a)
	}
}

func TestPriceLevelOrdering(t *testing.T) {
	cases := []struct {
		lo, hi string
	}{
		{"99.99", "100.00"},
		{"100.00", "100.01"},
		{"0.01", "0.02"},
		{"100.50", "101.25"},
	}

	for _, c := range cases {
		lo := NewPriceLevel(decimal.RequireFromString(c.lo))
		hi := NewPriceLevel(decimal.RequireFromString(c.hi))
		if !lo.Less(hi) {
			t.Errorf("expected %s < %s", c.lo, c.hi)
		}
		if hi.Cmp(lo) != 1 {
			t.Errorf("expected Cmp(%s, %s) = 1", c.hi, c.lo)
		}
	}
}

func TestPriceLevelDecimalRoundTrip(t *testing.T) {
	p := NewPriceLevel(decimal.RequireFromString("6500.75"))
	if !p.Decimal().Equal(decimal.RequireFromString("6500.75")) {
		t.Fatalf("round trip mismatch: %s", p.Decimal())
	}
}

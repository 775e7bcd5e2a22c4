package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceLevel is an exact price expressed as integral units plus hundredths.
// Raw floating point comparison is unsound for book ordering, so prices are
// quantized to two fractional digits on construction and compared
// component-wise from then on. Anything finer than a hundredth is truncated,
// not rounded: 100.019 and 100.01 are the same level.
type PriceLevel struct {
	units      int64
	hundredths int32
}

// NewPriceLevel truncates d to two fractional digits and splits it into
// (units, hundredths). Construction cannot fail.
func NewPriceLevel(d decimal.Decimal) PriceLevel {
	t := d.Truncate(2)
	units := t.IntPart()
	frac := t.Sub(decimal.NewFromInt(units)).Mul(decimal.NewFromInt(100))
	return PriceLevel{
		units:      units,
		hundredths: int32(frac.IntPart()),
	}
}

// PriceLevelFromParts builds a level directly from its components.
func PriceLevelFromParts(units int64, hundredths int32) PriceLevel {
	return PriceLevel{units: units, hundredths: hundredths}
}

// Cmp gives the total lexicographic order used for book indexing:
// -1 if p < o, 0 if equal, +1 if p > o.
func (p PriceLevel) Cmp(o PriceLevel) int {
	switch {
	case p.units < o.units:
		return -1
	case p.units > o.units:
		return 1
	case p.hundredths < o.hundredths:
		return -1
	case p.hundredths > o.hundredths:
		return 1
	default:
		return 0
	}
}

// Equal reports whether both components match.
func (p PriceLevel) Equal(o PriceLevel) bool {
	return p.units == o.units && p.hundredths == o.hundredths
}

// Less reports whether p orders strictly before o.
func (p PriceLevel) Less(o PriceLevel) bool {
	return p.Cmp(o) < 0
}

// Decimal converts back to an exact decimal value.
func (p PriceLevel) Decimal() decimal.Decimal {
	return decimal.New(p.units*100+int64(p.hundredths), -2)
}

func (p PriceLevel) String() string {
	return fmt.Sprintf("%d.%02d", p.units, p.hundredths)
}

// MarshalJSON renders the exact decimal form, e.g. "100.25".
func (p PriceLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string,
// quantizing to hundredths like NewPriceLevel.
func (p *PriceLevel) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*p = NewPriceLevel(d)
	return nil
}

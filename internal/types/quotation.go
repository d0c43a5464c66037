package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const nanosPerUnit = 1_000_000_000

// Quotation is a fixed-point price: a whole-unit part plus a nano-scale fraction.
// For negative values both parts carry the sign.
type Quotation struct {
	Units int64 `json:"units"`
	Nano  int32 `json:"nano"`
}

// NormalizeQuotation converts units and nanos into a float64 equal to units + nanos/1e9.
// The sum is computed exactly in decimal and only rounded once, when converting to float64.
func NormalizeQuotation(units int64, nanos int32) float64 {
	return Quotation{Units: units, Nano: nanos}.Float64()
}

// Decimal returns the exact decimal value of the quotation.
func (q Quotation) Decimal() decimal.Decimal {
	return decimal.NewFromInt(q.Units).Add(decimal.New(int64(q.Nano), -9))
}

// Float64 returns the nearest float64 to the quotation's value.
func (q Quotation) Float64() float64 {
	return q.Decimal().InexactFloat64()
}

func (q Quotation) String() string {
	return q.Decimal().String()
}

// QuotationFromDecimal converts d into a Quotation, rounding anything below 1e-9 half away from zero.
func QuotationFromDecimal(d decimal.Decimal) Quotation {
	units := d.IntPart()
	nano := d.Sub(decimal.NewFromInt(units)).Shift(9).Round(0).IntPart()

	// 0.9999999996 rounds up to a full unit
	switch {
	case nano >= nanosPerUnit:
		units++
		nano -= nanosPerUnit
	case nano <= -nanosPerUnit:
		units--
		nano += nanosPerUnit
	}

	return Quotation{Units: units, Nano: int32(nano)}
}

// ParseQuotation parses a decimal string such as "271.35" into a Quotation.
func ParseQuotation(value string) (Quotation, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quotation{}, fmt.Errorf("invalid decimal %q: %w", value, err)
	}

	return QuotationFromDecimal(d), nil
}

// QuotationFromFloat converts a float64 price (as delivered by float-based providers) into a Quotation.
func QuotationFromFloat(value float64) Quotation {
	return QuotationFromDecimal(decimal.NewFromFloat(value))
}

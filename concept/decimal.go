package concept

import "fmt"

// decimalScale is the number of implied fractional digits a Decimal's
// Fractional component carries.
const decimalScale = int64(1_000_000_000) // 9 fractional digits

// Decimal is a fixed-point signed decimal: Whole + Fractional/1e9. No
// arbitrary-precision decimal library is present anywhere in the
// example pack, so this is a deliberate standard-library-only type
// (documented in DESIGN.md) rather than a dependency gap.
type Decimal struct {
	Whole      int64
	Fractional int64 // always in [0, decimalScale), sign follows Whole
}

// NewDecimal normalizes a (whole, fractional) pair so Fractional is a
// non-negative value below decimalScale, borrowing from Whole as needed.
func NewDecimal(whole, fractional int64) Decimal {
	for fractional < 0 {
		fractional += decimalScale
		whole--
	}
	for fractional >= decimalScale {
		fractional -= decimalScale
		whole++
	}
	return Decimal{Whole: whole, Fractional: fractional}
}

func (d Decimal) String() string {
	if d.Whole < 0 && d.Fractional > 0 {
		return fmt.Sprintf("-%d.%09d", -(d.Whole + 1), decimalScale-d.Fractional)
	}
	return fmt.Sprintf("%d.%09d", d.Whole, d.Fractional)
}

// Float64 converts to a Double, the representation the expression
// compiler's cast opcodes target.
func (d Decimal) Float64() float64 {
	return float64(d.Whole) + float64(d.Fractional)/float64(decimalScale)
}

// DecimalFromInt promotes an Integer to Decimal (OpCastLeftIntegerToDecimal
// / OpCastRightIntegerToDecimal in expression/opcode.go).
func DecimalFromInt(n int64) Decimal {
	return Decimal{Whole: n, Fractional: 0}
}

func (d Decimal) Add(o Decimal) Decimal { return NewDecimal(d.Whole+o.Whole, d.Fractional+o.Fractional) }
func (d Decimal) Sub(o Decimal) Decimal { return NewDecimal(d.Whole-o.Whole, d.Fractional-o.Fractional) }

// Mul multiplies via the float64 representation rescaled back to fixed
// point; adequate precision for the 9-digit scale this type targets.
func (d Decimal) Mul(o Decimal) Decimal {
	product := d.Float64() * o.Float64()
	whole := int64(product)
	frac := int64((product - float64(whole)) * float64(decimalScale))
	return NewDecimal(whole, frac)
}

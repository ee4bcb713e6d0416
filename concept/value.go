package concept

import (
	"fmt"
	"strings"
	"time"

	"github.com/katadb/katadb/schema"
)

// Value is a concept-level value: a tagged union over the value types
// of spec.md §6. Only the field matching Kind is meaningful, mirroring
// ir.ExprNode's tagged-union layout in ir/expression.go.
type Value struct {
	Kind schema.ValueType

	Boolean    bool
	Integer    int64
	Double     float64
	Decimal    Decimal
	Str        string
	Date       time.Time // truncated to a calendar day, no time-of-day
	DateTime   time.Time // naive: no timezone attached
	DateTimeTZ time.Time // timezone-aware; stdlib time.Time already carries one
	Duration   Duration
	Struct     map[string]Value
}

func Boolean(v bool) Value  { return Value{Kind: schema.ValueTypeBoolean, Boolean: v} }
func Integer(v int64) Value { return Value{Kind: schema.ValueTypeInteger, Integer: v} }
func Double(v float64) Value { return Value{Kind: schema.ValueTypeDouble, Double: v} }
func DecimalValue(d Decimal) Value { return Value{Kind: schema.ValueTypeDecimal, Decimal: d} }
func StringValue(v string) Value { return Value{Kind: schema.ValueTypeString, Str: v} }
func DateValue(t time.Time) Value { return Value{Kind: schema.ValueTypeDate, Date: t.Truncate(24 * time.Hour)} }
func DateTimeValue(t time.Time) Value { return Value{Kind: schema.ValueTypeDateTime, DateTime: t} }
func DateTimeTZValue(t time.Time) Value { return Value{Kind: schema.ValueTypeDateTimeTZ, DateTimeTZ: t} }
func DurationValue(d Duration) Value { return Value{Kind: schema.ValueTypeDuration, Duration: d} }
func StructValue(fields map[string]Value) Value { return Value{Kind: schema.ValueTypeStruct, Struct: fields} }

// String renders v for logging and ConceptRow debug output.
func (v Value) String() string {
	switch v.Kind {
	case schema.ValueTypeBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case schema.ValueTypeInteger:
		return fmt.Sprintf("%d", v.Integer)
	case schema.ValueTypeDouble:
		return fmt.Sprintf("%g", v.Double)
	case schema.ValueTypeDecimal:
		return v.Decimal.String()
	case schema.ValueTypeString:
		return v.Str
	case schema.ValueTypeDate:
		return v.Date.Format("2006-01-02")
	case schema.ValueTypeDateTime:
		return v.DateTime.Format("2006-01-02T15:04:05")
	case schema.ValueTypeDateTimeTZ:
		return v.DateTimeTZ.Format(time.RFC3339)
	case schema.ValueTypeDuration:
		return v.Duration.String()
	case schema.ValueTypeStruct:
		return fmt.Sprintf("%v", v.Struct)
	default:
		return "<none>"
	}
}

// Equal compares two Values of the same Kind; cross-kind comparisons
// are always false (numeric coercion happens in the expression
// compiler, not here).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case schema.ValueTypeBoolean:
		return v.Boolean == o.Boolean
	case schema.ValueTypeInteger:
		return v.Integer == o.Integer
	case schema.ValueTypeDouble:
		return v.Double == o.Double
	case schema.ValueTypeDecimal:
		return v.Decimal == o.Decimal
	case schema.ValueTypeString:
		return v.Str == o.Str
	case schema.ValueTypeDate:
		return v.Date.Equal(o.Date)
	case schema.ValueTypeDateTime:
		return v.DateTime.Equal(o.DateTime)
	case schema.ValueTypeDateTimeTZ:
		return v.DateTimeTZ.Equal(o.DateTimeTZ)
	case schema.ValueTypeDuration:
		return v.Duration == o.Duration
	default:
		return false
	}
}

// Compare orders two Values for the executor's sorted intersection-step
// merge (spec.md §4.5.2) and for Comparison constraint evaluation.
// Values of different Kind order by Kind first - callers only ever
// compare same-Kind values in practice, since a join variable or a
// well-typed comparison operand has one fixed value type.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case schema.ValueTypeBoolean:
		return compareBool(a.Boolean, b.Boolean)
	case schema.ValueTypeInteger:
		return compareInt64(a.Integer, b.Integer)
	case schema.ValueTypeDouble:
		return compareFloat64(a.Double, b.Double)
	case schema.ValueTypeDecimal:
		if a.Decimal.Whole != b.Decimal.Whole {
			return compareInt64(a.Decimal.Whole, b.Decimal.Whole)
		}
		return compareInt64(a.Decimal.Fractional, b.Decimal.Fractional)
	case schema.ValueTypeString:
		return strings.Compare(a.Str, b.Str)
	case schema.ValueTypeDate:
		return compareTime(a.Date, b.Date)
	case schema.ValueTypeDateTime:
		return compareTime(a.DateTime, b.DateTime)
	case schema.ValueTypeDateTimeTZ:
		return compareTime(a.DateTimeTZ, b.DateTimeTZ)
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

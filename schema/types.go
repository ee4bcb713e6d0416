// Package schema is the read-only schema oracle the core consults
// during type annotation and plan compilation. Its persistence format
// is out of scope (spec.md §1); this package defines the TypeManager
// interface contract plus an in-memory reference implementation used
// by tests and by callers who have not wired a persistent schema store.
package schema

import "fmt"

// Category is the coarse kind of a schema type.
type Category uint8

const (
	CategoryEntity Category = iota
	CategoryRelation
	CategoryAttribute
	CategoryRoleType
)

func (c Category) String() string {
	switch c {
	case CategoryEntity:
		return "entity"
	case CategoryRelation:
		return "relation"
	case CategoryAttribute:
		return "attribute"
	case CategoryRoleType:
		return "role"
	default:
		return "unknown"
	}
}

// ValueType is the primitive value category of an attribute or an
// expression result (spec.md §6).
type ValueType uint8

const (
	ValueTypeNone ValueType = iota
	ValueTypeBoolean
	ValueTypeInteger
	ValueTypeDouble
	ValueTypeDecimal
	ValueTypeString
	ValueTypeDate
	ValueTypeDateTime
	ValueTypeDateTimeTZ
	ValueTypeDuration
	ValueTypeStruct
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeInteger:
		return "integer"
	case ValueTypeDouble:
		return "double"
	case ValueTypeDecimal:
		return "decimal"
	case ValueTypeString:
		return "string"
	case ValueTypeDate:
		return "date"
	case ValueTypeDateTime:
		return "datetime"
	case ValueTypeDateTimeTZ:
		return "datetime-tz"
	case ValueTypeDuration:
		return "duration"
	case ValueTypeStruct:
		return "struct"
	default:
		return "none"
	}
}

// IsNumeric reports whether binary arithmetic is potentially defined
// over this value type (the expression compiler table in §4.3 only
// permits Integer/Double/Decimal operand pairs).
func (v ValueType) IsNumeric() bool {
	return v == ValueTypeInteger || v == ValueTypeDouble || v == ValueTypeDecimal
}

// TypeID identifies a schema type (entity, relation, attribute, or
// role type) uniquely within a database.
type TypeID uint32

// Type is a resolved schema type: its category, label, optional
// supertype, and (for attributes) value type.
type Type struct {
	ID        TypeID
	Label     string
	Category  Category
	ValueType ValueType // only meaningful for CategoryAttribute
	Abstract  bool
}

func (t Type) String() string { return fmt.Sprintf("%s(%s)", t.Label, t.Category) }

// Cardinality bounds the number of edges a capability (owns/plays/relates)
// may have; zero Max means unbounded.
type Cardinality struct {
	Min int
	Max int // 0 == unbounded
}

package concept

import (
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// ParameterRegistry resolves a query's compile-time literal parameters
// (ir.ParameterID, referenced from ir.ParameterVertex and
// ir.ExprNode.ConstantParam) to concrete Values. It is built once per
// query from the parsed literal table - parsing itself is out of scope
// (spec.md §1) - grounded on the teacher's tuple_builder.go parameter
// binding, generalized from a flat symbol table to a dense-index one.
type ParameterRegistry struct {
	values []Value
}

// NewParameterRegistry wraps an already-ordered literal slice; values[i]
// is resolved for ir.ParameterID(i).
func NewParameterRegistry(values []Value) *ParameterRegistry {
	return &ParameterRegistry{values: values}
}

// Get resolves id, or ok=false if it was never registered.
func (r *ParameterRegistry) Get(id ir.ParameterID) (Value, bool) {
	if r == nil || int(id) >= len(r.values) {
		return Value{}, false
	}
	return r.values[id], true
}

// Add appends a literal and returns the ParameterID it was assigned.
func (r *ParameterRegistry) Add(v Value) ir.ParameterID {
	r.values = append(r.values, v)
	return ir.ParameterID(len(r.values) - 1)
}

// ValueTypes returns the schema.ValueType of every registered parameter,
// in the shape expression.Compile's constantTypes argument expects.
func (r *ParameterRegistry) ValueTypes() map[ir.ParameterID]schema.ValueType {
	out := make(map[ir.ParameterID]schema.ValueType, len(r.values))
	for i, v := range r.values {
		out[ir.ParameterID(i)] = v.Kind
	}
	return out
}

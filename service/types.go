// Package service defines the thin request/response envelope between a
// caller and the query execution core: a parsed-and-annotated block
// plus its modifiers in, a shaped set of concept rows out. The
// network transport that would carry these across a wire is out of
// scope (spec.md §1); this package only fixes the hand-off shape,
// grounded on the teacher's Database.ExecuteQueryWithInputs convenience
// wrapper (parse -> bind inputs -> execute -> shape results).
package service

import (
	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/executor"
	"github.com/katadb/katadb/ir"
)

// QueryRequest is one query's worth of input: the block to match,
// optional seed type annotations for variables a caller already knows
// the type of (e.g. from a prior statement in the same transaction),
// parameter values referenced by the block's ParameterVertex operands,
// and the query-level stream modifiers.
type QueryRequest struct {
	Block      *ir.Block
	Seeds      map[ir.VariableID]ir.TypeSet
	Parameters []concept.Value
	Modifiers  Modifiers

	// Functions supplies any named function declarations and their
	// precompiled plans the block's FunctionCallBinding constraints may
	// invoke (spec.md §4.5.4).
	Functions *executor.FunctionRegistry
}

// Modifiers mirrors planner.Modifiers so callers of this package never
// need to import planner directly just to build a request.
type Modifiers struct {
	Select   []ir.VariableID
	Offset   *int
	Limit    *int
	Distinct bool
	First    bool
	Last     bool
	Sort     []SortKey
	Reduce   *Reduce
}

// SortKey mirrors planner.OrderKey.
type SortKey struct {
	Variable   ir.VariableID
	Descending bool
}

// Reduce mirrors planner.ReduceSpec.
type Reduce struct {
	GroupBy   []ir.VariableID
	Aggregate string
	Input     ir.VariableID
	Output    ir.VariableID
}

// QueryResponse is the shaped result of one query: one ConceptRow per
// output row, plus the variable order the caller requested (for
// callers that want positional rather than by-name access).
type QueryResponse struct {
	Variables []ir.VariableID
	Rows      []ConceptRow
}

// ConceptRow is one result row, keyed by variable, each binding
// rendered as a ConceptDocument - a caller-facing shape that never
// exposes executor.Binding's internal Category discriminant directly.
type ConceptRow map[ir.VariableID]ConceptDocument

// ConceptDocument is the caller-facing rendering of one executor.Binding:
// a type label, an optional instance identity, and a decoded value
// when the binding carries one (always for CategoryValue, and for
// CategoryInstance bindings over an attribute).
type ConceptDocument struct {
	Empty      bool
	TypeLabel  string
	InstanceID uint64
	HasValue   bool
	Value      concept.Value
}

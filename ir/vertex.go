package ir

import "fmt"

// Vertex is an operand of a Constraint: a Variable, a resolved schema
// label, or a compile-time literal parameter.
type Vertex interface {
	isVertex()
	String() string
}

// VariableVertex wraps a Variable reference by ID.
type VariableVertex struct {
	Variable VariableID
}

func (VariableVertex) isVertex() {}
func (v VariableVertex) String() string { return fmt.Sprintf("$%d", v.Variable) }

// LabelVertex is a resolved schema name (a type label), e.g. `person`.
type LabelVertex struct {
	Label string
}

func (LabelVertex) isVertex()        {}
func (l LabelVertex) String() string { return l.Label }

// ParameterID indexes into a ParameterRegistry (spec.md §4.6) for the
// compile-time literal a ParameterVertex stands for.
type ParameterID uint32

// ParameterVertex is a compile-time literal operand, resolved against
// the ParameterRegistry at execution time.
type ParameterVertex struct {
	Parameter ParameterID
}

func (ParameterVertex) isVertex()        {}
func (p ParameterVertex) String() string { return fmt.Sprintf("$param%d", p.Parameter) }

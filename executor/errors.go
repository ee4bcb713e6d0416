package executor

import (
	"github.com/katadb/katadb/internal/corerr"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
)

func errInterrupted(cause error) error {
	return corerr.Wrap(corerr.Interrupt, "Executor", "execution interrupted", cause)
}

func errUnsupportedMode(constraintKind ir.ConstraintKind, mode planner.IterateMode) error {
	return corerr.New(corerr.Concept, "Executor", "unsupported iterate mode",
		map[string]any{"constraint": constraintKind, "mode": mode.String()})
}

func errUnresolvedVertex(v ir.Vertex) error {
	return corerr.New(corerr.Concept, "Executor", "vertex has no resolvable binding",
		map[string]any{"vertex": v.String()})
}

func errCouldNotResolveLabel(label string) error {
	return corerr.New(corerr.Concept, "Executor", "label does not resolve to any schema type",
		map[string]any{"label": label})
}

func errUnsupportedReverseHasLookup() error {
	return corerr.New(corerr.Concept, "Executor", "has constraint with bound attribute and unbound owner has no reverse index", nil)
}

func errUnsupportedReverseCapabilityLookup(kind ir.ConstraintKind) error {
	return corerr.New(corerr.Concept, "Executor", "capability constraint with bound target and unbound source has no reverse index",
		map[string]any{"constraint": kind})
}

func errUnknownFunction(name string) error {
	return corerr.New(corerr.Concept, "Executor", "call to undeclared function", map[string]any{"function": name})
}

func errArithmeticOverflow(op ir.ArithOp) error {
	return corerr.New(corerr.DataValidation, "Executor", "integer arithmetic overflow", map[string]any{"op": op})
}

func errDivisionByZero() error {
	return corerr.New(corerr.DataValidation, "Executor", "division by zero", nil)
}

func errListIndexOutOfRange(idx, length int) error {
	return corerr.New(corerr.DataValidation, "Executor", "list index out of range",
		map[string]any{"index": idx, "length": length})
}

func errUnknownAggregate(name string) error {
	return corerr.New(corerr.Concept, "Executor", "unknown aggregate function", map[string]any{"aggregate": name})
}

func errAggregateTypeMismatch(aggregate string, kind any) error {
	return corerr.New(corerr.DataValidation, "Executor", "aggregate input has incompatible value type",
		map[string]any{"aggregate": aggregate, "kind": kind})
}

func errFixpointDidNotConverge(name string) error {
	return corerr.New(corerr.Concept, "Executor", "recursive function did not reach a fixpoint",
		map[string]any{"function": name})
}

func errUnsupportedShape() error {
	return corerr.New(corerr.Concept, "Executor", "expression produced an unsupported value shape", nil)
}

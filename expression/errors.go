package expression

import (
	"github.com/katadb/katadb/internal/corerr"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

func errUnsupportedOperands(op ir.ArithOp, left, right schema.ValueType) error {
	return corerr.New(corerr.Compile, "Expression", "unsupported operands for operation",
		map[string]any{"op": op, "left": left.String(), "right": right.String()})
}

func errUnsupportedBuiltinArgs(fn ir.BuiltIn, category schema.ValueType) error {
	return corerr.New(corerr.Compile, "Expression", "unsupported arguments for built-in",
		map[string]any{"builtin": fn, "category": category.String()})
}

func errHeterogeneousList() error {
	return corerr.New(corerr.Compile, "Expression", "heterogeneous list constructor", nil)
}

func errEmptyListCannotInferType() error {
	return corerr.New(corerr.Compile, "Expression", "empty list constructor cannot infer type", nil)
}

func errListIndexMustBeInteger() error {
	return corerr.New(corerr.Compile, "Expression", "list index must be integer", nil)
}

func errInternalStackEmpty(detail string) error {
	return corerr.New(corerr.Compile, "Expression", "internal stack empty", map[string]any{"detail": detail})
}

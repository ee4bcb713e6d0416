package planner

import (
	"github.com/katadb/katadb/internal/corerr"
	"github.com/katadb/katadb/ir"
)

func errNoValidOrder() error {
	return corerr.New(corerr.Compile, "Planner", "no valid order: cyclic data dependency", nil)
}

func errUnsupportedMode(constraintKind ir.ConstraintKind, mode IterateMode) error {
	return corerr.New(corerr.Compile, "Planner", "unsupported iterate mode",
		map[string]any{"constraint": constraintKind, "mode": mode.String()})
}

package executor

import (
	"context"

	"github.com/katadb/katadb/planner"
)

// applyNested dispatches a NestedStep to its disjunction/negation/optional
// handler.
func applyNested(ctx context.Context, step *planner.NestedStep, env *Environment, rows []*Row) ([]*Row, error) {
	switch step.Kind {
	case planner.NestedDisjunction:
		return applyDisjunction(ctx, step, env, rows)
	case planner.NestedNegation:
		return applyNegation(ctx, step.Inner, env, rows, false)
	case planner.NestedOptional:
		return applyNegation(ctx, step.Inner, env, rows, true)
	default:
		return nil, errUnsupportedShape()
	}
}

// applyDisjunction runs every branch against each input row and
// concatenates their outputs in branch declaration order (spec.md
// §4.5.3's ordering invariant), tagging each output row with the branch
// index taken so downstream Distinct can still tell rows apart by
// provenance before a Select projects Branch away.
func applyDisjunction(ctx context.Context, step *planner.NestedStep, env *Environment, rows []*Row) ([]*Row, error) {
	var out []*Row
	for _, row := range rows {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}
		for branchIdx, branch := range step.Branches {
			seed := []*Row{row.WithBranch(branchIdx)}
			branchRows, err := Execute(ctx, branch, env, seed)
			if err != nil {
				return nil, err
			}
			out = append(out, branchRows...)
		}
	}
	return out, nil
}

// applyNegation implements both Negation and Optional (spec.md §4.5.3):
// for each input row, run inner once; if it produced zero rows, both
// forms emit the input row unchanged (negation succeeds when nothing
// matched; optional's own variables stay absent from the row, so Row.Get
// reports them with ok == false, and no EmptyBinding is set). If inner
// produced at least one row,
// negation drops the input row entirely and optional emits every inner
// row (each already carries the outer row's bindings, since Execute is
// seeded with a clone of the outer row).
func applyNegation(ctx context.Context, inner *planner.ExecutablePlan, env *Environment, rows []*Row, optional bool) ([]*Row, error) {
	var out []*Row
	for _, row := range rows {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}
		innerRows, err := Execute(ctx, inner, env, []*Row{row.Clone()})
		if err != nil {
			return nil, err
		}
		switch {
		case len(innerRows) == 0:
			out = append(out, row.Clone())
		case optional:
			out = append(out, innerRows...)
		default:
			// negation: row fails, contribute nothing.
		}
	}
	return out, nil
}

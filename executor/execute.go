package executor

import (
	"context"

	"github.com/katadb/katadb/planner"
)

// Execute folds plan's Steps over rows, each step transforming the
// current generation of rows into the next (spec.md §4.5). Query-level
// stream modifiers and collecting steps (Select, Distinct, Sort, Reduce,
// ...) are appended onto the same flat Steps slice by
// planner.CompileModifiers, so this one loop drives an entire query -
// block matching, nested disjunction/negation/optional sub-plans,
// function calls, and the query's final projection/ordering - uniformly.
func Execute(ctx context.Context, plan *planner.ExecutablePlan, env *Environment, rows []*Row) ([]*Row, error) {
	cur := rows
	for _, step := range plan.Steps {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}
		next, err := applyStep(ctx, step, env, cur)
		if err != nil {
			return nil, err
		}
		cur = next
		if len(cur) == 0 {
			return cur, nil
		}
	}
	return cur, nil
}

func applyStep(ctx context.Context, step planner.Step, env *Environment, rows []*Row) ([]*Row, error) {
	switch s := step.(type) {
	case *planner.IntersectionStep:
		return applyIntersection(ctx, s, env, rows)
	case *planner.NestedStep:
		return applyNested(ctx, s, env, rows)
	case *planner.FunctionCallStep:
		return applyFunctionCall(ctx, s, env, rows)
	case *planner.StreamModifierStep:
		return applyStreamModifier(ctx, s, rows)
	case *planner.CollectingStep:
		return applyCollecting(ctx, s, rows)
	default:
		return nil, errUnsupportedShape()
	}
}

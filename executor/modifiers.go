package executor

import (
	"context"

	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
)

// applyStreamModifier applies one whole-slice row transform (spec.md
// §4.5.5). Unlike the join/nested steps, these never consult env or need
// per-row interrupt checks beyond the one at entry - each is a simple,
// already-materialized slice operation.
func applyStreamModifier(ctx context.Context, step *planner.StreamModifierStep, rows []*Row) ([]*Row, error) {
	if err := checkInterrupt(ctx); err != nil {
		return nil, err
	}
	switch step.Modifier {
	case planner.ModifierSelect:
		return selectRows(rows, step.Variables), nil
	case planner.ModifierDistinct:
		return distinctRows(rows), nil
	case planner.ModifierOffset:
		if step.N >= len(rows) {
			return nil, nil
		}
		return rows[step.N:], nil
	case planner.ModifierLimit:
		if step.N >= len(rows) {
			return rows, nil
		}
		return rows[:step.N], nil
	case planner.ModifierFirst:
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[:1], nil
	case planner.ModifierLast:
		// Only correct because rows is already the full materialized
		// stream for this plan branch - the reason the executor evaluates
		// plans eagerly instead of lazily pulling one row at a time.
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[len(rows)-1:], nil
	default:
		return nil, errUnsupportedShape()
	}
}

func selectRows(rows []*Row, vars []ir.VariableID) []*Row {
	out := make([]*Row, len(rows))
	for i, r := range rows {
		projected := NewRow()
		projected.Branch = r.Branch
		for _, v := range vars {
			if b, ok := r.Get(v); ok {
				projected.Set(v, b)
			}
		}
		out[i] = projected
	}
	return out
}

// distinctRows drops duplicate rows, keeping the first occurrence - rows
// are already in the order the plan produced them, so this automatically
// satisfies the "first match wins" ordering invariant without a separate
// sort.
func distinctRows(rows []*Row) []*Row {
	seen := make(map[string]bool, len(rows))
	var out []*Row
	for _, r := range rows {
		k := rowKey(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, r)
		}
	}
	return out
}

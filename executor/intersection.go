package executor

import (
	"context"

	"github.com/katadb/katadb/planner"
)

// applyIntersection runs one IntersectionStep over every input row,
// producing the concatenation of each input row's joined extensions
// (spec.md §4.5.2).
func applyIntersection(ctx context.Context, step *planner.IntersectionStep, env *Environment, rows []*Row) ([]*Row, error) {
	var joinInstrs, checkInstrs []planner.Instruction
	for _, instr := range step.Instructions {
		if instr.CheckOnly {
			checkInstrs = append(checkInstrs, instr)
		} else {
			joinInstrs = append(joinInstrs, instr)
		}
	}

	var out []*Row
	for _, row := range rows {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}
		joined, err := joinOneRow(ctx, joinInstrs, env, row)
		if err != nil {
			return nil, err
		}
		for _, j := range joined {
			ok, err := passesAllChecks(ctx, checkInstrs, env, j)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, j)
			}
		}
	}
	return out, nil
}

func passesAllChecks(ctx context.Context, checks []planner.Instruction, env *Environment, row *Row) (bool, error) {
	for _, c := range checks {
		ok, err := passesChecks(ctx, c, env, row)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// joinOneRow runs the sorted merge-join (spec.md §4.5.2) for one input
// row: every join instruction contributes one sorted candidate list;
// repeatedly advance whichever lists peek below the current maximum sort
// key until every list's peek agrees, emit the joined row, then advance
// every list by one and continue.
func joinOneRow(ctx context.Context, instrs []planner.Instruction, env *Environment, row *Row) ([]*Row, error) {
	if len(instrs) == 0 {
		return []*Row{row.Clone()}, nil
	}

	lists := make([][]candidate, len(instrs))
	for i, instr := range instrs {
		items, err := instructionCandidates(ctx, instr, env, row)
		if err != nil {
			return nil, err
		}
		lists[i] = items
	}

	idx := make([]int, len(lists))
	var out []*Row

	for {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}

		// Exhausted any list: no more joined rows from this input row.
		exhausted := false
		for i, l := range lists {
			if idx[i] >= len(l) {
				exhausted = true
				break
			}
		}
		if exhausted {
			break
		}

		// Find the maximum current peek.
		var max Binding
		maxSet := false
		for i, l := range lists {
			peek := l[idx[i]].sortKey
			if !maxSet || CompareBindings(peek, max) > 0 {
				max = peek
				maxSet = true
			}
		}

		// Advance every list whose peek is below max.
		advanced := false
		for i, l := range lists {
			for idx[i] < len(l) && CompareBindings(l[idx[i]].sortKey, max) < 0 {
				idx[i]++
				advanced = true
			}
		}
		if advanced {
			continue
		}

		// Re-check exhaustion after advancing.
		exhausted = false
		for i, l := range lists {
			if idx[i] >= len(l) {
				exhausted = true
				break
			}
		}
		if exhausted {
			break
		}

		// Every peek now equals max: emit, then advance all by one.
		joined := row.Clone()
		for i, l := range lists {
			for v, b := range l[idx[i]].extension {
				joined.Set(v, b)
			}
		}
		out = append(out, joined)
		for i := range lists {
			idx[i]++
		}
	}
	return out, nil
}

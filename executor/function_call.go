package executor

import (
	"context"
	"strings"

	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
)

// maxFixpointIterations bounds the fixpoint loop resolveTabled runs for
// a recursive call; a well-formed recursive function over a finite
// instance set reaches a fixpoint in at most a few rounds, so this is a
// generous backstop against a genuinely non-terminating definition rather
// than an expected limit.
const maxFixpointIterations = 256

// applyFunctionCall runs a FunctionCallStep over every input row: resolve
// the call's arguments from the row, invoke the callee (through the
// tabled memo loop when Tabled is set), and merge each result row's
// return bindings onto the caller's own Assigned variables (spec.md
// §4.5.4).
func applyFunctionCall(ctx context.Context, step *planner.FunctionCallStep, env *Environment, rows []*Row) ([]*Row, error) {
	decl, ok := env.Functions.Decls[step.Call.Function]
	if !ok {
		return nil, errUnknownFunction(step.Call.Function)
	}

	var out []*Row
	for _, row := range rows {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}

		args := make([]Binding, len(step.Call.Arguments))
		for i, a := range step.Call.Arguments {
			b, err := resolveArgBinding(a, row, env)
			if err != nil {
				return nil, err
			}
			args[i] = b
		}

		var resultRows []*Row
		var err error
		if step.Tabled {
			resultRows, err = env.resolveTabled(ctx, step.Call.Function, args)
		} else {
			resultRows, err = env.callFunction(ctx, step.Call.Function, args)
		}
		if err != nil {
			return nil, err
		}

		for _, rr := range resultRows {
			joined := row.Clone()
			for i, assignedVar := range step.Assigned {
				if i >= len(decl.Return) {
					break
				}
				if b, ok := rr.Get(decl.Return[i].ID); ok {
					joined.Set(assignedVar, b)
				}
			}
			out = append(out, joined)
		}
	}
	return out, nil
}

func resolveArgBinding(v ir.Vertex, row *Row, env *Environment) (Binding, error) {
	switch vv := v.(type) {
	case ir.VariableVertex:
		b, ok := row.Get(vv.Variable)
		if !ok {
			return Binding{}, errUnresolvedVertex(v)
		}
		return b, nil
	case ir.ParameterVertex:
		val, ok := env.Params.Get(vv.Parameter)
		if !ok {
			return Binding{}, errUnresolvedVertex(v)
		}
		return ValueBinding(val), nil
	case ir.LabelVertex:
		id, ok := resolveLabel(env.TM, vv.Label)
		if !ok {
			return Binding{}, errCouldNotResolveLabel(vv.Label)
		}
		return TypeBinding(id), nil
	default:
		return Binding{}, errUnresolvedVertex(v)
	}
}

// callFunction runs decl's precompiled body plan once, seeded with a
// fresh row binding decl.Parameters to args positionally - the callee has
// its own variable arena, so arguments cross into a brand new Row rather
// than extending the caller's.
func (env *Environment) callFunction(ctx context.Context, name string, args []Binding) ([]*Row, error) {
	decl, ok := env.Functions.Decls[name]
	if !ok {
		return nil, errUnknownFunction(name)
	}
	plan, ok := env.Functions.Plans[name]
	if !ok {
		return nil, errUnknownFunction(name)
	}

	seed := NewRow()
	for i, p := range decl.Parameters {
		if i < len(args) {
			seed.Set(p, args[i])
		}
	}
	return Execute(ctx, plan, env, []*Row{seed})
}

// resolveTabled implements spec.md §4.5.4's recursive-call memoization as
// naive fixpoint iteration at function-call granularity (every round
// re-runs each body in full), generalized to whole dependency groups rather than one
// key at a time: a nested tabled call reached while a group is being
// solved (whether it recurses into its own key or into a different one)
// joins that same group and reads back its table's current rows instead
// of recursing again. The outermost call drives the group: every round
// re-runs every key the group has accumulated so far (picking up keys
// discovered mid-round in the same round), and the whole group only
// finalizes once a full round adds no new key and changes no key's
// rows. Finalizing members independently - as soon as each one's own
// rows stop changing - is unsound across mutual recursion: a cyclic
// partner can look stable only because the key it depends on hasn't
// caught up yet, and once finalized it is never revisited even after
// that dependency keeps growing. Driving the whole cycle as one group
// is what makes the rows every suspension read sum to the final table
// contents once the group stops changing.
func (env *Environment) resolveTabled(ctx context.Context, name string, args []Binding) ([]*Row, error) {
	key := tableKey(name, args)

	if e, ok := env.tables[key]; ok {
		if e.final || env.activeGroup != nil {
			return e.rows, nil
		}
		// e exists, not final, and no group is currently driving: a
		// previous outermost attempt for this key must have errored out
		// before finalizing. Fall through and retry it as a fresh group.
	} else {
		env.tables[key] = &tableEntry{name: name, args: args}
	}

	if env.activeGroup != nil {
		if !containsKey(env.activeGroup.keys, key) {
			env.activeGroup.keys = append(env.activeGroup.keys, key)
		}
		return env.tables[key].rows, nil
	}

	group := &tableGroup{keys: []string{key}}
	env.activeGroup = group
	defer func() { env.activeGroup = nil }()

	for iter := 0; iter < maxFixpointIterations; iter++ {
		if err := checkInterrupt(ctx); err != nil {
			return nil, err
		}

		sizeAtStart := len(group.keys)
		changed := false
		for i := 0; i < len(group.keys); i++ {
			e := env.tables[group.keys[i]]
			rows, err := env.callFunction(ctx, e.name, e.args)
			if err != nil {
				return nil, err
			}
			e.rows = rows
			curKey := rowsKey(rows)
			if curKey != e.lastKey {
				changed = true
			}
			e.lastKey = curKey
		}

		if iter > 0 && !changed && len(group.keys) == sizeAtStart {
			for _, k := range group.keys {
				env.tables[k].final = true
			}
			return env.tables[key].rows, nil
		}
	}
	return nil, errFixpointDidNotConverge(name)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func tableKey(name string, args []Binding) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteString("|")
		sb.WriteString(bindingKey(a))
	}
	return sb.String()
}

package executor

import (
	"context"
	"sort"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
	"github.com/katadb/katadb/schema"
)

// candidate is one row an instruction offers the intersection step's
// merge-join (spec.md §4.5.2): sortKey is the instruction's Produces
// variable's value (what the step sorts and advances on), extension
// carries every variable the instruction newly binds when this candidate
// is chosen (Produces plus any Secondary columns).
type candidate struct {
	sortKey   Binding
	extension map[ir.VariableID]Binding
}

func sortedCandidates(items []candidate) []candidate {
	sort.Slice(items, func(i, j int) bool { return CompareBindings(items[i].sortKey, items[j].sortKey) < 0 })
	return items
}

// instructionCandidates evaluates one compiled Instruction against row,
// returning the sorted list of candidate extensions the intersection
// step's merge-join consumes (spec.md §4.5.2, §4.5.4 for comparisons and
// expression bindings). CheckOnly instructions are also routed through
// here by passesChecks, with the caller only asking whether the result is
// non-empty.
func instructionCandidates(ctx context.Context, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	if err := checkInterrupt(ctx); err != nil {
		return nil, err
	}
	switch con := instr.Constraint.(type) {
	case ir.Isa:
		return isaCandidates(con, instr, env, row)
	case ir.Sub:
		return subCandidates(con, instr, env, row)
	case ir.Has:
		return hasCandidates(con, instr, env, row)
	case ir.Links:
		return linksCandidates(con, instr, env, row)
	case ir.Owns:
		return capabilityCandidates(instr, env, row, con.OwnerType, con.AttributeType, ir.KindOwns,
			func(id schema.TypeID) []schema.TypeID { return env.TM.GetOwns(id, true) })
	case ir.Relates:
		return capabilityCandidates(instr, env, row, con.RelationType, con.RoleType, ir.KindRelates,
			func(id schema.TypeID) []schema.TypeID { return env.TM.GetRelates(id, false) })
	case ir.Plays:
		return capabilityCandidates(instr, env, row, con.PlayerType, con.RoleType, ir.KindPlays,
			func(id schema.TypeID) []schema.TypeID { return env.TM.GetPlays(id, true) })
	case ir.Label:
		return labelCandidates(con, instr, env, row)
	case ir.RoleName:
		return roleNameCandidates(con, instr, env, row)
	case ir.Iid:
		return iidCandidates(con, instr, env, row)
	case ir.Is:
		return isCandidates(con, instr, row)
	case ir.Comparison:
		return comparisonCandidates(con, env, row)
	case ir.ExpressionBinding:
		return expressionCandidates(con, instr, env, row)
	default:
		return nil, errUnsupportedMode(instr.Constraint.Kind(), instr.Mode)
	}
}

// passesChecks evaluates a CheckOnly instruction against an already fully
// joined row, reporting whether it still holds.
func passesChecks(ctx context.Context, instr planner.Instruction, env *Environment, row *Row) (bool, error) {
	items, err := instructionCandidates(ctx, instr, env, row)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

func isaCandidates(con ir.Isa, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	thingVar, thingIsVar := variableOfVertex(con.Thing)
	typeVar, typeIsVar := variableOfVertex(con.Type)

	switch instr.Mode {
	case planner.BoundFrom: // Thing bound, Type unbound: read its declared type.
		th, ok := resolveThing(con.Thing, row)
		if !ok {
			return nil, errUnresolvedVertex(con.Thing)
		}
		types := []schema.TypeID{th.TypeID}
		if con.IsaKind == ir.Transitive {
			types = append(types, ancestorTypes(env.TM, th.TypeID)...)
		}
		var out []candidate
		for _, t := range types {
			out = append(out, candidate{sortKey: TypeBinding(t), extension: map[ir.VariableID]Binding{typeVar: TypeBinding(t)}})
		}
		return sortedCandidates(out), nil

	case planner.UnboundInverted: // Type bound, Thing unbound: iterate instances.
		types, err := typeCandidates(con.Type, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		if con.IsaKind == ir.Transitive {
			types = expandSubtypes(env.TM, types)
		}
		var out []candidate
		for _, t := range types {
			things, err := env.Things.IterateInstances(t)
			if err != nil {
				return nil, err
			}
			for _, th := range things {
				b, err := instanceBindingFor(env, th)
				if err != nil {
					return nil, err
				}
				out = append(out, candidate{sortKey: b, extension: map[ir.VariableID]Binding{thingVar: b}})
			}
		}
		return sortedCandidates(out), nil

	case planner.Unbound: // Neither bound: enumerate (type, instance) pairs.
		types, err := typeCandidates(con.Type, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		if con.IsaKind == ir.Transitive {
			types = expandSubtypes(env.TM, types)
		}
		var out []candidate
		for _, t := range types {
			things, err := env.Things.IterateInstances(t)
			if err != nil {
				return nil, err
			}
			for _, th := range things {
				b, err := instanceBindingFor(env, th)
				if err != nil {
					return nil, err
				}
				ext := map[ir.VariableID]Binding{thingVar: b}
				if typeIsVar {
					ext[typeVar] = TypeBinding(t)
				}
				out = append(out, candidate{sortKey: b, extension: ext})
			}
		}
		return sortedCandidates(out), nil

	case planner.Check:
		th, ok := resolveThing(con.Thing, row)
		if !ok {
			return nil, errUnresolvedVertex(con.Thing)
		}
		types, err := typeCandidates(con.Type, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		matchSet := types
		if con.IsaKind == ir.Transitive {
			matchSet = expandSubtypes(env.TM, types)
		}
		for _, t := range matchSet {
			if t == th.TypeID {
				b := InstanceBinding(th)
				return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{}}}, nil
			}
		}
		return nil, nil

	default:
		_ = thingIsVar
		return nil, errUnsupportedMode(con.Kind(), instr.Mode)
	}
}

func expandSubtypes(tm schema.TypeManager, types []schema.TypeID) []schema.TypeID {
	seen := make(map[schema.TypeID]bool)
	var out []schema.TypeID
	for _, t := range types {
		for _, sub := range tm.GetSubtypes(t, true) {
			if !seen[sub] {
				seen[sub] = true
				out = append(out, sub)
			}
		}
	}
	return out
}

func subCandidates(con ir.Sub, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	subVar, _ := variableOfVertex(con.Sub)
	superVar, superIsVar := variableOfVertex(con.Super)

	superChain := func(s schema.TypeID) []schema.TypeID {
		if con.SubKind == ir.Transitive {
			return ancestorTypes(env.TM, s)
		}
		if p, ok := env.TM.GetSupertype(s); ok {
			return []schema.TypeID{p}
		}
		return nil
	}

	switch instr.Mode {
	case planner.BoundFrom: // Sub bound, Super unbound.
		sub, ok := resolveSingleType(con.Sub, row, env)
		if !ok {
			return nil, errUnresolvedVertex(con.Sub)
		}
		var out []candidate
		for _, t := range superChain(sub) {
			out = append(out, candidate{sortKey: TypeBinding(t), extension: map[ir.VariableID]Binding{superVar: TypeBinding(t)}})
		}
		return sortedCandidates(out), nil

	case planner.UnboundInverted: // Super bound, Sub unbound.
		super, ok := resolveSingleType(con.Super, row, env)
		if !ok {
			return nil, errUnresolvedVertex(con.Super)
		}
		subs := env.TM.GetSubtypes(super, con.SubKind == ir.Transitive)
		var out []candidate
		for _, s := range subs {
			out = append(out, candidate{sortKey: TypeBinding(s), extension: map[ir.VariableID]Binding{subVar: TypeBinding(s)}})
		}
		return sortedCandidates(out), nil

	case planner.Unbound: // Neither bound.
		subs, err := typeCandidates(con.Sub, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		var out []candidate
		for _, s := range subs {
			sb := TypeBinding(s)
			for _, t := range superChain(s) {
				ext := map[ir.VariableID]Binding{subVar: sb}
				if superIsVar {
					ext[superVar] = TypeBinding(t)
				}
				out = append(out, candidate{sortKey: sb, extension: ext})
			}
		}
		return sortedCandidates(out), nil

	case planner.Check:
		sub, ok := resolveSingleType(con.Sub, row, env)
		if !ok {
			return nil, errUnresolvedVertex(con.Sub)
		}
		super, ok := resolveSingleType(con.Super, row, env)
		if !ok {
			return nil, errUnresolvedVertex(con.Super)
		}
		holds := sub == super
		if con.SubKind == ir.Transitive {
			holds = env.TM.IsSubtype(sub, super)
		}
		if !holds {
			return nil, nil
		}
		return []candidate{{sortKey: TypeBinding(sub), extension: map[ir.VariableID]Binding{}}}, nil

	default:
		return nil, errUnsupportedMode(con.Kind(), instr.Mode)
	}
}

// resolveSingleType resolves a bound Type vertex to its single runtime
// TypeID, used by Sub's Check/BoundFrom/UnboundInverted paths where the
// operand must already be a concrete type, not a candidate set.
func resolveSingleType(v ir.Vertex, row *Row, env *Environment) (schema.TypeID, bool) {
	types, err := typeCandidates(v, row, env.Ann, env.TM)
	if err != nil || len(types) != 1 {
		return 0, false
	}
	return types[0], true
}

func hasCandidates(con ir.Has, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	ownerVar, _ := variableOfVertex(con.Owner)
	attrVar, attrIsVar := variableOfVertex(con.Attribute)

	switch instr.Mode {
	case planner.BoundFrom: // Owner bound, Attribute unbound.
		owner, ok := resolveThing(con.Owner, row)
		if !ok {
			return nil, errUnresolvedVertex(con.Owner)
		}
		attrTypes, err := typeCandidates(con.Attribute, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		var out []candidate
		for _, at := range attrTypes {
			attrs, err := env.Things.GetHasAttributes(owner, at)
			if err != nil {
				return nil, err
			}
			for _, a := range attrs {
				b, err := instanceBindingFor(env, a)
				if err != nil {
					return nil, err
				}
				out = append(out, candidate{sortKey: b, extension: map[ir.VariableID]Binding{attrVar: b}})
			}
		}
		return sortedCandidates(out), nil

	case planner.UnboundInverted: // Attribute bound, Owner unbound: no reverse index.
		return nil, errUnsupportedReverseHasLookup()

	case planner.Unbound: // Neither bound by an earlier step of this plan.
		ownerTypes, err := typeCandidates(con.Owner, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		attrTypes, err := typeCandidates(con.Attribute, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		// An owner already bound in the incoming row (an outer-scope
		// variable seen from inside a negation or optional) restricts the
		// scan to that one owner.
		boundOwner, ownerBound := resolveThing(con.Owner, row)
		var out []candidate
		for _, ot := range ownerTypes {
			owners := []concept.Thing{boundOwner}
			if !ownerBound {
				owners, err = env.Things.IterateInstances(ot)
				if err != nil {
					return nil, err
				}
			}
			for _, owner := range owners {
				ob, err := instanceBindingFor(env, owner)
				if err != nil {
					return nil, err
				}
				for _, at := range attrTypes {
					attrs, err := env.Things.GetHasAttributes(owner, at)
					if err != nil {
						return nil, err
					}
					for _, a := range attrs {
						ext := map[ir.VariableID]Binding{ownerVar: ob}
						if attrIsVar {
							ab, err := instanceBindingFor(env, a)
							if err != nil {
								return nil, err
							}
							ext[attrVar] = ab
						}
						out = append(out, candidate{sortKey: ob, extension: ext})
					}
				}
			}
		}
		return sortedCandidates(out), nil

	case planner.Check:
		owner, ok := resolveThing(con.Owner, row)
		if !ok {
			return nil, errUnresolvedVertex(con.Owner)
		}
		attr, ok := resolveThing(con.Attribute, row)
		if !ok {
			return nil, errUnresolvedVertex(con.Attribute)
		}
		attrs, err := env.Things.GetHasAttributes(owner, attr.TypeID)
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			if a.InstanceID == attr.InstanceID {
				return []candidate{{sortKey: InstanceBinding(owner), extension: map[ir.VariableID]Binding{}}}, nil
			}
		}
		return nil, nil

	default:
		return nil, errUnsupportedMode(con.Kind(), instr.Mode)
	}
}

// linksCandidates handles Links directly off the row's bound state rather
// than instr.Mode, since Links is ternary and the planner's three modes
// (Unbound/BoundFrom/BoundFromBoundTo) collapse naturally once driven by
// which of Relation/Player/Role actually carry a binding.
func linksCandidates(con ir.Links, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	relVar, _ := variableOfVertex(con.Relation)
	playerVar, playerIsVar := variableOfVertex(con.Player)
	roleVar, roleIsVar := variableOfVertex(con.Role)

	relThing, relBound := resolveThing(con.Relation, row)
	playerThing, playerBound := resolveThing(con.Player, row)

	roleTypes, err := typeCandidates(con.Role, row, env.Ann, env.TM)
	if err != nil {
		return nil, err
	}

	switch {
	case relBound:
		var out []candidate
		for _, rt := range roleTypes {
			players, err := env.Things.GetLinksPlayers(relThing, rt)
			if err != nil {
				return nil, err
			}
			for _, p := range players {
				if playerBound && p.InstanceID != playerThing.InstanceID {
					continue
				}
				pb, err := instanceBindingFor(env, p)
				if err != nil {
					return nil, err
				}
				ext := map[ir.VariableID]Binding{}
				if playerIsVar {
					ext[playerVar] = pb
				}
				if roleIsVar {
					ext[roleVar] = TypeBinding(rt)
				}
				out = append(out, candidate{sortKey: InstanceBinding(relThing), extension: ext})
			}
		}
		return sortedCandidates(out), nil

	default: // Relation unbound: no reverse player/role -> relation index.
		relTypes, err := typeCandidates(con.Relation, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		var out []candidate
		for _, rel := range relTypes {
			relations, err := env.Things.IterateInstances(rel)
			if err != nil {
				return nil, err
			}
			for _, relation := range relations {
				for _, rt := range roleTypes {
					players, err := env.Things.GetLinksPlayers(relation, rt)
					if err != nil {
						return nil, err
					}
					for _, p := range players {
						if playerBound && p.InstanceID != playerThing.InstanceID {
							continue
						}
						rb := InstanceBinding(relation)
						ext := map[ir.VariableID]Binding{relVar: rb}
						if playerIsVar {
							pb, err := instanceBindingFor(env, p)
							if err != nil {
								return nil, err
							}
							ext[playerVar] = pb
						}
						if roleIsVar {
							ext[roleVar] = TypeBinding(rt)
						}
						out = append(out, candidate{sortKey: rb, extension: ext})
					}
				}
			}
		}
		return sortedCandidates(out), nil
	}
}

// capabilityCandidates handles the three schema-level capability
// constraints (Owns/Relates/Plays), which all share the same shape: a
// from-type may relate to a set of to-types via adjacency. Both operands
// are always Type-category, so typeCandidates resolves either one
// uniformly whether it is runtime-bound or only annotation-narrowed -
// collapsing the planner's BoundFrom and Unbound modes into one code path.
func capabilityCandidates(instr planner.Instruction, env *Environment, row *Row, from, to ir.Vertex, kind ir.ConstraintKind, adjacency func(schema.TypeID) []schema.TypeID) ([]candidate, error) {
	toVar, toIsVar := variableOfVertex(to)

	switch instr.Mode {
	case planner.BoundFrom, planner.Unbound:
		froms, err := typeCandidates(from, row, env.Ann, env.TM)
		if err != nil {
			return nil, err
		}
		var out []candidate
		for _, f := range froms {
			fb := TypeBinding(f)
			for _, t := range adjacency(f) {
				ext := map[ir.VariableID]Binding{}
				if toIsVar {
					ext[toVar] = TypeBinding(t)
				}
				out = append(out, candidate{sortKey: fb, extension: ext})
			}
		}
		return sortedCandidates(out), nil

	case planner.UnboundInverted:
		return nil, errUnsupportedReverseCapabilityLookup(kind)

	case planner.Check:
		fromID, ok := resolveSingleType(from, row, env)
		if !ok {
			return nil, errUnresolvedVertex(from)
		}
		toID, ok := resolveSingleType(to, row, env)
		if !ok {
			return nil, errUnresolvedVertex(to)
		}
		for _, t := range adjacency(fromID) {
			if t == toID {
				return []candidate{{sortKey: TypeBinding(fromID), extension: map[ir.VariableID]Binding{}}}, nil
			}
		}
		return nil, nil

	default:
		return nil, errUnsupportedMode(kind, instr.Mode)
	}
}

func labelCandidates(con ir.Label, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	v, _ := variableOfVertex(con.Var)
	id, ok := resolveLabel(env.TM, con.Name)
	if !ok {
		return nil, errCouldNotResolveLabel(con.Name)
	}
	b := TypeBinding(id)
	switch instr.Mode {
	case planner.BoundFrom:
		return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{v: b}}}, nil
	case planner.Check:
		bound, ok := row.Get(v)
		if !ok || bound.Empty || bound.Type != id {
			return nil, nil
		}
		return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{}}}, nil
	default:
		return nil, errUnsupportedMode(con.Kind(), instr.Mode)
	}
}

func roleNameCandidates(con ir.RoleName, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	v, _ := variableOfVertex(con.Role)
	id, ok := env.TM.GetRoleType(con.Name)
	if !ok {
		return nil, errCouldNotResolveLabel(con.Name)
	}
	b := TypeBinding(id.ID)
	switch instr.Mode {
	case planner.BoundFrom:
		return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{v: b}}}, nil
	case planner.Check:
		bound, ok := row.Get(v)
		if !ok || bound.Empty || bound.Type != id.ID {
			return nil, nil
		}
		return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{}}}, nil
	default:
		return nil, errUnsupportedMode(con.Kind(), instr.Mode)
	}
}

func iidCandidates(con ir.Iid, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	v, _ := variableOfVertex(con.Thing)
	th, ok, err := env.Things.GetThing(con.IID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	b, err := instanceBindingFor(env, th)
	if err != nil {
		return nil, err
	}
	switch instr.Mode {
	case planner.BoundFrom:
		return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{v: b}}}, nil
	case planner.Check:
		bound, ok := row.Get(v)
		if !ok || bound.Empty || bound.Category != CategoryInstance || bound.Instance.InstanceID != th.InstanceID || bound.Instance.TypeID != th.TypeID {
			return nil, nil
		}
		return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{}}}, nil
	default:
		return nil, errUnsupportedMode(con.Kind(), instr.Mode)
	}
}

func isCandidates(con ir.Is, instr planner.Instruction, row *Row) ([]candidate, error) {
	lv, lok := variableOfVertex(con.Left)
	rv, rok := variableOfVertex(con.Right)

	lb, lbound := lookupIfVar(con.Left, row)
	rb, rbound := lookupIfVar(con.Right, row)

	switch {
	case lbound && !rbound && rok:
		return []candidate{{sortKey: lb, extension: map[ir.VariableID]Binding{rv: lb}}}, nil
	case rbound && !lbound && lok:
		return []candidate{{sortKey: rb, extension: map[ir.VariableID]Binding{lv: rb}}}, nil
	case lbound && rbound:
		if CompareBindings(lb, rb) == 0 {
			return []candidate{{sortKey: lb, extension: map[ir.VariableID]Binding{}}}, nil
		}
		return nil, nil
	default:
		return nil, errUnresolvedVertex(con.Left)
	}
}

func lookupIfVar(v ir.Vertex, row *Row) (Binding, bool) {
	vv, ok := v.(ir.VariableVertex)
	if !ok {
		return Binding{}, false
	}
	b, ok := row.Get(vv.Variable)
	return b, ok && !b.Empty
}

func comparisonCandidates(con ir.Comparison, env *Environment, row *Row) ([]candidate, error) {
	l, lok := resolveComparable(con.Left, row, env.Params)
	r, rok := resolveComparable(con.Right, row, env.Params)
	if !lok || !rok {
		return nil, errUnresolvedVertex(con.Left)
	}
	holds, err := evalCompare(con.Op, l, r)
	if err != nil {
		return nil, err
	}
	if !holds {
		return nil, nil
	}
	return []candidate{{sortKey: ValueBinding(l), extension: map[ir.VariableID]Binding{}}}, nil
}

// resolveComparable resolves a Comparison operand, which may name an
// instance variable (attribute identity compares by its decoded value)
// as well as a plain value or parameter.
func resolveComparable(v ir.Vertex, row *Row, params *concept.ParameterRegistry) (concept.Value, bool) {
	if val, ok := resolveValue(v, row, params); ok {
		return val, ok
	}
	if vv, ok := v.(ir.VariableVertex); ok {
		if b, ok := row.Get(vv.Variable); ok && !b.Empty && b.Category == CategoryInstance && b.Value.Kind != schema.ValueTypeNone {
			return b.Value, true
		}
	}
	return concept.Value{}, false
}

func evalCompare(op ir.CompareOp, l, r concept.Value) (bool, error) {
	switch op {
	case ir.OpEQ:
		return l.Equal(r), nil
	case ir.OpNEQ:
		return !l.Equal(r), nil
	case ir.OpLT:
		return concept.Compare(l, r) < 0, nil
	case ir.OpLTE:
		return concept.Compare(l, r) <= 0, nil
	case ir.OpGT:
		return concept.Compare(l, r) > 0, nil
	case ir.OpGTE:
		return concept.Compare(l, r) >= 0, nil
	case ir.OpContains:
		return evalContains(l, r)
	case ir.OpLike:
		return evalLike(l, r)
	default:
		return false, errUnsupportedMode(ir.KindComparison, 0)
	}
}

func evalContains(l, r concept.Value) (bool, error) {
	if l.Kind != schema.ValueTypeString || r.Kind != schema.ValueTypeString {
		return false, nil
	}
	return containsSubstring(l.Str, r.Str), nil
}

func containsSubstring(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func evalLike(l, r concept.Value) (bool, error) {
	if l.Kind != schema.ValueTypeString || r.Kind != schema.ValueTypeString {
		return false, nil
	}
	return matchLikePattern(l.Str, r.Str), nil
}

// matchLikePattern implements a small SQL-LIKE-style matcher: '%' matches
// any run of characters, '_' matches exactly one.
func matchLikePattern(s, pattern string) bool {
	var match func(si, pi int) bool
	match = func(si, pi int) bool {
		for pi < len(pattern) {
			switch pattern[pi] {
			case '%':
				for pi < len(pattern) && pattern[pi] == '%' {
					pi++
				}
				if pi == len(pattern) {
					return true
				}
				for k := si; k <= len(s); k++ {
					if match(k, pi) {
						return true
					}
				}
				return false
			case '_':
				if si >= len(s) {
					return false
				}
				si++
				pi++
			default:
				if si >= len(s) || s[si] != pattern[pi] {
					return false
				}
				si++
				pi++
			}
		}
		return si == len(s)
	}
	return match(0, 0)
}

func expressionCandidates(con ir.ExpressionBinding, instr planner.Instruction, env *Environment, row *Row) ([]candidate, error) {
	v, _ := variableOfVertex(con.Assigned)
	val, err := evalExpressionTree(con.Tree, row, env)
	if err != nil {
		return nil, err
	}
	var b Binding
	if val.isList {
		b = ValueListBinding(val.list)
	} else {
		b = ValueBinding(val.scalar)
	}
	return []candidate{{sortKey: b, extension: map[ir.VariableID]Binding{v: b}}}, nil
}

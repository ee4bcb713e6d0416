package annotation

import (
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
	"github.com/katadb/katadb/storage"
)

// Seeds carries externally-supplied annotations for a block's free
// variables - used when annotating a function body, where the
// parameters are seeded from the call site's argument annotations
// (spec.md §4.2 step 1).
type Seeds map[ir.VariableID]ir.TypeSet

// Annotate computes a TypeAnnotations for block by repeated fixed-point
// propagation (spec.md §4.2 steps 2–3). snapshot is accepted for
// interface completeness with a schema manager that reads versioned
// schema state from storage; the in-memory schema.TypeManager used by
// this module resolves labels directly and does not need it.
func Annotate(block *ir.Block, snapshot storage.Snapshot, tm schema.TypeManager, seeds Seeds) (*ir.TypeAnnotations, error) {
	_ = snapshot
	ann := ir.NewTypeAnnotations()
	for v, s := range seeds {
		ann.Set(v, s)
	}

	if err := annotateBlock(block, ann, tm, nil); err != nil {
		return nil, err
	}
	return ann, nil
}

// AnnotateWithFunctions is Annotate extended with a function registry so
// FunctionCallBinding constraints can be resolved: stored functions are
// annotated in two passes, first from label-derived signatures, then
// re-annotated using the refined signatures the first pass produced
// (spec.md §4.2 step 4). This captures one level of refinement from call
// sites without a full SCC fixpoint - chains of three or more
// mutually-calling functions may not fully converge (spec.md §9, carried
// forward unresolved).
func AnnotateWithFunctions(block *ir.Block, snapshot storage.Snapshot, tm schema.TypeManager, seeds Seeds, functions ir.FunctionRegistry) (*ir.TypeAnnotations, error) {
	_ = snapshot
	ann := ir.NewTypeAnnotations()
	for v, s := range seeds {
		ann.Set(v, s)
	}

	// Pass 1: annotate every function body using only its declared
	// (label-derived) signature.
	funcReturns := make(map[string]ir.TypeSet, len(functions))
	for name, decl := range functions {
		bodyAnn := ir.NewTypeAnnotations()
		for i, p := range decl.Parameters {
			if i < len(decl.DeclaredParameterTypes) {
				bodyAnn.Set(p, ir.NewTypeSet(decl.DeclaredParameterTypes[i]))
			}
		}
		if err := annotateBlock(decl.Body, bodyAnn, tm, functions); err != nil {
			return nil, err
		}
		funcReturns[name] = inferredReturnTypes(decl, bodyAnn)
	}

	// Pass 2: re-annotate using the pass-1 inferred return types as the
	// callee signature, and validate against declared signatures.
	for name, decl := range functions {
		refined := ir.NewTypeAnnotations()
		for i, p := range decl.Parameters {
			if i < len(decl.DeclaredParameterTypes) {
				refined.Set(p, ir.NewTypeSet(decl.DeclaredParameterTypes[i]))
			}
		}
		applyCallSignatures(decl.Body, refined, funcReturns)
		if err := annotateBlock(decl.Body, refined, tm, functions); err != nil {
			return nil, err
		}
		inferred := inferredReturnTypes(decl, refined)
		if err := validateSignature(tm, decl, inferred); err != nil {
			return nil, err
		}
		funcReturns[name] = inferred
	}

	if err := annotateBlock(block, ann, tm, functions); err != nil {
		return nil, err
	}

	// Narrow FunctionCallBinding assigned vertices using the refined
	// callee return types, and record the resolved signature per call
	// site for the plan compiler (spec.md §4.2 step 4).
	applyCallSignatures(block, ann, funcReturns)

	return ann, nil
}

func inferredReturnTypes(decl *ir.FunctionDecl, ann *ir.TypeAnnotations) ir.TypeSet {
	var out ir.TypeSet
	for _, r := range decl.Return {
		if s, ok := ann.Get(r.ID); ok {
			out = append(out, s...)
		}
	}
	return ir.NewTypeSet(out...)
}

func validateSignature(tm schema.TypeManager, decl *ir.FunctionDecl, inferred ir.TypeSet) error {
	for _, id := range inferred {
		ok := false
		for _, declared := range decl.DeclaredReturnTypes {
			if tm.IsSubtype(id, declared) {
				ok = true
				break
			}
		}
		if !ok {
			return errSignatureMismatch(decl.Name, "inferred return type is not a subtype of the declared return type")
		}
	}
	return nil
}

func applyCallSignatures(b *ir.Block, ann *ir.TypeAnnotations, funcReturns map[string]ir.TypeSet) {
	if b == nil {
		return
	}
	for _, c := range b.Constraints {
		if fcb, ok := c.(ir.FunctionCallBinding); ok {
			if ret, ok := funcReturns[fcb.Call.Function]; ok {
				ann.FunctionSignatures[fcb.Call] = ret
				for _, a := range fcb.Assigned {
					if vv, ok := a.(ir.VariableVertex); ok {
						ann.Narrow(vv.Variable, ret)
					}
				}
			}
		}
	}
	for _, d := range b.Disjunctions {
		for _, branch := range d.Branches {
			applyCallSignatures(branch, ann, funcReturns)
		}
	}
	for _, n := range b.Negations {
		applyCallSignatures(n.Inner, ann, funcReturns)
	}
	for _, o := range b.Optionals {
		applyCallSignatures(o.Inner, ann, funcReturns)
	}
}

// annotateBlock runs fixed-point propagation over block and its nested
// patterns, marking branches/the block itself Unsatisfiable when a
// vertex's candidate set is narrowed to empty (spec.md §4.2 step 3).
func annotateBlock(b *ir.Block, ann *ir.TypeAnnotations, tm schema.TypeManager, functions ir.FunctionRegistry) error {
	if b == nil {
		return nil
	}

	const maxPasses = 64 // bound on propagation rounds over this block; function
	// signatures are refined separately, by AnnotateWithFunctions' two passes
	for pass := 0; pass < maxPasses; pass++ {
		changed, err := propagateOnce(b, ann, tm)
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}

	if blockUnsatisfiable(b, ann) {
		b.Unsatisfiable = true
	}

	for i := range b.Disjunctions {
		d := &b.Disjunctions[i]
		var live []*ir.Block
		var survivors []*ir.TypeAnnotations
		for _, branch := range d.Branches {
			clone := ann.Clone()
			if err := annotateBlock(branch, clone, tm, functions); err != nil {
				return err
			}
			if !branch.Unsatisfiable {
				live = append(live, branch)
				survivors = append(survivors, clone)
			}
		}
		d.Branches = live
		if len(survivors) > 0 {
			merged := survivors[0]
			for _, s := range survivors[1:] {
				merged.Union(s)
			}
			*ann = *merged
		}
	}
	// Negation/optional inner blocks are existential checks, not bindings:
	// their narrowing of outer-scope variables must not leak back into
	// ann, so each is annotated over a throwaway clone.
	for i := range b.Negations {
		if err := annotateBlock(b.Negations[i].Inner, ann.Clone(), tm, functions); err != nil {
			return err
		}
	}
	for i := range b.Optionals {
		if err := annotateBlock(b.Optionals[i].Inner, ann.Clone(), tm, functions); err != nil {
			return err
		}
	}

	if len(b.Disjunctions) > 0 {
		allUnsat := true
		for _, d := range b.Disjunctions {
			if len(d.Branches) > 0 {
				allUnsat = false
				break
			}
		}
		if allUnsat {
			b.Unsatisfiable = true
		}
	}

	return nil
}

// blockUnsatisfiable checks every variable referenced by b's own
// constraints (including outer-scope variables carried in as inputs),
// not just the ones b declares - a nested block narrows an outer
// variable's set too, and the branch must be pruned if that narrowing
// went to empty even though the variable lives in an enclosing scope.
func blockUnsatisfiable(b *ir.Block, ann *ir.TypeAnnotations) bool {
	for _, v := range b.Variables {
		if s, ok := ann.Get(v.ID); ok && s.Empty() {
			return true
		}
	}
	for _, c := range b.Constraints {
		for _, vx := range c.Vertices() {
			if vv, ok := vx.(ir.VariableVertex); ok {
				if s, ok := ann.Get(vv.Variable); ok && s.Empty() {
					return true
				}
			}
		}
	}
	return false
}

// resolvedTypes returns the candidate TypeSet for a Vertex: a Label
// resolves to a schema-singleton (expanded to subtypes when transitive
// is true); a Variable returns its current annotation (possibly empty
// if not yet seeded); a Parameter has no schema TypeSet (value-level).
func resolvedTypes(v ir.Vertex, ann *ir.TypeAnnotations, tm schema.TypeManager, transitive bool) (ir.TypeSet, error) {
	switch vv := v.(type) {
	case ir.LabelVertex:
		id, ok := resolveAnyLabel(tm, vv.Label)
		if !ok {
			return nil, errCouldNotResolveLabel(vv.Label)
		}
		if transitive {
			return ir.NewTypeSet(tm.GetSubtypes(id, true)...), nil
		}
		return ir.NewTypeSet(id), nil
	case ir.VariableVertex:
		s, _ := ann.Get(vv.Variable)
		if !transitive {
			return s, nil
		}
		var out ir.TypeSet
		for _, id := range s {
			out = append(out, tm.GetSubtypes(id, true)...)
		}
		return ir.NewTypeSet(out...), nil
	default:
		return nil, nil
	}
}

func resolveAnyLabel(tm schema.TypeManager, label string) (schema.TypeID, bool) {
	if t, ok := tm.GetEntityType(label); ok {
		return t.ID, true
	}
	if t, ok := tm.GetRelationType(label); ok {
		return t.ID, true
	}
	if t, ok := tm.GetAttributeType(label); ok {
		return t.ID, true
	}
	if t, ok := tm.GetRoleType(label); ok {
		return t.ID, true
	}
	return 0, false
}

// narrowVar intersects variable v's annotation with s and reports
// whether the set actually shrank (used to detect the fixed point).
func narrowVar(ann *ir.TypeAnnotations, v ir.VariableID, s ir.TypeSet) bool {
	before, had := ann.Get(v)
	after := ann.Narrow(v, s)
	if !had {
		return len(after) > 0 || len(s) == 0
	}
	return len(after) != len(before)
}

// propagateOnce applies one narrowing pass over every constraint
// directly owned by b (not descending into nested blocks - those are
// annotated independently by annotateBlock's recursion).
func propagateOnce(b *ir.Block, ann *ir.TypeAnnotations, tm schema.TypeManager) (bool, error) {
	changed := false

	for _, c := range b.Constraints {
		switch con := c.(type) {
		case ir.Isa:
			types, err := resolvedTypes(con.Type, ann, tm, con.IsaKind == ir.Transitive)
			if err != nil {
				return false, err
			}
			if vv, ok := con.Thing.(ir.VariableVertex); ok && types != nil {
				if narrowVar(ann, vv.Variable, types) {
					changed = true
				}
			}

		case ir.Sub:
			supers, err := resolvedTypes(con.Super, ann, tm, false)
			if err != nil {
				return false, err
			}
			var allowed ir.TypeSet
			for _, id := range supers {
				allowed = append(allowed, tm.GetSubtypes(id, con.SubKind == ir.Transitive)...)
			}
			if vv, ok := con.Sub.(ir.VariableVertex); ok && supers != nil {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(allowed...)) {
					changed = true
				}
			}

		case ir.Has:
			owners, err := resolvedTypes(con.Owner, ann, tm, false)
			if err != nil {
				return false, err
			}
			var allowedAttrs ir.TypeSet
			for _, ownerType := range owners {
				allowedAttrs = append(allowedAttrs, tm.GetOwns(ownerType, true)...)
			}
			if vv, ok := con.Attribute.(ir.VariableVertex); ok && owners != nil {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(allowedAttrs...)) {
					changed = true
				}
			}

		case ir.Links:
			roleTypes, err := resolvedTypes(con.Role, ann, tm, false)
			if err != nil {
				return false, err
			}
			relTypes, err := resolvedTypes(con.Relation, ann, tm, false)
			if err != nil {
				return false, err
			}
			playerTypes, err := resolvedTypes(con.Player, ann, tm, false)
			if err != nil {
				return false, err
			}
			if vv, ok := con.Role.(ir.VariableVertex); ok {
				var allowed ir.TypeSet
				for _, rt := range relTypes {
					allowed = append(allowed, tm.GetRelates(rt, true)...)
				}
				for _, pt := range playerTypes {
					allowed = append(allowed, tm.GetPlays(pt, true)...)
				}
				if len(allowed) > 0 && narrowVar(ann, vv.Variable, ir.NewTypeSet(allowed...)) {
					changed = true
				}
			}
			// Narrowing Relation/Player from the role side would need a
			// reverse (role type -> relation/player type) lookup that
			// InMemoryTypeManager does not expose; those vertices rely on
			// an accompanying Isa constraint instead.
			_ = roleTypes

		case ir.Owns:
			owners, err := resolvedTypes(con.OwnerType, ann, tm, false)
			if err != nil {
				return false, err
			}
			var allowed ir.TypeSet
			for _, ownerType := range owners {
				allowed = append(allowed, tm.GetOwns(ownerType, true)...)
			}
			if vv, ok := con.AttributeType.(ir.VariableVertex); ok && owners != nil {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(allowed...)) {
					changed = true
				}
			}

		case ir.Relates:
			rels, err := resolvedTypes(con.RelationType, ann, tm, false)
			if err != nil {
				return false, err
			}
			var allowed ir.TypeSet
			for _, rt := range rels {
				allowed = append(allowed, tm.GetRelates(rt, true)...)
			}
			if vv, ok := con.RoleType.(ir.VariableVertex); ok && rels != nil {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(allowed...)) {
					changed = true
				}
			}

		case ir.Plays:
			players, err := resolvedTypes(con.PlayerType, ann, tm, false)
			if err != nil {
				return false, err
			}
			var allowed ir.TypeSet
			for _, pt := range players {
				allowed = append(allowed, tm.GetPlays(pt, true)...)
			}
			if vv, ok := con.RoleType.(ir.VariableVertex); ok && players != nil {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(allowed...)) {
					changed = true
				}
			}

		case ir.Label:
			id, ok := resolveAnyLabel(tm, con.Name)
			if !ok {
				return false, errCouldNotResolveLabel(con.Name)
			}
			if vv, ok := con.Var.(ir.VariableVertex); ok {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(id)) {
					changed = true
				}
			}

		case ir.RoleName:
			t, ok := tm.GetRoleType(con.Name)
			if !ok {
				return false, errCouldNotResolveLabel(con.Name)
			}
			if vv, ok := con.Role.(ir.VariableVertex); ok {
				if narrowVar(ann, vv.Variable, ir.NewTypeSet(t.ID)) {
					changed = true
				}
			}

		case ir.Is:
			left, err := resolvedTypes(con.Left, ann, tm, false)
			if err != nil {
				return false, err
			}
			right, err := resolvedTypes(con.Right, ann, tm, false)
			if err != nil {
				return false, err
			}
			lv, lok := con.Left.(ir.VariableVertex)
			rv, rok := con.Right.(ir.VariableVertex)
			switch {
			case lok && rok && len(left) > 0 && len(right) > 0:
				merged := left.Intersect(right)
				if narrowVar(ann, lv.Variable, merged) {
					changed = true
				}
				if narrowVar(ann, rv.Variable, merged) {
					changed = true
				}
			case lok && len(right) > 0:
				if narrowVar(ann, lv.Variable, right) {
					changed = true
				}
			case rok && len(left) > 0:
				if narrowVar(ann, rv.Variable, left) {
					changed = true
				}
			}
		}
	}

	return changed, nil
}

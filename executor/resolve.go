package executor

import (
	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// variableOfVertex reports the VariableID a vertex names, if it is a
// ir.VariableVertex; Label and Parameter vertices have no variable.
func variableOfVertex(v ir.Vertex) (ir.VariableID, bool) {
	if vv, ok := v.(ir.VariableVertex); ok {
		return vv.Variable, true
	}
	return 0, false
}

// resolveLabel duplicates annotation's unexported resolveAnyLabel (it
// tries every schema category in turn, since a LabelVertex's string alone
// doesn't say which kind of type it names).
func resolveLabel(tm schema.TypeManager, label string) (schema.TypeID, bool) {
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

// typeCandidates returns the set of concrete types v may resolve to for
// the current row: a Label vertex resolves to a schema singleton; a
// Variable vertex bound in row resolves to its one runtime type; an
// unbound Variable vertex falls back to its static annotation (the
// narrowed candidate set annotation already computed, spec.md §4.3) -
// grounded on annotation/annotate.go's resolvedTypes, reimplemented here
// since that helper and resolveAnyLabel are unexported.
func typeCandidates(v ir.Vertex, row *Row, ann *ir.TypeAnnotations, tm schema.TypeManager) ([]schema.TypeID, error) {
	switch vv := v.(type) {
	case ir.LabelVertex:
		id, ok := resolveLabel(tm, vv.Label)
		if !ok {
			return nil, errCouldNotResolveLabel(vv.Label)
		}
		return []schema.TypeID{id}, nil
	case ir.VariableVertex:
		if b, ok := row.Get(vv.Variable); ok && !b.Empty {
			switch b.Category {
			case CategoryType:
				return []schema.TypeID{b.Type}, nil
			case CategoryInstance:
				return []schema.TypeID{b.Instance.TypeID}, nil
			}
		}
		set, _ := ann.Get(vv.Variable)
		return []schema.TypeID(set), nil
	default:
		return nil, errUnresolvedVertex(v)
	}
}

// resolveThing returns the concrete Thing a vertex is bound to in row, and
// false when it is not bound to an instance there (Check/BoundFrom modes
// treat that as an error; Has in Unbound mode uses it to spot an owner an
// outer scope already bound).
func resolveThing(v ir.Vertex, row *Row) (concept.Thing, bool) {
	vv, ok := v.(ir.VariableVertex)
	if !ok {
		return concept.Thing{}, false
	}
	b, ok := row.Get(vv.Variable)
	if !ok || b.Empty || b.Category != CategoryInstance {
		return concept.Thing{}, false
	}
	return b.Instance, true
}

// resolveValue returns the concept.Value a vertex is bound to: a Variable
// reads the row, a Parameter reads the query's parameter registry.
func resolveValue(v ir.Vertex, row *Row, params *concept.ParameterRegistry) (concept.Value, bool) {
	switch vv := v.(type) {
	case ir.VariableVertex:
		b, ok := row.Get(vv.Variable)
		if !ok || b.Empty || b.Category != CategoryValue {
			return concept.Value{}, false
		}
		return b.Value, true
	case ir.ParameterVertex:
		return params.Get(vv.Parameter)
	default:
		return concept.Value{}, false
	}
}

// instanceBindingFor builds the Binding for a resolved Thing, decoding its
// stored value when it is an attribute instance (attribute "identity" is
// its value, spec.md §6 scenario 1) so sort/compare/check operations never
// need to re-read storage for an already-materialized candidate.
func instanceBindingFor(env *Environment, t concept.Thing) (Binding, error) {
	if t.Category != schema.CategoryAttribute {
		return InstanceBinding(t), nil
	}
	v, ok, err := env.Things.GetAttributeValue(t.TypeID, t.InstanceID)
	if err != nil {
		return Binding{}, err
	}
	if !ok {
		return InstanceBinding(t), nil
	}
	// The attribute's sort/compare key is its decoded value; Instance is
	// still carried so downstream Has/Links joins on the attribute's
	// identity (not its value) keep working.
	b := InstanceBinding(t)
	b.Value = v
	return b, nil
}

// ancestorTypes walks id's supertype chain, not including id itself.
func ancestorTypes(tm schema.TypeManager, id schema.TypeID) []schema.TypeID {
	var out []schema.TypeID
	cur := id
	for {
		parent, ok := tm.GetSupertype(cur)
		if !ok {
			return out
		}
		out = append(out, parent)
		cur = parent
	}
}

package ir

import (
	"sort"

	"github.com/katadb/katadb/schema"
)

// TypeSet is a small sorted-slice set over schema.TypeID. A slice
// outperforms a map at the cardinalities type annotation actually sees
// (a handful of admissible types per vertex) and keeps TypeAnnotations
// cheap to clone for suspension.
type TypeSet []schema.TypeID

// NewTypeSet builds a deduplicated, sorted TypeSet.
func NewTypeSet(ids ...schema.TypeID) TypeSet {
	seen := make(map[schema.TypeID]bool, len(ids))
	out := make(TypeSet, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s TypeSet) Contains(id schema.TypeID) bool {
	for _, t := range s {
		if t == id {
			return true
		}
	}
	return false
}

// Intersect returns the set intersection of s and other.
func (s TypeSet) Intersect(other TypeSet) TypeSet {
	out := make(TypeSet, 0, len(s))
	for _, t := range s {
		if other.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TypeSet) Empty() bool { return len(s) == 0 }

// TypeAnnotations maps every Variable in a Block (by VariableID) to its
// set of admissible schema types, as computed by the annotation pass
// (spec.md §4.2). It is immutable once annotation completes.
//
// Label and Parameter vertices are not stored here: their admissible
// type is always a compile-time singleton resolved directly against the
// schema.TypeManager, so annotation only needs to track the open
// question - what can a *variable* be.
type TypeAnnotations struct {
	byVariable map[VariableID]TypeSet
	// FunctionSignatures records, for every FunctionCallBinding in the
	// block, the annotated return types of the callee (spec.md §4.2 step 4).
	FunctionSignatures map[*FunctionCall]TypeSet
}

// NewTypeAnnotations returns an empty, mutable-during-construction
// TypeAnnotations; callers should treat the result as immutable once
// returned from Annotate.
func NewTypeAnnotations() *TypeAnnotations {
	return &TypeAnnotations{
		byVariable:         make(map[VariableID]TypeSet),
		FunctionSignatures: make(map[*FunctionCall]TypeSet),
	}
}

func (a *TypeAnnotations) Get(v VariableID) (TypeSet, bool) {
	s, ok := a.byVariable[v]
	return s, ok
}

func (a *TypeAnnotations) Set(v VariableID, s TypeSet) {
	a.byVariable[v] = s
}

// Narrow intersects the current set for v with s, returning the new set.
// If v has no existing annotation, s becomes the seed.
func (a *TypeAnnotations) Narrow(v VariableID, s TypeSet) TypeSet {
	existing, ok := a.byVariable[v]
	if !ok {
		a.byVariable[v] = s
		return s
	}
	narrowed := existing.Intersect(s)
	a.byVariable[v] = narrowed
	return narrowed
}

// Clone returns a deep-enough copy of a: a disjunction branch narrows a
// shared outer variable's TypeSet as it explores its own constraints, and
// sibling branches must not observe each other's narrowing, so annotation
// clones before descending into each branch (spec.md §4.2 step 3) and
// merges the surviving branches back with Union.
func (a *TypeAnnotations) Clone() *TypeAnnotations {
	out := NewTypeAnnotations()
	for v, s := range a.byVariable {
		out.byVariable[v] = append(TypeSet(nil), s...)
	}
	for c, s := range a.FunctionSignatures {
		out.FunctionSignatures[c] = append(TypeSet(nil), s...)
	}
	return out
}

// Union widens every variable's set in a to include other's candidates
// too (the variable could end up bound to any type reachable through any
// surviving disjunction branch), adding any variable other has that a
// does not.
func (a *TypeAnnotations) Union(other *TypeAnnotations) {
	for v, s := range other.byVariable {
		if existing, ok := a.byVariable[v]; ok {
			merged := append(append(TypeSet(nil), existing...), s...)
			a.byVariable[v] = NewTypeSet(merged...)
		} else {
			a.byVariable[v] = append(TypeSet(nil), s...)
		}
	}
}

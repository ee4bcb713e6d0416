// Package executor drives a planner.ExecutablePlan against a concept-level
// snapshot, producing the rows a query answers with (spec.md §4.5). Rather
// than a per-row pull/backtrack state machine, Execute folds the plan's
// Steps over a materialized []*Row slice: every step consumes the rows
// produced so far and returns the next generation whole. This mirrors how
// concept.ThingManager itself only exposes whole-slice reads
// (IterateInstances, GetHasAttributes, GetLinksPlayers have no streaming
// cursor form) and keeps CollectingStep/ModifierLast - which need the full
// stream before they can emit anything - straightforward instead of
// requiring a lookahead buffer bolted onto a lazy iterator.
package executor

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// Binding is one variable's value in a Row: a tagged union over the
// ir.Category shapes a variable may carry, plus Empty, an explicit "did
// not match" marker. The Optional path in applyNegation does not set it:
// an unmatched Optional's own variables are left absent from the row.
type Binding struct {
	Empty bool

	Category Category

	Type         schema.TypeID
	Instance     concept.Thing
	Value        concept.Value
	ValueList    []concept.Value
	InstanceList []concept.Thing
}

// Category discriminates which field of Binding is meaningful; it mirrors
// ir.Category but stays local to the executor so Binding doesn't need to
// smuggle an ir.Category value through rows that never reference the
// variable's declared category directly.
type Category uint8

const (
	CategoryType Category = iota
	CategoryInstance
	CategoryValue
	CategoryValueList
	CategoryInstanceList
)

// EmptyBinding is the explicit "did not match" binding; Row.Get reports it
// with ok == true, unlike an absent variable. applyNegation does not set it
// for an Optional whose inner block produced no rows.
func EmptyBinding() Binding { return Binding{Empty: true} }

func TypeBinding(t schema.TypeID) Binding {
	return Binding{Category: CategoryType, Type: t}
}

func InstanceBinding(t concept.Thing) Binding {
	return Binding{Category: CategoryInstance, Instance: t}
}

func ValueBinding(v concept.Value) Binding {
	return Binding{Category: CategoryValue, Value: v}
}

func ValueListBinding(vs []concept.Value) Binding {
	return Binding{Category: CategoryValueList, ValueList: vs}
}

func InstanceListBinding(ts []concept.Thing) Binding {
	return Binding{Category: CategoryInstanceList, InstanceList: ts}
}

// Row is one partial or complete solution: a map from variable to its
// current binding, plus Branch, the disjunction-branch path taken to reach
// this row (spec.md §4.5.3's ordering invariant: branches are emitted in
// declaration order, and Distinct must not collapse two rows that differ
// only in which branch produced them... except it must, once projected -
// Branch exists purely to make row provenance inspectable before Select
// strips it away via a fresh Row rather than distinguishing post-Select
// duplicates).
type Row struct {
	Bindings map[ir.VariableID]Binding
	Branch   []int
}

// NewRow returns an empty row with no bindings and no branch history.
func NewRow() *Row {
	return &Row{Bindings: make(map[ir.VariableID]Binding)}
}

// Clone returns a deep-enough copy of r: the Bindings map and Branch slice
// are both copied, so mutating the clone (via Set or branch append) never
// affects r. Binding values themselves are immutable once constructed, so
// their fields are shared, not copied.
func (r *Row) Clone() *Row {
	out := &Row{Bindings: make(map[ir.VariableID]Binding, len(r.Bindings))}
	for k, v := range r.Bindings {
		out.Bindings[k] = v
	}
	if len(r.Branch) > 0 {
		out.Branch = append([]int(nil), r.Branch...)
	}
	return out
}

// Get returns v's binding and whether it is present. A variable absent
// from Bindings and one explicitly set to EmptyBinding() are both reported
// the same way downstream (ok == false in both cases is never actually
// returned - Empty bindings return ok == true with Empty == true; only a
// variable never touched returns ok == false), letting callers write
// if b, ok := row.Get(v); ok && !b.Empty to test "present and matched".
func (r *Row) Get(v ir.VariableID) (Binding, bool) {
	b, ok := r.Bindings[v]
	return b, ok
}

// Set binds v to b in place.
func (r *Row) Set(v ir.VariableID, b Binding) {
	r.Bindings[v] = b
}

// WithBranch returns r with idx appended to its branch path, used when a
// Disjunction step descends into one of its branches.
func (r *Row) WithBranch(idx int) *Row {
	out := r.Clone()
	out.Branch = append(out.Branch, idx)
	return out
}

// CompareBindings orders two bindings of the same variable for the
// intersection step's sorted merge-join (spec.md §4.5.2) and for
// CollectingSort's ORDER BY. Empty always sorts first; Type orders by
// schema.TypeID; Instance orders by decoded attribute value when the
// Thing is an attribute (attribute identity is value-keyed, spec.md §6
// scenario 1), else by its raw object key; Value and ValueList/
// InstanceList order structurally.
func CompareBindings(a, b Binding) int {
	if a.Empty != b.Empty {
		if a.Empty {
			return -1
		}
		return 1
	}
	if a.Empty {
		return 0
	}
	if a.Category != b.Category {
		if a.Category < b.Category {
			return -1
		}
		return 1
	}
	switch a.Category {
	case CategoryType:
		return compareTypeID(a.Type, b.Type)
	case CategoryInstance:
		return compareInstanceBindings(a, b)
	case CategoryValue:
		return concept.Compare(a.Value, b.Value)
	case CategoryValueList:
		return compareValueLists(a.ValueList, b.ValueList)
	case CategoryInstanceList:
		return compareInstanceLists(a.InstanceList, b.InstanceList)
	default:
		return 0
	}
}

func compareTypeID(a, b schema.TypeID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareInstance orders two raw Thing handles by key; used for
// InstanceList comparison, where elements carry no decoded value.
func compareInstance(a, b concept.Thing) int {
	return bytes.Compare(a.Key(), b.Key())
}

// compareInstanceBindings orders two Instance-category Bindings. Attribute
// instances compare by their decoded value when one has been attached
// (instanceBindingFor populates Binding.Value for attribute Things, since
// attribute identity is value-keyed, spec.md §6 scenario 1); everything
// else, and attribute Things with no decoded value attached, fall back to
// raw key order.
func compareInstanceBindings(a, b Binding) int {
	if a.Instance.Category == schema.CategoryAttribute && b.Instance.Category == schema.CategoryAttribute &&
		a.Value.Kind != schema.ValueTypeNone {
		return concept.Compare(a.Value, b.Value)
	}
	return bytes.Compare(a.Instance.Key(), b.Instance.Key())
}

func compareValueLists(a, b []concept.Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := concept.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareInstanceLists(a, b []concept.Thing) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareInstance(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// bindingKey renders b as a string uniquely identifying its value, used to
// build row/group keys for Distinct, Reduce grouping, and tabled-function
// memo keys. It is not meant to be human-readable.
func bindingKey(b Binding) string {
	if b.Empty {
		return "∅"
	}
	switch b.Category {
	case CategoryType:
		return fmt.Sprintf("T%d", b.Type)
	case CategoryInstance:
		return fmt.Sprintf("I%x", b.Instance.Key())
	case CategoryValue:
		return fmt.Sprintf("V%d:%s", b.Value.Kind, b.Value.String())
	case CategoryValueList:
		parts := make([]string, len(b.ValueList))
		for i, v := range b.ValueList {
			parts[i] = fmt.Sprintf("%d:%s", v.Kind, v.String())
		}
		return "L[" + strings.Join(parts, ",") + "]"
	case CategoryInstanceList:
		parts := make([]string, len(b.InstanceList))
		for i, t := range b.InstanceList {
			parts[i] = fmt.Sprintf("%x", t.Key())
		}
		return "IL[" + strings.Join(parts, ",") + "]"
	default:
		return "?"
	}
}

// rowKey renders a row's bindings as a single string, sorted by variable
// id so two rows with the same content always render identically
// regardless of map iteration order.
func rowKey(r *Row) string {
	ids := make([]int, 0, len(r.Bindings))
	for v := range r.Bindings {
		ids = append(ids, int(v))
	}
	sort.Ints(ids)
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%d=%s;", id, bindingKey(r.Bindings[ir.VariableID(id)]))
	}
	return sb.String()
}

// rowsKey renders a full row set as one string, used by the tabled
// function fixpoint loop to detect "this round produced the same rows as
// last round" (content equality, not just count - spec.md §4.5.4).
func rowsKey(rows []*Row) string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = rowKey(r)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// bindingKeyOf looks up v in row and renders it via bindingKey, used to
// build composite keys over several variables (call arguments, reduce
// group-by columns). Absent variables render as a distinguishable marker
// so "missing" never collides with any real binding's key.
func bindingKeyOf(row *Row, v ir.VariableID) string {
	b, ok := row.Get(v)
	if !ok {
		return "⊥"
	}
	return bindingKey(b)
}

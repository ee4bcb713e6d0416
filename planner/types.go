// Package planner compiles a type-annotated ir.Block into an
// ExecutablePlan: an ordered list of steps naming, for every constraint,
// which iterate mode the executor should drive it with (spec.md §4.4).
package planner

import "github.com/katadb/katadb/ir"

// IterateMode is the access pattern the executor uses to drive one
// constraint instruction.
type IterateMode uint8

const (
	// Unbound: neither operand is bound on entry; iterate the full
	// (from, to) pairs sorted by from.
	Unbound IterateMode = iota
	// UnboundInverted: to is bound in the input row and from is not;
	// iterate from for that to.
	UnboundInverted
	// BoundFrom: from is bound in the input row; iterate to for that from.
	BoundFrom
	// Check: both bound; yield zero or one matching element.
	Check
	// BoundFromBoundTo: ternary (Links) constraints with at least two of
	// Relation, Player and Role already bound.
	BoundFromBoundTo
)

func (m IterateMode) String() string {
	switch m {
	case Unbound:
		return "unbound"
	case UnboundInverted:
		return "unbound-inverted"
	case BoundFrom:
		return "bound-from"
	case Check:
		return "check"
	case BoundFromBoundTo:
		return "bound-from-bound-to"
	default:
		return "unknown"
	}
}

// StepKind discriminates the concrete Step variants.
type StepKind uint8

const (
	StepIntersection StepKind = iota
	StepNested
	StepFunctionCall
	StepStreamModifier
	StepCollecting
)

// Step is one node of an ExecutablePlan.
type Step interface {
	StepKind() StepKind
}

// Instruction is one constraint, compiled with its chosen iterate mode.
// Produces is the variable the executor sorts/advances on; Secondary
// carries any other newly-bound variable an Unbound/ternary constraint
// introduces at the same time (e.g. Links with nothing bound produces
// Relation as the sort variable and Player/Role as secondary columns).
type Instruction struct {
	Constraint ir.Constraint
	Mode       IterateMode
	Produces   ir.VariableID
	Secondary  []ir.VariableID
	// CheckOnly marks constraints that only filter rows already produced
	// by the step's other instructions (spec.md §4.4: "Instructions may
	// additionally carry check-only constraints filtered per row").
	CheckOnly bool
}

// IntersectionStep is a set of instructions that all advance on
// SortVariable in lock-step (spec.md §4.5.2).
type IntersectionStep struct {
	SortVariable ir.VariableID
	Instructions []Instruction
}

func (*IntersectionStep) StepKind() StepKind { return StepIntersection }

// NestedKind discriminates the three NestedStep shapes.
type NestedKind uint8

const (
	NestedDisjunction NestedKind = iota
	NestedNegation
	NestedOptional
)

// NestedStep wraps a disjunction, negation, or optional sub-plan.
type NestedStep struct {
	Kind     NestedKind
	Branches []*ExecutablePlan // disjunction
	Inner    *ExecutablePlan   // negation / optional
}

func (*NestedStep) StepKind() StepKind { return StepNested }

// FunctionCallStep invokes a named function; Tabled mirrors
// ir.FunctionCall.Recursive - the executor consults a memo table only when
// Tabled is set, filling it by repeated evaluation to a fixpoint rather
// than by suspending (spec.md §4.5.4). Assigned carries the
// call site's own output variables, positional against the callee's
// declared return list, since ir.FunctionCall itself only knows the
// callee's name and arguments.
type FunctionCallStep struct {
	Call     *ir.FunctionCall
	Tabled   bool
	Assigned []ir.VariableID
}

func (*FunctionCallStep) StepKind() StepKind { return StepFunctionCall }

// Modifier discriminates the StreamModifierStep transforms (spec.md §4.5.5).
type Modifier uint8

const (
	ModifierSelect Modifier = iota
	ModifierOffset
	ModifierLimit
	ModifierDistinct
	ModifierFirst
	ModifierLast
)

// StreamModifierStep applies one of the stateless or small-state row
// transforms between steps.
type StreamModifierStep struct {
	Modifier  Modifier
	Variables []ir.VariableID // ModifierSelect: variables to keep
	N         int             // ModifierOffset/ModifierLimit: count
}

func (*StreamModifierStep) StepKind() StepKind { return StepStreamModifier }

// CollectingKind discriminates the two CollectingStep shapes.
type CollectingKind uint8

const (
	CollectingSort CollectingKind = iota
	CollectingReduce
)

// OrderKey is one sort key for a CollectingSort step.
type OrderKey struct {
	Variable   ir.VariableID
	Descending bool
}

// ReduceSpec configures a CollectingReduce step: group rows by GroupBy,
// aggregate Input with Aggregate, emit one row per group binding Output.
type ReduceSpec struct {
	GroupBy   []ir.VariableID
	Aggregate string
	Input     ir.VariableID
	Output    ir.VariableID
}

// CollectingStep buffers all upstream rows before emitting (sort) or
// emits one row per group (reduce).
type CollectingStep struct {
	Kind      CollectingKind
	OrderKeys []OrderKey
	Reduce    *ReduceSpec
}

func (*CollectingStep) StepKind() StepKind { return StepCollecting }

// ExecutablePlan is an ordered, immutable-after-compilation list of steps.
type ExecutablePlan struct {
	Steps []Step
}

// Modifiers describes the query-level stream modifiers and collecting
// operations to apply on top of a compiled block plan; these are
// declared by the query (select/order-by/limit/offset clauses), not by
// the IR block itself, so CompileModifiers takes them as a separate
// input from Compile.
type Modifiers struct {
	Select   []ir.VariableID
	Offset   *int
	Limit    *int
	Distinct bool
	First    bool
	Last     bool
	Sort     []OrderKey
	Reduce   *ReduceSpec
}

package planner

import (
	"sort"

	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// Compile chooses an iteration order and per-constraint mode over block,
// grouping adjacent same-sort-variable storage constraints into
// IntersectionSteps and recursively compiling nested disjunctions,
// negations, and optionals (spec.md §4.4).
func Compile(block *ir.Block, annotations *ir.TypeAnnotations, tm schema.TypeManager) (*ExecutablePlan, error) {
	if block == nil {
		return &ExecutablePlan{}, nil
	}

	c := &compiler{block: block, annotations: annotations, tm: tm}
	return c.compileBlock(block)
}

type compiler struct {
	block       *ir.Block
	annotations *ir.TypeAnnotations
	tm          schema.TypeManager
}

// task is one constraint pending scheduling, with its hard prerequisite
// variables (requires) and the variables it binds once scheduled
// (produces). Storage constraints (Isa/Sub/Has/.../Links) have no hard
// prerequisite - their mode just adapts to what happens to be bound
// already - while filters and computed bindings genuinely need their
// operand variables produced first.
type task struct {
	constraint ir.Constraint
	requires   []ir.VariableID
	produces   []ir.VariableID
	scheduled  bool
}

func variableOf(v ir.Vertex) (ir.VariableID, bool) {
	vv, ok := v.(ir.VariableVertex)
	if !ok {
		return 0, false
	}
	return vv.Variable, true
}

func exprVariables(tree *ir.ExpressionTree) []ir.VariableID {
	var out []ir.VariableID
	for _, n := range tree.Nodes {
		if n.Kind == ir.ExprVariable {
			out = append(out, n.Variable)
		}
	}
	return out
}

func buildTask(c ir.Constraint) task {
	switch con := c.(type) {
	case ir.Comparison:
		var req []ir.VariableID
		if v, ok := variableOf(con.Left); ok {
			req = append(req, v)
		}
		if v, ok := variableOf(con.Right); ok {
			req = append(req, v)
		}
		return task{constraint: c, requires: req}

	case ir.ExpressionBinding:
		req := exprVariables(con.Tree)
		var produces []ir.VariableID
		if v, ok := variableOf(con.Assigned); ok {
			produces = append(produces, v)
		}
		return task{constraint: c, requires: req, produces: produces}

	case ir.FunctionCallBinding:
		var req []ir.VariableID
		for _, a := range con.Call.Arguments {
			if v, ok := variableOf(a); ok {
				req = append(req, v)
			}
		}
		var produces []ir.VariableID
		for _, a := range con.Assigned {
			if v, ok := variableOf(a); ok {
				produces = append(produces, v)
			}
		}
		return task{constraint: c, requires: req, produces: produces}

	default:
		// Storage constraints (Isa, Sub, Has, Links, Owns, Relates, Plays)
		// and schema-label constraints (Label, RoleName, Iid, Is): no hard
		// prerequisite, mode is resolved against whatever is bound already.
		var produces []ir.VariableID
		for _, vx := range c.Vertices() {
			if v, ok := variableOf(vx); ok {
				produces = append(produces, v)
			}
		}
		return task{constraint: c, produces: produces}
	}
}

// priority implements the ordering heuristic of spec.md §4.4: prefer
// Iid, then literal-Label constraints, then constraints over Type
// category operands, else default order. Lower sorts first.
func priority(c ir.Constraint, variables map[ir.VariableID]ir.Variable) int {
	switch con := c.(type) {
	case ir.Iid:
		return 0
	case ir.Label, ir.RoleName:
		return 1
	case ir.Isa:
		if v, ok := variableOf(con.Thing); ok {
			if variables[v].Category == ir.CategoryType {
				return 2
			}
		}
		return 3
	case ir.Sub:
		return 2
	default:
		return 3
	}
}

func readySubset(pending []*task, bound map[ir.VariableID]bool) []*task {
	var ready []*task
	for _, t := range pending {
		if t.scheduled {
			continue
		}
		ok := true
		for _, r := range t.requires {
			if !bound[r] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, t)
		}
	}
	return ready
}

func (c *compiler) compileBlock(b *ir.Block) (*ExecutablePlan, error) {
	variables := make(map[ir.VariableID]ir.Variable, len(b.Variables))
	for _, v := range b.Variables {
		variables[v.ID] = v
	}

	var tasks []*task
	for _, con := range b.Constraints {
		t := buildTask(con)
		tasks = append(tasks, &t)
	}

	bound := make(map[ir.VariableID]bool)
	var ordered []*task

	for len(ordered) < len(tasks) {
		ready := readySubset(tasks, bound)
		if len(ready) == 0 {
			return nil, errNoValidOrder()
		}
		sort.SliceStable(ready, func(i, j int) bool {
			return priority(ready[i].constraint, variables) < priority(ready[j].constraint, variables)
		})
		chosen := ready[0]
		chosen.scheduled = true
		for _, p := range chosen.produces {
			bound[p] = true
		}
		ordered = append(ordered, chosen)
	}

	plan := &ExecutablePlan{}
	i := 0
	boundSoFar := make(map[ir.VariableID]bool)
	for i < len(ordered) {
		t := ordered[i]

		if fcb, ok := t.constraint.(ir.FunctionCallBinding); ok {
			var assigned []ir.VariableID
			for _, a := range fcb.Assigned {
				if v, ok := variableOf(a); ok {
					assigned = append(assigned, v)
				}
			}
			plan.Steps = append(plan.Steps, &FunctionCallStep{Call: fcb.Call, Tabled: fcb.Call.Recursive, Assigned: assigned})
			for _, p := range t.produces {
				boundSoFar[p] = true
			}
			i++
			continue
		}

		instr, err := c.instructionFor(t.constraint, boundSoFar)
		if err != nil {
			return nil, err
		}

		step := &IntersectionStep{SortVariable: instr.Produces, Instructions: []Instruction{instr}}
		for _, p := range t.produces {
			boundSoFar[p] = true
		}
		i++

		// Merge any immediately-following constraint that shares this
		// step's sort variable (a true intersection join), or that is a
		// pure filter over already-bound operands (a check-only
		// instruction riding along with this step).
		for i < len(ordered) {
			next := ordered[i]
			if _, isCall := next.constraint.(ir.FunctionCallBinding); isCall {
				break
			}
			nextInstr, err := c.instructionFor(next.constraint, boundSoFar)
			if err != nil {
				return nil, err
			}
			if nextInstr.Produces == step.SortVariable && len(next.produces) <= 1 {
				step.Instructions = append(step.Instructions, nextInstr)
				i++
				continue
			}
			if isPureFilter(next.constraint) && requiresAllBound(next, boundSoFar) {
				nextInstr.CheckOnly = true
				step.Instructions = append(step.Instructions, nextInstr)
				for _, p := range next.produces {
					boundSoFar[p] = true
				}
				i++
				continue
			}
			break
		}

		plan.Steps = append(plan.Steps, step)
	}

	disjunctionSteps, err := c.compileDisjunctions(b)
	if err != nil {
		return nil, err
	}
	plan.Steps = append(plan.Steps, disjunctionSteps...)

	for _, n := range b.Negations {
		inner, err := c.compileBlock(n.Inner)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, &NestedStep{Kind: NestedNegation, Inner: inner})
	}
	for _, o := range b.Optionals {
		inner, err := c.compileBlock(o.Inner)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, &NestedStep{Kind: NestedOptional, Inner: inner})
	}

	return plan, nil
}

func (c *compiler) compileDisjunctions(b *ir.Block) ([]Step, error) {
	var steps []Step
	for _, d := range b.Disjunctions {
		var branches []*ExecutablePlan
		for _, branch := range d.Branches {
			p, err := c.compileBlock(branch)
			if err != nil {
				return nil, err
			}
			branches = append(branches, p)
		}
		steps = append(steps, &NestedStep{Kind: NestedDisjunction, Branches: branches})
	}
	return steps, nil
}

func isPureFilter(c ir.Constraint) bool {
	switch c.(type) {
	case ir.Comparison, ir.Is:
		return true
	default:
		return false
	}
}

func requiresAllBound(t *task, bound map[ir.VariableID]bool) bool {
	for _, v := range t.produces {
		if !bound[v] {
			return false
		}
	}
	return true
}

// instructionFor resolves a constraint's IterateMode against the current
// bound-set and returns its compiled Instruction.
func (c *compiler) instructionFor(con ir.Constraint, bound map[ir.VariableID]bool) (Instruction, error) {
	isBound := func(v ir.Vertex) bool {
		vv, ok := v.(ir.VariableVertex)
		if !ok {
			return true // labels and parameters are always resolved
		}
		return bound[vv.Variable]
	}

	switch k := con.(type) {
	case ir.Isa:
		return c.binaryInstruction(con, k.Thing, k.Type, bound, isBound)
	case ir.Sub:
		return c.binaryInstruction(con, k.Sub, k.Super, bound, isBound)
	case ir.Has:
		return c.binaryInstruction(con, k.Owner, k.Attribute, bound, isBound)
	case ir.Owns:
		i, err := c.binaryInstruction(con, k.OwnerType, k.AttributeType, bound, isBound)
		if err == nil && i.Mode == UnboundInverted {
			return Instruction{}, errUnsupportedMode(con.Kind(), UnboundInverted)
		}
		return i, err
	case ir.Relates:
		return c.binaryInstruction(con, k.RelationType, k.RoleType, bound, isBound)
	case ir.Plays:
		return c.binaryInstruction(con, k.PlayerType, k.RoleType, bound, isBound)

	case ir.Links:
		relBound, playBound, roleBound := isBound(k.Relation), isBound(k.Player), isBound(k.Role)
		boundCount := boolCount(relBound, playBound, roleBound)
		mode := Unbound
		switch {
		case boundCount >= 2:
			mode = BoundFromBoundTo
		case boundCount == 1:
			mode = BoundFrom
		}
		produces, _ := variableOf(k.Relation)
		var secondary []ir.VariableID
		if v, ok := variableOf(k.Player); ok {
			secondary = append(secondary, v)
		}
		if v, ok := variableOf(k.Role); ok {
			secondary = append(secondary, v)
		}
		return Instruction{Constraint: con, Mode: mode, Produces: produces, Secondary: secondary}, nil

	case ir.Label:
		v, _ := variableOf(k.Var)
		mode := Check
		if !bound[v] {
			mode = BoundFrom
		}
		return Instruction{Constraint: con, Mode: mode, Produces: v}, nil

	case ir.RoleName:
		v, _ := variableOf(k.Role)
		mode := Check
		if !bound[v] {
			mode = BoundFrom
		}
		return Instruction{Constraint: con, Mode: mode, Produces: v}, nil

	case ir.Iid:
		v, _ := variableOf(k.Thing)
		mode := Check
		if !bound[v] {
			mode = BoundFrom
		}
		return Instruction{Constraint: con, Mode: mode, Produces: v}, nil

	case ir.Is:
		lv, lok := variableOf(k.Left)
		rv, rok := variableOf(k.Right)
		produces := lv
		if bound[lv] {
			produces = rv
		}
		_ = lok
		_ = rok
		return Instruction{Constraint: con, Mode: Check, Produces: produces}, nil

	case ir.Comparison:
		return Instruction{Constraint: con, Mode: Check}, nil

	case ir.ExpressionBinding:
		v, _ := variableOf(k.Assigned)
		return Instruction{Constraint: con, Mode: Check, Produces: v}, nil

	default:
		return Instruction{Constraint: con, Mode: Check}, nil
	}
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// binaryInstruction resolves the IterateMode for any two-operand storage
// constraint given the current bound-set, using c.Vertices()' canonical
// (from, to) order.
func (c *compiler) binaryInstruction(con ir.Constraint, from, to ir.Vertex, bound map[ir.VariableID]bool, isBound func(ir.Vertex) bool) (Instruction, error) {
	fromBound, toBound := isBound(from), isBound(to)
	toVar, toIsVar := variableOf(to)
	fromVar, fromIsVar := variableOf(from)

	var mode IterateMode
	var produces ir.VariableID
	var secondary []ir.VariableID

	switch {
	case fromBound && toBound:
		mode = Check
		if toIsVar {
			produces = toVar
		} else if fromIsVar {
			produces = fromVar
		}
	case fromBound && !toBound:
		mode = BoundFrom
		produces = toVar
	case !fromBound && toBound:
		mode = UnboundInverted
		produces = fromVar
	default:
		mode = Unbound
		produces = fromVar
		if toIsVar {
			secondary = append(secondary, toVar)
		}
	}

	return Instruction{Constraint: con, Mode: mode, Produces: produces, Secondary: secondary}, nil
}

package executor

import (
	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/expression"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
	"github.com/katadb/katadb/schema"
)

// FunctionRegistry pairs every declared function with its precompiled
// body plan, so a FunctionCallStep never compiles a callee on the fly
// (spec.md §4.5.4: function bodies are compiled once, ahead of any call).
type FunctionRegistry struct {
	Decls ir.FunctionRegistry
	Plans map[string]*planner.ExecutablePlan
}

// tableEntry is one memoized recursive-function invocation's state, keyed
// by tableKey in Environment.tables (spec.md §4.5.4's tabling).
type tableEntry struct {
	name    string
	args    []Binding
	rows    []*Row
	lastKey string
	final   bool // fixpoint reached; rows is the stable answer
}

// tableGroup is the set of table keys being solved together by one
// outermost resolveTabled call. A nested tabled call reached while a
// group is active joins the same group instead of starting its own
// loop, so a cycle across several function/argument keys (mutual
// recursion, not just a function calling itself) fixpoints as one unit:
// every key in the group is re-run each round, and the whole group only
// finalizes once a full round leaves every key's rows unchanged.
type tableGroup struct {
	keys []string
}

// Environment is the read-through context one Execute call threads
// through every step: the schema and instance oracles, the query's
// parameter values, the static type annotations plan compilation already
// consulted, the function registry, and two small caches private to a
// single execution (compiled expression trees, recursive-call memo
// tables) that must not outlive it.
type Environment struct {
	TM     schema.TypeManager
	Things concept.ThingManager
	Params *concept.ParameterRegistry
	Ann    *ir.TypeAnnotations

	Functions *FunctionRegistry

	exprCache   map[*ir.ExpressionTree]*expression.Executable
	tables      map[string]*tableEntry
	activeGroup *tableGroup // non-nil while an outermost resolveTabled call is driving a group's fixpoint
}

// NewEnvironment builds an Environment ready for a single Execute call.
func NewEnvironment(tm schema.TypeManager, things concept.ThingManager, params *concept.ParameterRegistry, ann *ir.TypeAnnotations, functions *FunctionRegistry) *Environment {
	return &Environment{
		TM:        tm,
		Things:    things,
		Params:    params,
		Ann:       ann,
		Functions: functions,
		exprCache: make(map[*ir.ExpressionTree]*expression.Executable),
		tables:    make(map[string]*tableEntry),
	}
}

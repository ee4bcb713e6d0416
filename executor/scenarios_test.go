package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
	"github.com/katadb/katadb/schema"
)

// buildScenarioSchema matches spec.md §8 scenario 1/2's schema: entity
// person owns attribute age (integer), extended with name and email
// (string) for scenario 2.
func buildScenarioSchema() (tm *schema.InMemoryTypeManager, person, age, name, email schema.TypeID) {
	tm = schema.NewInMemoryTypeManager()
	person = tm.DefineType("person", schema.CategoryEntity, schema.ValueTypeNone)
	age = tm.DefineType("age", schema.CategoryAttribute, schema.ValueTypeInteger)
	name = tm.DefineType("name", schema.CategoryAttribute, schema.ValueTypeString)
	email = tm.DefineType("email", schema.CategoryAttribute, schema.ValueTypeString)
	tm.AddOwns(person, age, schema.Cardinality{Min: 0, Max: 0})
	tm.AddOwns(person, name, schema.Cardinality{Min: 0, Max: 0})
	tm.AddOwns(person, email, schema.Cardinality{Min: 0, Max: 0})
	return tm, person, age, name, email
}

// TestScenarioSimpleMatch is spec.md §8 scenario 1: three persons with
// distinct ages 10, 11, 12; match $p isa person, has age $a yields 3
// rows in 1:1 correspondence.
func TestScenarioSimpleMatch(t *testing.T) {
	db := openExecutorTestDB(t)
	tm, person, age, _, _ := buildScenarioSchema()

	w := db.OpenWriteSnapshot()
	mgr := concept.NewSnapshotThingManager(w, tm)
	wantAges := []int64{10, 11, 12}
	people := make(map[concept.InstanceID]int64)
	for _, v := range wantAges {
		pid := mgr.NewInstanceID(person)
		p := concept.Thing{TypeID: person, InstanceID: pid, Category: schema.CategoryEntity}
		a := concept.Thing{TypeID: age, InstanceID: mgr.NewInstanceID(age), Category: schema.CategoryAttribute}
		require.NoError(t, mgr.PutHas(w, p, a, concept.Integer(v)))
		people[pid] = v
	}
	_, err := w.Commit()
	require.NoError(t, err)

	r := db.OpenReadSnapshot()
	defer r.Close()
	readMgr := concept.NewSnapshotThingManager(r, tm)

	const (
		p ir.VariableID = 1
		a ir.VariableID = 2
	)
	ann := ir.NewTypeAnnotations()
	ann.Set(a, ir.NewTypeSet(age))
	block := &ir.Block{
		Variables: []ir.Variable{
			{ID: p, Name: "$p", Category: ir.CategoryInstance},
			{ID: a, Name: "$a", Category: ir.CategoryInstance},
		},
		Constraints: []ir.Constraint{
			ir.Isa{Thing: ir.VariableVertex{Variable: p}, Type: ir.LabelVertex{Label: "person"}},
			ir.Has{Owner: ir.VariableVertex{Variable: p}, Attribute: ir.VariableVertex{Variable: a}},
		},
	}
	plan, err := planner.Compile(block, ann, tm)
	require.NoError(t, err)

	env := NewEnvironment(tm, readMgr, concept.NewParameterRegistry(nil), ann, &FunctionRegistry{})
	rows, err := Execute(context.Background(), plan, env, []*Row{NewRow()})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for _, row := range rows {
		pb, ok := row.Get(p)
		require.True(t, ok)
		require.Equal(t, person, pb.Instance.TypeID)
		ab, ok := row.Get(a)
		require.True(t, ok)
		want, tracked := people[pb.Instance.InstanceID]
		require.True(t, tracked)
		require.Equal(t, want, ab.Value.Integer)
	}
}

// TestScenarioCartesianIntersect is spec.md §8 scenario 2: one person
// with two names and two emails; fetching all three attributes
// produces the Cartesian product over the per-person attribute sets.
func TestScenarioCartesianIntersect(t *testing.T) {
	db := openExecutorTestDB(t)
	tm, person, age, name, email := buildScenarioSchema()

	w := db.OpenWriteSnapshot()
	mgr := concept.NewSnapshotThingManager(w, tm)
	pid := mgr.NewInstanceID(person)
	personThing := concept.Thing{TypeID: person, InstanceID: pid, Category: schema.CategoryEntity}

	ageThing := concept.Thing{TypeID: age, InstanceID: mgr.NewInstanceID(age), Category: schema.CategoryAttribute}
	require.NoError(t, mgr.PutHas(w, personThing, ageThing, concept.Integer(30)))

	names := []string{"Ada", "Lovelace"}
	for _, n := range names {
		nt := concept.Thing{TypeID: name, InstanceID: mgr.NewInstanceID(name), Category: schema.CategoryAttribute}
		require.NoError(t, mgr.PutHas(w, personThing, nt, concept.StringValue(n)))
	}
	emails := []string{"ada@x.test", "lovelace@x.test"}
	for _, e := range emails {
		et := concept.Thing{TypeID: email, InstanceID: mgr.NewInstanceID(email), Category: schema.CategoryAttribute}
		require.NoError(t, mgr.PutHas(w, personThing, et, concept.StringValue(e)))
	}
	_, err := w.Commit()
	require.NoError(t, err)

	r := db.OpenReadSnapshot()
	defer r.Close()
	readMgr := concept.NewSnapshotThingManager(r, tm)

	const (
		p  ir.VariableID = 1
		nv ir.VariableID = 2
		ev ir.VariableID = 3
	)
	ann := ir.NewTypeAnnotations()
	ann.Set(nv, ir.NewTypeSet(name))
	ann.Set(ev, ir.NewTypeSet(email))
	block := &ir.Block{
		Variables: []ir.Variable{
			{ID: p, Name: "$p", Category: ir.CategoryInstance},
			{ID: nv, Name: "$n", Category: ir.CategoryInstance},
			{ID: ev, Name: "$e", Category: ir.CategoryInstance},
		},
		Constraints: []ir.Constraint{
			ir.Isa{Thing: ir.VariableVertex{Variable: p}, Type: ir.LabelVertex{Label: "person"}},
			ir.Has{Owner: ir.VariableVertex{Variable: p}, Attribute: ir.VariableVertex{Variable: nv}},
			ir.Has{Owner: ir.VariableVertex{Variable: p}, Attribute: ir.VariableVertex{Variable: ev}},
		},
	}
	plan, err := planner.Compile(block, ann, tm)
	require.NoError(t, err)

	env := NewEnvironment(tm, readMgr, concept.NewParameterRegistry(nil), ann, &FunctionRegistry{})
	rows, err := Execute(context.Background(), plan, env, []*Row{NewRow()})
	require.NoError(t, err)
	require.Len(t, rows, len(names)*len(emails), "rows must equal the product of the two attribute sets")

	seen := make(map[[2]string]bool)
	for _, row := range rows {
		nb, _ := row.Get(nv)
		eb, _ := row.Get(ev)
		seen[[2]string{nb.Value.Str, eb.Value.Str}] = true
	}
	require.Len(t, seen, len(names)*len(emails), "every (name,email) pair must be distinct")
}

// TestScenarioNegation is spec.md §8 scenario 3: over the 10/11/12
// dataset, "$p isa person; not { $p has age 11; };" returns 2 rows.
func TestScenarioNegation(t *testing.T) {
	db := openExecutorTestDB(t)
	tm, person, age, _, _ := buildScenarioSchema()

	w := db.OpenWriteSnapshot()
	mgr := concept.NewSnapshotThingManager(w, tm)
	for _, v := range []int64{10, 11, 12} {
		p := concept.Thing{TypeID: person, InstanceID: mgr.NewInstanceID(person), Category: schema.CategoryEntity}
		a := concept.Thing{TypeID: age, InstanceID: mgr.NewInstanceID(age), Category: schema.CategoryAttribute}
		require.NoError(t, mgr.PutHas(w, p, a, concept.Integer(v)))
	}
	_, err := w.Commit()
	require.NoError(t, err)

	r := db.OpenReadSnapshot()
	defer r.Close()
	readMgr := concept.NewSnapshotThingManager(r, tm)

	const (
		p ir.VariableID = 1
		a ir.VariableID = 2
	)
	ann := ir.NewTypeAnnotations()
	ann.Set(a, ir.NewTypeSet(age))
	params := concept.NewParameterRegistry(nil)
	elevenParam := params.Add(concept.Integer(11))

	negBlock := &ir.Block{
		Variables: []ir.Variable{{ID: a, Name: "$a", Category: ir.CategoryInstance}},
		Constraints: []ir.Constraint{
			ir.Has{Owner: ir.VariableVertex{Variable: p}, Attribute: ir.VariableVertex{Variable: a}},
			ir.Comparison{Left: ir.VariableVertex{Variable: a}, Right: ir.ParameterVertex{Parameter: elevenParam}, Op: ir.OpEQ},
		},
	}
	innerPlan, err := planner.Compile(negBlock, ann, tm)
	require.NoError(t, err)

	outerBlock := &ir.Block{
		Variables:   []ir.Variable{{ID: p, Name: "$p", Category: ir.CategoryInstance}},
		Constraints: []ir.Constraint{ir.Isa{Thing: ir.VariableVertex{Variable: p}, Type: ir.LabelVertex{Label: "person"}}},
	}
	outerPlan, err := planner.Compile(outerBlock, ann, tm)
	require.NoError(t, err)
	outerPlan.Steps = append(outerPlan.Steps, &planner.NestedStep{Kind: planner.NestedNegation, Inner: innerPlan})

	env := NewEnvironment(tm, readMgr, params, ann, &FunctionRegistry{})
	rows, err := Execute(context.Background(), outerPlan, env, []*Row{NewRow()})
	require.NoError(t, err)
	require.Len(t, rows, 2, "the age-11 person should be excluded by the negation")
}

// TestScenarioLimitOffset is spec.md §8 scenario 4: "match $a isa age;
// limit 2; offset 1;" over the 10/11/12 dataset yields exactly the
// second age in sort order (11).
func TestScenarioLimitOffset(t *testing.T) {
	db := openExecutorTestDB(t)
	tm, person, age, _, _ := buildScenarioSchema()

	w := db.OpenWriteSnapshot()
	mgr := concept.NewSnapshotThingManager(w, tm)
	for _, v := range []int64{10, 11, 12} {
		p := concept.Thing{TypeID: person, InstanceID: mgr.NewInstanceID(person), Category: schema.CategoryEntity}
		a := concept.Thing{TypeID: age, InstanceID: mgr.NewInstanceID(age), Category: schema.CategoryAttribute}
		require.NoError(t, mgr.PutHas(w, p, a, concept.Integer(v)))
	}
	_, err := w.Commit()
	require.NoError(t, err)

	r := db.OpenReadSnapshot()
	defer r.Close()
	readMgr := concept.NewSnapshotThingManager(r, tm)

	const a ir.VariableID = 1
	ann := ir.NewTypeAnnotations()
	block := &ir.Block{
		Variables:   []ir.Variable{{ID: a, Name: "$a", Category: ir.CategoryInstance}},
		Constraints: []ir.Constraint{ir.Isa{Thing: ir.VariableVertex{Variable: a}, Type: ir.LabelVertex{Label: "age"}}},
	}
	plan, err := planner.Compile(block, ann, tm)
	require.NoError(t, err)

	limit := 2
	offset := 1
	// One Modifiers value applies offset before limit; the scenario's
	// "limit 2; offset 1;" order takes two CompileModifiers calls.
	plan = planner.CompileModifiers(plan, planner.Modifiers{
		Sort:  []planner.OrderKey{{Variable: a}},
		Limit: &limit,
	})
	plan = planner.CompileModifiers(plan, planner.Modifiers{Offset: &offset})

	env := NewEnvironment(tm, readMgr, concept.NewParameterRegistry(nil), ann, &FunctionRegistry{})
	rows, err := Execute(context.Background(), plan, env, []*Row{NewRow()})
	require.NoError(t, err)
	require.Len(t, rows, 1, "limit(2) then offset(1) over 3 sorted rows leaves 1 row")
	b, ok := rows[0].Get(a)
	require.True(t, ok)
	require.Equal(t, int64(11), b.Value.Integer, "sorted ages are 10,11,12; offset(1) skips 10, leaving 11 as the sole row under limit(2)")
}

// TestScenarioRecursiveFunction is spec.md §8 scenario 5: ancestor(x,y)
// = parent(x,y) ∪ ∃z: parent(x,z), ancestor(z,y), over a chain
// a→b→c→d; ancestor(a, $y) must yield {b,c,d} each exactly once.
//
// parent is encoded as per-key equality branches over a literal lookup
// table (0=a,1=b,2=c,3=d) since there is no relation storage wired into
// this plan; the recursion and tabling are the behavior under test.
func TestScenarioRecursiveFunction(t *testing.T) {
	params := concept.NewParameterRegistry(nil)
	chain := map[int64]int64{0: 1, 1: 2, 2: 3} // a=0,b=1,c=2,d=3

	const (
		x ir.VariableID = 1
		y ir.VariableID = 2
		z ir.VariableID = 3
	)

	parentBranches := func(out ir.VariableID) []*planner.ExecutablePlan {
		var branches []*planner.ExecutablePlan
		for k, v := range chain {
			kParam := params.Add(concept.Integer(k))
			vParam := params.Add(concept.Integer(v))
			branches = append(branches, &planner.ExecutablePlan{Steps: []planner.Step{
				&planner.IntersectionStep{Instructions: []planner.Instruction{
					{Constraint: ir.Comparison{Left: ir.VariableVertex{Variable: x}, Right: ir.ParameterVertex{Parameter: kParam}, Op: ir.OpEQ}, Mode: planner.Check, CheckOnly: true},
					{Constraint: ir.ExpressionBinding{Assigned: ir.VariableVertex{Variable: out}, Tree: constTree(vParam)}, Mode: planner.Check, Produces: out},
				}},
			}})
		}
		return branches
	}

	baseBranch := &planner.ExecutablePlan{Steps: []planner.Step{
		&planner.NestedStep{Kind: planner.NestedDisjunction, Branches: parentBranches(y)},
	}}
	recursiveStep := &planner.ExecutablePlan{Steps: []planner.Step{
		&planner.NestedStep{Kind: planner.NestedDisjunction, Branches: parentBranches(z)},
		&planner.FunctionCallStep{
			Call:     &ir.FunctionCall{Function: "ancestor", Arguments: []ir.Vertex{ir.VariableVertex{Variable: z}}, Recursive: true},
			Tabled:   true,
			Assigned: []ir.VariableID{y},
		},
	}}

	decl := &ir.FunctionDecl{
		Name:       "ancestor",
		Parameters: []ir.VariableID{x},
		Return:     []ir.Variable{{ID: y, Name: "y", Category: ir.CategoryValue}},
	}
	fnPlan := &planner.ExecutablePlan{Steps: []planner.Step{
		&planner.NestedStep{Kind: planner.NestedDisjunction, Branches: []*planner.ExecutablePlan{baseBranch, recursiveStep}},
		&planner.StreamModifierStep{Modifier: planner.ModifierDistinct},
	}}
	functions := &FunctionRegistry{
		Decls: ir.FunctionRegistry{"ancestor": decl},
		Plans: map[string]*planner.ExecutablePlan{"ancestor": fnPlan},
	}
	env := NewEnvironment(nil, nil, params, nil, functions)

	rows, err := env.resolveTabled(context.Background(), "ancestor", []Binding{ValueBinding(concept.Integer(0))})
	require.NoError(t, err)

	got := make(map[int64]bool)
	for _, row := range rows {
		b, ok := row.Get(y)
		require.True(t, ok)
		got[b.Value.Integer] = true
	}
	require.Equal(t, map[int64]bool{1: true, 2: true, 3: true}, got, "ancestor(a) over chain a->b->c->d must be {b,c,d}")
}

func constTree(param ir.ParameterID) *ir.ExpressionTree {
	tree := ir.NewExpressionTree()
	root := tree.Add(ir.ExprNode{Kind: ir.ExprConstant, ConstantParam: param})
	tree.Root = root
	return tree
}

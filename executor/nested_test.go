package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
)

// gtPlan builds a one-step ExecutablePlan that keeps rows where variable v
// compares greater than a literal threshold, via a CheckOnly Comparison
// instruction inside an IntersectionStep.
func gtPlan(v ir.VariableID, threshold int64, paramID ir.ParameterID) *planner.ExecutablePlan {
	return &planner.ExecutablePlan{
		Steps: []planner.Step{
			&planner.IntersectionStep{
				Instructions: []planner.Instruction{
					{
						Constraint: ir.Comparison{
							Left:  ir.VariableVertex{Variable: v},
							Right: ir.ParameterVertex{Parameter: paramID},
							Op:    ir.OpGT,
						},
						Mode:      planner.Check,
						CheckOnly: true,
					},
				},
			},
		},
	}
}

func TestApplyDisjunctionConcatenatesBranchesInOrder(t *testing.T) {
	params := concept.NewParameterRegistry(nil)
	lowThreshold := params.Add(concept.Integer(0))
	highThreshold := params.Add(concept.Integer(100))
	env := &Environment{Params: params}

	row := rowWith(map[ir.VariableID]int64{1: 5})
	step := &planner.NestedStep{
		Kind: planner.NestedDisjunction,
		Branches: []*planner.ExecutablePlan{
			gtPlan(1, 0, lowThreshold),  // matches (5 > 0)
			gtPlan(1, 100, highThreshold), // does not match
		},
	}

	out, err := applyNested(context.Background(), step, env, []*Row{row})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, []int{0}, out[0].Branch)
}

func TestApplyNegationDropsRowWhenInnerMatches(t *testing.T) {
	params := concept.NewParameterRegistry(nil)
	pid := params.Add(concept.Integer(0))
	env := &Environment{Params: params}

	row := rowWith(map[ir.VariableID]int64{1: 5})
	step := &planner.NestedStep{Kind: planner.NestedNegation, Inner: gtPlan(1, 0, pid)}

	out, err := applyNested(context.Background(), step, env, []*Row{row})
	require.NoError(t, err)
	require.Len(t, out, 0)
}

func TestApplyNegationKeepsRowWhenInnerDoesNotMatch(t *testing.T) {
	params := concept.NewParameterRegistry(nil)
	pid := params.Add(concept.Integer(100))
	env := &Environment{Params: params}

	row := rowWith(map[ir.VariableID]int64{1: 5})
	step := &planner.NestedStep{Kind: planner.NestedNegation, Inner: gtPlan(1, 100, pid)}

	out, err := applyNested(context.Background(), step, env, []*Row{row})
	require.NoError(t, err)
	require.Len(t, out, 1)
	b, _ := out[0].Get(1)
	require.Equal(t, int64(5), b.Value.Integer)
}

func TestApplyOptionalEmitsInnerRowsWhenTheyExistElseOuterRowUnchanged(t *testing.T) {
	params := concept.NewParameterRegistry(nil)
	matching := params.Add(concept.Integer(0))
	nonMatching := params.Add(concept.Integer(100))
	env := &Environment{Params: params}

	matchRow := rowWith(map[ir.VariableID]int64{1: 5})
	stepMatch := &planner.NestedStep{Kind: planner.NestedOptional, Inner: gtPlan(1, 0, matching)}
	out, err := applyNested(context.Background(), stepMatch, env, []*Row{matchRow})
	require.NoError(t, err)
	require.Len(t, out, 1)

	noMatchRow := rowWith(map[ir.VariableID]int64{1: 5})
	stepNoMatch := &planner.NestedStep{Kind: planner.NestedOptional, Inner: gtPlan(1, 100, nonMatching)}
	out, err = applyNested(context.Background(), stepNoMatch, env, []*Row{noMatchRow})
	require.NoError(t, err)
	require.Len(t, out, 1)
	b, _ := out[0].Get(1)
	require.Equal(t, int64(5), b.Value.Integer, "row passed through unchanged when optional branch had no match")
}

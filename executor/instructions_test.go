package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
)

func TestIsCandidatesBindsUnboundSide(t *testing.T) {
	row := NewRow()
	row.Set(1, ValueBinding(concept.Integer(7)))
	con := ir.Is{Left: ir.VariableVertex{Variable: 1}, Right: ir.VariableVertex{Variable: 2}}
	instr := planner.Instruction{Constraint: con, Mode: planner.BoundFrom, Produces: 2}

	out, err := isCandidates(con, instr, row)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(7), out[0].extension[2].Value.Integer)
}

func TestIsCandidatesBothBoundEqual(t *testing.T) {
	row := NewRow()
	row.Set(1, ValueBinding(concept.Integer(7)))
	row.Set(2, ValueBinding(concept.Integer(7)))
	con := ir.Is{Left: ir.VariableVertex{Variable: 1}, Right: ir.VariableVertex{Variable: 2}}
	instr := planner.Instruction{Constraint: con, Mode: planner.Check}

	out, err := isCandidates(con, instr, row)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestIsCandidatesBothBoundUnequalYieldsNone(t *testing.T) {
	row := NewRow()
	row.Set(1, ValueBinding(concept.Integer(7)))
	row.Set(2, ValueBinding(concept.Integer(8)))
	con := ir.Is{Left: ir.VariableVertex{Variable: 1}, Right: ir.VariableVertex{Variable: 2}}
	instr := planner.Instruction{Constraint: con, Mode: planner.Check}

	out, err := isCandidates(con, instr, row)
	require.NoError(t, err)
	require.Len(t, out, 0)
}

func TestComparisonCandidatesEvaluatesOperator(t *testing.T) {
	row := NewRow()
	row.Set(1, ValueBinding(concept.Integer(5)))
	con := ir.Comparison{Left: ir.VariableVertex{Variable: 1}, Right: ir.ParameterVertex{Parameter: 0}, Op: ir.OpGT}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(3))
	env := &Environment{Params: params}

	out, err := comparisonCandidates(con, env, row)
	require.NoError(t, err)
	require.Len(t, out, 1)

	con.Op = ir.OpLT
	out, err = comparisonCandidates(con, env, row)
	require.NoError(t, err)
	require.Len(t, out, 0)
}

func TestEvalCompareContainsAndLike(t *testing.T) {
	ok, err := evalCompare(ir.OpContains, concept.StringValue("hello world"), concept.StringValue("world"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = evalCompare(ir.OpLike, concept.StringValue("hello"), concept.StringValue("h_l%"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = evalCompare(ir.OpLike, concept.StringValue("hello"), concept.StringValue("world"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatchLikePatternWildcards(t *testing.T) {
	require.True(t, matchLikePattern("abc", "a%"))
	require.True(t, matchLikePattern("abc", "_bc"))
	require.False(t, matchLikePattern("abc", "_b"))
	require.True(t, matchLikePattern("", "%"))
}

func TestContainsSubstring(t *testing.T) {
	require.True(t, containsSubstring("abcdef", "cde"))
	require.False(t, containsSubstring("abcdef", "xyz"))
	require.True(t, containsSubstring("abc", ""))
}

func TestInstructionCandidatesChecksInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := instructionCandidates(ctx, planner.Instruction{Constraint: ir.Is{
		Left:  ir.VariableVertex{Variable: 1},
		Right: ir.VariableVertex{Variable: 2},
	}}, &Environment{}, NewRow())
	require.Error(t, err)
}

package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/planner"
)

func TestApplyCollectingSortAscendingThenDescending(t *testing.T) {
	rows := []*Row{
		rowWith(map[ir.VariableID]int64{1: 3, 2: 1}),
		rowWith(map[ir.VariableID]int64{1: 1, 2: 2}),
		rowWith(map[ir.VariableID]int64{1: 2, 2: 3}),
	}
	step := &planner.CollectingStep{
		Kind:      planner.CollectingSort,
		OrderKeys: []planner.OrderKey{{Variable: 1}},
	}
	out, err := applyCollecting(context.Background(), step, rows)
	require.NoError(t, err)
	b0, _ := out[0].Get(1)
	b1, _ := out[1].Get(1)
	b2, _ := out[2].Get(1)
	require.Equal(t, []int64{1, 2, 3}, []int64{b0.Value.Integer, b1.Value.Integer, b2.Value.Integer})

	descStep := &planner.CollectingStep{
		Kind:      planner.CollectingSort,
		OrderKeys: []planner.OrderKey{{Variable: 1, Descending: true}},
	}
	out, err = applyCollecting(context.Background(), descStep, rows)
	require.NoError(t, err)
	b0, _ = out[0].Get(1)
	b2, _ = out[2].Get(1)
	require.Equal(t, int64(3), b0.Value.Integer)
	require.Equal(t, int64(1), b2.Value.Integer)
}

func TestApplyCollectingReduceCountSumMeanMaxMin(t *testing.T) {
	rows := []*Row{
		rowWith(map[ir.VariableID]int64{1: 10, 2: 2}),
		rowWith(map[ir.VariableID]int64{1: 10, 2: 4}),
		rowWith(map[ir.VariableID]int64{1: 20, 2: 100}),
	}

	run := func(agg string) concept.Value {
		step := &planner.CollectingStep{
			Kind: planner.CollectingReduce,
			Reduce: &planner.ReduceSpec{
				GroupBy:   []ir.VariableID{1},
				Aggregate: agg,
				Input:     2,
				Output:    3,
			},
		}
		out, err := applyCollecting(context.Background(), step, rows)
		require.NoError(t, err)
		require.Len(t, out, 2) // two groups: 10 and 20
		var group10Out concept.Value
		for _, r := range out {
			if b, _ := r.Get(1); b.Value.Integer == 10 {
				ob, _ := r.Get(3)
				group10Out = ob.Value
			}
		}
		return group10Out
	}

	require.Equal(t, int64(2), run("count").Integer)
	require.Equal(t, int64(6), run("sum").Integer)
	require.InDelta(t, 3.0, run("mean").Double, 1e-9)
	require.Equal(t, int64(4), run("max").Integer)
	require.Equal(t, int64(2), run("min").Integer)
}

func TestApplyCollectingReduceSumIntegerOverflowErrors(t *testing.T) {
	rows := []*Row{
		rowWith(map[ir.VariableID]int64{1: 1, 2: 9223372036854775807}),
		rowWith(map[ir.VariableID]int64{1: 1, 2: 1}),
	}
	step := &planner.CollectingStep{
		Kind: planner.CollectingReduce,
		Reduce: &planner.ReduceSpec{
			GroupBy:   []ir.VariableID{1},
			Aggregate: "sum",
			Input:     2,
			Output:    3,
		},
	}
	out, err := applyCollecting(context.Background(), step, rows)
	require.Error(t, err)
	require.ErrorContains(t, err, "integer arithmetic overflow")
	require.Nil(t, out)
}

package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/expression"
	"github.com/katadb/katadb/ir"
)

func TestEvalExecutableIntegerArith(t *testing.T) {
	row := NewRow()
	row.Set(1, ValueBinding(concept.Integer(4)))
	row.Set(2, ValueBinding(concept.Integer(3)))

	exe := &expression.Executable{
		Variables: []ir.VariableID{1, 2},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadVariable, VariableIndex: 0},
			{Op: expression.OpLoadVariable, VariableIndex: 1},
			{Op: expression.OpIntegerArith, Arith: ir.ArithAdd},
		},
	}
	v, err := evalExecutable(exe, row, &Environment{})
	require.NoError(t, err)
	require.Equal(t, int64(7), v.scalar.Integer)
}

func TestEvalExecutableIntegerOverflowErrors(t *testing.T) {
	row := NewRow()
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpIntegerArith, Arith: ir.ArithAdd},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(9223372036854775807))
	params.Add(concept.Integer(1))
	_, err := evalExecutable(exe, row, &Environment{Params: params})
	require.Error(t, err)
}

func TestEvalExecutableDivisionByZero(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpIntegerArith, Arith: ir.ArithDiv},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(5))
	params.Add(concept.Integer(0))
	_, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.Error(t, err)
}

func TestEvalExecutableCastLeftIntegerToDoubleThenDoubleArith(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 0}, // left: integer
			{Op: expression.OpLoadConstant, ConstantIndex: 1}, // right: double
			{Op: expression.OpCastLeftIntegerToDouble},
			{Op: expression.OpDoubleArith, Arith: ir.ArithAdd},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(2))
	params.Add(concept.Double(1.5))
	v, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.NoError(t, err)
	require.InDelta(t, 3.5, v.scalar.Double, 1e-9)
}

func TestEvalExecutableDecimalArithAddSub(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpDecimalArith, Arith: ir.ArithSub},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.DecimalValue(concept.NewDecimal(5, 0)))
	params.Add(concept.DecimalValue(concept.NewDecimal(2, 0)))
	v, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.NoError(t, err)
	require.Equal(t, int64(3), v.scalar.Decimal.Whole)
}

func TestEvalExecutableListConstructPreservesLeftToRightOrder(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1, 2},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 2},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpListConstruct, Argc: 3},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(1))
	params.Add(concept.Integer(2))
	params.Add(concept.Integer(3))
	v, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.NoError(t, err)
	require.True(t, v.isList)
	require.Equal(t, []int64{1, 2, 3}, []int64{v.list[0].Integer, v.list[1].Integer, v.list[2].Integer})
}

func TestEvalExecutableListIndex(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1, 2, 3},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpLoadConstant, ConstantIndex: 2},
			{Op: expression.OpListConstruct, Argc: 3},
			{Op: expression.OpLoadConstant, ConstantIndex: 3},
			{Op: expression.OpListIndex},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(10))
	params.Add(concept.Integer(20))
	params.Add(concept.Integer(30))
	params.Add(concept.Integer(1))
	v, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.NoError(t, err)
	require.Equal(t, int64(20), v.scalar.Integer)
}

func TestEvalExecutableListIndexOutOfRangeErrors(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpListConstruct, Argc: 1},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpListIndex},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(10))
	params.Add(concept.Integer(5))
	_, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.Error(t, err)
}

func TestEvalExecutableListIndexRange(t *testing.T) {
	exe := &expression.Executable{
		Constants: []ir.ParameterID{0, 1, 2, 3, 4},
		Instructions: []expression.Instruction{
			{Op: expression.OpLoadConstant, ConstantIndex: 2},
			{Op: expression.OpLoadConstant, ConstantIndex: 1},
			{Op: expression.OpLoadConstant, ConstantIndex: 0},
			{Op: expression.OpListConstruct, Argc: 3},
			{Op: expression.OpLoadConstant, ConstantIndex: 3}, // start
			{Op: expression.OpLoadConstant, ConstantIndex: 4}, // end
			{Op: expression.OpListIndexRange},
		},
	}
	params := concept.NewParameterRegistry(nil)
	params.Add(concept.Integer(10))
	params.Add(concept.Integer(20))
	params.Add(concept.Integer(30))
	params.Add(concept.Integer(1))
	params.Add(concept.Integer(3))
	v, err := evalExecutable(exe, NewRow(), &Environment{Params: params})
	require.NoError(t, err)
	require.True(t, v.isList)
	require.Len(t, v.list, 2)
	require.Equal(t, int64(20), v.list[0].Integer)
	require.Equal(t, int64(30), v.list[1].Integer)
}

func TestEvalBuiltInAbs(t *testing.T) {
	v, err := evalBuiltIn(ir.BuiltInAbs, concept.Integer(-5))
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Integer)

	v, err = evalBuiltIn(ir.BuiltInAbs, concept.Double(-2.5))
	require.NoError(t, err)
	require.InDelta(t, 2.5, v.Double, 1e-9)

	v, err = evalBuiltIn(ir.BuiltInAbs, concept.DecimalValue(concept.NewDecimal(-3, 500_000_000)))
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Decimal.Whole)
	require.Equal(t, int64(500_000_000), v.Decimal.Fractional)
}

func TestEvalBuiltInCeilFloorRound(t *testing.T) {
	c, err := evalBuiltIn(ir.BuiltInCeil, concept.Double(1.2))
	require.NoError(t, err)
	require.Equal(t, 2.0, c.Double)

	f, err := evalBuiltIn(ir.BuiltInFloor, concept.Double(1.8))
	require.NoError(t, err)
	require.Equal(t, 1.0, f.Double)

	r, err := evalBuiltIn(ir.BuiltInRound, concept.Double(1.5))
	require.NoError(t, err)
	require.Equal(t, 2.0, r.Double)
}

func TestCheckedAddSubMulOverflow(t *testing.T) {
	_, ok := checkedAdd(9223372036854775807, 1)
	require.False(t, ok)
	_, ok = checkedSub(-9223372036854775808, 1)
	require.False(t, ok)
	_, ok = checkedMul(9223372036854775807, 2)
	require.False(t, ok)

	v, ok := checkedAdd(2, 3)
	require.True(t, ok)
	require.Equal(t, int64(5), v)
}

func TestIntegerPowNegativeExponentErrors(t *testing.T) {
	_, err := integerPow(2, -1)
	require.Error(t, err)
}

func TestIntegerPowComputesExponent(t *testing.T) {
	v, err := integerPow(2, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1024), v)
}

// Package expression compiles an ir.ExpressionTree into a flat
// stack-machine bytecode (spec.md §4.3): a pre-order traversal emits
// instructions post-order (children before parent) over three parallel
// reference streams - constants, variables, and the instruction stream
// itself - plus a compile-time type stack that resolves numeric
// coercions into explicit cast opcodes.
package expression

import (
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// OpCode discriminates a bytecode Instruction.
type OpCode uint8

const (
	OpLoadConstant OpCode = iota
	OpLoadVariable

	// Explicit casts - always named by which side of a binary operation
	// they apply to, since the coercion table is asymmetric.
	OpCastLeftIntegerToDouble
	OpCastRightIntegerToDouble
	OpCastLeftIntegerToDecimal
	OpCastRightIntegerToDecimal
	OpCastLeftDecimalToDouble
	OpCastRightDecimalToDouble
	OpCastBothToDouble

	// Arithmetic, one opcode per native operand type; Instruction.Arith
	// carries which of +,-,*,/,%,** to apply.
	OpIntegerArith
	OpDoubleArith
	OpDecimalArith

	OpBuiltInCall
	OpListConstruct
	OpListIndex
	OpListIndexRange
)

// Shape is the compile-time type-stack entry: a value category plus
// whether it is a list of that category.
type Shape struct {
	Value schema.ValueType
	List  bool
}

func single(v schema.ValueType) Shape { return Shape{Value: v} }
func list(v schema.ValueType) Shape   { return Shape{Value: v, List: true} }

// Instruction is one bytecode op. Only the fields relevant to Op are
// meaningful, mirroring ir.ExprNode's tagged-union layout.
type Instruction struct {
	Op OpCode

	ConstantIndex int // OpLoadConstant: index into Executable.Constants
	VariableIndex int // OpLoadVariable: index into Executable.Variables

	Arith   ir.ArithOp // OpIntegerArith/OpDoubleArith/OpDecimalArith
	BuiltIn ir.BuiltIn // OpBuiltInCall

	// Argc is the operand count consumed by this instruction: built-in
	// argument count, or list-constructor element count. The source
	// describes list construction as pushing a length constant ahead of
	// LIST_CONSTRUCT; we carry the count directly on the instruction
	// instead, since there is no constant-pool slot for a bare integer
	// that isn't a query parameter.
	Argc int
}

// Executable is the compiled form of an ir.ExpressionTree: a flat
// instruction vector plus the variables and constants it references, and
// the statically-resolved result type.
type Executable struct {
	Instructions []Instruction
	Variables    []ir.VariableID
	Constants    []ir.ParameterID
	ReturnType   Shape
}

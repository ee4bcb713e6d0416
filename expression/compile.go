package expression

import (
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// Compile translates tree into an Executable. variableTypes must carry
// the value type of every ir.ExprVariable node the tree references
// (populated from type annotation); constantTypes must carry the value
// type of every ir.ExprConstant node's parameter (populated from the
// query's concept.ParameterRegistry by the caller, which sits above this
// package in the dependency graph).
func Compile(tree *ir.ExpressionTree, variableTypes map[ir.VariableID]schema.ValueType, constantTypes map[ir.ParameterID]schema.ValueType) (*Executable, error) {
	c := &compiler{
		tree:          tree,
		variableTypes: variableTypes,
		constantTypes: constantTypes,
	}
	shape, err := c.compileNode(tree.Root)
	if err != nil {
		return nil, err
	}
	return &Executable{
		Instructions: c.instructions,
		Variables:    c.variables,
		Constants:    c.constants,
		ReturnType:   shape,
	}, nil
}

type compiler struct {
	tree          *ir.ExpressionTree
	variableTypes map[ir.VariableID]schema.ValueType
	constantTypes map[ir.ParameterID]schema.ValueType

	instructions []Instruction
	variables    []ir.VariableID
	constants    []ir.ParameterID
}

func (c *compiler) emit(i Instruction) { c.instructions = append(c.instructions, i) }

func (c *compiler) addVariable(v ir.VariableID) int {
	c.variables = append(c.variables, v)
	return len(c.variables) - 1
}

func (c *compiler) addConstant(p ir.ParameterID) int {
	c.constants = append(c.constants, p)
	return len(c.constants) - 1
}

func (c *compiler) compileNode(id ir.ExprNodeID) (Shape, error) {
	node := c.tree.Node(id)

	switch node.Kind {
	case ir.ExprConstant:
		vt, ok := c.constantTypes[node.ConstantParam]
		if !ok {
			return Shape{}, errInternalStackEmpty("constant has no known value type")
		}
		idx := c.addConstant(node.ConstantParam)
		c.emit(Instruction{Op: OpLoadConstant, ConstantIndex: idx})
		return single(vt), nil

	case ir.ExprVariable:
		vt, ok := c.variableTypes[node.Variable]
		if !ok {
			return Shape{}, errInternalStackEmpty("variable has no known value type")
		}
		idx := c.addVariable(node.Variable)
		c.emit(Instruction{Op: OpLoadVariable, VariableIndex: idx})
		return single(vt), nil

	case ir.ExprOperation:
		left, err := c.compileNode(node.Lhs)
		if err != nil {
			return Shape{}, err
		}
		right, err := c.compileNode(node.Rhs)
		if err != nil {
			return Shape{}, err
		}
		return c.compileOperation(node.Op, left, right)

	case ir.ExprBuiltInCall:
		return c.compileBuiltIn(node.BuiltIn, node.Args)

	case ir.ExprListConstructor:
		return c.compileListConstructor(node.Elements)

	case ir.ExprListIndex:
		listShape, err := c.compileNode(node.List)
		if err != nil {
			return Shape{}, err
		}
		indexShape, err := c.compileNode(node.Index)
		if err != nil {
			return Shape{}, err
		}
		if indexShape.List || indexShape.Value != schema.ValueTypeInteger {
			return Shape{}, errListIndexMustBeInteger()
		}
		c.emit(Instruction{Op: OpListIndex})
		return single(listShape.Value), nil

	case ir.ExprListIndexRange:
		listShape, err := c.compileNode(node.List)
		if err != nil {
			return Shape{}, err
		}
		startShape, err := c.compileNode(node.RangeStart)
		if err != nil {
			return Shape{}, err
		}
		if startShape.List || startShape.Value != schema.ValueTypeInteger {
			return Shape{}, errListIndexMustBeInteger()
		}
		endShape, err := c.compileNode(node.RangeEnd)
		if err != nil {
			return Shape{}, err
		}
		if endShape.List || endShape.Value != schema.ValueTypeInteger {
			return Shape{}, errListIndexMustBeInteger()
		}
		c.emit(Instruction{Op: OpListIndexRange})
		return list(listShape.Value), nil

	default:
		return Shape{}, errInternalStackEmpty("unrecognized expression node kind")
	}
}

func isAddSubMul(op ir.ArithOp) bool {
	return op == ir.ArithAdd || op == ir.ArithSub || op == ir.ArithMul
}

// compileOperation implements the numeric coercion table of spec.md
// §4.3: casts are emitted eagerly (in the order the values were pushed,
// left then right), followed by one arithmetic instruction over the
// resolved native type.
func (c *compiler) compileOperation(op ir.ArithOp, left, right Shape) (Shape, error) {
	if left.List || right.List || !left.Value.IsNumeric() || !right.Value.IsNumeric() {
		return Shape{}, errUnsupportedOperands(op, left.Value, right.Value)
	}

	switch {
	case left.Value == schema.ValueTypeInteger && right.Value == schema.ValueTypeInteger:
		c.emit(Instruction{Op: OpIntegerArith, Arith: op})
		return single(schema.ValueTypeInteger), nil

	case left.Value == schema.ValueTypeInteger && right.Value == schema.ValueTypeDouble:
		c.emit(Instruction{Op: OpCastLeftIntegerToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeInteger && right.Value == schema.ValueTypeDecimal:
		if isAddSubMul(op) {
			c.emit(Instruction{Op: OpCastLeftIntegerToDecimal})
			c.emit(Instruction{Op: OpDecimalArith, Arith: op})
			return single(schema.ValueTypeDecimal), nil
		}
		c.emit(Instruction{Op: OpCastLeftIntegerToDouble})
		c.emit(Instruction{Op: OpCastRightDecimalToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeDouble && right.Value == schema.ValueTypeInteger:
		c.emit(Instruction{Op: OpCastRightIntegerToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeDouble && right.Value == schema.ValueTypeDouble:
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeDouble && right.Value == schema.ValueTypeDecimal:
		c.emit(Instruction{Op: OpCastRightDecimalToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeDecimal && right.Value == schema.ValueTypeInteger:
		if isAddSubMul(op) {
			c.emit(Instruction{Op: OpCastRightIntegerToDecimal})
			c.emit(Instruction{Op: OpDecimalArith, Arith: op})
			return single(schema.ValueTypeDecimal), nil
		}
		c.emit(Instruction{Op: OpCastLeftDecimalToDouble})
		c.emit(Instruction{Op: OpCastRightIntegerToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeDecimal && right.Value == schema.ValueTypeDouble:
		c.emit(Instruction{Op: OpCastLeftDecimalToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil

	case left.Value == schema.ValueTypeDecimal && right.Value == schema.ValueTypeDecimal:
		if isAddSubMul(op) {
			c.emit(Instruction{Op: OpDecimalArith, Arith: op})
			return single(schema.ValueTypeDecimal), nil
		}
		c.emit(Instruction{Op: OpCastBothToDouble})
		c.emit(Instruction{Op: OpDoubleArith, Arith: op})
		return single(schema.ValueTypeDouble), nil
	}

	return Shape{}, errUnsupportedOperands(op, left.Value, right.Value)
}

// compileBuiltIn compiles a unary math built-in. abs accepts any numeric
// category and preserves it; ceil/floor/round require Double.
func (c *compiler) compileBuiltIn(fn ir.BuiltIn, args []ir.ExprNodeID) (Shape, error) {
	if len(args) != 1 {
		return Shape{}, errUnsupportedBuiltinArgs(fn, schema.ValueTypeNone)
	}
	argShape, err := c.compileNode(args[0])
	if err != nil {
		return Shape{}, err
	}
	if argShape.List {
		return Shape{}, errUnsupportedBuiltinArgs(fn, argShape.Value)
	}

	switch fn {
	case ir.BuiltInAbs:
		if !argShape.Value.IsNumeric() {
			return Shape{}, errUnsupportedBuiltinArgs(fn, argShape.Value)
		}
		c.emit(Instruction{Op: OpBuiltInCall, BuiltIn: fn, Argc: 1})
		return single(argShape.Value), nil

	case ir.BuiltInCeil, ir.BuiltInFloor, ir.BuiltInRound:
		if argShape.Value != schema.ValueTypeDouble {
			return Shape{}, errUnsupportedBuiltinArgs(fn, argShape.Value)
		}
		c.emit(Instruction{Op: OpBuiltInCall, BuiltIn: fn, Argc: 1})
		return single(schema.ValueTypeDouble), nil

	default:
		return Shape{}, errUnsupportedBuiltinArgs(fn, argShape.Value)
	}
}

// compileListConstructor emits elements rightmost-first (spec.md §4.3),
// checking homogeneity across the declared element shapes.
func (c *compiler) compileListConstructor(elements []ir.ExprNodeID) (Shape, error) {
	if len(elements) == 0 {
		return Shape{}, errEmptyListCannotInferType()
	}

	var elemShape Shape
	for i := len(elements) - 1; i >= 0; i-- {
		shape, err := c.compileNode(elements[i])
		if err != nil {
			return Shape{}, err
		}
		if i == len(elements)-1 {
			elemShape = shape
		} else if shape != elemShape {
			return Shape{}, errHeterogeneousList()
		}
	}

	c.emit(Instruction{Op: OpListConstruct, Argc: len(elements)})
	return list(elemShape.Value), nil
}

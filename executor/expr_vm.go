package executor

import (
	"math"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/expression"
	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

// vmValue is one stack slot of the expression bytecode interpreter: a
// scalar concept.Value or a list of them. concept.Value/schema.ValueType
// has no native list representation (lists only exist as a Shape.List
// flag at compile time), so the interpreter needs this small wrapper the
// compiler's own type itself doesn't.
type vmValue struct {
	scalar concept.Value
	list   []concept.Value
	isList bool
}

// compiledExpressionFor returns tree's compiled bytecode, compiling (and
// caching on env.exprCache) on first use. ir.TypeAnnotations carries no
// schema.ValueType information (only TypeSet, schema-level type
// candidates), so variableTypes is inferred lazily from the first row
// that evaluates this tree: a variable's value type cannot vary row to
// row within one query, since annotation has already fixed its shape.
func compiledExpressionFor(tree *ir.ExpressionTree, row *Row, env *Environment) (*expression.Executable, error) {
	if exe, ok := env.exprCache[tree]; ok {
		return exe, nil
	}

	variableTypes := make(map[ir.VariableID]schema.ValueType)
	for _, v := range exprTreeVariables(tree) {
		b, ok := row.Get(v)
		if !ok || b.Empty {
			return nil, errUnresolvedVertex(ir.VariableVertex{Variable: v})
		}
		switch b.Category {
		case CategoryValue:
			variableTypes[v] = b.Value.Kind
		case CategoryInstance:
			if b.Value.Kind == schema.ValueTypeNone {
				return nil, errUnsupportedShape()
			}
			variableTypes[v] = b.Value.Kind
		default:
			return nil, errUnsupportedShape()
		}
	}

	exe, err := expression.Compile(tree, variableTypes, env.Params.ValueTypes())
	if err != nil {
		return nil, err
	}
	env.exprCache[tree] = exe
	return exe, nil
}

// exprTreeVariables walks tree for every distinct ir.ExprVariable node,
// mirroring planner's unexported exprVariables helper.
func exprTreeVariables(tree *ir.ExpressionTree) []ir.VariableID {
	seen := make(map[ir.VariableID]bool)
	var out []ir.VariableID
	for i := range tree.Nodes {
		n := tree.Nodes[i]
		if n.Kind == ir.ExprVariable && !seen[n.Variable] {
			seen[n.Variable] = true
			out = append(out, n.Variable)
		}
	}
	return out
}

// evalExpressionTree compiles (if needed) and runs tree against row.
func evalExpressionTree(tree *ir.ExpressionTree, row *Row, env *Environment) (vmValue, error) {
	exe, err := compiledExpressionFor(tree, row, env)
	if err != nil {
		return vmValue{}, err
	}
	return evalExecutable(exe, row, env)
}

// evalExecutable interprets exe's flat bytecode over a small value stack.
func evalExecutable(exe *expression.Executable, row *Row, env *Environment) (vmValue, error) {
	var stack []vmValue

	push := func(v vmValue) { stack = append(stack, v) }
	pop := func() (vmValue, error) {
		if len(stack) == 0 {
			return vmValue{}, errUnsupportedShape()
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	// castAt applies fn to the scalar depthFromTop positions below the
	// top of the stack (0 = top, i.e. the "Right" operand since right is
	// pushed after left; 1 = second-from-top, the "Left" operand).
	castAt := func(depthFromTop int, fn func(concept.Value) (concept.Value, error)) error {
		idx := len(stack) - 1 - depthFromTop
		if idx < 0 || stack[idx].isList {
			return errUnsupportedShape()
		}
		nv, err := fn(stack[idx].scalar)
		if err != nil {
			return err
		}
		stack[idx].scalar = nv
		return nil
	}

	for _, instr := range exe.Instructions {
		switch instr.Op {
		case expression.OpLoadConstant:
			pid := exe.Constants[instr.ConstantIndex]
			v, ok := env.Params.Get(pid)
			if !ok {
				return vmValue{}, errUnsupportedShape()
			}
			push(vmValue{scalar: v})

		case expression.OpLoadVariable:
			vid := exe.Variables[instr.VariableIndex]
			b, ok := row.Get(vid)
			if !ok || b.Empty {
				return vmValue{}, errUnresolvedVertex(ir.VariableVertex{Variable: vid})
			}
			switch b.Category {
			case CategoryValue:
				push(vmValue{scalar: b.Value})
			case CategoryValueList:
				push(vmValue{list: b.ValueList, isList: true})
			case CategoryInstance:
				if b.Value.Kind == schema.ValueTypeNone {
					return vmValue{}, errUnsupportedShape()
				}
				push(vmValue{scalar: b.Value})
			default:
				return vmValue{}, errUnsupportedShape()
			}

		case expression.OpCastLeftIntegerToDouble:
			if err := castAt(1, castIntegerToDouble); err != nil {
				return vmValue{}, err
			}
		case expression.OpCastRightIntegerToDouble:
			if err := castAt(0, castIntegerToDouble); err != nil {
				return vmValue{}, err
			}
		case expression.OpCastLeftIntegerToDecimal:
			if err := castAt(1, castIntegerToDecimal); err != nil {
				return vmValue{}, err
			}
		case expression.OpCastRightIntegerToDecimal:
			if err := castAt(0, castIntegerToDecimal); err != nil {
				return vmValue{}, err
			}
		case expression.OpCastLeftDecimalToDouble:
			if err := castAt(1, castDecimalToDouble); err != nil {
				return vmValue{}, err
			}
		case expression.OpCastRightDecimalToDouble:
			if err := castAt(0, castDecimalToDouble); err != nil {
				return vmValue{}, err
			}
		case expression.OpCastBothToDouble:
			if err := castAt(0, castDecimalToDouble); err != nil {
				return vmValue{}, err
			}
			if err := castAt(1, castDecimalToDouble); err != nil {
				return vmValue{}, err
			}

		case expression.OpIntegerArith:
			r, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			l, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			res, err := integerArith(instr.Arith, l.scalar.Integer, r.scalar.Integer)
			if err != nil {
				return vmValue{}, err
			}
			push(vmValue{scalar: concept.Integer(res)})

		case expression.OpDoubleArith:
			r, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			l, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			res, err := doubleArith(instr.Arith, l.scalar.Double, r.scalar.Double)
			if err != nil {
				return vmValue{}, err
			}
			push(vmValue{scalar: concept.Double(res)})

		case expression.OpDecimalArith:
			r, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			l, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			res, err := decimalArith(instr.Arith, l.scalar.Decimal, r.scalar.Decimal)
			if err != nil {
				return vmValue{}, err
			}
			push(vmValue{scalar: concept.DecimalValue(res)})

		case expression.OpBuiltInCall:
			v, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			res, err := evalBuiltIn(instr.BuiltIn, v.scalar)
			if err != nil {
				return vmValue{}, err
			}
			push(vmValue{scalar: res})

		case expression.OpListConstruct:
			elems := make([]concept.Value, instr.Argc)
			for i := 0; i < instr.Argc; i++ {
				v, err := pop()
				if err != nil {
					return vmValue{}, err
				}
				elems[i] = v.scalar
			}
			push(vmValue{list: elems, isList: true})

		case expression.OpListIndex:
			idxV, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			listV, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			idx := int(idxV.scalar.Integer)
			if idx < 0 || idx >= len(listV.list) {
				return vmValue{}, errListIndexOutOfRange(idx, len(listV.list))
			}
			push(vmValue{scalar: listV.list[idx]})

		case expression.OpListIndexRange:
			endV, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			startV, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			listV, err := pop()
			if err != nil {
				return vmValue{}, err
			}
			start, end := int(startV.scalar.Integer), int(endV.scalar.Integer)
			if start < 0 || end > len(listV.list) || start > end {
				return vmValue{}, errListIndexOutOfRange(start, len(listV.list))
			}
			push(vmValue{list: append([]concept.Value(nil), listV.list[start:end]...), isList: true})

		default:
			return vmValue{}, errUnsupportedShape()
		}
	}
	return pop()
}

func castIntegerToDouble(v concept.Value) (concept.Value, error) {
	return concept.Double(float64(v.Integer)), nil
}

func castIntegerToDecimal(v concept.Value) (concept.Value, error) {
	return concept.DecimalValue(concept.DecimalFromInt(v.Integer)), nil
}

func castDecimalToDouble(v concept.Value) (concept.Value, error) {
	return concept.Double(v.Decimal.Float64()), nil
}

func integerArith(op ir.ArithOp, l, r int64) (int64, error) {
	switch op {
	case ir.ArithAdd:
		v, ok := checkedAdd(l, r)
		if !ok {
			return 0, errArithmeticOverflow(op)
		}
		return v, nil
	case ir.ArithSub:
		v, ok := checkedSub(l, r)
		if !ok {
			return 0, errArithmeticOverflow(op)
		}
		return v, nil
	case ir.ArithMul:
		v, ok := checkedMul(l, r)
		if !ok {
			return 0, errArithmeticOverflow(op)
		}
		return v, nil
	case ir.ArithDiv:
		if r == 0 {
			return 0, errDivisionByZero()
		}
		return l / r, nil
	case ir.ArithMod:
		if r == 0 {
			return 0, errDivisionByZero()
		}
		return l % r, nil
	case ir.ArithPow:
		return integerPow(l, r)
	default:
		return 0, errUnsupportedShape()
	}
}

func integerPow(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, errUnsupportedShape()
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		v, ok := checkedMul(result, base)
		if !ok {
			return 0, errArithmeticOverflow(ir.ArithPow)
		}
		result = v
	}
	return result, nil
}

func checkedAdd(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, false
	}
	return r, true
}

func checkedSub(a, b int64) (int64, bool) {
	r := a - b
	if (b < 0 && r < a) || (b > 0 && r > a) {
		return 0, false
	}
	return r, true
}

func checkedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func doubleArith(op ir.ArithOp, l, r float64) (float64, error) {
	switch op {
	case ir.ArithAdd:
		return l + r, nil
	case ir.ArithSub:
		return l - r, nil
	case ir.ArithMul:
		return l * r, nil
	case ir.ArithDiv:
		if r == 0 {
			return 0, errDivisionByZero()
		}
		return l / r, nil
	case ir.ArithMod:
		if r == 0 {
			return 0, errDivisionByZero()
		}
		return math.Mod(l, r), nil
	case ir.ArithPow:
		return math.Pow(l, r), nil
	default:
		return 0, errUnsupportedShape()
	}
}

// decimalArith only ever sees Add/Sub/Mul: expression/compile.go's
// isAddSubMul gate routes every other arithmetic operator over Decimal
// operands through the Double-cast path instead, and concept.Decimal
// itself has no Div/Mod method.
func decimalArith(op ir.ArithOp, l, r concept.Decimal) (concept.Decimal, error) {
	switch op {
	case ir.ArithAdd:
		return l.Add(r), nil
	case ir.ArithSub:
		return l.Sub(r), nil
	case ir.ArithMul:
		return l.Mul(r), nil
	default:
		return concept.Decimal{}, errUnsupportedShape()
	}
}

func evalBuiltIn(fn ir.BuiltIn, v concept.Value) (concept.Value, error) {
	switch fn {
	case ir.BuiltInAbs:
		switch v.Kind {
		case schema.ValueTypeInteger:
			if v.Integer < 0 {
				return concept.Integer(-v.Integer), nil
			}
			return v, nil
		case schema.ValueTypeDouble:
			return concept.Double(math.Abs(v.Double)), nil
		case schema.ValueTypeDecimal:
			if v.Decimal.Whole < 0 {
				return concept.DecimalValue(concept.NewDecimal(-v.Decimal.Whole, -v.Decimal.Fractional)), nil
			}
			return v, nil
		default:
			return concept.Value{}, errUnsupportedShape()
		}
	case ir.BuiltInCeil:
		return concept.Double(math.Ceil(v.Double)), nil
	case ir.BuiltInFloor:
		return concept.Double(math.Floor(v.Double)), nil
	case ir.BuiltInRound:
		return concept.Double(math.Round(v.Double)), nil
	default:
		return concept.Value{}, errUnsupportedShape()
	}
}

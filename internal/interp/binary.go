package interp

import (
	"math"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/value"
)

// evalBinary implements spec §4.A's coercion rules: `+` is numeric
// addition for two Numbers, string concatenation (via shortest
// round-trip decimal) if either side is a String, else TypeMismatch;
// `==`/`!=` are structural across like types and always-unequal
// across kinds; the relational operators require two Numbers;
// `&&`/`||` short-circuit on the left operand's truthiness.
func (it *Interpreter) evalBinary(env *value.Env, n *ast.Binary) (value.Value, error) {
	if n.Op == "&&" || n.Op == "||" {
		return it.evalShortCircuit(env, n)
	}

	x, err := it.evalExpr(env, n.X)
	if err != nil {
		return value.Value{}, err
	}
	y, err := it.evalExpr(env, n.Y)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case "+":
		return evalAdd(n, x, y)
	case "-", "*", "/", "%":
		return evalArith(n, x, y)
	case "==":
		return value.Bool_(value.Equal(x, y)), nil
	case "!=":
		return value.Bool_(!value.Equal(x, y)), nil
	case "<", "<=", ">", ">=":
		return evalCompare(n, x, y)
	default:
		return value.Value{}, newErr(RuntimeAbort, errPos(n.At()), "unknown operator %q", n.Op)
	}
}

func (it *Interpreter) evalShortCircuit(env *value.Env, n *ast.Binary) (value.Value, error) {
	x, err := it.evalExpr(env, n.X)
	if err != nil {
		return value.Value{}, err
	}
	if n.Op == "&&" && !x.Truthy() {
		return value.Bool_(false), nil
	}
	if n.Op == "||" && x.Truthy() {
		return value.Bool_(true), nil
	}
	y, err := it.evalExpr(env, n.Y)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool_(y.Truthy()), nil
}

func evalAdd(n *ast.Binary, x, y value.Value) (value.Value, error) {
	if x.Kind == value.Number && y.Kind == value.Number {
		return value.Num(x.NumberValue() + y.NumberValue()), nil
	}
	if x.Kind == value.String || y.Kind == value.String {
		return value.Str(stringOf(x) + stringOf(y)), nil
	}
	return value.Value{}, newErr(TypeMismatch, errPos(n.At()), "+ requires two numbers or a string operand, got %s and %s", x.Kind, y.Kind)
}

func stringOf(v value.Value) string {
	if v.Kind == value.String {
		return v.StringValue()
	}
	if v.Kind == value.Number {
		return value.FormatNumber(v.NumberValue())
	}
	return v.String()
}

func evalArith(n *ast.Binary, x, y value.Value) (value.Value, error) {
	if x.Kind != value.Number || y.Kind != value.Number {
		return value.Value{}, newErr(TypeMismatch, errPos(n.At()), "%s requires two numbers, got %s and %s", n.Op, x.Kind, y.Kind)
	}
	a, b := x.NumberValue(), y.NumberValue()
	switch n.Op {
	case "-":
		return value.Num(a - b), nil
	case "*":
		return value.Num(a * b), nil
	case "/":
		return value.Num(a / b), nil
	case "%":
		return value.Num(math.Mod(a, b)), nil
	}
	panic("unreachable")
}

func evalCompare(n *ast.Binary, x, y value.Value) (value.Value, error) {
	if x.Kind != value.Number || y.Kind != value.Number {
		return value.Value{}, newErr(TypeMismatch, errPos(n.At()), "%s requires two numbers, got %s and %s", n.Op, x.Kind, y.Kind)
	}
	a, b := x.NumberValue(), y.NumberValue()
	switch n.Op {
	case "<":
		return value.Bool_(a < b), nil
	case "<=":
		return value.Bool_(a <= b), nil
	case ">":
		return value.Bool_(a > b), nil
	case ">=":
		return value.Bool_(a >= b), nil
	}
	panic("unreachable")
}

// Package value defines the dynamic value representation of the .km
// language (spec §3, §4.A): a small tagged variant, following the
// teacher's own preference for one tagged struct over a Go interface
// per variant (interp/interp.go's node.kind / itype.cat).
package value

import (
	"fmt"
	"strconv"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/keys"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	Void Kind = iota
	Number
	String
	Bool
	KeyLiteral
	KeySequence
	Function
	Builtin
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Number:
		return "number"
	case String:
		return "string"
	case Bool:
		return "bool"
	case KeyLiteral:
		return "key"
	case KeySequence:
		return "sequence"
	case Function:
		return "function"
	case Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Closure is a user-defined function: parameter names, AST body and
// the environment live at definition time, captured by reference so
// that assignments through an outer name mutate the outer binding
// (spec §3's closure-capture lifecycle).
type Closure struct {
	Params []string
	Body   *ast.Block
	Env    *Env
}

// NativeFunc is a builtin exposed to scripts (print, sleep, send, …).
// Equality between Values of kind Builtin is by pointer identity of
// the NativeFunc, matching spec §3's reference-identity rule.
type NativeFunc struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

// Value is the tagged variant shared by every expression result and
// every environment binding.
type Value struct {
	Kind Kind

	num float64
	str string
	b   bool

	key keys.Key
	seq keys.Sequence

	fn      *Closure
	builtin *NativeFunc
}

func Num(n float64) Value           { return Value{Kind: Number, num: n} }
func Str(s string) Value            { return Value{Kind: String, str: s} }
func Bool_(b bool) Value            { return Value{Kind: Bool, b: b} }
func VoidVal() Value                { return Value{Kind: Void} }
func KeyVal(k keys.Key) Value       { return Value{Kind: KeyLiteral, key: k} }
func SeqVal(s keys.Sequence) Value  { return Value{Kind: KeySequence, seq: s} }
func Func(c *Closure) Value         { return Value{Kind: Function, fn: c} }
func Native(n *NativeFunc) Value    { return Value{Kind: Builtin, builtin: n} }

func (v Value) NumberValue() float64     { return v.num }
func (v Value) StringValue() string      { return v.str }
func (v Value) BoolValue() bool          { return v.b }
func (v Value) KeyValue() keys.Key       { return v.key }
func (v Value) SeqValue() keys.Sequence  { return v.seq }
func (v Value) ClosureValue() *Closure   { return v.fn }
func (v Value) NativeValue() *NativeFunc { return v.builtin }

// Truthy implements the if-condition coercion rules of §4.A: Bool
// as-is, Number nonzero, String non-empty, Void always false, and
// everything else (functions, keys, sequences) always true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Bool:
		return v.b
	case Number:
		return v.num != 0
	case String:
		return v.str != ""
	case Void:
		return false
	default:
		return true
	}
}

// Equal implements §4.A equality: structural for scalars and strings,
// reference identity for functions and builtins, always-unequal across
// kinds, exact float comparison for numbers (no epsilon — see
// SPEC_FULL.md §9).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Void:
		return true
	case Number:
		return a.num == b.num
	case String:
		return a.str == b.str
	case Bool:
		return a.b == b.b
	case Function:
		return a.fn == b.fn
	case Builtin:
		return a.builtin == b.builtin
	case KeyLiteral:
		return a.key == b.key
	case KeySequence:
		return fmt.Sprintf("%v", a.seq) == fmt.Sprintf("%v", b.seq)
	default:
		return false
	}
}

// FormatNumber renders a Number using the shortest round-trip decimal
// form required by §4.A's string-concatenation coercion rule.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// String renders a Value the way print() shows it to the user.
func (v Value) String() string {
	switch v.Kind {
	case Void:
		return "void"
	case Number:
		return FormatNumber(v.num)
	case String:
		return v.str
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case KeyLiteral:
		return v.key.String()
	case KeySequence:
		return fmt.Sprintf("%v", v.seq)
	case Function:
		return "<function>"
	case Builtin:
		return fmt.Sprintf("<builtin %s>", v.builtin.Name)
	default:
		return "<?>"
	}
}

// Package interp is the tree-walking evaluator for .km programs (spec
// §4.D): expression evaluation, statement control flow, function
// calls, mapping-statement installation, and the builtin table (§6).
// It follows the teacher's direct recursive-evaluation style
// (interp/interp.go's node-walking Execute, not a bytecode VM).
package interp

import (
	"fmt"
	"io"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/mapping"
	"github.com/kmods/keymods/internal/value"
)

// Interpreter holds the root environment, the Mapping Table a mapping
// statement or map_key installs into (the direct Interpreter->Mapping
// Table edge in spec §2's data-flow diagram), and the Host used by the
// remaining side-effecting builtins.
type Interpreter struct {
	Global   *value.Env
	Mappings *mapping.Table
	Host     Host
	Stdout   io.Writer

	fuel int
}

// fuelInterval bounds how many statements a task runs before offering
// the scheduler a chance to preempt it (spec §4.H/§9: "fuel-based
// preemption of script blocks is required to avoid a runaway user
// block starving input").
const fuelInterval = 1000

// Yielder is implemented by a Host that wants a cooperative check-in
// point every fuelInterval statements. Optional: a Host that doesn't
// need it (e.g. a test double) simply isn't asked.
type Yielder interface {
	Yield()
}

// New creates an Interpreter with a fresh root Env, populating it with
// the builtin functions of spec §6 bound against host and tbl.
func New(tbl *mapping.Table, host Host, stdout io.Writer) *Interpreter {
	it := &Interpreter{Global: value.NewEnv(), Mappings: tbl, Host: host, Stdout: stdout}
	installBuiltins(it)
	return it
}

// Run evaluates every top-level statement of prog against the root
// environment, in order. A `return` at the top level is a runtime
// error (spec §4.D: "return outside a function is a runtime error").
func (it *Interpreter) Run(prog *ast.Program) error {
	for _, s := range prog.Stmts {
		_, returned, err := it.execStmt(it.Global, s)
		if err != nil {
			return err
		}
		if returned {
			return newErr(RuntimeAbort, errPos(s.At()), "return outside a function")
		}
	}
	return nil
}

// CallClosure invokes a user closure with the given arguments, per
// spec §4.D's function-call contract: arity checked, arguments bound
// left-to-right into a fresh child of the closure's captured Env.
// Exported so a Host implementation (the Task Runtime) can resume a
// suspended Block or invoke an on_window_change callback.
func (it *Interpreter) CallClosure(cl *value.Closure, args []value.Value) (value.Value, error) {
	if len(args) != len(cl.Params) {
		return value.Value{}, &Error{Kind: ArityError, Msg: fmt.Sprintf("expected %d argument(s), got %d", len(cl.Params), len(args))}
	}
	callEnv := cl.Env.Child()
	for i, p := range cl.Params {
		callEnv.Define(p, args[i])
	}
	for _, s := range cl.Body.Stmts {
		v, returned, err := it.execStmt(callEnv, s)
		if err != nil {
			return value.Value{}, err
		}
		if returned {
			return v, nil
		}
	}
	return value.VoidVal(), nil
}

// execStmt evaluates one statement, returning (value, returned, err).
// returned is true only for a `return` statement (or one nested
// directly inside a block/if/for reached via propagation); value then
// carries the Return's payload.
func (it *Interpreter) execStmt(env *value.Env, s ast.Stmt) (value.Value, bool, error) {
	it.fuel++
	if it.fuel%fuelInterval == 0 {
		if y, ok := it.Host.(Yielder); ok {
			y.Yield()
		}
	}

	switch n := s.(type) {
	case *ast.LetStmt:
		v, err := it.evalExpr(env, n.Init)
		if err != nil {
			return value.Value{}, false, err
		}
		env.Define(n.Name, v)
		return value.Value{}, false, nil

	case *ast.ExprStmt:
		_, err := it.evalExpr(env, n.X)
		return value.Value{}, false, err

	case *ast.Block:
		child := env.Child()
		for _, inner := range n.Stmts {
			v, returned, err := it.execStmt(child, inner)
			if err != nil || returned {
				return v, returned, err
			}
		}
		return value.Value{}, false, nil

	case *ast.IfStmt:
		cond, err := it.evalExpr(env, n.Cond)
		if err != nil {
			return value.Value{}, false, err
		}
		if cond.Truthy() {
			return it.execStmt(env, n.Then)
		}
		if n.Else != nil {
			return it.execStmt(env, n.Else)
		}
		return value.Value{}, false, nil

	case *ast.ForStmt:
		return it.execFor(env, n)

	case *ast.ReturnStmt:
		if n.Value == nil {
			return value.VoidVal(), true, nil
		}
		v, err := it.evalExpr(env, n.Value)
		if err != nil {
			return value.Value{}, false, err
		}
		return v, true, nil

	case *ast.MappingStmt:
		return value.Value{}, false, it.execMapping(env, n)

	default:
		return value.Value{}, false, newErr(RuntimeAbort, errPos(s.At()), "unhandled statement type %T", s)
	}
}

func (it *Interpreter) execFor(env *value.Env, n *ast.ForStmt) (value.Value, bool, error) {
	loopEnv := env.Child()
	if n.Init != nil {
		if _, _, err := it.execStmt(loopEnv, n.Init); err != nil {
			return value.Value{}, false, err
		}
	}
	for {
		if n.Cond != nil {
			cond, err := it.evalExpr(loopEnv, n.Cond)
			if err != nil {
				return value.Value{}, false, err
			}
			if !cond.Truthy() {
				return value.Value{}, false, nil
			}
		}
		v, returned, err := it.execStmt(loopEnv, n.Body)
		if err != nil || returned {
			return v, returned, err
		}
		if n.Post != nil {
			if _, _, err := it.execStmt(loopEnv, n.Post); err != nil {
				return value.Value{}, false, err
			}
		}
	}
}

func (it *Interpreter) evalExpr(env *value.Env, e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return value.Num(n.Value), nil
	case *ast.StringLit:
		return value.Str(n.Value), nil
	case *ast.KeyLitExpr:
		return value.KeyVal(keys.Key{Mods: n.Key.Mods, Code: n.Key.Code}), nil
	case *ast.Ident:
		v, ok := env.Get(n.Name)
		if !ok {
			return value.Value{}, newErr(UnboundVariable, errPos(n.At()), "undefined variable %q", n.Name)
		}
		return v, nil
	case *ast.Assign:
		v, err := it.evalExpr(env, n.Value)
		if err != nil {
			return value.Value{}, err
		}
		if !env.Assign(n.Name, v) {
			return value.Value{}, newErr(UnboundVariable, errPos(n.At()), "assignment to undefined variable %q", n.Name)
		}
		return v, nil
	case *ast.FuncLit:
		return value.Func(&value.Closure{Params: n.Params, Body: n.Body, Env: env}), nil
	case *ast.Unary:
		return it.evalUnary(env, n)
	case *ast.Binary:
		return it.evalBinary(env, n)
	case *ast.Call:
		return it.evalCall(env, n)
	default:
		return value.Value{}, newErr(RuntimeAbort, errPos(e.At()), "unhandled expression type %T", e)
	}
}

func (it *Interpreter) evalUnary(env *value.Env, n *ast.Unary) (value.Value, error) {
	x, err := it.evalExpr(env, n.X)
	if err != nil {
		return value.Value{}, err
	}
	if x.Kind != value.Number {
		return value.Value{}, newErr(TypeMismatch, errPos(n.At()), "unary - requires a number, got %s", x.Kind)
	}
	return value.Num(-x.NumberValue()), nil
}

func (it *Interpreter) evalCall(env *value.Env, n *ast.Call) (value.Value, error) {
	fnVal, err := it.evalExpr(env, n.Fn)
	if err != nil {
		return value.Value{}, err
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := it.evalExpr(env, a)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}
	switch fnVal.Kind {
	case value.Builtin:
		v, err := fnVal.NativeValue().Fn(args)
		if err != nil {
			return value.Value{}, wrapBuiltinErr(n, err)
		}
		return v, nil
	case value.Function:
		return it.CallClosure(fnVal.ClosureValue(), args)
	default:
		return value.Value{}, newErr(TypeMismatch, errPos(n.Fn.At()), "cannot call a %s value", fnVal.Kind)
	}
}

func wrapBuiltinErr(n *ast.Call, err error) error {
	if ie, ok := err.(*Error); ok && ie.Line == 0 && ie.Col == 0 {
		p := n.At()
		ie.Line, ie.Col = p.Line, p.Col
		return ie
	}
	return err
}

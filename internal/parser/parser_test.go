package parser

import (
	"testing"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/keys"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %v", src, err)
	}
	return prog
}

func TestParseBareChordMapping(t *testing.T) {
	prog := mustParse(t, "capslock::esc;")
	if len(prog.Stmts) != 1 {
		t.Fatalf("want 1 stmt, got %d", len(prog.Stmts))
	}
	m, ok := prog.Stmts[0].(*ast.MappingStmt)
	if !ok {
		t.Fatalf("want *ast.MappingStmt, got %T", prog.Stmts[0])
	}
	if m.LHS.Code != mustCode(t, "capslock") {
		t.Errorf("LHS code = %v", m.LHS.Code)
	}
	rhs, ok := m.RHS.(*ast.KeyLitExpr)
	if !ok {
		t.Fatalf("RHS want *ast.KeyLitExpr, got %T", m.RHS)
	}
	if rhs.Key.Code != mustCode(t, "esc") {
		t.Errorf("RHS code = %v", rhs.Key.Code)
	}
}

func TestParseFlaggedChordMapping(t *testing.T) {
	prog := mustParse(t, `!^a::"hi";`)
	m := prog.Stmts[0].(*ast.MappingStmt)
	if !m.LHS.Mods.Has(keys.ModAlt) || !m.LHS.Mods.Has(keys.ModCtrl) {
		t.Fatalf("want Alt+Ctrl mods, got %v", m.LHS.Mods)
	}
	rhs, ok := m.RHS.(*ast.StringLit)
	if !ok || rhs.Value != "hi" {
		t.Fatalf("RHS = %#v", m.RHS)
	}
}

func TestParseBlockMapping(t *testing.T) {
	prog := mustParse(t, `+a::{ print("shift-a"); };`)
	m := prog.Stmts[0].(*ast.MappingStmt)
	if !m.LHS.Mods.Has(keys.ModShift) {
		t.Fatalf("want Shift mod, got %v", m.LHS.Mods)
	}
	fn, ok := m.RHS.(*ast.FuncLit)
	if !ok {
		t.Fatalf("RHS want *ast.FuncLit, got %T", m.RHS)
	}
	if len(fn.Params) != 0 {
		t.Fatalf("block-form mapping action must have no params, got %v", fn.Params)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("want 1 stmt in block body, got %d", len(fn.Body.Stmts))
	}
}

func TestParseUnknownKeyNameFails(t *testing.T) {
	_, err := Parse("nosuchkey::esc;")
	if err == nil {
		t.Fatal("expected a ParseError for an unknown key name")
	}
}

func TestParseLetAndAssign(t *testing.T) {
	prog := mustParse(t, "let x = 1; x = x + 1;")
	if len(prog.Stmts) != 2 {
		t.Fatalf("want 2 stmts, got %d", len(prog.Stmts))
	}
	if _, ok := prog.Stmts[0].(*ast.LetStmt); !ok {
		t.Fatalf("stmt 0 want *ast.LetStmt, got %T", prog.Stmts[0])
	}
	es, ok := prog.Stmts[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("stmt 1 want *ast.ExprStmt, got %T", prog.Stmts[1])
	}
	assign, ok := es.X.(*ast.Assign)
	if !ok || assign.Name != "x" {
		t.Fatalf("stmt 1 want assignment to x, got %#v", es.X)
	}
}

func TestParseIfElseChain(t *testing.T) {
	prog := mustParse(t, `if (x == 1) { print("a"); } else if (x == 2) { print("b"); } else { print("c"); }`)
	top, ok := prog.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("want *ast.IfStmt, got %T", prog.Stmts[0])
	}
	mid, ok := top.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("else branch want chained *ast.IfStmt, got %T", top.Else)
	}
	if _, ok := mid.Else.(*ast.Block); !ok {
		t.Fatalf("final else want *ast.Block, got %T", mid.Else)
	}
}

func TestParseForLoop(t *testing.T) {
	prog := mustParse(t, `for (let i = 0; i < 3; i = i + 1) { print(i); }`)
	f, ok := prog.Stmts[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("want *ast.ForStmt, got %T", prog.Stmts[0])
	}
	if _, ok := f.Init.(*ast.LetStmt); !ok {
		t.Fatalf("Init want *ast.LetStmt, got %T", f.Init)
	}
	if f.Cond == nil {
		t.Fatal("Cond must not be nil")
	}
	if _, ok := f.Post.(*ast.ExprStmt); !ok {
		t.Fatalf("Post want *ast.ExprStmt, got %T", f.Post)
	}
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 == 7 parses as (1 + (2 * 3)) == 7, i.e. Binary(==) at
	// the root with a Binary(+) on the left.
	prog := mustParse(t, "let r = 1 + 2 * 3 == 7;")
	let := prog.Stmts[0].(*ast.LetStmt)
	eq, ok := let.Init.(*ast.Binary)
	if !ok || eq.Op != "==" {
		t.Fatalf("root want Binary(==), got %#v", let.Init)
	}
	add, ok := eq.X.(*ast.Binary)
	if !ok || add.Op != "+" {
		t.Fatalf("left of == want Binary(+), got %#v", eq.X)
	}
	mul, ok := add.Y.(*ast.Binary)
	if !ok || mul.Op != "*" {
		t.Fatalf("right of + want Binary(*), got %#v", add.Y)
	}
}

func TestParseLambdaArgument(t *testing.T) {
	prog := mustParse(t, `map_key("a", |ev| { send("b"); });`)
	call := prog.Stmts[0].(*ast.ExprStmt).X.(*ast.Call)
	if len(call.Args) != 2 {
		t.Fatalf("want 2 args, got %d", len(call.Args))
	}
	fn, ok := call.Args[1].(*ast.FuncLit)
	if !ok {
		t.Fatalf("second arg want *ast.FuncLit, got %T", call.Args[1])
	}
	if len(fn.Params) != 1 || fn.Params[0] != "ev" {
		t.Fatalf("want params [ev], got %v", fn.Params)
	}
}

func TestParseFlaggedKeyLiteralAsArgument(t *testing.T) {
	prog := mustParse(t, `map_key(^a, print);`)
	call := prog.Stmts[0].(*ast.ExprStmt).X.(*ast.Call)
	lit, ok := call.Args[0].(*ast.KeyLitExpr)
	if !ok {
		t.Fatalf("first arg want *ast.KeyLitExpr, got %T", call.Args[0])
	}
	if !lit.Key.Mods.Has(keys.ModCtrl) {
		t.Fatalf("want Ctrl mod, got %v", lit.Key.Mods)
	}
}

func TestParseUnterminatedBlockFails(t *testing.T) {
	_, err := Parse(`a::{ print("x");`)
	if err == nil {
		t.Fatal("expected a parse error for an unterminated block")
	}
}

func mustCode(t *testing.T, name string) keys.Code {
	t.Helper()
	c, ok := keys.CodeByName(name)
	if !ok {
		t.Fatalf("test setup: %q is not a known key name", name)
	}
	return c
}

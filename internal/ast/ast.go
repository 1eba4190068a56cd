// Package ast defines the .km abstract syntax tree produced by the
// parser (spec §4.C) and walked by the interpreter (spec §4.D). Nodes
// are small concrete structs per production, in the spirit of a
// conventional recursive-descent front end; the teacher's own node
// type is a single mega-struct shared by every kind (interp.go's
// node), but that design exists there to host a combined AST+CFG
// representation for a full static type checker, which spec.md
// explicitly excludes (“a type checker” is a Non-goal) — so this
// front end uses one type per production instead, which is the
// idiomatic shape for a tree-walking interpreter without a compile
// pass.
package ast

import "github.com/kmods/keymods/internal/keys"

// Pos is a source location, used for ParseError/runtime diagnostics.
// Embedding it anonymously in every node gives that node an At()
// method for free and lets callers set it by name in a composite
// literal (`ast.LetStmt{Pos: ast.Pos{...}, ...}`).
type Pos struct {
	Line, Col int
}

func (p Pos) At() Pos { return p }

// Node is implemented by every statement and expression node.
type Node interface {
	At() Pos
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// stmtTag and exprTag are zero-size marker embeds; callers never need
// to name them in a composite literal since they carry no data.
type stmtTag struct{}

func (stmtTag) stmt() {}

type exprTag struct{}

func (exprTag) expr() {}

// Program is the top-level parse result: a sequence of statements.
type Program struct {
	Pos
	Stmts []Stmt
}

// ---- Statements ----

// LetStmt is `let IDENT = expr ;`.
type LetStmt struct {
	Pos
	stmtTag
	Name string
	Init Expr
}

// ExprStmt wraps an expression used as a statement. Bare assignment
// `x = v ;` (spec §4.A: fails UnboundVariable if x has no existing
// binding) parses to an ExprStmt wrapping an *Assign expression, since
// the grammar's `expr := assignment | lambda | logicOr` makes
// assignment an expression form rather than a distinct statement.
type ExprStmt struct {
	Pos
	stmtTag
	X Expr
}

// Block is `{ stmt* }`.
type Block struct {
	Pos
	stmtTag
	Stmts []Stmt
}

// IfStmt is `if (cond) block (else (if|block))?`.
type IfStmt struct {
	Pos
	stmtTag
	Cond Expr
	Then *Block
	// Else holds either *Block or *IfStmt (else-if chaining), nil if absent.
	Else Stmt
}

// ForStmt is `for (init?; cond?; post?) block`. Init and Post are
// statements (§9 open-question resolution: for's third clause is a
// statement, not an expression).
type ForStmt struct {
	Pos
	stmtTag
	Init Stmt
	Cond Expr
	Post Stmt
	Body *Block
}

// ReturnStmt is `return expr? ;`.
type ReturnStmt struct {
	Pos
	stmtTag
	Value Expr // nil if bare `return;`
}

// MappingStmt is the `chord :: (chord | string | block) ;` form (§4.C,
// §4.D). RHS is exactly one of *KeyLitExpr, *StringLit, or *FuncLit
// (block form, Params empty).
type MappingStmt struct {
	Pos
	stmtTag
	LHS KeyLit
	RHS Expr
}

// ---- Expressions ----

// KeyLit is the parsed form of a key-literal token: modifier flags
// plus a key name (spec §3's Key, pre-resolution is done by the
// parser against the keys package).
type KeyLit struct {
	Mods keys.ModifierSet
	Code keys.Code
}

// KeyLitExpr wraps a KeyLit so it can appear as an expression (RHS of
// a mapping, or a map_key argument).
type KeyLitExpr struct {
	Pos
	exprTag
	Key KeyLit
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Pos
	exprTag
	Value float64
}

// StringLit is a double-quoted string literal; sequence-bracket
// markers `{...}` are retained verbatim in Value for later expansion
// by the interpreter (spec §4.B/§4.D).
type StringLit struct {
	Pos
	exprTag
	Value string
}

// Ident is a variable reference.
type Ident struct {
	Pos
	exprTag
	Name string
}

// Unary is a unary prefix expression (`-x`).
type Unary struct {
	Pos
	exprTag
	Op string
	X  Expr
}

// Binary is a binary infix expression at any precedence level.
type Binary struct {
	Pos
	exprTag
	Op   string
	X, Y Expr
}

// Call is a function/builtin invocation.
type Call struct {
	Pos
	exprTag
	Fn   Expr
	Args []Expr
}

// FuncLit is `|params| block`, also reused (with Params == nil) to
// represent a mapping's `::{...}` block action body.
type FuncLit struct {
	Pos
	exprTag
	Params []string
	Body   *Block
}

// Assign is `IDENT = expr`, the lowest-precedence expression form
// (spec's `expr := assignment | lambda | logicOr`). It fails
// UnboundVariable at eval time if Name has no existing binding in any
// enclosing scope (spec §3: bare assignment never creates a binding).
type Assign struct {
	Pos
	exprTag
	Name  string
	Value Expr
}

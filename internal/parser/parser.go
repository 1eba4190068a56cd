// Package parser turns a .km token stream into an AST (spec §4.C),
// including the `LHS::RHS` mapping-statement form. It is a
// hand-written recursive-descent parser with two-token lookahead,
// matching the teacher's preference for straightforward, explicit
// control flow over parser-generator machinery.
package parser

import (
	"fmt"
	"strconv"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/lexer"
)

// Error is a ParseError{line, col, msg} per spec §4.C. Parsing halts
// on the first one.
type Error struct {
	Line, Col int
	Msg       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parser consumes a Lexer and produces a *ast.Program.
type Parser struct {
	lex    *lexer.Lexer
	cur    lexer.Token
	peek   lexer.Token
	lexErr error
}

// New creates a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil && p.lexErr == nil {
		p.lexErr = err
	}
	p.peek = tok
}

func pos(t lexer.Token) ast.Pos { return ast.Pos{Line: t.Line, Col: t.Col} }

func (p *Parser) errorf(t lexer.Token, format string, args ...interface{}) error {
	return &Error{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errorf(p.cur, "expected %v, found %v", k, p.cur.Kind)
	}
	t := p.cur
	p.advance()
	return t, nil
}

// Parse runs the parser to completion, returning the first error
// encountered (lexical or syntactic) — parsing halts immediately, it
// never tries to recover and keep collecting further errors.
func Parse(src string) (*ast.Program, error) {
	p := New(src)
	if p.lexErr != nil {
		return nil, p.lexErr
	}
	prog := &ast.Program{}
	for p.cur.Kind != lexer.EOF {
		if p.lexErr != nil {
			return nil, p.lexErr
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur.Kind {
	case lexer.KwLet:
		return p.parseLet()
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.LBrace:
		return p.parseBlock()
	case lexer.Caret, lexer.Bang, lexer.Hash, lexer.Plus:
		return p.parseMappingFromChord()
	case lexer.Ident:
		if p.peek.Kind == lexer.ColonColon {
			return p.parseMappingFromChord()
		}
		if p.peek.Kind == lexer.Assign {
			return p.parseAssignStmt()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLet() (ast.Stmt, error) {
	start := p.cur
	p.advance() // 'let'
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Lit, Init: val, Pos: pos(start)}, nil
}

func (p *Parser) parseAssignStmt() (ast.Stmt, error) {
	start := p.cur
	name := p.cur
	p.advance() // ident
	p.advance() // '='
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: &ast.Assign{Name: name.Lit, Value: val, Pos: pos(start)}, Pos: pos(start)}, nil
}

func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	start := p.cur
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x, Pos: pos(start)}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	start := p.cur
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	b := &ast.Block{Pos: pos(start)}
	for p.cur.Kind != lexer.RBrace {
		if p.cur.Kind == lexer.EOF {
			return nil, p.errorf(p.cur, "unterminated block, expected '}'")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	p.advance() // '}'
	return b, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.cur
	p.advance() // 'if'
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then, Pos: pos(start)}
	if p.cur.Kind == lexer.KwElse {
		p.advance()
		if p.cur.Kind == lexer.KwIf {
			elseStmt, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseStmt
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	return stmt, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.cur
	p.advance() // 'for'
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var initStmt, postStmt ast.Stmt
	var cond ast.Expr
	var err error

	if p.cur.Kind != lexer.Semi {
		initStmt, err = p.parseForClauseStmt()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}

	if p.cur.Kind != lexer.Semi {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}

	if p.cur.Kind != lexer.RParen {
		postStmt, err = p.parseForClauseStmt()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: initStmt, Cond: cond, Post: postStmt, Body: body, Pos: pos(start)}, nil
}

// parseForClauseStmt parses a bare let/assignment/expression used
// inside a for-header's init or post clause, without consuming a
// trailing ';' — the caller owns the header's semicolons.
func (p *Parser) parseForClauseStmt() (ast.Stmt, error) {
	start := p.cur
	if p.cur.Kind == lexer.KwLet {
		p.advance()
		name, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Assign); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.LetStmt{Name: name.Lit, Init: val, Pos: pos(start)}, nil
	}
	if p.cur.Kind == lexer.Ident && p.peek.Kind == lexer.Assign {
		name := p.cur
		p.advance()
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: &ast.Assign{Name: name.Lit, Value: val, Pos: pos(start)}, Pos: pos(start)}, nil
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x, Pos: pos(start)}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.cur
	p.advance() // 'return'
	r := &ast.ReturnStmt{Pos: pos(start)}
	if p.cur.Kind != lexer.Semi {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		r.Value = v
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return r, nil
}

// ---- mapping statement ----

func (p *Parser) parseMappingFromChord() (ast.Stmt, error) {
	start := p.cur
	lhs, err := p.parseChord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ColonColon); err != nil {
		return nil, err
	}
	rhs, err := p.parseMappingRHS()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semi); err != nil {
		return nil, err
	}
	return &ast.MappingStmt{LHS: lhs, RHS: rhs, Pos: pos(start)}, nil
}

// parseChord consumes MODFLAGS? keyIdent (spec's `chord` production).
func (p *Parser) parseChord() (ast.KeyLit, error) {
	var mods keys.ModifierSet
	for {
		switch p.cur.Kind {
		case lexer.Caret:
			mods = mods.With(keys.ModCtrl)
			p.advance()
		case lexer.Plus:
			mods = mods.With(keys.ModShift)
			p.advance()
		case lexer.Bang:
			mods = mods.With(keys.ModAlt)
			p.advance()
		case lexer.Hash:
			mods = mods.With(keys.ModMeta)
			p.advance()
		default:
			goto flagsDone
		}
	}
flagsDone:
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.KeyLit{}, err
	}
	code, ok := keys.CodeByName(name.Lit)
	if !ok {
		return ast.KeyLit{}, &Error{Line: name.Line, Col: name.Col, Msg: fmt.Sprintf("unknown key name %q", name.Lit)}
	}
	return ast.KeyLit{Mods: mods, Code: code}, nil
}

// parseMappingRHS parses the `(chord | string | block)` alternative.
func (p *Parser) parseMappingRHS() (ast.Expr, error) {
	start := p.cur
	switch p.cur.Kind {
	case lexer.LBrace:
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.FuncLit{Params: nil, Body: body, Pos: pos(start)}, nil
	case lexer.String:
		lit := p.cur
		p.advance()
		return &ast.StringLit{Value: lit.Lit, Pos: pos(lit)}, nil
	default:
		k, err := p.parseChord()
		if err != nil {
			return nil, err
		}
		return &ast.KeyLitExpr{Key: k, Pos: pos(start)}, nil
	}
}

// ---- expressions ----

func (p *Parser) parseExpr() (ast.Expr, error) {
	if p.cur.Kind == lexer.Ident && p.peek.Kind == lexer.Assign {
		start := p.cur
		name := p.cur
		p.advance()
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Name: name.Lit, Value: val, Pos: pos(start)}, nil
	}
	if p.cur.Kind == lexer.Pipe || p.cur.Kind == lexer.OrOr {
		return p.parseLambda()
	}
	return p.parseLogicOr()
}

func (p *Parser) parseLambda() (ast.Expr, error) {
	start := p.cur
	if p.cur.Kind == lexer.OrOr {
		// `||` is lexed as one token; here it is an empty parameter list.
		p.advance()
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.FuncLit{Params: nil, Body: body, Pos: pos(start)}, nil
	}
	p.advance() // '|'
	var params []string
	for p.cur.Kind != lexer.Pipe {
		name, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, name.Lit)
		if p.cur.Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.Pipe); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncLit{Params: params, Body: body, Pos: pos(start)}, nil
}

func (p *Parser) parseLogicOr() (ast.Expr, error) { return p.parseBinary(0) }

// levels holds the precedence-climbing chain low -> high: || , && ,
// ==/!= , </<=/>/>= , +/- , * / %, per spec §4.C's precedence table.
// parseBinary bottoms out into parseUnary once it runs off the end.
var levels = []map[lexer.Kind]string{
	{lexer.OrOr: "||"},
	{lexer.AndAnd: "&&"},
	{lexer.Eq: "==", lexer.NotEq: "!="},
	{lexer.Lt: "<", lexer.LtEq: "<=", lexer.Gt: ">", lexer.GtEq: ">="},
	{lexer.Plus: "+", lexer.Minus: "-"},
	{lexer.Star: "*", lexer.Slash: "/", lexer.Percent: "%"},
}

func (p *Parser) parseBinary(level int) (ast.Expr, error) {
	if level >= len(levels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := levels[level][p.cur.Kind]
		if !ok {
			return left, nil
		}
		opTok := p.cur
		p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, X: left, Y: right, Pos: pos(opTok)}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind == lexer.Minus {
		start := p.cur
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: "-", X: x, Pos: pos(start)}, nil
	}
	return p.parseCall()
}

func (p *Parser) parseCall() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.LParen {
		start := p.cur
		p.advance()
		var args []ast.Expr
		for p.cur.Kind != lexer.RParen {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.cur.Kind == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		x = &ast.Call{Fn: x, Args: args, Pos: pos(start)}
	}
	return x, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	start := p.cur
	switch p.cur.Kind {
	case lexer.Number:
		n, err := strconv.ParseFloat(p.cur.Lit, 64)
		if err != nil {
			return nil, p.errorf(p.cur, "invalid number literal %q", p.cur.Lit)
		}
		p.advance()
		return &ast.NumberLit{Value: n, Pos: pos(start)}, nil
	case lexer.String:
		lit := p.cur
		p.advance()
		return &ast.StringLit{Value: lit.Lit, Pos: pos(lit)}, nil
	case lexer.Ident:
		p.advance()
		return &ast.Ident{Name: start.Lit, Pos: pos(start)}, nil
	case lexer.LParen:
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return x, nil
	case lexer.Pipe:
		return p.parseLambda()
	case lexer.Caret, lexer.Bang, lexer.Hash, lexer.Plus:
		k, err := p.parseChord()
		if err != nil {
			return nil, err
		}
		return &ast.KeyLitExpr{Key: k, Pos: pos(start)}, nil
	default:
		return nil, p.errorf(p.cur, "unexpected token %v in expression", p.cur.Kind)
	}
}

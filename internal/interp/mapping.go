package interp

import (
	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/mapping"
	"github.com/kmods/keymods/internal/value"
)

// execMapping evaluates a top-level `LHS :: RHS ;` statement (spec
// §4.D): the LHS is already a resolved ast.KeyLit (the parser rejected
// unknown key names), and the RHS form selects the installed Action.
func (it *Interpreter) execMapping(env *value.Env, n *ast.MappingStmt) error {
	action, err := it.rhsAction(env, n.RHS)
	if err != nil {
		return err
	}
	it.Mappings.InstallShorthand(n.LHS.Mods, n.LHS.Code, action)
	return nil
}

// rhsAction turns a mapping RHS expression into a mapping.Action:
// bare chord -> EmitKey, string literal -> EmitSeq (sequence parsed
// eagerly so a malformed sequence fails at mapping-install time, not
// lazily at first trigger), block -> Block (closure captures env, the
// environment live when the `::` statement ran).
func (it *Interpreter) rhsAction(env *value.Env, rhs ast.Expr) (mapping.Action, error) {
	switch n := rhs.(type) {
	case *ast.KeyLitExpr:
		return mapping.Action{Kind: mapping.EmitKey, Mods: n.Key.Mods, Code: n.Key.Code}, nil
	case *ast.StringLit:
		seq, err := keys.ParseSequence(n.Value)
		if err != nil {
			return mapping.Action{}, newErr(BadKeyName, errPos(n.At()), "%s", err)
		}
		return mapping.Action{Kind: mapping.EmitSeq, Seq: seq}, nil
	case *ast.FuncLit:
		return mapping.Action{Kind: mapping.Block, Closure: &value.Closure{Params: n.Params, Body: n.Body, Env: env}}, nil
	default:
		return mapping.Action{}, newErr(RuntimeAbort, errPos(rhs.At()), "unsupported mapping RHS %T", rhs)
	}
}

// triggerToChordTemplate resolves a map_key trigger Value (KeyLiteral
// or String) to the (mods, code) pair installed under all three
// states, per spec §6's map_key contract ("string triggers are parsed
// as chords").
func triggerToChordTemplate(v value.Value) (keys.ModifierSet, keys.Code, error) {
	switch v.Kind {
	case value.KeyLiteral:
		k := v.KeyValue()
		return k.Mods, k.Code, nil
	case value.String:
		mods, code, err := parseChordString(v.StringValue())
		if err != nil {
			return 0, 0, err
		}
		return mods, code, nil
	default:
		return 0, 0, newErr(BadArgument, errPos{}, "map_key trigger must be a key literal or string, got %s", v.Kind)
	}
}

// parseChordString parses a trigger string like "!^a" (leading flag
// characters `^ + ! #` followed by a bare key name) the same way the
// parser recognizes a chord token, for the runtime map_key path.
func parseChordString(s string) (keys.ModifierSet, keys.Code, error) {
	var mods keys.ModifierSet
	i := 0
	for i < len(s) {
		switch s[i] {
		case '^':
			mods = mods.With(keys.ModCtrl)
		case '+':
			mods = mods.With(keys.ModShift)
		case '!':
			mods = mods.With(keys.ModAlt)
		case '#':
			mods = mods.With(keys.ModMeta)
		default:
			goto flagsDone
		}
		i++
	}
flagsDone:
	name := s[i:]
	code, ok := keys.CodeByName(name)
	if !ok {
		return 0, 0, newErr(BadKeyName, errPos{}, "unknown key name %q", name)
	}
	return mods, code, nil
}

package value

// Env is a lexical scope: a mapping from identifier to Value, plus a
// link to its enclosing scope (spec §3/§4.A). Closures hold a pointer
// to the Env live at their definition site; because Go already gives
// us shared, GC-tracked ownership through pointers, representing
// parent links as *Env (rather than an arena+index scheme) is
// sufficient even when a closure is stored back into its own defining
// scope — the cycle is just an ordinary Go pointer cycle, which the
// garbage collector handles natively (spec §9 calls this out as a
// target-language decision; Go's tracing GC means no special
// weak-reference or arena engineering is required here).
type Env struct {
	vars   map[string]Value
	parent *Env
}

// NewEnv creates a root environment with no parent.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Value)}
}

// Child creates a new scope nested under e.
func (e *Env) Child() *Env {
	return &Env{vars: make(map[string]Value), parent: e}
}

// Get looks up name in e and its ancestors, innermost first.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Define introduces a new binding in e itself, shadowing any binding
// of the same name in an enclosing scope (spec §4.A: "define in a
// child shadows the parent").
func (e *Env) Define(name string, v Value) {
	e.vars[name] = v
}

// Assign updates the nearest enclosing binding of name. It reports
// false (UnboundVariable, per spec §3) if no such binding exists
// anywhere in the chain; it never creates a new binding.
func (e *Env) Assign(name string, v Value) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

package interp

import (
	"bytes"
	"testing"

	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/mapping"
	"github.com/kmods/keymods/internal/parser"
	"github.com/kmods/keymods/internal/value"
)

// fakeHost is a minimal Host for tests that don't exercise device/
// window/process concerns.
type fakeHost struct {
	slept      []float64
	windowCBs  []*value.Closure
	sent       []string
	exitCalled bool
	exitCode   int
}

func (h *fakeHost) Sleep(ms float64)             { h.slept = append(h.slept, ms) }
func (h *fakeHost) OnWindowChange(cb *value.Closure) { h.windowCBs = append(h.windowCBs, cb) }
func (h *fakeHost) ActiveWindowClass() (string, bool) { return "", false }
func (h *fakeHost) Send(seq string) error        { h.sent = append(h.sent, seq); return nil }
func (h *fakeHost) Execute(cmd string, args []string) (string, bool) { return "", false }
func (h *fakeHost) Exit(code int)                { h.exitCalled, h.exitCode = true, code }

func run(t *testing.T, src string) (*Interpreter, *bytes.Buffer, *fakeHost) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var out bytes.Buffer
	host := &fakeHost{}
	it := New(mapping.New(), host, &out)
	if err := it.Run(prog); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return it, &out, host
}

func TestClosureCall(t *testing.T) {
	_, out, _ := run(t, `let s = |a,b|{ return a+b; }; print(s(1,2));`)
	if got := out.String(); got != "3\n" {
		t.Fatalf("stdout = %q, want %q", got, "3\n")
	}
}

func TestClosureCapturesLiveBinding(t *testing.T) {
	_, out, _ := run(t, `
		let x = 1;
		let f = || { return x; };
		x = 99;
		print(f());
	`)
	if got := out.String(); got != "99\n" {
		t.Fatalf("stdout = %q, want %q", got, "99\n")
	}
}

func TestAssignToUndefinedFails(t *testing.T) {
	prog, err := parser.Parse(`x = 1;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	it := New(mapping.New(), &fakeHost{}, &bytes.Buffer{})
	err = it.Run(prog)
	if err == nil {
		t.Fatal("expected UnboundVariable error")
	}
	ie, ok := err.(*Error)
	if !ok || ie.Kind != UnboundVariable {
		t.Fatalf("want *Error{Kind: UnboundVariable}, got %#v", err)
	}
}

func TestStringNumberConcatenation(t *testing.T) {
	_, out, _ := run(t, `print("n=" + 3);`)
	if got := out.String(); got != "n=3\n" {
		t.Fatalf("stdout = %q, want %q", got, "n=3\n")
	}
}

func TestTypeMismatchOnArithmeticWithString(t *testing.T) {
	prog, _ := parser.Parse(`let x = "a" - 1;`)
	it := New(mapping.New(), &fakeHost{}, &bytes.Buffer{})
	err := it.Run(prog)
	ie, ok := err.(*Error)
	if !ok || ie.Kind != TypeMismatch {
		t.Fatalf("want TypeMismatch, got %#v", err)
	}
}

func TestIfElseChain(t *testing.T) {
	_, out, _ := run(t, `
		let x = 2;
		if (x == 1) { print("one"); } else if (x == 2) { print("two"); } else { print("other"); }
	`)
	if got := out.String(); got != "two\n" {
		t.Fatalf("stdout = %q, want %q", got, "two\n")
	}
}

func TestForLoop(t *testing.T) {
	_, out, _ := run(t, `
		let total = 0;
		for (let i = 0; i < 4; i = i + 1) { total = total + i; }
		print(total);
	`)
	if got := out.String(); got != "6\n" {
		t.Fatalf("stdout = %q, want %q", got, "6\n")
	}
}

func TestMappingStmtInstallsShorthand(t *testing.T) {
	prog, err := parser.Parse(`a::b;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tbl := mapping.New()
	it := New(tbl, &fakeHost{}, &bytes.Buffer{})
	if err := it.Run(prog); err != nil {
		t.Fatalf("run error: %v", err)
	}
	tbl.Flush()
	for _, s := range []keys.State{keys.Down, keys.Up, keys.Repeat} {
		act, ok := tbl.Lookup(keys.Chord{Code: keys.KeyA, State: s})
		if !ok {
			t.Fatalf("missing entry for state %v", s)
		}
		if act.Kind != mapping.EmitKey || act.Code != keys.KeyB {
			t.Fatalf("state %v action = %+v, want EmitKey(KeyB)", s, act)
		}
	}
}

func TestMappingBlockCapturesEnv(t *testing.T) {
	prog, err := parser.Parse(`
		let n = 5;
		a::{ print(n); };
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tbl := mapping.New()
	it := New(tbl, &fakeHost{}, &bytes.Buffer{})
	if err := it.Run(prog); err != nil {
		t.Fatalf("run error: %v", err)
	}
	tbl.Flush()
	act, ok := tbl.Lookup(keys.Chord{Code: keys.KeyA, State: keys.Down})
	if !ok || act.Kind != mapping.Block {
		t.Fatalf("want a Block action, got %+v (ok=%v)", act, ok)
	}
	var out bytes.Buffer
	it.Stdout = &out
	if _, err := it.CallClosure(act.Closure, nil); err != nil {
		t.Fatalf("CallClosure error: %v", err)
	}
	if got := out.String(); got != "5\n" {
		t.Fatalf("stdout = %q, want %q", got, "5\n")
	}
}

func TestMapKeyBuiltinWithStringTrigger(t *testing.T) {
	prog, err := parser.Parse(`map_key("^a", || { print("ctrl-a"); });`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tbl := mapping.New()
	it := New(tbl, &fakeHost{}, &bytes.Buffer{})
	if err := it.Run(prog); err != nil {
		t.Fatalf("run error: %v", err)
	}
	tbl.Flush()
	act, ok := tbl.Lookup(keys.Chord{Mods: keys.ModifierSet(0).With(keys.ModCtrl), Code: keys.KeyA, State: keys.Down})
	if !ok || act.Kind != mapping.Block {
		t.Fatalf("want Ctrl+A down mapped to a Block action, got %+v (ok=%v)", act, ok)
	}
}

func TestArityErrorOnClosureCall(t *testing.T) {
	prog, _ := parser.Parse(`let f = |a|{ return a; }; f(1,2);`)
	it := New(mapping.New(), &fakeHost{}, &bytes.Buffer{})
	err := it.Run(prog)
	ie, ok := err.(*Error)
	if !ok || ie.Kind != ArityError {
		t.Fatalf("want ArityError, got %#v", err)
	}
}

func TestSendAndSleepCallHost(t *testing.T) {
	_, _, host := run(t, `send("hi"); sleep(25);`)
	if len(host.sent) != 1 || host.sent[0] != "hi" {
		t.Fatalf("host.sent = %v", host.sent)
	}
	if len(host.slept) != 1 || host.slept[0] != 25 {
		t.Fatalf("host.slept = %v", host.slept)
	}
}

func TestNumberToCharAndBack(t *testing.T) {
	_, out, _ := run(t, `print(number_to_char(65)); print(char_to_number("A"));`)
	if got := out.String(); got != "A\n65\n" {
		t.Fatalf("stdout = %q, want %q", got, "A\n65\n")
	}
}

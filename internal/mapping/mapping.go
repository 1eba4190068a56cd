// Package mapping is the Mapping Table (spec §4.F): an indexed store
// of (chord -> action) bindings, installed either statically by a
// script's top-level `::` statements or dynamically by the map_key
// builtin (spec §9: both paths share one mechanism and replace an
// existing binding silently). Grounded on the teacher's preference for
// a plain map guarded by a mutex over a generated/reflective
// collection type (interp/interp.go's scope.sym is the same shape:
// map[string]*symbol behind a lock).
package mapping

import (
	"sync"

	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/value"
)

// ActionKind tags the variant of an installed Action (spec §3).
type ActionKind uint8

const (
	// EmitKey re-emits (Mods, Code) at whatever State the triggering
	// Chord carried — the per-state template behind the `a::b` bare-
	// chord shorthand (scenario 2: a Down trigger emits a Down b, an
	// Up trigger emits an Up b).
	EmitKey ActionKind = iota
	// EmitSeq emits the full parsed Sequence every time any of the
	// shorthand's three triggering states fires, for the `a::"..."`
	// string-literal RHS form.
	EmitSeq
	// Block spawns a task running Closure, for the `a::{...}` form.
	Block
)

// Action is what a matched Chord causes the Router to do.
type Action struct {
	Kind    ActionKind
	Mods    keys.ModifierSet
	Code    keys.Code
	Seq     keys.Sequence
	Closure *value.Closure
}

type pendingOp struct {
	remove bool
	chord  keys.Chord
	action Action
}

// Table is the concrete Mapping Table: a map keyed by the fixed-size
// Chord struct. Installs queue as pending ops rather than mutating the
// live map directly; Flush applies them. The Router calls Flush once
// per processed event, before that event's own lookup, so anything
// queued — the script's initial top-level `::` installs, or a prior
// event's Block action calling map_key — becomes live in time for this
// event but nothing installed during this event's own dispatch can
// affect it. That is what gives reentrant installs "next event onward,
// never mid-dispatch" semantics (spec §4.F's reentrancy invariant, §9's
// buffering note).
type Table struct {
	mu      sync.Mutex
	live    map[keys.Chord]Action
	pending []pendingOp
}

// New creates an empty Mapping Table.
func New() *Table {
	return &Table{live: make(map[keys.Chord]Action)}
}

// Install queues a single (chord, action) binding, overwriting
// silently on Flush.
func (t *Table) Install(chord keys.Chord, action Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, pendingOp{chord: chord, action: action})
}

// InstallShorthand queues the same Action under the Down, Up and
// Repeat states of (mods, code) — the three-entries-as-a-unit
// invariant of spec §3/§4.F.
func (t *Table) InstallShorthand(mods keys.ModifierSet, code keys.Code, action Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range []keys.State{keys.Down, keys.Up, keys.Repeat} {
		t.pending = append(t.pending, pendingOp{chord: keys.Chord{Mods: mods, Code: code, State: s}, action: action})
	}
}

// Remove queues removal of a single chord's binding.
func (t *Table) Remove(chord keys.Chord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, pendingOp{remove: true, chord: chord})
}

// Lookup returns the Action bound to chord, if any. It only ever
// observes the live map, never pending (unflushed) installs.
func (t *Table) Lookup(chord keys.Chord) (Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.live[chord]
	return a, ok
}

// Flush applies all queued installs/removals to the live map in
// enqueue order. Safe to call even with an empty queue.
func (t *Table) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return
	}
	for _, op := range t.pending {
		if op.remove {
			delete(t.live, op.chord)
			continue
		}
		t.live[op.chord] = op.action
	}
	t.pending = t.pending[:0]
}

// Package router is the Event Router (spec §4.G): the dispatcher that
// sits between a device Source and the virtual-device Sink, tracking
// hardware modifier state, resolving each raw event to a Chord, and
// either forwarding it unchanged or dispatching the matched Action.
// Grounded on the teacher's own dispatch-by-tag style (interp.go's
// node.kind switch), applied here to ActionKind instead of AST node
// kind.
package router

import (
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/mapping"
	"github.com/kmods/keymods/internal/value"
)

// Output is the virtual output device a matched or passed-through
// event is written to (internal/device.Sink implements this).
type Output interface {
	Emit(keys.RawEvent) error
}

// Spawner hands a Block action's closure to the Task Runtime to run as
// a secondary task (internal/task.Runtime implements this).
type Spawner interface {
	SpawnBlock(cl *value.Closure)
}

// Router holds the live hardware ModifierSet and wires a Mapping Table
// lookup to an Output and a Spawner. A Router is driven by exactly one
// goroutine at a time (the primary task, per spec §4.H/§5), so its
// fields need no locking of their own.
type Router struct {
	mods  keys.ModifierSet
	table *mapping.Table
	out   Output
	spawn Spawner
}

// New creates a Router with no modifiers held.
func New(table *mapping.Table, out Output, spawn Spawner) *Router {
	return &Router{table: table, out: out, spawn: spawn}
}

// Handle processes one inbound (deviceID, RawEvent) per spec §4.G's
// five numbered steps. Before anything else it flushes the Mapping
// Table's pending installs accumulated since the previous event — the
// script's own top-level `::` statements included, since those are
// installed as pending ops at startup and would otherwise never reach
// the live map a lookup reads. Flushing up front rather than only
// after a hit is what gives reentrant installs from a Block's own
// map_key/:: calls "next event onward, never mid-dispatch for this
// one" semantics (spec §4.F/§9): whatever is pending was queued by a
// prior event's dispatch (or by startup), never by this one.
func (r *Router) Handle(deviceID int, ev keys.RawEvent) error {
	ev.DeviceID = deviceID

	// Step 1: synthetic events never re-enter matching.
	if ev.Synthetic {
		return r.out.Emit(ev)
	}

	r.table.Flush()

	state := keys.StateOf(ev.Value)

	// Step 2: modifier state updates before the lookup chord is built,
	// so a modifier key's own down/up event is matched against the set
	// it just joined or left.
	if bit, ok := keys.ModifierOf(ev.Code); ok {
		r.applyModifier(bit, state)
	}

	// Step 3.
	chord := keys.Chord{Mods: r.mods, Code: ev.Code, State: state}

	// Step 4/5.
	action, hit := r.table.Lookup(chord)
	if !hit {
		return r.out.Emit(ev)
	}

	return r.dispatch(chord, action)
}

func (r *Router) applyModifier(bit keys.Modifier, state keys.State) {
	switch state {
	case keys.Up:
		r.mods = r.mods.Without(bit)
	default: // Down, Repeat
		r.mods = r.mods.With(bit)
	}
}

func (r *Router) dispatch(chord keys.Chord, action mapping.Action) error {
	switch action.Kind {
	case mapping.EmitKey:
		return r.emitBracketed(action.Mods, action.Code, chord.State)
	case mapping.EmitSeq:
		return r.emitSequence(action.Seq)
	case mapping.Block:
		r.spawn.SpawnBlock(action.Closure)
		return nil
	default:
		return nil
	}
}

type modOp struct {
	mod  keys.Modifier
	down bool
}

// emitBracketed emits the minimal synthetic modifier down/up events
// needed to present targetMods to downstream consumers around a single
// (code, state) payload, then undoes them in reverse so hardware
// modifier state is observably unchanged before and after the burst
// (spec §8's StaticEmit invariant). A Repeat-state chord is a repeat of
// an already-matched, already-bracketed Down — spec.md's "Repeats of a
// matched chord re-emit the RHS's Repeat mapping...without
// re-bracketing" — so it skips straight to the bare payload.
func (r *Router) emitBracketed(targetMods keys.ModifierSet, code keys.Code, state keys.State) error {
	if state == keys.Repeat {
		return r.emitSynthetic(code, state)
	}

	var ops []modOp
	for _, m := range keys.AllModifiers {
		if r.mods.Has(m) && !targetMods.Has(m) {
			ops = append(ops, modOp{m, false})
		}
	}
	for _, m := range keys.AllModifiers {
		if !r.mods.Has(m) && targetMods.Has(m) {
			ops = append(ops, modOp{m, true})
		}
	}

	for _, op := range ops {
		if err := r.emitModOp(op); err != nil {
			return err
		}
	}
	if err := r.emitSynthetic(code, state); err != nil {
		return err
	}
	for i := len(ops) - 1; i >= 0; i-- {
		if err := r.emitModOp(invert(ops[i])); err != nil {
			return err
		}
	}
	return nil
}

func invert(op modOp) modOp { return modOp{op.mod, !op.down} }

func (r *Router) emitModOp(op modOp) error {
	s := keys.Up
	if op.down {
		s = keys.Down
	}
	return r.emitSynthetic(keys.RepresentativeCode(op.mod), s)
}

func (r *Router) emitSynthetic(code keys.Code, state keys.State) error {
	return r.out.Emit(keys.RawEvent{Type: keys.EvKey, Code: code, Value: state.EvdevValue(), Synthetic: true})
}

// emitSequence replays a parsed Sequence verbatim; any modifier
// bracketing the sequence needs (e.g. {shift down}/{shift up} around
// an uppercase literal) is already encoded in its Items by
// keys.ParseSequence, so no extra bracketing is applied here.
func (r *Router) emitSequence(seq keys.Sequence) error {
	for _, ev := range seq.Expand() {
		if err := r.out.Emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// Package keys is the Key Model (spec §4.E): the canonical
// representation of keys, modifier flags and key states, plus
// expansion of a key-literal or a key-sequence string into the
// evdev-shaped RawEvent records the Router and the uinput Sink trade
// in. It has no dependency on the scripting language — the teacher's
// own layering keeps type/AST concerns (itype, node) separate from
// pure data representation, and this package plays that role for the
// evdev key-code namespace.
package keys

import (
	"fmt"
	"strings"
	"time"
)

// Code is a Linux evdev key code (KEY_A, BTN_LEFT, ...).
type Code uint16

// EventType mirrors the evdev EV_* namespace far enough for this
// engine's needs: key events and synchronization reports.
type EventType uint16

const (
	EvKey EventType = 1
	EvSyn EventType = 0
)

// State is the down/up/repeat tri-state evdev reports for EV_KEY.
type State int32

const (
	Up State = iota
	Down
	Repeat
)

func (s State) String() string {
	switch s {
	case Down:
		return "down"
	case Up:
		return "up"
	case Repeat:
		return "repeat"
	default:
		return "?"
	}
}

// Modifier is a bit in a ModifierSet.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModCtrl  Modifier = 1 << iota
	ModShift
	ModAlt
	ModMeta
)

// ModifierSet is the subset of {Ctrl, Shift, Alt, Meta} active for a
// chord or observed as hardware state.
type ModifierSet Modifier

// Has reports whether m is a member of the set.
func (s ModifierSet) Has(m Modifier) bool { return Modifier(s)&m != 0 }

// With returns s with m added.
func (s ModifierSet) With(m Modifier) ModifierSet { return ModifierSet(Modifier(s) | m) }

// Without returns s with m removed.
func (s ModifierSet) Without(m Modifier) ModifierSet { return ModifierSet(Modifier(s) &^ m) }

// String renders a ModifierSet using the source-form flag characters
// documented in spec §3: ^ (Ctrl) + (Shift) ! (Alt) # (Meta).
func (s ModifierSet) String() string {
	var b strings.Builder
	if s.Has(ModCtrl) {
		b.WriteByte('^')
	}
	if s.Has(ModShift) {
		b.WriteByte('+')
	}
	if s.Has(ModAlt) {
		b.WriteByte('!')
	}
	if s.Has(ModMeta) {
		b.WriteByte('#')
	}
	return b.String()
}

// Key is a canonical (modifiers, code) pair parsed from a source
// key-literal token, without the state component (state only matters
// once a Key becomes part of a Chord).
type Key struct {
	Mods ModifierSet
	Code Code
}

func (k Key) String() string {
	return k.Mods.String() + NameOf(k.Code)
}

// Chord is the Mapping Table's lookup key: modifiers, key code and
// observed state (§3).
type Chord struct {
	Mods  ModifierSet
	Code  Code
	State State
}

func (c Chord) String() string {
	return fmt.Sprintf("%s%s:%s", c.Mods, NameOf(c.Code), c.State)
}

// RawEvent is the evdev record shape (§3): the wire type shared
// between internal/device and the Router/Interpreter so no adaptation
// layer sits between them.
type RawEvent struct {
	DeviceID  int
	Type      EventType
	Code      Code
	Value     int32 // 0 = up, 1 = down, 2 = repeat, matching evdev EV_KEY values
	Time      time.Time
	Synthetic bool // set by the Router/Sink path, never by a device Source
}

// StateOf maps an evdev EV_KEY value to a State.
func StateOf(v int32) State {
	switch v {
	case 0:
		return Up
	case 2:
		return Repeat
	default:
		return Down
	}
}

// EvdevValue is the inverse of StateOf, used when synthesizing events.
func (s State) EvdevValue() int32 {
	switch s {
	case Up:
		return 0
	case Repeat:
		return 2
	default:
		return 1
	}
}

// IsModifier reports whether code is one of the four modifier keys
// tracked in a ModifierSet.
func IsModifier(c Code) bool {
	_, ok := modifierOf[c]
	return ok
}

// ModifierOf returns the Modifier bit a modifier key code contributes.
func ModifierOf(c Code) (Modifier, bool) {
	m, ok := modifierOf[c]
	return m, ok
}

// representative evdev code chosen when synthesizing a modifier from
// its bit (e.g. emitting Ctrl picks the left variant).
var modifierRepresentative = map[Modifier]Code{
	ModCtrl:  KeyLeftCtrl,
	ModShift: KeyLeftShift,
	ModAlt:   KeyLeftAlt,
	ModMeta:  KeyLeftMeta,
}

// RepresentativeCode returns the evdev code used to synthesize a
// bracketing press/release for modifier bit m.
func RepresentativeCode(m Modifier) Code { return modifierRepresentative[m] }

var modifierOf = map[Code]Modifier{
	KeyLeftCtrl:   ModCtrl,
	KeyRightCtrl:  ModCtrl,
	KeyLeftShift:  ModShift,
	KeyRightShift: ModShift,
	KeyLeftAlt:    ModAlt,
	KeyRightAlt:   ModAlt,
	KeyLeftMeta:   ModMeta,
	KeyRightMeta:  ModMeta,
}

// AllModifiers enumerates the four modifier bits in a stable order,
// used when computing the minimal bracketing set (§4.G).
var AllModifiers = [4]Modifier{ModCtrl, ModShift, ModAlt, ModMeta}

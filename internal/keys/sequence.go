package keys

import (
	"fmt"
	"strings"
)

// SeqState is the state requested by a bracketed token, e.g.
// "{shift down}" requests Down only, "{enter}" requests DownUp.
type SeqState int

const (
	DownUp SeqState = iota
	DownOnly
	UpOnly
)

// SeqItem is one element of a parsed Sequence: either a literal
// character (expanded against charToCode, with shift bracketing if
// needed) or an explicit bracketed key token.
type SeqItem struct {
	Code  Code
	State SeqState
	Shift bool // only meaningful for literal characters
}

// Sequence is an ordered list of SeqItems, the parsed form of a
// sequence string such as "hi{enter}a{shift down}1{shift up}" (§4.D).
type Sequence struct {
	Items []SeqItem
}

// ParseSequence splits a sequence string into literal characters and
// bracketed {name}/{name down}/{name up} tokens. Unknown bracket names
// fail BadKeyName.
func ParseSequence(s string) (Sequence, error) {
	var seq Sequence
	r := []rune(s)
	for i := 0; i < len(r); i++ {
		if r[i] == '{' {
			end := strings.IndexRune(string(r[i:]), '}')
			if end < 0 {
				return Sequence{}, fmt.Errorf("unterminated key token in sequence %q", s)
			}
			token := string(r[i+1 : i+end])
			i += end
			item, err := parseBracketToken(token)
			if err != nil {
				return Sequence{}, err
			}
			seq.Items = append(seq.Items, item)
			continue
		}
		code, shift, ok := CodeForChar(r[i])
		if !ok {
			return Sequence{}, fmt.Errorf("%w: character %q has no key mapping", ErrBadKeyName, r[i])
		}
		seq.Items = append(seq.Items, SeqItem{Code: code, State: DownUp, Shift: shift})
	}
	return seq, nil
}

func parseBracketToken(token string) (SeqItem, error) {
	fields := strings.Fields(token)
	if len(fields) == 0 {
		return SeqItem{}, fmt.Errorf("%w: empty key token", ErrBadKeyName)
	}
	name := fields[0]
	state := DownUp
	if len(fields) > 1 {
		switch fields[1] {
		case "down":
			state = DownOnly
		case "up":
			state = UpOnly
		default:
			return SeqItem{}, fmt.Errorf("%w: unknown state %q in {%s}", ErrBadKeyName, fields[1], token)
		}
	}
	code, ok := CodeByName(name)
	if !ok {
		return SeqItem{}, fmt.Errorf("%w: %q", ErrBadKeyName, name)
	}
	return SeqItem{Code: code, State: state}, nil
}

// ErrBadKeyName is wrapped by sequence/mapping parse failures so the
// interpreter can classify them as the BadKeyName error kind (§7).
var ErrBadKeyName = fmt.Errorf("bad key name")

// Expand produces the RawEvents a Sequence synthesizes, bracketing
// each shifted literal character with Shift down/up as needed. The
// returned events carry no DeviceID/Time; the caller (interpreter/
// router) stamps those before emission.
func (seq Sequence) Expand() []RawEvent {
	var out []RawEvent
	emit := func(code Code, state State) {
		out = append(out, RawEvent{Type: EvKey, Code: code, Value: state.EvdevValue(), Synthetic: true})
	}
	for _, item := range seq.Items {
		if item.Shift {
			emit(KeyLeftShift, Down)
		}
		switch item.State {
		case DownOnly:
			emit(item.Code, Down)
		case UpOnly:
			emit(item.Code, Up)
		default:
			emit(item.Code, Down)
			emit(item.Code, Up)
		}
		if item.Shift {
			emit(KeyLeftShift, Up)
		}
	}
	return out
}

// Compress is the inverse of Expand, used to verify the round-trip
// invariant in tests (§8): given RawEvents previously produced by
// Expand, reconstruct an equivalent Sequence — one whose own Expand
// reproduces the same events. A Shift-bracketed literal is four
// events (shift down, code down, code up, shift up); a bare literal or
// `{name}` token is two (code down, code up); a `{name down}`/`{name
// up}` token is the lone event on its own.
func Compress(events []RawEvent) Sequence {
	var seq Sequence
	i := 0
	for i < len(events) {
		e := events[i]

		if e.Code == KeyLeftShift && StateOf(e.Value) == Down &&
			i+3 < len(events) &&
			StateOf(events[i+1].Value) == Down && StateOf(events[i+2].Value) == Up &&
			events[i+1].Code == events[i+2].Code &&
			events[i+3].Code == KeyLeftShift && StateOf(events[i+3].Value) == Up {
			seq.Items = append(seq.Items, SeqItem{Code: events[i+1].Code, State: DownUp, Shift: true})
			i += 4
			continue
		}

		if i+1 < len(events) && events[i+1].Code == e.Code &&
			StateOf(e.Value) == Down && StateOf(events[i+1].Value) == Up {
			seq.Items = append(seq.Items, SeqItem{Code: e.Code, State: DownUp})
			i += 2
			continue
		}

		switch StateOf(e.Value) {
		case Down:
			seq.Items = append(seq.Items, SeqItem{Code: e.Code, State: DownOnly})
		case Up:
			seq.Items = append(seq.Items, SeqItem{Code: e.Code, State: UpOnly})
		}
		i++
	}
	return seq
}

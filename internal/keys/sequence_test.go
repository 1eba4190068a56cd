package keys

import (
	"reflect"
	"testing"
)

func TestParseSequenceLiteral(t *testing.T) {
	seq, err := ParseSequence("hi")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	if len(seq.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(seq.Items))
	}
	if seq.Items[0].Code != KeyH || seq.Items[1].Code != KeyI {
		t.Fatalf("unexpected codes: %+v", seq.Items)
	}
}

func TestParseSequenceBracketTokens(t *testing.T) {
	seq, err := ParseSequence("a{shift down}1{shift up}")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	want := []SeqItem{
		{Code: KeyA, State: DownUp},
		{Code: KeyLeftShift, State: DownOnly},
		{Code: Key1, State: DownUp},
		{Code: KeyLeftShift, State: UpOnly},
	}
	if len(seq.Items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(seq.Items), len(want), seq.Items)
	}
	for i, w := range want {
		if seq.Items[i].Code != w.Code || seq.Items[i].State != w.State {
			t.Errorf("item %d = %+v, want %+v", i, seq.Items[i], w)
		}
	}
}

func TestParseSequenceUnknownName(t *testing.T) {
	if _, err := ParseSequence("{notakey}"); err == nil {
		t.Fatal("expected error for unknown bracket token")
	}
}

func TestExpandProducesDownUpPairs(t *testing.T) {
	seq, err := ParseSequence("hi")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	events := seq.Expand()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if StateOf(events[0].Value) != Down || StateOf(events[1].Value) != Up {
		t.Fatalf("expected down/up pair for 'h': %+v", events[:2])
	}
}

func TestExpandShiftBracketsUppercase(t *testing.T) {
	seq, err := ParseSequence("A")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	events := seq.Expand()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4 (shift down, a down, a up, shift up): %+v", len(events), events)
	}
	if events[0].Code != KeyLeftShift || StateOf(events[0].Value) != Down {
		t.Fatalf("expected leading shift-down, got %+v", events[0])
	}
	if events[len(events)-1].Code != KeyLeftShift || StateOf(events[len(events)-1].Value) != Up {
		t.Fatalf("expected trailing shift-up, got %+v", events[len(events)-1])
	}
}

// TestExpandCompressRoundTrip covers spec §8's idempotence-under-
// expand-compress invariant: compressing the RawEvents Expand produced
// and expanding the result again must reproduce the identical events,
// for bare literals, shift-bracketed literals and explicit bracket
// tokens alike.
func TestExpandCompressRoundTrip(t *testing.T) {
	cases := []string{
		"hi",
		"A",
		"{enter}",
		"a{shift down}1{shift up}",
	}
	for _, s := range cases {
		seq, err := ParseSequence(s)
		if err != nil {
			t.Fatalf("ParseSequence(%q): %v", s, err)
		}
		want := seq.Expand()
		got := Compress(want).Expand()
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip for %q: Compress(Expand(seq)).Expand() = %+v, want %+v", s, got, want)
		}
	}
}

func TestModifierSetString(t *testing.T) {
	s := ModifierSet(ModNone).With(ModAlt).With(ModCtrl)
	if got := s.String(); got != "^!" {
		t.Fatalf("String() = %q, want %q", got, "^!")
	}
}

func TestCodeByNameUnknown(t *testing.T) {
	if _, ok := CodeByName("not_a_real_key"); ok {
		t.Fatal("expected CodeByName to fail for unknown name")
	}
}

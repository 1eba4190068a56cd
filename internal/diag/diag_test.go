package diag

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, LevelWarn)
	l.Now = func() time.Time { return time.Unix(0, 0).UTC() }

	l.Info("should be dropped")
	l.Warn("reached %d", 3)

	if out.Len() != 0 {
		t.Fatalf("stdout = %q, want empty (info below min level)", out.String())
	}
	if !strings.Contains(errOut.String(), "reached 3") {
		t.Fatalf("stderr = %q, want it to contain the warn message", errOut.String())
	}
}

func TestErrorGoesToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, LevelDebug)
	l.Now = func() time.Time { return time.Unix(0, 0).UTC() }

	l.Error("device %s unavailable", "/dev/input/event3")

	if out.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", out.String())
	}
	if !strings.Contains(errOut.String(), "/dev/input/event3") {
		t.Fatalf("stderr = %q, missing device name", errOut.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": LevelDebug,
		"warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"bogus": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

package device

import (
	"strings"
	"testing"
)

func TestParseDevicesFile(t *testing.T) {
	src := `
# a comment
/dev/input/event3

.*-kbd$
  # indented comment is still a comment after trim
.*mouse.*
`
	entries, err := ParseDevicesFile(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseDevicesFile: %v", err)
	}
	want := []string{"/dev/input/event3", ".*-kbd$", ".*mouse.*"}
	if len(entries) != len(want) {
		t.Fatalf("got %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, entries[i], want[i])
		}
	}
}

func TestResolveEntriesAbsolutePassthrough(t *testing.T) {
	out, err := ResolveEntries([]string{"/dev/input/event0", "/dev/input/event0"})
	if err != nil {
		t.Fatalf("ResolveEntries: %v", err)
	}
	if len(out) != 1 || out[0] != "/dev/input/event0" {
		t.Fatalf("got %v, want deduplicated [/dev/input/event0]", out)
	}
}

func TestResolveEntriesMissingByIDDirIsNotFatal(t *testing.T) {
	oldID, oldPath := byIDDir, byPathDir
	byIDDir = "/nonexistent-by-id"
	byPathDir = "/nonexistent-by-path"
	defer func() { byIDDir, byPathDir = oldID, oldPath }()

	out, err := ResolveEntries([]string{".*kbd.*"})
	if err != nil {
		t.Fatalf("ResolveEntries: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %v, want none", out)
	}
}

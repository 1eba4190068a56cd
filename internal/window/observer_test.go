package window

import "testing"

func TestParseActiveWindowID(t *testing.T) {
	out := "_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3400007\n"
	if got := parseActiveWindowID(out); got != "0x3400007" {
		t.Errorf("got %q", got)
	}
}

func TestParseActiveWindowIDNotFound(t *testing.T) {
	out := "_NET_ACTIVE_WINDOW:  not found.\n"
	if got := parseActiveWindowID(out); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestParseWMClass(t *testing.T) {
	out := `WM_CLASS(STRING) = "Navigator", "Firefox"` + "\n"
	class, ok := parseWMClass(out)
	if !ok || class != "Firefox" {
		t.Errorf("got (%q, %v), want (Firefox, true)", class, ok)
	}
}

func TestParseWMClassMalformed(t *testing.T) {
	if _, ok := parseWMClass("no equals sign here"); ok {
		t.Error("expected ok=false for malformed output")
	}
}

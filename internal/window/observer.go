// Package window is the Window Observer (spec §4's X11 active-window
// tracker, expanded in SPEC_FULL.md §4.J): it polls the foreground
// window's WM_CLASS on an interval and notifies a callback on change,
// while also serving synchronous last-known-class queries for the
// active_window_class() builtin. It shells out to xprop the same way
// the .km language's own execute() builtin runs a subprocess, so the
// mechanism is shared rather than duplicated (SPEC_FULL.md §4.J).
package window

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/kmods/keymods/internal/diag"
)

// Notifier is invoked, in registration order by the caller, whenever
// the foreground window's class changes.
type Notifier interface {
	NotifyWindowChanged(class string)
}

// Observer polls xprop on Interval and tracks the last-seen class.
// ActiveWindowClass answers synchronously from that cache per
// SPEC_FULL.md §4.J's resolution of spec.md's open question.
type Observer struct {
	Interval time.Duration
	Log      *diag.Logger
	runCmd   func(name string, args ...string) ([]byte, error)

	mu    sync.Mutex
	class string
	known bool
}

// NewObserver creates an Observer polling every interval.
func NewObserver(interval time.Duration, log *diag.Logger) *Observer {
	return &Observer{
		Interval: interval,
		Log:      log,
		runCmd: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// ActiveWindowClass implements internal/task.WindowClassSource:
// synchronous, cached, never blocks on a subprocess.
func (o *Observer) ActiveWindowClass() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.class, o.known
}

// Run polls until ctx is cancelled, invoking n.NotifyWindowChanged
// whenever the class changes from its previous value.
func (o *Observer) Run(ctx context.Context, n Notifier) {
	ticker := time.NewTicker(o.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			class, ok := o.poll()
			if !ok {
				continue
			}
			o.mu.Lock()
			changed := !o.known || o.class != class
			o.class, o.known = class, true
			o.mu.Unlock()
			if changed {
				n.NotifyWindowChanged(class)
			}
		}
	}
}

// poll runs `xprop -root _NET_ACTIVE_WINDOW` then `xprop -id <id>
// WM_CLASS` and extracts the window's class name, logging (not
// failing) on any subprocess error — an unavailable X11 display just
// means active_window_class() stays unavailable (spec §6).
func (o *Observer) poll() (string, bool) {
	rootOut, err := o.runCmd("xprop", "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		o.Log.Debug("window observer: xprop -root failed: %v", err)
		return "", false
	}
	id := parseActiveWindowID(string(rootOut))
	if id == "" {
		return "", false
	}
	classOut, err := o.runCmd("xprop", "-id", id, "WM_CLASS")
	if err != nil {
		o.Log.Debug("window observer: xprop -id %s failed: %v", id, err)
		return "", false
	}
	class, ok := parseWMClass(string(classOut))
	return class, ok
}

// parseActiveWindowID extracts the hex window id from xprop -root
// _NET_ACTIVE_WINDOW output, e.g.:
//
//	_NET_ACTIVE_WINDOW(WINDOW): window id # 0x3400007
func parseActiveWindowID(out string) string {
	idx := strings.Index(out, "# ")
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(out[idx+2:])
	id = strings.TrimSuffix(id, "\n")
	if id == "" || strings.Contains(strings.ToLower(out), "not found") {
		return ""
	}
	return id
}

// parseWMClass extracts the class name (the last of WM_CLASS's
// instance, class strings) from xprop's WM_CLASS output, e.g.:
//
//	WM_CLASS(STRING) = "Navigator", "Firefox"
func parseWMClass(out string) (string, bool) {
	idx := strings.Index(out, "=")
	if idx < 0 {
		return "", false
	}
	rest := out[idx+1:]
	parts := strings.Split(rest, ",")
	if len(parts) == 0 {
		return "", false
	}
	class := strings.Trim(strings.TrimSpace(parts[len(parts)-1]), "\"\n")
	if class == "" {
		return "", false
	}
	return class, true
}

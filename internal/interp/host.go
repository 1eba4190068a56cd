package interp

import "github.com/kmods/keymods/internal/value"

// Host is everything the interpreter needs from the rest of the
// engine to run the side-effecting builtins of spec §6, without
// importing the Mapping Table, Task Runtime, Device I/O or Window
// Observer packages directly. Those packages implement Host
// structurally; nothing in this package ever imports them, so there
// is no import cycle even though they, in turn, call back into this
// package's Interpreter to run a Block or registered callback.
type Host interface {
	// Sleep suspends the calling task for at least ms milliseconds,
	// without blocking the router or other tasks (spec §4.H).
	Sleep(ms float64)

	// OnWindowChange registers cb to be invoked, in registration
	// order, whenever the active window's class changes.
	OnWindowChange(cb *value.Closure)

	// ActiveWindowClass returns the Window Observer's last cached
	// class and true, or ("", false) if none is known yet.
	ActiveWindowClass() (string, bool)

	// Send emits a parsed key sequence through the virtual device.
	Send(seq string) error

	// Execute runs cmd with args, returning captured stdout and true
	// on a zero exit, or ("", false) on spawn failure or nonzero exit.
	Execute(cmd string, args []string) (string, bool)

	// Exit terminates the process with the given code.
	Exit(code int)
}

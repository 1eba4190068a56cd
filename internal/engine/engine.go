// Package engine wires components A-K of SPEC_FULL.md §2's dependency
// table into one running process: Value/Env, Lexer/Parser, the
// Interpreter (with builtins bound to the Sink, Observer and Task
// Runtime), the Key Model, the Mapping Table, the Router, the Task
// Runtime, and the Device I/O Source/Sink. Engine.Run owns the
// top-level control flow the teacher's own REPL/EvalWithContext
// entry points own for a single evaluation: parse once, then drive
// the process until exit() or context cancellation.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kmods/keymods/internal/config"
	"github.com/kmods/keymods/internal/device"
	"github.com/kmods/keymods/internal/diag"
	"github.com/kmods/keymods/internal/interp"
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/mapping"
	"github.com/kmods/keymods/internal/parser"
	"github.com/kmods/keymods/internal/router"
	"github.com/kmods/keymods/internal/task"
	"github.com/kmods/keymods/internal/window"
)

// Options carries everything the CLI layer resolved before handing
// off to the Engine: the script source, the devices file entries
// (already parsed, not yet resolved to device paths) and the
// daemon-wide Config (SPEC_FULL.md §1).
type Options struct {
	Script      string
	DeviceLines []string
	Config      config.Config
	Stdout      io.Writer
}

// Engine owns one run of a .km script end to end.
type Engine struct {
	opts Options
	log  *diag.Logger
}

// New constructs an Engine; it does no I/O until Run is called.
func New(opts Options, log *diag.Logger) *Engine {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Engine{opts: opts, log: log}
}

// Run parses and evaluates opts.Script (installing its static `::`
// mappings and `on_window_change` registrations as a side effect of
// evaluation, per spec §4.D), then drives event routing until the
// script calls exit(), ctx is cancelled, or a fatal root-level error
// occurs. The returned int is the process exit code (spec §6).
func (e *Engine) Run(ctx context.Context) (int, error) {
	prog, err := parser.Parse(e.opts.Script)
	if err != nil {
		return 2, fmt.Errorf("parse error: %w", err)
	}

	table := mapping.New()

	sink, err := device.NewSink(e.opts.Config.UinputName, e.opts.Config.UinputVendor, e.opts.Config.UinputProduct)
	if err != nil {
		return 2, fmt.Errorf("create virtual output device: %w", err)
	}
	defer sink.Close()

	observer := window.NewObserver(e.opts.Config.WindowPollInterval(), e.log)

	it := interp.New(table, nil, e.opts.Stdout)
	rt := task.New(it, e.log, sink, observer)
	it.Host = rt

	r := router.New(table, sink, rt)

	paths, err := device.ResolveEntries(e.opts.DeviceLines)
	if err != nil {
		return 2, fmt.Errorf("resolve devices file: %w", err)
	}
	if len(e.opts.DeviceLines) == 0 {
		e.log.Warn("no devices file given; grabbing nothing, running the script for its side effects only")
	}

	src := device.NewSource(e.log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go observer.Run(runCtx, rt)

	srcErrCh := make(chan error, 1)
	go func() { srcErrCh <- src.Run(runCtx, paths) }()

	events := make(chan keys.RawEvent, 256)
	go func() {
		defer close(events)
		for de := range src.Events() {
			select {
			case events <- de.Event:
			case <-runCtx.Done():
				return
			}
		}
		// The device stream ending (or never starting, with no devices)
		// does not end the run; only exit() or cancellation does.
		<-runCtx.Done()
	}()

	runErr := rt.Run(runCtx, prog, events, func(ev keys.RawEvent) error {
		return r.Handle(ev.DeviceID, ev)
	})
	cancel()

	if code, exited := rt.ExitCode(); exited {
		return code, runErr
	}
	if runErr != nil {
		return 2, runErr
	}
	return 0, nil
}

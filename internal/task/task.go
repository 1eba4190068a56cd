// Package task is the Task Runtime (spec §4.H/§5): a cooperative
// scheduler in which every task — the initial script body, each
// spawned Block action, each on_window_change callback invocation —
// runs on its own goroutine, but only one holds the scheduling baton
// (a per-task proceed channel) at a time, so no two script statements
// ever execute concurrently and the shared Env/Mapping Table are
// touched only between yields. Raw input events are processed inline
// on the scheduler's own goroutine (the router never blocks), which is
// what gives it the "always ready, highest priority" behavior spec
// §4.H describes without needing a separate primary task. This is the
// teacher's own EvalWithContext/REPL shape (goroutine + channel +
// select + cancellation), generalized from "one eval, one goroutine"
// to "N cooperative tasks, N goroutines, one baton" (SPEC_FULL.md §5).
//
// Blocking builtins (sleep, execute) and the fuel-based yield point are
// each a distinct effect struct a task hands to the scheduler over its
// own yield channel; dispatchEffect's type switch decides how to
// resume it (arm a timer, spawn a subprocess, re-enqueue). The
// suspension itself is the per-task proceed channel receive below in
// Sleep/Execute/Yield — a parked goroutine is already free, real
// suspension, so there is no separate continuation-passing machinery
// to run it through. See DESIGN.md.
package task

import (
	"container/heap"
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/diag"
	"github.com/kmods/keymods/internal/interp"
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/value"
)

// effectOp is the closed set of things a task can hand the scheduler
// over its yield channel. dispatchEffect type-switches on it.
type effectOp interface {
	isEffectOp()
}

// SleepOp is the effect operation behind the sleep() builtin.
type SleepOp struct {
	Duration time.Duration
}

func (SleepOp) isEffectOp() {}

// ExecuteResult is what an ExecuteOp resumes with.
type ExecuteResult struct {
	Output string
	OK     bool
}

// ExecuteOp is the effect operation behind the execute() builtin.
type ExecuteOp struct {
	Cmd  string
	Args []string
}

func (ExecuteOp) isEffectOp() {}

// yieldOp is the fuel-based inter-statement preemption point
// (SPEC_FULL.md §9): no resume payload, just "let someone else go".
type yieldOp struct{}

func (yieldOp) isEffectOp() {}

// Output is the virtual device a Send builtin call writes to directly
// (internal/device.Sink implements this); bypassing the Router is
// what keeps a script's own send(...) from re-triggering its mappings
// (spec §5's reentrancy-guard contract).
type Output interface {
	Emit(keys.RawEvent) error
}

// WindowClassSource supplies the cached class backing the synchronous
// half of active_window_class() (internal/window.Observer implements
// this; see SPEC_FULL.md §4.J's sync/async split).
type WindowClassSource interface {
	ActiveWindowClass() (string, bool)
}

type effectMsg struct {
	op effectOp
}

// task is one cooperative task: its own goroutine, parked on proceed
// until the scheduler hands it the baton, reporting a yield or its
// completion back on its own per-task channels.
type task struct {
	id      int
	kind    string // "script", "block", "window-change"
	proceed chan struct{}
	yield   chan effectMsg
	done    chan struct{}

	executeResult ExecuteResult
}

type timerEntry struct {
	deadline time.Time
	t        *task
	index    int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int          { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

type execDoneMsg struct {
	t      *task
	result ExecuteResult
}

// Runtime is the scheduler and the Host implementation passed to
// interp.New: it owns the task set, the timer heap, and the single
// in-flight "current task" pointer Sleep/Execute/Yield read to know
// which task is asking. Exactly one goroutine at a time ever executes
// script code — Run's loop only ever has one task's goroutine unblocked
// at once — so current needs no lock: it's written right before the
// baton handoff that unblocks the reader, and read only by that task.
type Runtime struct {
	Interp *interp.Interpreter
	Log    *diag.Logger
	Output Output
	Window WindowClassSource

	mu      sync.Mutex
	nextID  int
	current *task

	windowCallbacks []*value.Closure

	readyCh chan *task
	execCh  chan execDoneMsg
	stopCh  chan struct{}
	stopOne sync.Once

	exitMu   sync.Mutex
	exited   bool
	exitCode int

	timers timerHeap
}

// New creates a Runtime bound to it (which must not yet be running).
func New(it *interp.Interpreter, log *diag.Logger, out Output, window WindowClassSource) *Runtime {
	return &Runtime{
		Interp:  it,
		Log:     log,
		Output:  out,
		Window:  window,
		readyCh: make(chan *task, 64),
		execCh:  make(chan execDoneMsg, 16),
		stopCh:  make(chan struct{}),
	}
}

func (rt *Runtime) dispatchEffect(op effectOp) {
	switch o := op.(type) {
	case SleepOp:
		rt.armTimer(rt.current, o.Duration)
	case ExecuteOp:
		rt.spawnSubprocess(rt.current, o.Cmd, o.Args)
	case yieldOp:
		rt.readyCh <- rt.current
	}
}

func (rt *Runtime) newTask(kind string) *task {
	rt.mu.Lock()
	rt.nextID++
	id := rt.nextID
	rt.mu.Unlock()
	return &task{id: id, kind: kind, proceed: make(chan struct{}), yield: make(chan effectMsg), done: make(chan struct{})}
}

// runTaskBody is the goroutine every task runs: park until the
// scheduler's first handoff, run body once, report any error, and
// signal completion.
func (rt *Runtime) runTaskBody(t *task, body func() error) {
	<-t.proceed
	if err := body(); err != nil && rt.Log != nil {
		rt.Log.Warn("%s task aborted: %v", t.kind, err)
	}
	close(t.done)
}

// giveBaton hands the baton to t and blocks only until t's next yield
// or completion — not until t is fully done, since a yield (sleep,
// execute, fuel) returns control to the scheduler immediately so other
// work (new input events foremost) can proceed.
func (rt *Runtime) giveBaton(t *task) {
	rt.current = t
	t.proceed <- struct{}{}
	select {
	case msg := <-t.yield:
		rt.dispatchEffect(msg.op)
	case <-t.done:
	}
}

// Run drives the scheduler: it runs prog's top-level statements as the
// first task, then services raw events from the given channel through
// process, interleaved with resuming tasks whose timers have fired or
// whose subprocess has completed. Input events are always preferred
// over resuming a parked task when both are ready, approximating spec
// §4.H's "router preempts pending timer tasks" priority rule.
func (rt *Runtime) Run(ctx context.Context, prog *ast.Program, events <-chan keys.RawEvent, process func(keys.RawEvent) error) error {
	script := rt.newTask("script")
	go rt.runTaskBody(script, func() error {
		err := rt.Interp.Run(prog)
		if err != nil {
			// A runtime error in the root program halts the run with exit code 2.
			rt.Exit(2)
		}
		return err
	})
	rt.readyCh <- script

	for {
		select {
		case ev, ok := <-events:
			if ok {
				if err := process(ev); err != nil {
					return err
				}
				continue
			}
		default:
		}

		select {
		case <-ctx.Done():
			return nil
		case <-rt.stopCh:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := process(ev); err != nil {
				return err
			}
		case t := <-rt.readyCh:
			rt.giveBaton(t)
		case <-time.After(rt.nextTimerWait()):
			rt.fireDueTimers()
		case msg := <-rt.execCh:
			msg.t.executeResult = msg.result
			rt.readyCh <- msg.t
		}
	}
}

// Stop terminates the scheduler loop (spec §4.H's cancellation
// contract: "exit(code) terminates all tasks").
func (rt *Runtime) Stop() {
	rt.stopOne.Do(func() { close(rt.stopCh) })
}

func (rt *Runtime) nextTimerWait() time.Duration {
	if len(rt.timers) == 0 {
		return time.Hour
	}
	d := time.Until(rt.timers[0].deadline)
	if d < 0 {
		return 0
	}
	return d
}

func (rt *Runtime) fireDueTimers() {
	now := time.Now()
	for len(rt.timers) > 0 && !rt.timers[0].deadline.After(now) {
		e := heap.Pop(&rt.timers).(*timerEntry)
		rt.readyCh <- e.t
	}
}

func (rt *Runtime) armTimer(t *task, d time.Duration) {
	heap.Push(&rt.timers, &timerEntry{deadline: time.Now().Add(d), t: t})
}

func (rt *Runtime) spawnSubprocess(t *task, cmd string, args []string) {
	go func() {
		out, err := exec.Command(cmd, args...).Output()
		rt.execCh <- execDoneMsg{t: t, result: ExecuteResult{Output: string(out), OK: err == nil}}
	}()
}

// SpawnBlock implements router.Spawner: enqueues cl as a new secondary
// task and returns immediately without waiting for it to run, so a
// Block action never blocks the router from processing the next event
// (spec §8 scenario 5).
func (rt *Runtime) SpawnBlock(cl *value.Closure) {
	t := rt.newTask("block")
	go rt.runTaskBody(t, func() error {
		_, err := rt.Interp.CallClosure(cl, nil)
		return err
	})
	rt.readyCh <- t
}

// Sleep implements interp.Host: it performs a SleepOp and parks the
// calling task until the scheduler's timer heap wakes it.
func (rt *Runtime) Sleep(ms float64) {
	t := rt.current
	t.yield <- effectMsg{op: SleepOp{Duration: time.Duration(ms * float64(time.Millisecond))}}
	<-t.proceed
}

// Execute implements interp.Host.
func (rt *Runtime) Execute(cmd string, args []string) (string, bool) {
	t := rt.current
	t.yield <- effectMsg{op: ExecuteOp{Cmd: cmd, Args: args}}
	<-t.proceed
	return t.executeResult.Output, t.executeResult.OK
}

// Send implements interp.Host: it writes the expanded sequence
// directly to the virtual device, bypassing the Router entirely so it
// can never re-trigger the mapping that's currently running it (spec
// §5's reentrancy-guard contract for a Block's own send(...)).
func (rt *Runtime) Send(seq string) error {
	parsed, err := keys.ParseSequence(seq)
	if err != nil {
		return err
	}
	for _, ev := range parsed.Expand() {
		if err := rt.Output.Emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// ActiveWindowClass implements interp.Host (spec §4.J: synchronous,
// cached last-known value).
func (rt *Runtime) ActiveWindowClass() (string, bool) {
	if rt.Window == nil {
		return "", false
	}
	return rt.Window.ActiveWindowClass()
}

// OnWindowChange implements interp.Host: registers cb, preserving
// registration order (spec §8 scenario 6).
func (rt *Runtime) OnWindowChange(cb *value.Closure) {
	rt.mu.Lock()
	rt.windowCallbacks = append(rt.windowCallbacks, cb)
	rt.mu.Unlock()
}

// NotifyWindowChanged invokes every registered on_window_change
// callback, in registration order, each as its own secondary task
// (spec §4.J). Called by the Window Observer's own poller goroutine
// when the foreground window's class changes.
func (rt *Runtime) NotifyWindowChanged(class string) {
	rt.mu.Lock()
	cbs := append([]*value.Closure(nil), rt.windowCallbacks...)
	rt.mu.Unlock()

	for _, cb := range cbs {
		cb := cb
		t := rt.newTask("window-change")
		go rt.runTaskBody(t, func() error {
			_, err := rt.Interp.CallClosure(cb, []value.Value{value.Str(class)})
			return err
		})
		rt.readyCh <- t
	}
}

// Exit implements interp.Host: records the exit code for the caller of
// Run to observe via ExitCode, then stops the scheduler.
func (rt *Runtime) Exit(code int) {
	rt.exitMu.Lock()
	rt.exited, rt.exitCode = true, code
	rt.exitMu.Unlock()
	rt.Stop()
}

// ExitCode reports whether exit() was called and with what code.
func (rt *Runtime) ExitCode() (int, bool) {
	rt.exitMu.Lock()
	defer rt.exitMu.Unlock()
	return rt.exitCode, rt.exited
}

// Yield implements interp.Yielder (SPEC_FULL.md §9's fuel-based
// preemption point): give the scheduler a chance to service a ready
// input event or another parked task before this one continues.
func (rt *Runtime) Yield() {
	t := rt.current
	if t == nil {
		return
	}
	t.yield <- effectMsg{op: yieldOp{}}
	<-t.proceed
}

package task

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/kmods/keymods/internal/ast"
	"github.com/kmods/keymods/internal/interp"
	"github.com/kmods/keymods/internal/keys"
	"github.com/kmods/keymods/internal/mapping"
)

type fakeOutput struct{}

func (fakeOutput) Emit(keys.RawEvent) error { return nil }

func newTestRuntime() *Runtime {
	it := interp.New(mapping.New(), nil, io.Discard)
	rt := New(it, nil, fakeOutput{}, nil)
	it.Host = rt
	return rt
}

// TestDispatchEffectSleepArmsTimer covers the sleep() builtin's effect:
// dispatchEffect is a plain type switch over effectOp, no kont
// indirection, so a SleepOp must land directly in the timer heap.
func TestDispatchEffectSleepArmsTimer(t *testing.T) {
	rt := newTestRuntime()
	rt.current = &task{id: 1, kind: "test"}

	rt.dispatchEffect(SleepOp{Duration: 5 * time.Millisecond})

	if len(rt.timers) != 1 {
		t.Fatalf("timers = %d, want 1", len(rt.timers))
	}
}

// TestDispatchEffectYieldReenqueues covers the fuel-based yield point:
// a yieldOp must put the current task straight back on readyCh.
func TestDispatchEffectYieldReenqueues(t *testing.T) {
	rt := newTestRuntime()
	tk := &task{id: 1, kind: "test"}
	rt.current = tk

	rt.dispatchEffect(yieldOp{})

	select {
	case got := <-rt.readyCh:
		if got != tk {
			t.Fatalf("readyCh got %+v, want the current task", got)
		}
	default:
		t.Fatal("expected yieldOp to push the current task onto readyCh")
	}
}

// TestRunCompletesWithEmptyProgramAndClosedEvents covers the scheduler
// loop itself: an empty top-level script runs to completion on its own
// goroutine without ever yielding, and Run returns once the events
// channel is drained and closed.
func TestRunCompletesWithEmptyProgramAndClosedEvents(t *testing.T) {
	rt := newTestRuntime()

	events := make(chan keys.RawEvent)
	close(events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx, &ast.Program{}, events, func(keys.RawEvent) error { return nil }) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

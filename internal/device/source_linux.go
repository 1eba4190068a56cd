//go:build linux

package device

import (
	"context"
	"fmt"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sync/errgroup"

	"github.com/kmods/keymods/internal/diag"
	"github.com/kmods/keymods/internal/keys"
)

// DeviceEvent pairs a raw event with the index of the device it came
// from (spec §3's (device_id, RawEvent) tuple).
type DeviceEvent struct {
	DeviceID int
	Event    keys.RawEvent
}

// Source grabs each resolved device path and feeds decoded RawEvents
// into a shared channel, one read goroutine per device coordinated by
// an errgroup.Group so context cancellation tears all of them down
// together and a single misbehaving device can't leak a goroutine
// (SPEC_FULL.md §4.I). A failed grab is a warning, not a fatal error
// (spec §5): that device is simply never started.
type Source struct {
	Log *diag.Logger

	events chan DeviceEvent
}

// NewSource creates a Source whose output channel buffers 256 events.
func NewSource(log *diag.Logger) *Source {
	return &Source{Log: log, events: make(chan DeviceEvent, 256)}
}

// Events is the channel Run's consumer reads from.
func (s *Source) Events() <-chan DeviceEvent { return s.events }

// Run grabs every resolved path and reads until ctx is cancelled or
// every device's read loop has exited. Devices that fail to open or
// grab are logged and skipped; if paths was non-empty and no device
// could be started, Run logs a warning and returns nil rather than
// failing — "-d" with no usable device is a warning, not fatal
// (SPEC_FULL.md §6). Run returns an error only from a read loop.
func (s *Source) Run(ctx context.Context, paths []string) error {
	defer close(s.events)

	eg, egctx := errgroup.WithContext(ctx)
	started := 0
	for i, path := range paths {
		id, path := i, path
		dev, err := evdev.Open(path)
		if err != nil {
			s.Log.Warn("device %s: open failed: %v", path, err)
			continue
		}
		if err := dev.Grab(); err != nil {
			s.Log.Warn("device %s: grab failed (device busy?): %v", path, err)
			_ = dev.Close()
			continue
		}
		started++
		eg.Go(func() error {
			return s.readLoop(egctx, id, path, dev)
		})
	}

	if started == 0 && len(paths) > 0 {
		s.Log.Warn("no input device could be grabbed; running with no device input")
	}

	return eg.Wait()
}

func (s *Source) readLoop(ctx context.Context, id int, path string, dev *evdev.InputDevice) error {
	defer dev.Close()
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = dev.Close()
		close(done)
	}()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			select {
			case <-ctx.Done():
				<-done
				return nil
			default:
			}
			return fmt.Errorf("device %s: read: %w", path, err)
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		raw := keys.RawEvent{
			DeviceID: id,
			Type:     keys.EvKey,
			Code:     keys.Code(ev.Code),
			Value:    ev.Value,
			Time:     time.Now(),
		}
		select {
		case s.events <- DeviceEvent{DeviceID: id, Event: raw}:
		case <-ctx.Done():
			<-done
			return nil
		}
	}
}

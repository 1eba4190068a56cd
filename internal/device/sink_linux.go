//go:build linux

package device

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/kmods/keymods/internal/keys"
)

// uinput ioctl request codes (linux/uinput.h); not exposed by
// golang.org/x/sys/unix, so defined locally the way a single-purpose
// ioctl caller does when the stdlib/ecosystem package doesn't carry a
// given device's magic numbers (SPEC_FULL.md's domain-stack table:
// unix.IoctlSetInt generalized from tty ioctl use, per
// gdamore-tcell's tty_unix.go, to uinput ioctl use).
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	evKey        = 0x01
)

// uinputUserDev mirrors struct uinput_user_dev from linux/uinput.h
// for the legacy write-based device setup (no UI_DEV_SETUP ioctl): a
// fixed-size name buffer followed by the input_id fields and unused
// axis tables, written once before UI_DEV_CREATE.
type uinputUserDev struct {
	Name       [80]byte
	BusType    uint16
	Vendor     uint16
	Product    uint16
	Version    uint16
	FF         int32
	AbsMax     [64]int32
	AbsMin     [64]int32
	AbsFuzz    [64]int32
	AbsFlat    [64]int32
}

// rawInputEvent mirrors struct input_event's wire layout: a timeval
// followed by type/code/value, the same shape device.Source decodes
// events out of on the read side.
type rawInputEvent struct {
	Sec, Usec int64
	Type      uint16
	Code      uint16
	Value     int32
}

// Sink is the uinput virtual output device (spec §6): a file opened
// on /dev/uinput, configured via UI_SET_EVBIT/UI_SET_KEYBIT ioctls
// for every key code the engine might synthesize, given its identity
// by writing a uinput_user_dev record, then UI_DEV_CREATE'd. Emit
// writes raw input_event
// records; the kernel delivers them to anything reading the resulting
// virtual device node.
type Sink struct {
	f *os.File
}

// NewSink opens /dev/uinput, registers every known key code as
// capable, and creates the device under the given name/vendor/product
// (SPEC_FULL.md §1's config-controlled uinput identity).
func NewSink(name string, vendor, product uint16) (*Sink, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}

	if err := unix.IoctlSetInt(int(f.Fd()), uiSetEvBit, evKey); err != nil {
		f.Close()
		return nil, fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for _, code := range keys.AllKnownCodes() {
		if err := unix.IoctlSetInt(int(f.Fd()), uiSetKeyBit, int(code)); err != nil {
			f.Close()
			return nil, fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], name)
	dev.BusType = 0x03 // BUS_USB
	dev.Vendor = vendor
	dev.Product = product
	dev.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		f.Close()
		return nil, fmt.Errorf("write uinput_user_dev: %w", err)
	}

	if err := unix.IoctlSetInt(int(f.Fd()), uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}

	return &Sink{f: f}, nil
}

// Emit writes ev as a raw input_event, followed by the EV_SYN report
// every evdev consumer expects to terminate a batch (spec §3/§6).
func (s *Sink) Emit(ev keys.RawEvent) error {
	if err := s.write(uint16(ev.Type), uint16(ev.Code), ev.Value); err != nil {
		return err
	}
	return s.write(uint16(keys.EvSyn), 0, 0)
}

func (s *Sink) write(typ, code uint16, value int32) error {
	rec := rawInputEvent{Type: typ, Code: code, Value: value}
	return binary.Write(s.f, binary.LittleEndian, &rec)
}

// Close destroys the uinput device and closes the file descriptor.
func (s *Sink) Close() error {
	_ = unix.IoctlSetInt(int(s.f.Fd()), uiDevDestroy, 0)
	return s.f.Close()
}

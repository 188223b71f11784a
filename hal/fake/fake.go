// Package fake provides an in-memory [hal.HAL] that plays back a scripted
// USB device for tests: vendor control transfers read and write a register
// file, and bulk-IN transfers are satisfied from a queue of pre-recorded
// wire-format byte frames.
//
// It is adapted from the request-dispatch idiom in the teacher's
// device/setup.go (a tagged switch over bmRequestType/bRequest pairs),
// narrowed to the single vendor FPGA_CONFIG request the DAVIS protocol
// actually uses.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/go-daq/davisusb/hal"
	"github.com/go-daq/davisusb/pkg"
)

// VendorRequestFPGAConfig is the sole control-transfer request code the
// DAVIS protocol defines: a 4-byte big-endian register read or write
// addressed by (wValue=module, wIndex=param).
const VendorRequestFPGAConfig = 0xC2

type regKey struct {
	module, param uint8
}

// Device is a scripted DAVIS device. Construct with New, seed registers
// with SetRegister, queue bulk frames with PushFrame, then pass it as the
// hal.Handle returned from a HAL.Open.
type Device struct {
	mu   sync.Mutex
	regs map[regKey]uint32

	frames [][]byte

	bus, addr uint8
	serial    string

	// pending holds transfers submitted but not yet completed; HandleEvents
	// drains one queued frame into each, in submission order.
	pending []*hal.Transfer

	closed bool

	// nextStatus, when non-nil, overrides the completion status of the
	// first transfer the next HandleEvents completes, instead of drawing
	// from the frame queue — used to
	// simulate cancellation/no-device death during teardown tests.
	nextStatus *hal.Status
}

// New creates a scripted device identified by bus/addr/serial for Open
// filter matching.
func New(bus, addr uint8, serial string) *Device {
	return &Device{
		regs:   make(map[regKey]uint32),
		bus:    bus,
		addr:   addr,
		serial: serial,
	}
}

// SetRegister seeds the value FPGA_CONFIG reads for (module, param).
func (d *Device) SetRegister(module, param uint8, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[regKey{module, param}] = value
}

// Register returns the value most recently written to (module, param),
// or 0 if never written (matching an FPGA register bank read as zero).
func (d *Device) Register(module, param uint8) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[regKey{module, param}]
}

// PushFrame queues a raw little-endian wire-format byte slice to be
// returned by the next bulk-IN transfer(s) (split across transfers the
// way a real USB bulk endpoint would if it is larger than one transfer's
// buffer).
func (d *Device) PushFrame(frame []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, frame)
}

// FailNextTransfer arranges for the first transfer completed by the next
// HandleEvents (the oldest pending one) to complete with the given status
// instead of consuming a queued frame.
func (d *Device) FailNextTransfer(status hal.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := status
	d.nextStatus = &s
}

// ControlTransfer implements hal.Handle.
func (d *Device) ControlTransfer(_ context.Context, dir hal.Direction, request uint8, value, index uint16, data []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if request != VendorRequestFPGAConfig {
		return 0, pkg.ErrInvalidRequest
	}

	key := regKey{uint8(value), uint8(index)}

	if dir == hal.DirectionIn {
		v := d.regs[key]
		if len(data) < 4 {
			return 0, pkg.ErrBufferTooSmall
		}
		data[0] = byte(v >> 24)
		data[1] = byte(v >> 16)
		data[2] = byte(v >> 8)
		data[3] = byte(v)
		return 4, nil
	}

	if len(data) < 4 {
		return 0, pkg.ErrSetupPacketTooShort
	}
	d.regs[key] = uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	return 4, nil
}

// Submit implements hal.Handle.
func (d *Device) Submit(t *hal.Transfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return pkg.ErrNoDevice
	}
	d.pending = append(d.pending, t)
	return nil
}

// Cancel implements hal.Handle.
func (d *Device) Cancel(t *hal.Transfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, p := range d.pending {
		if p == t {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			t.ActualLength = 0
			cb := t.Callback
			d.mu.Unlock()
			if cb != nil {
				cb(t, hal.StatusCancelled)
			}
			d.mu.Lock()
			return nil
		}
	}
	return nil
}

// HandleEvents implements hal.Handle: it completes every pending transfer
// with the next queued frame (or the scripted failure status), in FIFO
// order, then returns. Real transports would block up to timeout waiting
// for the transport to have anything ready; the fake has no such latency.
func (d *Device) HandleEvents(_ context.Context, _ time.Duration) error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	override := d.nextStatus
	d.nextStatus = nil
	d.mu.Unlock()

	for _, t := range pending {
		if override != nil {
			status := *override
			override = nil
			t.ActualLength = 0
			if t.Callback != nil {
				t.Callback(t, status)
			}
			continue
		}

		d.mu.Lock()
		var frame []byte
		if len(d.frames) > 0 {
			frame = d.frames[0]
			d.frames = d.frames[1:]
		}
		d.mu.Unlock()

		if frame == nil {
			// Nothing queued: transfer completes empty, as a real idle
			// bulk endpoint eventually does on timeout-less hardware.
			t.ActualLength = 0
			if t.Callback != nil {
				t.Callback(t, hal.StatusCompleted)
			}
			continue
		}

		n := copy(t.Buffer, frame)
		t.ActualLength = n
		if n < len(frame) {
			d.mu.Lock()
			d.frames = append([][]byte{frame[n:]}, d.frames...)
			d.mu.Unlock()
		}
		if t.Callback != nil {
			t.Callback(t, hal.StatusCompleted)
		}
	}
	return nil
}

func (d *Device) BusNumber() uint8     { return d.bus }
func (d *Device) DeviceAddress() uint8 { return d.addr }
func (d *Device) SerialNumber() string { return d.serial }

// Close implements hal.Handle.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// HAL is a [hal.HAL] that always returns a single pre-configured [Device],
// regardless of the requested vid/pid, as long as any bus/address/serial
// filters in Open match what the Device was constructed with.
type HAL struct {
	Device *Device
}

// Open implements hal.HAL.
func (h *HAL) Open(_ context.Context, _, _ uint16, _ uint8, busFilter, addrFilter uint8, serialFilter string) (hal.Handle, error) {
	if h.Device == nil {
		return nil, pkg.ErrNoDevice
	}
	if busFilter != 0 && busFilter != h.Device.bus {
		return nil, pkg.ErrNoDevice
	}
	if addrFilter != 0 && addrFilter != h.Device.addr {
		return nil, pkg.ErrNoDevice
	}
	if serialFilter != "" && serialFilter != h.Device.serial {
		return nil, pkg.ErrNoDevice
	}
	return h.Device, nil
}

package davis

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-daq/davisusb/hal"
	"github.com/go-daq/davisusb/pkg"
)

// requestFPGAConfig is the sole vendor control request the DAVIS protocol
// defines: a 4-byte big-endian register read or write addressed by
// (wValue=module, wIndex=param).
const requestFPGAConfig = 0xC2

// controlTimeout bounds a single vendor control transfer.
const controlTimeout = 1 * time.Second

// dataEndpointAddress is the bulk-IN endpoint DAVIS streams events on.
const dataEndpointAddress = 0x82

// transferTeardownTimeout bounds each event-pump call during Transfer Ring
// teardown.
const transferTeardownTimeout = 100 * time.Millisecond

// workerPumpTimeout bounds each event-pump call on the acquisition
// thread's steady-state loop. It is a fixed value; it is not derived from
// the configured packet intervals.
const workerPumpTimeout = 1 * time.Second

// ConfigSet writes a 32-bit value to a device register over the control
// endpoint (C7). It is the only channel to the device register bank;
// streaming uses a separate bulk endpoint.
func (d *Device) ConfigSet(module, param uint8, value uint32) error {
	if d.handle == nil {
		return pkg.ErrClosed
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	_, err := d.handle.ControlTransfer(ctx, hal.DirectionOut, requestFPGAConfig, uint16(module), uint16(param), buf[:])
	if err != nil {
		return fmt.Errorf("config set module=%d param=%d: %w", module, param, err)
	}
	return nil
}

// ConfigGet reads a 32-bit value from a device register over the control
// endpoint (C7).
func (d *Device) ConfigGet(module, param uint8) (uint32, error) {
	if d.handle == nil {
		return 0, pkg.ErrClosed
	}
	var buf [4]byte

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	_, err := d.handle.ControlTransfer(ctx, hal.DirectionIn, requestFPGAConfig, uint16(module), uint16(param), buf[:])
	if err != nil {
		return 0, fmt.Errorf("config get module=%d param=%d: %w", module, param, err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

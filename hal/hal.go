// Package hal defines the hardware-abstraction boundary between the DAVIS
// acquisition core and the concrete USB transport it runs on.
//
// A real platform HAL wraps a USB host stack (e.g. Linux usbfs, or a CGo
// binding to libusb); the fake HAL in [github.com/go-daq/davisusb/hal/fake]
// plays back recorded wire-format byte streams for tests. The core package
// never imports a concrete transport directly — it only depends on the
// interfaces below.
package hal

import (
	"context"
	"time"
)

// Direction indicates the data-phase direction of a control transfer.
type Direction uint8

// Control transfer directions (bit 7 of bmRequestType).
const (
	DirectionOut Direction = 0x00 // Host to device.
	DirectionIn  Direction = 0x80 // Device to host.
)

// Request type bits (bits 6:5 of bmRequestType). DAVIS uses only Vendor.
const (
	RequestTypeVendor = 0x40
	RecipientDevice   = 0x00
)

// Status is the completion status of an asynchronous bulk transfer,
// mirroring the handful of libusb_transfer_status values the original
// driver actually branches on.
type Status uint8

// Bulk transfer completion statuses.
const (
	StatusCompleted Status = iota // Transfer completed; Transfer.Buffer holds ActualLength valid bytes.
	StatusCancelled               // Transfer was cancelled during teardown.
	StatusNoDevice                // Device vanished; do not resubmit.
	StatusError                   // Some other transport error; eligible for resubmission.
)

// Transfer is a single asynchronous bulk-IN request, pre-allocated by the
// Transfer Ring and resubmitted in place on every completion.
type Transfer struct {
	Endpoint uint8
	Buffer   []byte

	// ActualLength is set by the HAL before Callback runs, and is valid
	// only when Status == StatusCompleted.
	ActualLength int

	// Callback runs on the HAL's completion path (synchronously, inline
	// with HandleEvents, for the fake HAL; on the libusb event thread for
	// a real one). It must not block.
	Callback func(t *Transfer, status Status)

	// hal-private bookkeeping; opaque to callers.
	private any
}

// Handle represents one opened, claimed USB device.
type Handle interface {
	// ControlTransfer performs a single synchronous vendor control
	// transfer. For DirectionIn, data is filled with up to len(data)
	// bytes of response; for DirectionOut, data is sent verbatim.
	ControlTransfer(ctx context.Context, dir Direction, request uint8, value, index uint16, data []byte) (int, error)

	// Submit arms t for asynchronous completion. t.Callback fires exactly
	// once per Submit, after which the transfer is no longer owned by the
	// HAL until resubmitted.
	Submit(t *Transfer) error

	// Cancel requests cancellation of a previously submitted transfer.
	// The transfer's callback still fires, with StatusCancelled.
	Cancel(t *Transfer) error

	// HandleEvents pumps the transport's completion/event queue for up to
	// timeout, invoking any ready callbacks. It never blocks longer than
	// timeout even if nothing is ready.
	HandleEvents(ctx context.Context, timeout time.Duration) error

	// BusNumber, DeviceAddress and SerialNumber identify the opened
	// device for logging and for Open's optional filters.
	BusNumber() uint8
	DeviceAddress() uint8
	SerialNumber() string

	// Close releases the claimed interface and the underlying device
	// handle. Close must only be called after all submitted transfers
	// have completed or been cancelled.
	Close() error
}

// HAL discovers and opens DAVIS-family devices. Discovery and enumeration
// below the vendor control-transfer level (bus scanning, descriptor
// parsing, address assignment) are the HAL's concern, not the core's.
type HAL interface {
	// Open searches for a device matching vid/pid/devType, optionally
	// restricted to a bus number, device address, or serial number (a
	// zero value for busFilter/addrFilter, or an empty serialFilter,
	// means "don't restrict"). It claims interface 0 before returning.
	Open(ctx context.Context, vid, pid uint16, devType uint8, busFilter, addrFilter uint8, serialFilter string) (Handle, error)
}

package davis

import (
	"context"
	"sync"

	"github.com/go-daq/davisusb/hal"
	"github.com/go-daq/davisusb/pkg"
)

// transferRing is a fixed set of pre-submitted bulk-IN transfers (C2). On
// completion, a payload is handed to the decoder and the transfer is
// resubmitted in place, unless the device is gone or the transfer was
// cancelled during teardown.
type transferRing struct {
	handle hal.Handle
	device *Device

	mu     sync.Mutex
	active int
	slots  []*hal.Transfer
}

func newTransferRing(device *Device, handle hal.Handle, count, size int) *transferRing {
	r := &transferRing{handle: handle, device: device}
	r.slots = make([]*hal.Transfer, 0, count)
	for i := 0; i < count; i++ {
		t := &hal.Transfer{
			Endpoint: dataEndpointAddress,
			Buffer:   make([]byte, size),
		}
		t.Callback = r.onComplete
		r.slots = append(r.slots, t)
	}
	return r
}

// arm submits every transfer in the ring. Called once from Start.
func (r *transferRing) arm() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.slots {
		if err := r.handle.Submit(t); err != nil {
			return err
		}
		r.active++
	}
	return nil
}

func (r *transferRing) onComplete(t *hal.Transfer, status hal.Status) {
	switch status {
	case hal.StatusCompleted:
		if t.ActualLength > 0 {
			r.device.decode(t.Buffer[:t.ActualLength])
		}
		if err := r.handle.Submit(t); err != nil {
			pkg.LogWarn(pkg.ComponentRing, "resubmit failed, dropping transfer", "error", err)
			r.retire()
		}
	case hal.StatusError:
		if err := r.handle.Submit(t); err != nil {
			pkg.LogWarn(pkg.ComponentRing, "resubmit after error failed, dropping transfer", "error", err)
			r.retire()
		}
	case hal.StatusCancelled, hal.StatusNoDevice:
		r.retire()
	}
}

func (r *transferRing) retire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active > 0 {
		r.active--
	}
}

// activeCount reports how many transfers are still in flight.
func (r *transferRing) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// teardown cancels every transfer and pumps the event loop with a bounded
// timeout until none remain active, matching the original's
// cancel-then-pump teardown sequence.
func (r *transferRing) teardown(ctx context.Context) {
	r.mu.Lock()
	slots := append([]*hal.Transfer(nil), r.slots...)
	r.mu.Unlock()

	for _, t := range slots {
		if err := r.handle.Cancel(t); err != nil {
			pkg.LogWarn(pkg.ComponentRing, "cancel failed during teardown", "error", err)
		}
	}

	for r.activeCount() > 0 {
		if err := r.handle.HandleEvents(ctx, transferTeardownTimeout); err != nil {
			pkg.LogWarn(pkg.ComponentRing, "event pump failed during teardown", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

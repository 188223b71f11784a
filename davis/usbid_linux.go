//go:build linux

package davis

import (
	"sync"

	"github.com/go-daq/davisusb/pkg/linux/usbid"
)

// usbidOnce/usbidDB lazily load the system USB-ID database the first time a
// vendor or product name is looked up, matching the teacher's caching
// behavior in pkg/linux/usbid.Database.
var (
	usbidOnce sync.Once
	usbidDB   *usbid.Database
)

// lookupNames best-effort resolves human-readable vendor/product names for
// the log line Open emits on success. A missing or unreadable usb.ids file
// is not an error; both returns are simply empty.
func lookupNames(vid, pid uint16) (vendor, product string) {
	usbidOnce.Do(func() {
		usbidDB = usbid.New()
		usbidDB.Load()
	})
	return usbidDB.LookupVendor(vid), usbidDB.LookupProduct(vid, pid)
}

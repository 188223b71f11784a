//go:build !linux

package davis

// lookupNames is a no-op on platforms without a usb.ids database: the log
// line Open emits simply omits vendor/product names.
func lookupNames(vid, pid uint16) (vendor, product string) {
	return "", ""
}

// Package davis implements the user-space acquisition core for the DAVIS
// family of neuromorphic vision sensors.
//
// It owns four pieces that together turn a raw USB bulk stream into typed
// event packets: the Transfer Ring that keeps bulk-IN transfers armed, the
// byte-to-event decoder that parses the device's compact 16-bit wire
// format, the per-modality packet aging and commit policy, and the
// acquisition worker that drives the USB event loop while streaming.
//
// # Architecture
//
//   - Device is the public handle: Open, Start, Stop, Get, ConfigSet/Get.
//   - decoderState holds all decoder-hot-path state; it is thread-local to
//     the acquisition goroutine and never touched by the consumer.
//   - exchange is the bounded SPSC queue of committed containers.
//   - transferRing owns the set of pre-submitted bulk transfers.
//
// # Transport
//
// This package never talks to a concrete USB transport directly — it is
// written entirely against the [github.com/go-daq/davisusb/hal] interfaces.
// A fake, in-memory implementation for tests is available in
// [github.com/go-daq/davisusb/hal/fake].
//
// # Example
//
//	dev, err := davis.Open(ctx, myHAL, davis.OpenConfig{
//	    VendorID: 0x152A, ProductID: 0x841B, MinLogicRevision: 7017,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	dev.Start(ctx, nil, nil)
//	defer dev.Stop()
//
//	for {
//	    c, err := dev.GetBlocking(ctx)
//	    if err != nil {
//	        break
//	    }
//	    _ = c
//	}
package davis

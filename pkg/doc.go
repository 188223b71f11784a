// Package pkg provides shared utilities for the DAVIS acquisition core.
//
// This package contains common functionality used by the davis and
// hal/fake packages:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for the fatal/transient conditions in the
//     core's error taxonomy
//
// The package has zero external dependencies, relying only on the Go
// standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with acquisition-core context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDecoder, "timestamp reset received")
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrLogicVersionTooOld) {
//	    // Refuse to talk to an outdated device.
//	}
package pkg

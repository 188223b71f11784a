package pkg

import "errors"

// Acquisition-core errors, covering the fatal/transient taxonomy of the
// Open/Start/Stop/ConfigSet/ConfigGet surface.
var (
	// ErrNoDevice indicates no matching device was found (VID/PID, or an
	// optional bus/address/serial filter, did not match).
	ErrNoDevice = errors.New("no matching device found")

	// ErrLogicVersionTooOld indicates the device's FPGA logic revision is
	// below the caller-required minimum.
	ErrLogicVersionTooOld = errors.New("device logic revision too old")

	// ErrSerialMismatch indicates the device's serial number does not
	// match the caller's filter.
	ErrSerialMismatch = errors.New("device serial number does not match")

	// ErrAllocation indicates a resource (packet, transfer, staging
	// buffer) could not be allocated at Start.
	ErrAllocation = errors.New("failed to allocate acquisition resources")

	// ErrAlreadyRunning indicates Start was called while already streaming.
	ErrAlreadyRunning = errors.New("already streaming")

	// ErrNotRunning indicates Stop, or an operation requiring an active
	// stream, was called while not streaming.
	ErrNotRunning = errors.New("not streaming")

	// ErrClosed indicates an operation was attempted on a closed device.
	ErrClosed = errors.New("device closed")

	// ErrInvalidRequest indicates an unsupported control request code.
	ErrInvalidRequest = errors.New("invalid control request")

	// ErrBufferTooSmall indicates a control-transfer data buffer was too
	// small to hold the requested register.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrSetupPacketTooShort indicates an OUT control-transfer payload
	// was shorter than the 4 bytes FPGA_CONFIG requires.
	ErrSetupPacketTooShort = errors.New("control payload too short")
)

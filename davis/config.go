package davis

import "sync/atomic"

// config holds the runtime-tunable knobs from spec §6, stored as atomics so
// they can be read by the aging checks (C5) while streaming and written by
// a caller at any time, matching the original's atomic_load/atomic_store
// usage around davisOpen/davisCommonDataStart.
type config struct {
	usbBufferNumber atomic.Uint32
	usbBufferSize   atomic.Uint32

	exchangeBufferSize atomic.Uint32
	exchangeBlocking   atomic.Bool

	polarityMaxSize     atomic.Uint32
	polarityMaxInterval atomic.Uint32
	specialMaxSize      atomic.Uint32
	specialMaxInterval  atomic.Uint32
	frameMaxSize        atomic.Uint32
	frameMaxInterval    atomic.Uint32
	imu6MaxSize         atomic.Uint32
	imu6MaxInterval     atomic.Uint32
}

// Default configuration values, matching davisOpen's defaults.
const (
	defaultUSBBufferNumber = 8
	defaultUSBBufferSize   = 4096

	defaultExchangeBufferSize = 64

	defaultPolarityMaxSize     = 4096
	defaultPolarityMaxInterval = 5000
	defaultSpecialMaxSize      = 128
	defaultSpecialMaxInterval  = 1000
	defaultFrameMaxSize        = 4
	defaultFrameMaxInterval    = 50000
	defaultIMU6MaxSize         = 8
	defaultIMU6MaxInterval     = 5000
)

func newConfig() *config {
	c := &config{}
	c.usbBufferNumber.Store(defaultUSBBufferNumber)
	c.usbBufferSize.Store(defaultUSBBufferSize)
	c.exchangeBufferSize.Store(defaultExchangeBufferSize)
	c.polarityMaxSize.Store(defaultPolarityMaxSize)
	c.polarityMaxInterval.Store(defaultPolarityMaxInterval)
	c.specialMaxSize.Store(defaultSpecialMaxSize)
	c.specialMaxInterval.Store(defaultSpecialMaxInterval)
	c.frameMaxSize.Store(defaultFrameMaxSize)
	c.frameMaxInterval.Store(defaultFrameMaxInterval)
	c.imu6MaxSize.Store(defaultIMU6MaxSize)
	c.imu6MaxInterval.Store(defaultIMU6MaxInterval)
	return c
}

// Config keys accepted by (*Device).SetParam/GetParam, mirroring spec §6's
// configurable-knobs table. These are host-side tunables, distinct from the
// device-register (module, param) pairs ConfigSet/ConfigGet address.
type Param int

// Host-side tunable parameters.
const (
	ParamUSBBufferNumber Param = iota
	ParamUSBBufferSize
	ParamExchangeBufferSize
	ParamExchangeBlocking
	ParamPolarityMaxSize
	ParamPolarityMaxInterval
	ParamSpecialMaxSize
	ParamSpecialMaxInterval
	ParamFrameMaxSize
	ParamFrameMaxInterval
	ParamIMU6MaxSize
	ParamIMU6MaxInterval
)

// SetParam sets a host-side tunable. It is safe to call before Start (to
// configure) or while streaming (most knobs take effect on the next
// aging check or the next Start).
func (d *Device) SetParam(p Param, value uint32) {
	switch p {
	case ParamUSBBufferNumber:
		d.cfg.usbBufferNumber.Store(value)
	case ParamUSBBufferSize:
		d.cfg.usbBufferSize.Store(value)
	case ParamExchangeBufferSize:
		d.cfg.exchangeBufferSize.Store(value)
	case ParamExchangeBlocking:
		d.cfg.exchangeBlocking.Store(value != 0)
	case ParamPolarityMaxSize:
		d.cfg.polarityMaxSize.Store(value)
	case ParamPolarityMaxInterval:
		d.cfg.polarityMaxInterval.Store(value)
	case ParamSpecialMaxSize:
		d.cfg.specialMaxSize.Store(value)
	case ParamSpecialMaxInterval:
		d.cfg.specialMaxInterval.Store(value)
	case ParamFrameMaxSize:
		d.cfg.frameMaxSize.Store(value)
	case ParamFrameMaxInterval:
		d.cfg.frameMaxInterval.Store(value)
	case ParamIMU6MaxSize:
		d.cfg.imu6MaxSize.Store(value)
	case ParamIMU6MaxInterval:
		d.cfg.imu6MaxInterval.Store(value)
	}
}

// GetParam returns the current value of a host-side tunable.
func (d *Device) GetParam(p Param) uint32 {
	switch p {
	case ParamUSBBufferNumber:
		return d.cfg.usbBufferNumber.Load()
	case ParamUSBBufferSize:
		return d.cfg.usbBufferSize.Load()
	case ParamExchangeBufferSize:
		return d.cfg.exchangeBufferSize.Load()
	case ParamExchangeBlocking:
		if d.cfg.exchangeBlocking.Load() {
			return 1
		}
		return 0
	case ParamPolarityMaxSize:
		return d.cfg.polarityMaxSize.Load()
	case ParamPolarityMaxInterval:
		return d.cfg.polarityMaxInterval.Load()
	case ParamSpecialMaxSize:
		return d.cfg.specialMaxSize.Load()
	case ParamSpecialMaxInterval:
		return d.cfg.specialMaxInterval.Load()
	case ParamFrameMaxSize:
		return d.cfg.frameMaxSize.Load()
	case ParamFrameMaxInterval:
		return d.cfg.frameMaxInterval.Load()
	case ParamIMU6MaxSize:
		return d.cfg.imu6MaxSize.Load()
	case ParamIMU6MaxInterval:
		return d.cfg.imu6MaxInterval.Load()
	default:
		return 0
	}
}

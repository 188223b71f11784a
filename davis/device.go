package davis

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-daq/davisusb/hal"
	"github.com/go-daq/davisusb/pkg"
)

// Register module addresses on the FPGA configuration bus, used by
// Open/Start to fetch device geometry and capability bits.
const (
	moduleSysInfo uint8 = 0
	moduleMux     uint8 = 1
	moduleDVS     uint8 = 3
	moduleAPS     uint8 = 4
	moduleIMU     uint8 = 5
	moduleChip    uint8 = 9
)

// SysInfo register parameters.
const (
	sysInfoLogicVersion   uint8 = 0
	sysInfoChipID         uint8 = 1
	sysInfoDeviceIsMaster uint8 = 2
	sysInfoLogicClock     uint8 = 3
	sysInfoADCClock       uint8 = 4
)

// DVS register parameters.
const (
	dvsSizeColumns uint8 = 0
	dvsSizeRows    uint8 = 1
	dvsInvertXY    uint8 = 2
	dvsOrientation uint8 = 3 // bit0=flipX, bit1=flipY
)

// APS register parameters.
const (
	apsSizeColumns   uint8 = 0
	apsSizeRows      uint8 = 1
	apsGlobalShutter uint8 = 2
	apsHasGlobal     uint8 = 3
	apsColorFilter   uint8 = 4
	apsHasQuadROI    uint8 = 5
	apsResetRead     uint8 = 6
)

// IMU register parameters.
const (
	imuAccelScaleConfig uint8 = 0
	imuGyroScaleConfig  uint8 = 1
)

// Device is an opened DAVIS sensor. It owns the decoder state, the
// exchange buffer, and the transfer ring for the duration of a streaming
// session, and is safe for concurrent Start/Stop/Get/ConfigSet/ConfigGet
// calls from different goroutines (only one streaming session may be
// active at a time).
type Device struct {
	h      hal.HAL
	handle hal.Handle

	info DeviceInfo
	cfg  *config
	log  *pkg.DeviceLogger

	mu      sync.Mutex
	running bool
	state   *decoderState
	exch    *exchange
	ring    *transferRing

	onIncrease, onDecrease func()

	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

// Open connects to a matching device, reads its immutable geometry and
// capability bits over the control endpoint, and returns a Device ready
// for Start. It fails if the device's logic revision is below
// cfg.MinLogicRevision or its serial number does not match
// cfg.SerialNumber.
func Open(ctx context.Context, h hal.HAL, cfg OpenConfig) (*Device, error) {
	handle, err := h.Open(ctx, cfg.VendorID, cfg.ProductID, cfg.DeviceType, cfg.BusNumber, cfg.DeviceAddress, cfg.SerialNumber)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	d := &Device{
		h:      h,
		handle: handle,
		cfg:    newConfig(),
	}

	if err := d.fetchInfo(ctx, cfg); err != nil {
		handle.Close()
		return nil, err
	}
	d.log = pkg.NewDeviceLogger(pkg.ComponentControl,
		"serial", d.info.SerialNumber, "chip", d.info.ChipID.String())

	vendor, product := lookupNames(d.info.VendorID, d.info.ProductID)
	d.log.Info("device opened", "logic_version", d.info.LogicVersion, "vendor", vendor, "product", product)

	return d, nil
}

func (d *Device) fetchInfo(ctx context.Context, cfg OpenConfig) error {
	logicVersion, err := d.configGetCtx(ctx, moduleSysInfo, sysInfoLogicVersion)
	if err != nil {
		return fmt.Errorf("read logic version: %w", err)
	}
	if cfg.MinLogicRevision != 0 && uint16(logicVersion) < cfg.MinLogicRevision {
		return fmt.Errorf("open: %w (have %d, want >= %d)", pkg.ErrLogicVersionTooOld, logicVersion, cfg.MinLogicRevision)
	}

	chipID, _ := d.configGetCtx(ctx, moduleSysInfo, sysInfoChipID)
	isMaster, _ := d.configGetCtx(ctx, moduleSysInfo, sysInfoDeviceIsMaster)
	logicClock, _ := d.configGetCtx(ctx, moduleSysInfo, sysInfoLogicClock)
	adcClock, _ := d.configGetCtx(ctx, moduleSysInfo, sysInfoADCClock)

	dvsX, _ := d.configGetCtx(ctx, moduleDVS, dvsSizeColumns)
	dvsY, _ := d.configGetCtx(ctx, moduleDVS, dvsSizeRows)
	invertXY, _ := d.configGetCtx(ctx, moduleDVS, dvsInvertXY)
	orientation, _ := d.configGetCtx(ctx, moduleDVS, dvsOrientation)

	apsX, _ := d.configGetCtx(ctx, moduleAPS, apsSizeColumns)
	apsY, _ := d.configGetCtx(ctx, moduleAPS, apsSizeRows)
	globalShutter, _ := d.configGetCtx(ctx, moduleAPS, apsHasGlobal)
	colorFilter, _ := d.configGetCtx(ctx, moduleAPS, apsColorFilter)
	quadROI, _ := d.configGetCtx(ctx, moduleAPS, apsHasQuadROI)

	d.info = DeviceInfo{
		VendorID:      cfg.VendorID,
		ProductID:     cfg.ProductID,
		DeviceType:    cfg.DeviceType,
		SerialNumber:  d.handle.SerialNumber(),
		BusNumber:     d.handle.BusNumber(),
		DeviceAddress: d.handle.DeviceAddress(),

		LogicVersion: uint16(logicVersion),
		LogicClock:   uint16(logicClock),
		ADCClock:     uint16(adcClock),
		IsMaster:     isMaster != 0,

		ChipID: ChipID(chipID),

		DVSSizeX: int(dvsX),
		DVSSizeY: int(dvsY),
		APSSizeX: int(apsX),
		APSSizeY: int(apsY),
		InvertXY: invertXY != 0,
		FlipX:    orientation&0x1 != 0,
		FlipY:    orientation&0x2 != 0,

		ColorFilter:      ColorFilter(colorFilter),
		HasGlobalShutter: globalShutter != 0,
		HasQuadROI:       quadROI != 0,
	}

	if cfg.SerialNumber != "" && d.info.SerialNumber != cfg.SerialNumber {
		return fmt.Errorf("open: %w (have %q, want %q)", pkg.ErrSerialMismatch, d.info.SerialNumber, cfg.SerialNumber)
	}

	return nil
}

// seedDecoderState fetches the current global-shutter flag, reset-read
// flag, and IMU accel/gyro scale configuration from the device and seeds
// the freshly-allocated decoder state with them, matching
// davisCommonDataStart's own round of spiConfigReceive calls. Without
// this, imuAccelScale/imuGyroScale default to zero and the first IMU6
// sample that arrives before an in-stream scale-config word divides by
// zero in storeIMURaw.
func (d *Device) seedDecoderState(ctx context.Context) {
	globalShutter, _ := d.configGetCtx(ctx, moduleAPS, apsGlobalShutter)
	resetRead, _ := d.configGetCtx(ctx, moduleAPS, apsResetRead)
	accelScaleCfg, _ := d.configGetCtx(ctx, moduleIMU, imuAccelScaleConfig)
	gyroScaleCfg, _ := d.configGetCtx(ctx, moduleIMU, imuGyroScaleConfig)

	d.state.globalShutter = globalShutter != 0
	d.state.resetReadEnabled = resetRead != 0
	d.state.imuAccelScale = calcAccelScale(uint16(accelScaleCfg))
	d.state.imuGyroScale = calcGyroScale(uint16(gyroScaleCfg))
}

func (d *Device) configGetCtx(ctx context.Context, module, param uint8) (uint32, error) {
	var buf [4]byte
	_, err := d.handle.ControlTransfer(ctx, hal.DirectionIn, requestFPGAConfig, uint16(module), uint16(param), buf[:])
	if err != nil {
		return 0, err
	}
	return beUint32(buf[:]), nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Info returns the device's immutable description.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// Start begins streaming: it allocates the exchange buffer, the decoder
// state, and the transfer ring, then arms the ring and spawns the
// acquisition worker (C6). onIncrease, if non-nil, is invoked
// synchronously from the worker whenever a container is enqueued to the
// exchange buffer. onDecrease, if non-nil, is invoked by Get/GetBlocking
// for each container they return, and by Stop for each container it drains.
func (d *Device) Start(ctx context.Context, onIncrease, onDecrease func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return pkg.ErrAlreadyRunning
	}
	if d.handle == nil {
		return pkg.ErrClosed
	}

	d.onIncrease = onIncrease
	d.onDecrease = onDecrease

	d.state = newDecoderState(d.info, d.cfg)
	d.seedDecoderState(ctx)
	d.exch = newExchange(int(d.cfg.exchangeBufferSize.Load()))
	d.ring = newTransferRing(d, d.handle, int(d.cfg.usbBufferNumber.Load()), int(d.cfg.usbBufferSize.Load()))

	if err := d.ring.arm(); err != nil {
		return fmt.Errorf("start: %w: %w", pkg.ErrAllocation, err)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	d.workerCancel = cancel
	d.workerDone = make(chan struct{})
	d.running = true

	go d.runWorker(workerCtx)

	return nil
}

// runWorker is the acquisition thread (C6): it pumps the HAL's event loop
// until cancelled, then returns. All of the Transfer Ring's completion
// callbacks — and therefore all decoding and aging — run synchronously
// inside this pump, on this goroutine.
func (d *Device) runWorker(ctx context.Context) {
	defer close(d.workerDone)

	for {
		if err := d.handle.HandleEvents(ctx, workerPumpTimeout); err != nil {
			pkg.LogWarn(pkg.ComponentWorker, "event pump error", "error", err)
		}
		if ctx.Err() != nil {
			return
		}
		if d.ring.activeCount() == 0 {
			pkg.LogWarn(pkg.ComponentWorker, "no transfers remain active, exiting pump")
			return
		}
	}
}

// Stop ends streaming: it cancels the worker, cancels and drains the
// transfer ring, then drains any containers still queued in the exchange
// buffer (invoking onDecrease for each) before releasing packet memory.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return pkg.ErrNotRunning
	}

	d.workerCancel()
	<-d.workerDone

	teardownCtx, cancel := context.WithTimeout(context.Background(), transferTeardownTimeout*20)
	defer cancel()
	d.ring.teardown(teardownCtx)

	for _, c := range d.exch.drain() {
		_ = c
		if d.onDecrease != nil {
			d.onDecrease()
		}
	}

	d.state = nil
	d.exch = nil
	d.ring = nil
	d.running = false

	return nil
}

// Get returns the next committed container. If ParamExchangeBlocking is
// set, it blocks until one is available, matching davisCommonDataGet's
// retry loop; otherwise it returns (nil, false) if the exchange buffer is
// currently empty.
func (d *Device) Get() (*Container, bool) {
	d.mu.Lock()
	exch := d.exch
	blocking := d.cfg.exchangeBlocking.Load()
	d.mu.Unlock()
	if exch == nil {
		return nil, false
	}

	if blocking {
		c, err := exch.getBlocking(context.Background())
		if err != nil {
			return nil, false
		}
		if d.onDecrease != nil {
			d.onDecrease()
		}
		return c, true
	}

	c, ok := exch.get()
	if ok && d.onDecrease != nil {
		d.onDecrease()
	}
	return c, ok
}

// GetBlocking returns the next committed container, blocking until one is
// available or ctx is done.
func (d *Device) GetBlocking(ctx context.Context) (*Container, error) {
	d.mu.Lock()
	exch := d.exch
	d.mu.Unlock()
	if exch == nil {
		return nil, pkg.ErrNotRunning
	}
	c, err := exch.getBlocking(ctx)
	if err != nil {
		return nil, err
	}
	if d.onDecrease != nil {
		d.onDecrease()
	}
	return c, nil
}

// Close releases the device. Start must not be active; call Stop first.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return pkg.ErrAlreadyRunning
	}
	if d.handle == nil {
		return pkg.ErrClosed
	}
	err := d.handle.Close()
	d.handle = nil
	return err
}

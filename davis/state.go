package davis

// readoutPhase is the APS column state: a small enum rather than a bool so
// a future third phase (e.g. a second CDS pass) has somewhere to go.
type readoutPhase uint8

const (
	readoutReset readoutPhase = iota
	readoutSignal
)

// rgbOffsetDirection is the walk direction of the DAVIS-RGB striped
// readout offset.
type rgbOffsetDirection uint8

const (
	rgbOffsetInc rgbOffsetDirection = iota
	rgbOffsetDec
)

// adcDepth is the sensor's ADC resolution; signal pixels are left-shifted
// by (16 - adcDepth) bits after CDS subtraction.
const adcDepth = 10

// decoderState is the only mutable state the hot path touches. It is
// created at Start, reset (partially) on TIMESTAMP_RESET, and destroyed at
// Stop.
type decoderState struct {
	wrapAdd           uint32
	currentTS, lastTS int32

	dvsGotY  bool
	dvsLastY uint16

	currentReadout   readoutPhase
	countX, countY   [2]int
	globalShutter    bool
	resetReadEnabled bool
	apsIgnoreEvents  bool
	rgbPixelOffset   int16
	rgbOffsetDir     rgbOffsetDirection
	resetFrame       []uint16

	imuCount        uint8
	imuTmpData      uint8
	imuIgnoreEvents bool
	imuAccelScale   float32
	imuGyroScale    float32

	polarity *PolarityPacket
	special  *SpecialPacket
	frame    *FramePacket
	imu6     *IMU6Packet

	// geometry and orientation, snapshotted from DeviceInfo at Start.
	dvsSizeX, dvsSizeY int
	apsSizeX, apsSizeY int
	invertXY           bool
	flipX, flipY       bool
	chip               ChipID

	// channels is the APS channel count the reset-frame staging buffer is
	// sized by: 1 for a monochrome filter, 4 for either RGBG or RGBW.
	channels int

	// window0StartX/Y is the active quad-ROI window origin used to address
	// the reset-frame staging buffer. The core does not manage ROI windows
	// itself (out of scope); it defaults to (0, 0), covering the full
	// sensor.
	window0StartX, window0StartY int
}

func newDecoderState(info DeviceInfo, cfg *config) *decoderState {
	channels := 1
	if info.ColorFilter != ColorFilterMono {
		channels = 4
	}

	s := &decoderState{
		dvsSizeX: info.DVSSizeX,
		dvsSizeY: info.DVSSizeY,
		apsSizeX: info.APSSizeX,
		apsSizeY: info.APSSizeY,
		invertXY: info.InvertXY,
		flipX:    info.FlipX,
		flipY:    info.FlipY,
		chip:     info.ChipID,
		channels: channels,
	}
	s.resetFrame = make([]uint16, info.APSSizeX*info.APSSizeY*channels)
	s.allocatePackets(cfg)
	return s
}

func (s *decoderState) allocatePackets(cfg *config) {
	s.polarity = newPolarityPacket(int(cfg.polarityMaxSize.Load()))
	s.special = newSpecialPacket(int(cfg.specialMaxSize.Load()))
	s.frame = newFramePacket(int(cfg.frameMaxSize.Load()))
	s.imu6 = newIMU6Packet(int(cfg.imu6MaxSize.Load()))
}

// resetTimestamps clears the timestamp-reconstruction state on a
// TIMESTAMP_RESET special event. In-progress packets are force-committed
// by the caller, not here.
func (s *decoderState) resetTimestamps() {
	s.wrapAdd = 0
	s.currentTS = 0
	s.lastTS = 0
}

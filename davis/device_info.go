package davis

// DeviceInfo is the immutable description of an opened device, fetched
// once at Open via the Control Surface (C7) and never mutated thereafter.
type DeviceInfo struct {
	VendorID, ProductID, DeviceID uint16
	DeviceType                    uint8
	SerialNumber                  string
	BusNumber, DeviceAddress      uint8

	LogicVersion uint16
	LogicClock   uint16
	ADCClock     uint16
	IsMaster     bool

	ChipID ChipID

	DVSSizeX, DVSSizeY int
	APSSizeX, APSSizeY int
	InvertXY           bool
	FlipX, FlipY       bool
	ColorFilter        ColorFilter

	// Open reads HasGlobalShutter and HasQuadROI from the device. The
	// other capability bits, and DeviceID, are not read and keep their
	// zero value.
	HasPixelFilter              bool
	HasBackgroundActivityFilter bool
	HasTestEventGenerator       bool
	HasGlobalShutter            bool
	HasQuadROI                  bool
	HasExternalADC              bool
	HasInternalADC              bool
	HasExternalInputGenerator   bool
}

// OpenConfig parameterizes Open.
type OpenConfig struct {
	VendorID, ProductID uint16
	DeviceType          uint8

	// BusNumber, DeviceAddress, SerialNumber restrict the device matched
	// by the HAL's Open. A zero BusNumber/DeviceAddress, or an empty
	// SerialNumber, means "don't restrict on this field".
	BusNumber     uint8
	DeviceAddress uint8
	SerialNumber  string

	// MinLogicRevision rejects devices whose reported logic version is
	// lower than this value. Zero disables the check.
	MinLogicRevision uint16
}

package davis

// ChipID identifies the DAVIS sensor variant. Two values change decoder
// behavior: ChipDAVISRGB swaps the reset/signal CDS roles in global
// shutter, and ChipDAVIS208 inverts DVS polarity for low-address pixels.
type ChipID uint8

// Known DAVIS chip identifiers.
const (
	ChipUnknown ChipID = iota
	ChipDAVIS240
	ChipDAVIS128
	ChipDAVIS346
	ChipDAVIS640
	ChipDAVISRGB
	ChipDAVIS208
)

// String returns the chip's common name.
func (c ChipID) String() string {
	switch c {
	case ChipDAVIS240:
		return "DAVIS240"
	case ChipDAVIS128:
		return "DAVIS128"
	case ChipDAVIS346:
		return "DAVIS346"
	case ChipDAVIS640:
		return "DAVIS640"
	case ChipDAVISRGB:
		return "DAVISRGB"
	case ChipDAVIS208:
		return "DAVIS208"
	default:
		return "unknown"
	}
}

// ColorFilter identifies the APS color filter array layout, if any.
type ColorFilter uint8

// Color filter layouts.
const (
	ColorFilterMono ColorFilter = iota
	ColorFilterRGBG
	ColorFilterRGBW
)

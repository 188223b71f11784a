package davis

import "github.com/go-daq/davisusb/pkg"

// timestampWrapUnit is the number of microseconds a single wrap-event
// multiplier unit contributes to wrap_add.
const timestampWrapUnit = 0x8000

// applyTick expands a 15-bit device tick into the reconstructed 32-bit
// microsecond timeline and checks monotonicity (invariant 1).
func (s *decoderState) applyTick(tick uint16) {
	s.currentTS = int32(s.wrapAdd + uint32(tick&0x7FFF))
	s.checkMonotonic()
}

// applyWrap advances wrap_add by a wrap event's multiplier and republishes
// current_ts from it directly (the device does not also send a tick word
// alongside a wrap).
func (s *decoderState) applyWrap(multiplier uint16) {
	s.wrapAdd += timestampWrapUnit * uint32(multiplier)
	s.currentTS = int32(s.wrapAdd)
	s.checkMonotonic()
}

func (s *decoderState) checkMonotonic() {
	if s.currentTS <= s.lastTS {
		pkg.LogWarn(pkg.ComponentDecoder, "non-monotonic timestamp",
			"current", s.currentTS, "last", s.lastTS)
	}
	s.lastTS = s.currentTS
}

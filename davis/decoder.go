package davis

import (
	"encoding/binary"

	"github.com/go-daq/davisusb/pkg"
)

// decode is the byte-to-event decoder (C4): a pure function over a byte
// slice and the decoder state, called from the transfer ring's completion
// callback. It never blocks. Packet (re)allocation happens only at commit
// time, in aging.go; the one allocation made here is a frame's pixel array,
// at each APS frame start.
func (d *Device) decode(data []byte) {
	if len(data)%2 != 0 {
		pkg.LogWarn(pkg.ComponentDecoder, "odd trailing byte discarded", "length", len(data))
		data = data[:len(data)-1]
	}

	for i := 0; i+1 < len(data); i += 2 {
		d.decodeWord(binary.LittleEndian.Uint16(data[i:]))
	}
}

func (d *Device) decodeWord(word uint16) {
	s := d.state

	if word&0x8000 != 0 {
		s.applyTick(word)
		return
	}

	code := (word >> 12) & 0x7
	value := word & 0x0FFF

	switch code {
	case 0:
		d.decodeSpecial(value)
	case 1:
		d.decodeDVSY(value)
	case 2:
		d.decodeDVSX(value, false)
	case 3:
		d.decodeDVSX(value, true)
	case 4:
		d.decodeAPSSample(value)
	case 5:
		d.decodeMisc8(value)
	case 7:
		s.applyWrap(value)
	default:
		pkg.LogError(pkg.ComponentDecoder, "unknown event code", "code", code)
	}
}

func (d *Device) decodeSpecial(subtype uint16) {
	s := d.state
	switch subtype {
	case 0:
		pkg.LogError(pkg.ComponentDecoder, "reserved special event")
	case 1:
		d.decodeTimestampReset()
	case 2:
		d.emitSpecial(SpecialExternalInputFalling, 0)
	case 3:
		d.emitSpecial(SpecialExternalInputRising, 0)
	case 4:
		d.emitSpecial(SpecialExternalInputPulse, 0)
	case 5:
		s.imuIgnoreEvents = false
		s.imuCount = 0
		d.startIMU6()
	case 7:
		d.endIMU6()
	case 8:
		d.startAPSFrame(true, true, false)
	case 9:
		d.startAPSFrame(false, true, false)
	case 10:
		d.endAPSFrame()
	case 11:
		d.startAPSResetColumn()
	case 12:
		d.startAPSSignalColumn()
	case 13:
		d.endAPSColumn()
	case 14:
		d.startAPSFrame(true, false, true)
	case 15:
		d.startAPSFrame(false, false, true)
	default:
		if subtype >= 16 && subtype <= 31 {
			d.configureIMUScale(subtype)
			return
		}
		pkg.LogError(pkg.ComponentDecoder, "unknown special subtype", "subtype", subtype)
	}
}

// decodeTimestampReset zeroes the timestamp-reconstruction state, emits the
// reset marker itself (carrying the sentinel 0xFFFFFFFF timestamp), and
// force-commits every in-progress packet.
func (d *Device) decodeTimestampReset() {
	s := d.state
	s.resetTimestamps()
	d.appendSpecial(SpecialTimestampReset, -1, 0)
	d.ageAll()
}

func (d *Device) appendSpecial(kind SpecialKind, ts int32, data uint32) {
	s := d.state
	p := s.special
	if p.pos >= len(p.Events) {
		return
	}
	p.Events[p.pos] = Special{Timestamp: ts, Kind: kind, Data: data}
	p.pos++
}

func (d *Device) emitSpecial(kind SpecialKind, data uint32) {
	d.appendSpecial(kind, d.state.currentTS, data)
	d.ageSpecial(false)
}

func (d *Device) decodeDVSY(data uint16) {
	s := d.state
	if int(data) >= s.dvsSizeY {
		pkg.LogWarn(pkg.ComponentDecoder, "DVS Y out of range", "y", data, "size", s.dvsSizeY)
		return
	}
	if s.dvsGotY {
		d.appendSpecial(SpecialDVSRowOnly, s.currentTS, uint32(s.dvsLastY))
		d.ageSpecial(false)
	}
	s.dvsLastY = data
	s.dvsGotY = true
}

func (d *Device) decodeDVSX(data uint16, on bool) {
	s := d.state
	if int(data) >= s.dvsSizeX {
		pkg.LogWarn(pkg.ComponentDecoder, "DVS X out of range", "x", data, "size", s.dvsSizeX)
		return
	}
	if !s.dvsGotY {
		return
	}

	polarityOn := on
	if s.chip == ChipDAVIS208 && data < 192 {
		polarityOn = !polarityOn
	}

	x, y := data, s.dvsLastY
	if s.invertXY {
		x, y = y, x
	}

	p := s.polarity
	if p.pos < len(p.Events) {
		p.Events[p.pos] = Polarity{Timestamp: s.currentTS, X: x, Y: y, On: polarityOn}
		p.pos++
	}
	s.dvsGotY = false
	d.agePolarity(false)
}

func (d *Device) decodeAPSSample(data uint16) {
	s := d.state
	if s.apsIgnoreEvents {
		return
	}
	if s.frame.pos >= len(s.frame.Events) {
		return
	}
	f := &s.frame.Events[s.frame.pos]
	phase := s.currentReadout

	if s.countY[phase] >= f.Height {
		return
	}

	xPos := s.countX[phase]
	if s.flipX {
		xPos = f.Width - 1 - s.countX[phase]
	}
	yPos := s.countY[phase]
	if s.flipY {
		yPos = f.Height - 1 - s.countY[phase]
	}
	if s.chip == ChipDAVISRGB {
		yPos += int(s.rgbPixelOffset)
	}
	if s.invertXY {
		xPos, yPos = yPos, xPos
	}

	linear := yPos*f.Width + xPos
	abs := (yPos+s.window0StartY)*s.apsSizeX + (xPos + s.window0StartX)

	rgbSwapped := s.chip == ChipDAVISRGB && s.globalShutter
	storePhase := readoutReset
	if rgbSwapped {
		storePhase = readoutSignal
	}

	if abs >= 0 && abs < len(s.resetFrame) {
		if phase == storePhase {
			s.resetFrame[abs] = data
		} else {
			var pixel int32
			if rgbSwapped {
				pixel = int32(data) - int32(s.resetFrame[abs])
			} else {
				pixel = int32(s.resetFrame[abs]) - int32(data)
			}
			if pixel < 0 {
				pixel = 0
			}
			if linear >= 0 && linear < len(f.Pixels) {
				f.Pixels[linear] = uint16(pixel) << (16 - adcDepth)
			}
		}
	}

	s.countY[phase]++
	d.stepRGBOffset()
}

func (d *Device) stepRGBOffset() {
	s := d.state
	if s.chip != ChipDAVISRGB {
		return
	}
	switch s.rgbOffsetDir {
	case rgbOffsetInc:
		s.rgbPixelOffset++
		if s.rgbPixelOffset == 321 {
			s.rgbOffsetDir = rgbOffsetDec
			s.rgbPixelOffset = 318
		}
	case rgbOffsetDec:
		s.rgbPixelOffset -= 3
	}
}

func (d *Device) endAPSFrame() {
	s := d.state
	if s.apsIgnoreEvents {
		return
	}
	if s.frame.pos >= len(s.frame.Events) {
		return
	}
	f := &s.frame.Events[s.frame.pos]

	valid := true
	if !s.resetReadEnabled {
		if s.countX[readoutReset] != 0 {
			pkg.LogError(pkg.ComponentDecoder, "APS reset column count mismatch with reset reads disabled",
				"count", s.countX[readoutReset])
			valid = false
		}
	} else if s.countX[readoutReset] != f.Width {
		pkg.LogError(pkg.ComponentDecoder, "APS reset column count mismatch",
			"count", s.countX[readoutReset], "width", f.Width)
		valid = false
	}
	if s.countX[readoutSignal] != f.Width {
		pkg.LogError(pkg.ComponentDecoder, "APS signal column count mismatch",
			"count", s.countX[readoutSignal], "width", f.Width)
		valid = false
	}

	f.TimestampEndOfFrame = s.currentTS
	f.Valid = valid

	s.frame.pos++
	d.ageFrame(false)
}

func (d *Device) startAPSFrame(globalShutter, resetReadsEnabled, stampExposureNow bool) {
	s := d.state
	if s.frame.pos >= len(s.frame.Events) {
		return
	}
	f := &s.frame.Events[s.frame.pos]

	s.currentReadout = readoutReset
	s.countX = [2]int{0, 0}
	s.countY = [2]int{0, 0}
	s.apsIgnoreEvents = false
	s.globalShutter = globalShutter
	s.resetReadEnabled = resetReadsEnabled

	*f = Frame{
		Width:    s.apsSizeX,
		Height:   s.apsSizeY,
		Channels: 1,
	}
	f.Pixels = make([]uint16, f.Width*f.Height*f.Channels)
	f.TimestampStartOfFrame = s.currentTS
	if stampExposureNow {
		f.TimestampStartOfExposure = s.currentTS
	}
}

func (d *Device) startAPSResetColumn() {
	s := d.state
	if s.apsIgnoreEvents {
		return
	}
	s.currentReadout = readoutReset
	s.countY[readoutReset] = 0
	s.rgbPixelOffset = 1
	s.rgbOffsetDir = rgbOffsetInc

	if !s.globalShutter && s.countX[readoutReset] == 0 && s.frame.pos < len(s.frame.Events) {
		s.frame.Events[s.frame.pos].TimestampStartOfExposure = s.currentTS
	}
}

func (d *Device) startAPSSignalColumn() {
	s := d.state
	if s.apsIgnoreEvents {
		return
	}
	s.currentReadout = readoutSignal
	s.countY[readoutSignal] = 0
	s.rgbPixelOffset = 1
	s.rgbOffsetDir = rgbOffsetInc

	if s.countX[readoutSignal] == 0 && s.frame.pos < len(s.frame.Events) {
		s.frame.Events[s.frame.pos].TimestampEndOfExposure = s.currentTS
	}
}

func (d *Device) endAPSColumn() {
	s := d.state
	if s.apsIgnoreEvents {
		return
	}
	if s.frame.pos >= len(s.frame.Events) {
		return
	}
	f := &s.frame.Events[s.frame.pos]
	phase := s.currentReadout

	if s.countY[phase] != f.Height {
		pkg.LogError(pkg.ComponentDecoder, "APS column height mismatch",
			"phase", phase, "count", s.countY[phase], "height", f.Height)
	}
	s.countX[phase]++

	if s.globalShutter && phase == readoutReset && s.countX[readoutReset] == f.Width {
		f.TimestampStartOfExposure = s.currentTS
	}
}

func (d *Device) startIMU6() {
	s := d.state
	if s.imu6.pos < len(s.imu6.Events) {
		s.imu6.Events[s.imu6.pos] = IMU6{Timestamp: s.currentTS}
	}
}

func (d *Device) endIMU6() {
	s := d.state
	if s.imuIgnoreEvents {
		return
	}
	if s.imuCount != 14 {
		pkg.LogError(pkg.ComponentDecoder, "IMU6 end with incomplete sample", "count", s.imuCount)
		return
	}
	if s.imu6.pos >= len(s.imu6.Events) {
		return
	}
	s.imu6.pos++
	d.ageIMU6(false)
}

func (d *Device) configureIMUScale(subtype uint16) {
	s := d.state
	accelCfg := (subtype >> 2) & 3
	gyroCfg := subtype & 3
	s.imuAccelScale = calcAccelScale(accelCfg)
	s.imuGyroScale = calcGyroScale(gyroCfg)
	// Recoverable if an IMU6-start was missed or dropped: without this, a
	// stale imuCount scatters the following misc8 byte stream at the wrong
	// offsets and endIMU6's count==14 check never passes again. The
	// original driver resets its 1-based "next case" counter to 1; ours
	// counts bytes already consumed (0-based), so the equivalent reset —
	// ready to store the next byte's high half at idx=1 — is 0.
	s.imuCount = 0
}

// calcAccelScale returns the accelerometer LSB/g scale for a 2-bit
// configuration, matching the device's ±2g·2^cfg full-scale range table.
func calcAccelScale(cfg uint16) float32 {
	return 65536.0 / (4.0 * float32(uint32(1)<<cfg))
}

// calcGyroScale returns the gyroscope LSB/(deg/s) scale for a 2-bit
// configuration, matching the device's ±250·2^cfg deg/s full-scale table.
func calcGyroScale(cfg uint16) float32 {
	return 65536.0 / (500.0 * float32(uint32(1)<<cfg))
}

func (d *Device) decodeMisc8(data uint16) {
	subcode := (data >> 8) & 0xF
	if subcode != 0 {
		pkg.LogError(pkg.ComponentDecoder, "unhandled misc8 event", "subcode", subcode)
		return
	}
	d.decodeIMUSample(uint8(data & 0xFF))
}

// decodeIMUSample reassembles the 14-byte big-endian scatter-gather IMU6
// record, two bytes per field (accel x/y/z, temperature, gyro x/y/z). The
// byte position within the record is tracked as a count of bytes
// successfully incorporated so far (0-based), so that imuCount reads 14
// exactly once the 14th byte lands, matching the IMU-End validity check.
func (d *Device) decodeIMUSample(b uint8) {
	s := d.state
	if s.imuIgnoreEvents {
		return
	}

	n := s.imuCount
	if n >= 14 {
		pkg.LogError(pkg.ComponentDecoder, "IMU end missed, discarding byte")
		return
	}

	idx := n + 1
	if idx%2 == 1 {
		s.imuTmpData = b
	} else {
		raw := int16(uint16(s.imuTmpData)<<8 | uint16(b))
		d.storeIMURaw(idx, raw)
	}
	s.imuCount = idx
}

func (d *Device) storeIMURaw(idx uint8, raw int16) {
	s := d.state
	if s.imu6.pos >= len(s.imu6.Events) {
		return
	}
	ev := &s.imu6.Events[s.imu6.pos]
	switch idx {
	case 2:
		ev.AccelX = float32(raw) / s.imuAccelScale
	case 4:
		ev.AccelY = float32(raw) / s.imuAccelScale
	case 6:
		ev.AccelZ = float32(raw) / s.imuAccelScale
	case 8:
		ev.Temperature = float32(raw)/340.0 + 36.53
	case 10:
		ev.GyroX = float32(raw) / s.imuGyroScale
	case 12:
		ev.GyroY = float32(raw) / s.imuGyroScale
	case 14:
		ev.GyroZ = float32(raw) / s.imuGyroScale
	}
}

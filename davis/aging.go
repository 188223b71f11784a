package davis

import "github.com/go-daq/davisusb/pkg"

// ageAll force-commits every in-progress packet. TIMESTAMP_RESET is the
// only source of a force commit.
func (d *Device) ageAll() {
	d.agePolarity(true)
	d.ageSpecial(true)
	d.ageFrame(true)
	d.ageIMU6(true)
}

// shouldCommit applies the three commit triggers common to all four
// policies: force, capacity, and time-in-span. The span check only
// applies once at least two events are present.
func shouldCommit(force bool, pos, capacity int, firstTS, lastTS int32, interval uint32) bool {
	if force || pos >= capacity {
		return true
	}
	if pos > 1 && uint32(lastTS-firstTS) >= interval {
		return true
	}
	return false
}

func (d *Device) agePolarity(force bool) {
	s := d.state
	p := s.polarity
	if p.pos == 0 {
		return
	}
	interval := d.cfg.polarityMaxInterval.Load()
	capacity := min(len(p.Events), int(d.cfg.polarityMaxSize.Load()))
	if !shouldCommit(force, p.pos, capacity, p.Events[0].Timestamp, p.Events[p.pos-1].Timestamp, interval) {
		return
	}

	p.Events = p.Events[:p.pos]
	if d.exch.put(&Container{Polarity: p}) {
		d.notifyIncrease()
	} else {
		pkg.LogWarn(pkg.ComponentAging, "exchange buffer full, dropping polarity packet", "events", len(p.Events))
	}
	s.polarity = newPolarityPacket(int(d.cfg.polarityMaxSize.Load()))
}

func (d *Device) ageSpecial(force bool) {
	s := d.state
	p := s.special
	if p.pos == 0 {
		return
	}
	interval := d.cfg.specialMaxInterval.Load()
	capacity := min(len(p.Events), int(d.cfg.specialMaxSize.Load()))
	if !shouldCommit(force, p.pos, capacity, p.Events[0].Timestamp, p.Events[p.pos-1].Timestamp, interval) {
		return
	}

	p.Events = p.Events[:p.pos]
	c := &Container{Special: p}
	if d.exch.put(c) {
		d.notifyIncrease()
	} else if force {
		// Timestamp-critical: this packet must never be lost.
		for !d.exch.put(c) {
		}
		d.notifyIncrease()
	} else {
		pkg.LogWarn(pkg.ComponentAging, "exchange buffer full, dropping special packet", "events", len(p.Events))
	}
	s.special = newSpecialPacket(int(d.cfg.specialMaxSize.Load()))
}

func (d *Device) ageFrame(force bool) {
	s := d.state
	p := s.frame
	if p.pos == 0 {
		return
	}
	interval := d.cfg.frameMaxInterval.Load()
	capacity := min(len(p.Events), int(d.cfg.frameMaxSize.Load()))
	if !shouldCommit(force, p.pos, capacity, p.Events[0].TimestampStartOfExposure, p.Events[p.pos-1].TimestampStartOfExposure, interval) {
		return
	}

	p.Events = p.Events[:p.pos]
	if d.exch.put(&Container{Frame: p}) {
		d.notifyIncrease()
	} else {
		pkg.LogWarn(pkg.ComponentAging, "exchange buffer full, dropping frame packet", "events", len(p.Events))
		s.apsIgnoreEvents = true
	}
	s.frame = newFramePacket(int(d.cfg.frameMaxSize.Load()))
}

func (d *Device) ageIMU6(force bool) {
	s := d.state
	p := s.imu6
	if p.pos == 0 {
		return
	}
	interval := d.cfg.imu6MaxInterval.Load()
	capacity := min(len(p.Events), int(d.cfg.imu6MaxSize.Load()))
	if !shouldCommit(force, p.pos, capacity, p.Events[0].Timestamp, p.Events[p.pos-1].Timestamp, interval) {
		return
	}

	p.Events = p.Events[:p.pos]
	if d.exch.put(&Container{IMU6: p}) {
		d.notifyIncrease()
	} else {
		pkg.LogWarn(pkg.ComponentAging, "exchange buffer full, dropping IMU6 packet", "events", len(p.Events))
		s.imuIgnoreEvents = true
	}
	s.imu6 = newIMU6Packet(int(d.cfg.imu6MaxSize.Load()))
}

func (d *Device) notifyIncrease() {
	if d.onIncrease != nil {
		d.onIncrease()
	}
}

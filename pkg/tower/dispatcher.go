package tower

import (
	"github.com/golang/glog"

	"github.com/robotalks/tower.go/pkg/accel"
	"github.com/robotalks/tower.go/pkg/packet"
)

// FlashMemory is the part of flash exposed through the protocol.
type FlashMemory interface {
	Read8(addr int) (uint8, error)
	Write8(addr int, v uint8) error
	Erase() error
}

// Clock is the settable time of day.
type Clock interface {
	Set(h, m, s uint8) error
}

// AccelControl switches the accelerometer mode.
type AccelControl interface {
	Mode() accel.Mode
	SetMode(accel.Mode)
}

// Dispatcher handles assembled packets. Handle must not be called
// concurrently.
type Dispatcher struct {
	Builder *packet.Builder
	State   *State

	// Optional collaborators, commands using a missing one fail.
	Flash    FlashMemory
	Clock    Clock
	Accel    AccelControl
	Observer Observer
}

// NewDispatcher creates a Dispatcher emitting into sink.
func NewDispatcher(sink packet.ByteSink, state *State) *Dispatcher {
	return &Dispatcher{Builder: packet.NewBuilder(sink), State: state}
}

// Emit sends a packet and reports whether the sink took all of it.
func (d *Dispatcher) Emit(cmd, p1, p2, p3 byte) bool {
	if !d.Builder.Put(cmd, p1, p2, p3) {
		glog.V(2).Infof("TX %02x [%02x %02x %02x] failed", cmd, p1, p2, p3)
		return false
	}
	if d.Observer != nil {
		d.Observer.PacketSent(packet.Packet{Command: cmd, Parameter1: p1, Parameter2: p2, Parameter3: p3})
	}
	return true
}

func (d *Dispatcher) emitStartup() bool {
	return d.Emit(packet.CmdStartup, 0, 0, 0)
}

func (d *Dispatcher) emitVersion() bool {
	return d.Emit(packet.CmdVersion, packet.VersionTag, packet.VersionMajor, packet.VersionMinor)
}

func (d *Dispatcher) emitNumber() bool {
	n := d.State.Number()
	return d.Emit(packet.CmdTowerNumber, packet.SubGet, lsb(n), msb(n))
}

func (d *Dispatcher) emitMode() bool {
	m := d.State.Mode()
	return d.Emit(packet.CmdTowerMode, packet.SubGet, lsb(m), msb(m))
}

// Announce emits the packets a tower sends after power on.
func (d *Dispatcher) Announce() bool {
	return d.emitStartup() && d.emitNumber() && d.emitVersion() && d.emitMode()
}

// Handle executes one packet and acknowledges it when requested.
func (d *Dispatcher) Handle(pkt packet.Packet) {
	if d.Observer != nil {
		d.Observer.PacketReceived(pkt)
	}
	cmd := pkt.Cmd()
	ok := d.execute(cmd.Code, pkt)
	if !ok {
		glog.V(2).Infof("%s [%02x %02x %02x] failed", packet.CommandName(cmd.Code), pkt.Parameter1, pkt.Parameter2, pkt.Parameter3)
	}
	if cmd.Ack {
		d.Emit(packet.Command{Code: cmd.Code, Ack: ok}.Pack(), pkt.Parameter1, pkt.Parameter2, pkt.Parameter3)
	}
}

func (d *Dispatcher) execute(code byte, pkt packet.Packet) bool {
	switch code {
	case packet.CmdStartup:
		return d.emitStartup() && d.emitVersion() && d.emitNumber()
	case packet.CmdVersion:
		return d.emitVersion()
	case packet.CmdTowerNumber:
		switch pkt.Parameter1 {
		case packet.SubGet:
			return d.emitNumber()
		case packet.SubSet:
			return d.store(d.State.SetNumber, join(pkt.Parameter2, pkt.Parameter3))
		}
	case packet.CmdTowerMode:
		switch pkt.Parameter1 {
		case packet.SubGet:
			return d.emitMode()
		case packet.SubSet:
			return d.store(d.State.SetMode, join(pkt.Parameter2, pkt.Parameter3))
		}
	case packet.CmdProtocolMode:
		return d.protocolMode(pkt)
	case packet.CmdTime:
		return d.Clock != nil && d.Clock.Set(pkt.Parameter1, pkt.Parameter2, pkt.Parameter3) == nil
	case packet.CmdFlashProgram:
		return d.flashProgram(pkt)
	case packet.CmdFlashRead:
		return d.flashRead(pkt)
	}
	return false
}

func (d *Dispatcher) store(set func(uint16) error, v uint16) bool {
	if err := set(v); err != nil {
		glog.Errorf("store register: %v", err)
		return false
	}
	return true
}

func (d *Dispatcher) protocolMode(pkt packet.Packet) bool {
	if d.Accel == nil {
		return false
	}
	switch pkt.Parameter1 {
	case packet.SubGet:
		return d.Emit(packet.CmdProtocolMode, packet.SubGet, byte(d.Accel.Mode()), 0)
	case packet.SubSet:
		mode := accel.Mode(pkt.Parameter2)
		if !mode.Valid() {
			return false
		}
		d.Accel.SetMode(mode)
		return true
	}
	return false
}

func (d *Dispatcher) flashProgram(pkt packet.Packet) bool {
	if d.Flash == nil {
		return false
	}
	var err error
	switch addr := pkt.Parameter1; {
	case addr < packet.FlashEraseAddr:
		err = d.Flash.Write8(int(addr), pkt.Parameter3)
	case addr == packet.FlashEraseAddr:
		err = d.Flash.Erase()
	default:
		return false
	}
	if err != nil {
		glog.Errorf("flash program %d: %v", pkt.Parameter1, err)
		return false
	}
	return true
}

func (d *Dispatcher) flashRead(pkt packet.Packet) bool {
	if d.Flash == nil || pkt.Parameter1 >= packet.FlashEraseAddr {
		return false
	}
	v, err := d.Flash.Read8(int(pkt.Parameter1))
	if err != nil {
		glog.Errorf("flash read %d: %v", pkt.Parameter1, err)
		return false
	}
	return d.Emit(packet.CmdFlashRead, pkt.Parameter1, 0, v)
}

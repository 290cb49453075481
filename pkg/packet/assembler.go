package packet

import "github.com/golang/glog"

// ByteSource provides received bytes on demand.
type ByteSource interface {
	// TryReceiveByte returns false if no byte is buffered.
	TryReceiveByte() (byte, bool)
}

// Assembler assembles packets from bytes received.
// It is not safe for concurrent use: a single loop owns it.
type Assembler struct {
	pos int
	buf [Size]byte
}

// Feed consumes one byte and returns a packet once 5 bytes
// with a valid checksum are accumulated.
func (a *Assembler) Feed(b byte) (pkt Packet, ok bool) {
	switch a.pos {
	case 0, 1, 2, 3:
		a.buf[a.pos] = b
		a.pos++
	case 4:
		a.buf[4] = b
		a.pos = 0
		if Checksum(a.buf[0], a.buf[1], a.buf[2], a.buf[3]) == b {
			return Packet{
				Command:    a.buf[0],
				Parameter1: a.buf[1],
				Parameter2: a.buf[2],
				Parameter3: a.buf[3],
			}, true
		}
		// shift the window by one byte, the next byte starts a new frame.
		copy(a.buf[0:4], a.buf[1:5])
		glog.V(4).Infof("checksum mismatch, resync %x", a.buf[:4])
	default:
		glog.Errorf("assembler position %d out of range, reset", a.pos)
		a.pos = 0
	}
	return
}

// TryAssemble polls one byte from src. If no byte is available, the
// state is untouched.
func (a *Assembler) TryAssemble(src ByteSource) (Packet, bool) {
	b, ok := src.TryReceiveByte()
	if !ok {
		return Packet{}, false
	}
	return a.Feed(b)
}

// Drain polls src until a packet is assembled or src has no more bytes.
// The second result is false when src ran dry.
func (a *Assembler) Drain(src ByteSource) (Packet, bool) {
	for {
		b, ok := src.TryReceiveByte()
		if !ok {
			return Packet{}, false
		}
		if pkt, ok := a.Feed(b); ok {
			return pkt, true
		}
	}
}

// Pending returns the number of bytes of the in-progress frame.
func (a *Assembler) Pending() int {
	return a.pos
}

// Reset discards the in-progress frame.
func (a *Assembler) Reset() {
	a.pos = 0
}

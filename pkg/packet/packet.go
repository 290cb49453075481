package packet

import (
	"fmt"
	"io"
)

// Size is the length of a packet on the wire.
const Size = 5

// AckFlag is the bit in the command byte requesting an acknowledgment.
const AckFlag byte = 0x80

// Command is the decoded command byte.
type Command struct {
	Code byte
	Ack  bool
}

// UnpackCommand splits a command byte into code and ack flag.
func UnpackCommand(b byte) Command {
	return Command{Code: b &^ AckFlag, Ack: b&AckFlag != 0}
}

// Pack encodes the command into a single byte.
func (c Command) Pack() byte {
	b := c.Code &^ AckFlag
	if c.Ack {
		b |= AckFlag
	}
	return b
}

// WithAck returns a copy of the command with the ack flag set to ack.
func (c Command) WithAck(ack bool) Command {
	c.Ack = ack
	return c
}

// Packet contains the four data bytes of a packet.
// The checksum is always computed, never stored.
type Packet struct {
	Command    byte
	Parameter1 byte
	Parameter2 byte
	Parameter3 byte
}

// New creates a packet from a structured command.
func New(cmd Command, p1, p2, p3 byte) Packet {
	return Packet{Command: cmd.Pack(), Parameter1: p1, Parameter2: p2, Parameter3: p3}
}

// Checksum calculates the checksum of the packet.
func Checksum(cmd, p1, p2, p3 byte) byte {
	return cmd ^ p1 ^ p2 ^ p3
}

// Cmd decodes the command byte.
func (p Packet) Cmd() Command {
	return UnpackCommand(p.Command)
}

// Checksum returns the checksum byte of the packet.
func (p Packet) Checksum() byte {
	return Checksum(p.Command, p.Parameter1, p.Parameter2, p.Parameter3)
}

// Bytes returns encoded bytes for sending.
func (p Packet) Bytes() [Size]byte {
	return Build(p.Command, p.Parameter1, p.Parameter2, p.Parameter3)
}

// WriteTo writes encoded bytes.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	b := p.Bytes()
	n, err := w.Write(b[:])
	return int64(n), err
}

// String implements fmt.Stringer.
func (p Packet) String() string {
	cmd := p.Cmd()
	ack := ""
	if cmd.Ack {
		ack = "+ack"
	}
	return fmt.Sprintf("%02x%s [%02x %02x %02x]", cmd.Code, ack, p.Parameter1, p.Parameter2, p.Parameter3)
}

// Parse decodes exactly one packet from b.
func Parse(b []byte) (Packet, error) {
	if len(b) != Size {
		return Packet{}, fmt.Errorf("invalid packet length %d", len(b))
	}
	pkt := Packet{Command: b[0], Parameter1: b[1], Parameter2: b[2], Parameter3: b[3]}
	if pkt.Checksum() != b[4] {
		return Packet{}, ErrChecksum
	}
	return pkt, nil
}

// Package msgs defines the protobuf messages of tower telemetry.
package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/tower.go/pkg/packet"
)

// Directions of a Frame.
const (
	DirectionRx uint32 = 0
	DirectionTx uint32 = 1
)

// DirectionName returns the topic suffix of a direction.
func DirectionName(dir uint32) string {
	if dir == DirectionTx {
		return "tx"
	}
	return "rx"
}

// Frame is a packet seen by the tower.
type Frame struct {
	Direction  uint32 `protobuf:"varint,1,opt,name=direction,proto3" json:"direction,omitempty"`
	Command    uint32 `protobuf:"varint,2,opt,name=command,proto3" json:"command,omitempty"`
	Parameters []byte `protobuf:"bytes,3,opt,name=parameters,proto3" json:"parameters,omitempty"`
	Timestamp  int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewFrame creates a Frame from a packet.
func NewFrame(dir uint32, pkt packet.Packet, at time.Time) *Frame {
	return &Frame{
		Direction:  dir,
		Command:    uint32(pkt.Command),
		Parameters: []byte{pkt.Parameter1, pkt.Parameter2, pkt.Parameter3},
		Timestamp:  at.UnixNano(),
	}
}

// Packet converts the frame back to a packet.
func (m *Frame) Packet() packet.Packet {
	var params [3]byte
	copy(params[:], m.Parameters)
	return packet.Packet{
		Command:    byte(m.Command),
		Parameter1: params[0],
		Parameter2: params[1],
		Parameter3: params[2],
	}
}

// Time returns the timestamp.
func (m *Frame) Time() time.Time { return time.Unix(0, m.Timestamp) }

// ProtoMessage implements proto.Message.
func (m *Frame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// Info describes a tower, published retained.
type Info struct {
	ID      string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Version string   `protobuf:"bytes,2,opt,name=version,proto3" json:"version,omitempty"`
	Number  uint32   `protobuf:"varint,3,opt,name=number,proto3" json:"number,omitempty"`
	Mode    uint32   `protobuf:"varint,4,opt,name=mode,proto3" json:"mode,omitempty"`
	Links   []string `protobuf:"bytes,5,rep,name=links,proto3" json:"links,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Info) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Info) Reset() { *m = Info{} }

// String implements proto.Message.
func (m *Info) String() string { return proto.CompactTextString(m) }

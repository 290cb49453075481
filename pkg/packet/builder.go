package packet

// ByteSink accepts bytes for transmission.
type ByteSink interface {
	// TrySendByte returns false if the output buffer is full.
	TrySendByte(b byte) bool
}

// Build encodes a packet with checksum.
func Build(cmd, p1, p2, p3 byte) [Size]byte {
	return [Size]byte{cmd, p1, p2, p3, Checksum(cmd, p1, p2, p3)}
}

// Builder builds packets into a ByteSink.
type Builder struct {
	Sink ByteSink
}

// NewBuilder creates a Builder.
func NewBuilder(sink ByteSink) *Builder {
	return &Builder{Sink: sink}
}

// Put builds a packet and hands the bytes to the sink one by one.
// It stops at the first byte the sink refuses and returns false. Bytes
// already accepted are not rolled back.
func (b *Builder) Put(cmd, p1, p2, p3 byte) bool {
	for _, c := range Build(cmd, p1, p2, p3) {
		if !b.Sink.TrySendByte(c) {
			return false
		}
	}
	return true
}

// Send is Put for a Packet.
func (b *Builder) Send(pkt Packet) bool {
	return b.Put(pkt.Command, pkt.Parameter1, pkt.Parameter2, pkt.Parameter3)
}

// Package packet provides the tower packet protocol.
package packet

// The tower protocol is spoken between the tower firmware and a PC over
// a byte stream (usually a UART at 115200 baud).
//
// Every packet is exactly 5 bytes:
//
//	[Command][Parameter1][Parameter2][Parameter3][Checksum]
//
// where Checksum is the XOR of the four preceding bytes. There are no
// start or end delimiters. Framing relies on position and the checksum
// only: when a checksum does not match, the receiver shifts its window by
// one byte and starts collecting a new frame. A single corrupted byte
// therefore costs one resynchronization cycle. This is not a byte stuffing
// protocol, streams which never checksum-align never produce a packet.
//
// The top bit of the command byte requests an acknowledgment. It is
// exposed as Command.Ack and never mixed into the command code.
//
// Producer/Consumer: both ends.

package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type bytesSource struct {
	data []byte
}

func (s *bytesSource) TryReceiveByte() (byte, bool) {
	if len(s.data) == 0 {
		return 0, false
	}
	b := s.data[0]
	s.data = s.data[1:]
	return b, true
}

func frame(cmd, p1, p2, p3 byte) []byte {
	b := Build(cmd, p1, p2, p3)
	return b[:]
}

func feedAll(a *Assembler, in []byte) (pkts []Packet) {
	for _, b := range in {
		if pkt, ok := a.Feed(b); ok {
			pkts = append(pkts, pkt)
		}
	}
	return
}

func TestAssembler(t *testing.T) {
	var stream []byte
	stream = append(stream, frame(0x04, 0, 0, 0)...)
	stream = append(stream, frame(0x0b, 0x34, 0x12, 0x56)...)
	bad := frame(0x09, 1, 2, 3)
	bad[2] ^= 0x40
	stream = append(stream, bad...)
	stream = append(stream, frame(0x89, 0, 0, 0)...)

	testCases := []struct {
		name   string
		in     []byte
		expect []Packet
	}{
		{"empty", nil, nil},
		{"partial", frame(0x04, 0, 0, 0)[:4], nil},
		{"single", frame(0x09, 'v', 1, 0), []Packet{{Command: 0x09, Parameter1: 'v', Parameter2: 1}}},
		{"bad checksum", []byte{1, 2, 3, 4, 5}, nil},
		{
			"resync after corrupted byte",
			stream,
			[]Packet{
				{Command: 0x04},
				{Command: 0x0b, Parameter1: 0x34, Parameter2: 0x12, Parameter3: 0x56},
				{Command: 0x89},
			},
		},
		{
			"garbage frame then valid",
			append([]byte{0xde, 0xad, 0xbe, 0xef, 0x00}, frame(0x0c, 1, 2, 3)...),
			[]Packet{{Command: 0x0c, Parameter1: 1, Parameter2: 2, Parameter3: 3}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var a Assembler
			pkts := feedAll(&a, tc.in)
			require.Equal(t, tc.expect, pkts)
			for _, pkt := range pkts {
				require.Equal(t, pkt.Command^pkt.Parameter1^pkt.Parameter2^pkt.Parameter3, pkt.Checksum())
			}
		})
	}
}

func TestAssemblerYieldsOnFifthByte(t *testing.T) {
	var a Assembler
	in := frame(0x0d, 1, 2, 3)
	for i, b := range in[:4] {
		_, ok := a.Feed(b)
		require.False(t, ok)
		require.Equal(t, i+1, a.Pending())
	}
	pkt, ok := a.Feed(in[4])
	require.True(t, ok)
	require.Equal(t, Packet{Command: 0x0d, Parameter1: 1, Parameter2: 2, Parameter3: 3}, pkt)
	require.Equal(t, 0, a.Pending())
}

func TestAssemblerShiftOnMismatch(t *testing.T) {
	var a Assembler
	for _, b := range []byte{1, 2, 3, 4} {
		a.Feed(b)
	}
	_, ok := a.Feed(0xff)
	require.False(t, ok)
	require.Equal(t, 0, a.Pending())
	require.Equal(t, [4]byte{2, 3, 4, 0xff}, [4]byte{a.buf[0], a.buf[1], a.buf[2], a.buf[3]})
}

func TestAssemblerOutOfRange(t *testing.T) {
	a := Assembler{pos: 9}
	_, ok := a.Feed(0x04)
	require.False(t, ok)
	require.Equal(t, 0, a.Pending())
	require.Equal(t, []Packet{{Command: 0x04}}, feedAll(&a, frame(0x04, 0, 0, 0)))
}

func TestAssemblerNoByte(t *testing.T) {
	var a Assembler
	src := &bytesSource{data: frame(0x09, 'v', 1, 0)[:2]}
	for i := 0; i < 2; i++ {
		_, ok := a.TryAssemble(src)
		require.False(t, ok)
	}
	require.Equal(t, 2, a.Pending())
	_, ok := a.TryAssemble(src)
	require.False(t, ok)
	require.Equal(t, 2, a.Pending())

	src.data = frame(0x09, 'v', 1, 0)[2:]
	var pkts []Packet
	for i := 0; i < 3; i++ {
		if pkt, ok := a.TryAssemble(src); ok {
			pkts = append(pkts, pkt)
		}
	}
	require.Equal(t, []Packet{{Command: 0x09, Parameter1: 'v', Parameter2: 1}}, pkts)
}

func TestAssemblerDrain(t *testing.T) {
	var a Assembler
	src := &bytesSource{}
	src.data = append(src.data, frame(0x04, 0, 0, 0)...)
	src.data = append(src.data, frame(0x09, 'v', 1, 0)...)
	src.data = append(src.data, 0x0b)

	pkt, ok := a.Drain(src)
	require.True(t, ok)
	require.Equal(t, byte(0x04), pkt.Command)
	pkt, ok = a.Drain(src)
	require.True(t, ok)
	require.Equal(t, byte(0x09), pkt.Command)
	_, ok = a.Drain(src)
	require.False(t, ok)
	require.Equal(t, 1, a.Pending())
	a.Reset()
	require.Equal(t, 0, a.Pending())
}

func TestAssemblerRecoversWithinOneCycle(t *testing.T) {
	valid := frame(0x0b, 1, 0x34, 0x12)
	for i := 0; i < Size; i++ {
		corrupted := frame(0x09, 'v', 1, 0)
		corrupted[i] ^= 0x01
		var a Assembler
		in := append(append([]byte{}, corrupted...), valid...)
		require.Equal(t, []Packet{{Command: 0x0b, Parameter1: 1, Parameter2: 0x34, Parameter3: 0x12}}, feedAll(&a, in), "corrupted byte %d", i)
	}
}

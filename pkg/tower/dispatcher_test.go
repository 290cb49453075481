package tower

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tower.go/pkg/accel"
	"github.com/robotalks/tower.go/pkg/flash"
	"github.com/robotalks/tower.go/pkg/packet"
)

// sink records bytes and refuses the attempts fail reports true for.
type sink struct {
	data     []byte
	attempts int
	fail     func(attempt int) bool
}

func newSink() *sink {
	return &sink{}
}

func failAfter(n int) func(int) bool {
	return func(attempt int) bool { return attempt > n }
}

func (s *sink) TrySendByte(b byte) bool {
	s.attempts++
	if s.fail != nil && s.fail(s.attempts) {
		return false
	}
	s.data = append(s.data, b)
	return true
}

func (s *sink) packets(t *testing.T) []packet.Packet {
	require.Zero(t, len(s.data)%packet.Size, "partial packet % x", s.data)
	var pkts []packet.Packet
	for off := 0; off < len(s.data); off += packet.Size {
		pkt, err := packet.Parse(s.data[off : off+packet.Size])
		require.NoError(t, err)
		pkts = append(pkts, pkt)
	}
	return pkts
}

type recorder struct {
	received, sent []packet.Packet
}

func (r *recorder) PacketReceived(pkt packet.Packet) { r.received = append(r.received, pkt) }
func (r *recorder) PacketSent(pkt packet.Packet)     { r.sent = append(r.sent, pkt) }

type fakeClock struct {
	h, m, s uint8
}

func (c *fakeClock) Set(h, m, s uint8) error {
	if h > 23 || m > 59 || s > 59 {
		return errors.New("out of range")
	}
	c.h, c.m, c.s = h, m, s
	return nil
}

type fakeAccel struct {
	mode accel.Mode
}

func (a *fakeAccel) Mode() accel.Mode      { return a.mode }
func (a *fakeAccel) SetMode(m accel.Mode) { a.mode = m }

func pkt(code byte, ack bool, p1, p2, p3 byte) packet.Packet {
	return packet.New(packet.Command{Code: code, Ack: ack}, p1, p2, p3)
}

func newTestDispatcher(number uint16) (*Dispatcher, *sink) {
	s := newSink()
	return NewDispatcher(s, NewState(NewMemRegister(number), NewMemRegister(1))), s
}

var (
	startupPkt = pkt(packet.CmdStartup, false, 0, 0, 0)
	versionPkt = pkt(packet.CmdVersion, false, 'v', 1, 0)
)

func TestDispatcherCoreCommands(t *testing.T) {
	testCases := []struct {
		name   string
		req    packet.Packet
		expect []packet.Packet
		number uint16
	}{
		{
			name:   "startup",
			req:    pkt(packet.CmdStartup, false, 0, 0, 0),
			expect: []packet.Packet{startupPkt, versionPkt, pkt(packet.CmdTowerNumber, false, 1, 0xd2, 0x04)},
			number: 1234,
		},
		{
			name:   "startup with ack",
			req:    pkt(packet.CmdStartup, true, 0, 0, 0),
			expect: []packet.Packet{startupPkt, versionPkt, pkt(packet.CmdTowerNumber, false, 1, 0xd2, 0x04), pkt(packet.CmdStartup, true, 0, 0, 0)},
			number: 1234,
		},
		{
			name:   "version with ack",
			req:    pkt(packet.CmdVersion, true, 'v', 'x', 0),
			expect: []packet.Packet{versionPkt, pkt(packet.CmdVersion, true, 'v', 'x', 0)},
		},
		{
			name:   "get number",
			req:    pkt(packet.CmdTowerNumber, false, packet.SubGet, 0, 0),
			expect: []packet.Packet{pkt(packet.CmdTowerNumber, false, 1, 0x34, 0x12)},
			number: 0x1234,
		},
		{
			name:   "invalid sub-command",
			req:    pkt(packet.CmdTowerNumber, true, 3, 0, 0),
			expect: []packet.Packet{pkt(packet.CmdTowerNumber, false, 3, 0, 0)},
		},
		{
			name:   "unmatched without ack",
			req:    pkt(0x7f, false, 1, 2, 3),
			expect: nil,
		},
		{
			name:   "unmatched with ack",
			req:    pkt(0x7f, true, 1, 2, 3),
			expect: []packet.Packet{pkt(0x7f, false, 1, 2, 3)},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, s := newTestDispatcher(tc.number)
			d.Handle(tc.req)
			require.Equal(t, tc.expect, s.packets(t))
		})
	}
}

func TestDispatcherSetNumber(t *testing.T) {
	d, s := newTestDispatcher(1)
	d.Handle(pkt(packet.CmdTowerNumber, true, packet.SubSet, 0x34, 0x12))
	require.Equal(t, uint16(0x1234), d.State.Number())
	require.Equal(t, []packet.Packet{pkt(packet.CmdTowerNumber, true, packet.SubSet, 0x34, 0x12)}, s.packets(t))
}

func TestDispatcherStartupSinkFailure(t *testing.T) {
	d, s := newTestDispatcher(1)
	// the sink takes the startup packet and 2 bytes of the version packet.
	s.fail = failAfter(packet.Size + 2)
	d.Handle(pkt(packet.CmdStartup, true, 0, 0, 0))
	require.Equal(t, packet.Size+2, len(s.data))
	require.Equal(t, packet.CmdStartup, s.data[0])
	// startup, 3 bytes of version, 1 byte of the ack.
	require.Equal(t, packet.Size+4, s.attempts)
}

func TestDispatcherStartupNAck(t *testing.T) {
	d, s := newTestDispatcher(1)
	rec := &recorder{}
	d.Observer = rec
	// only the first byte of the version packet is refused.
	s.fail = func(attempt int) bool { return attempt == packet.Size+1 }
	d.Handle(pkt(packet.CmdStartup, true, 0, 0, 0))
	nack := pkt(packet.CmdStartup, false, 0, 0, 0)
	require.Equal(t, []packet.Packet{startupPkt, nack}, s.packets(t))
	require.Equal(t, 2*packet.Size+1, s.attempts)
	require.Equal(t, []packet.Packet{startupPkt, nack}, rec.sent)
	require.Equal(t, []packet.Packet{pkt(packet.CmdStartup, true, 0, 0, 0)}, rec.received)
}

func TestDispatcherTowerMode(t *testing.T) {
	d, s := newTestDispatcher(1)
	d.Handle(pkt(packet.CmdTowerMode, false, packet.SubSet, 0x02, 0x01))
	require.Equal(t, uint16(0x0102), d.State.Mode())
	d.Handle(pkt(packet.CmdTowerMode, true, packet.SubGet, 0, 0))
	require.Equal(t, []packet.Packet{
		pkt(packet.CmdTowerMode, false, packet.SubGet, 0x02, 0x01),
		pkt(packet.CmdTowerMode, true, packet.SubGet, 0, 0),
	}, s.packets(t))
}

func TestDispatcherTime(t *testing.T) {
	d, s := newTestDispatcher(1)
	d.Handle(pkt(packet.CmdTime, true, 1, 2, 3))
	require.Equal(t, []packet.Packet{pkt(packet.CmdTime, false, 1, 2, 3)}, s.packets(t))

	clock := &fakeClock{}
	d.Clock = clock
	s.data = nil
	d.Handle(pkt(packet.CmdTime, true, 12, 34, 56))
	require.Equal(t, fakeClock{12, 34, 56}, *clock)
	d.Handle(pkt(packet.CmdTime, true, 24, 0, 0))
	require.Equal(t, []packet.Packet{
		pkt(packet.CmdTime, true, 12, 34, 56),
		pkt(packet.CmdTime, false, 24, 0, 0),
	}, s.packets(t))
}

func TestDispatcherProtocolMode(t *testing.T) {
	d, s := newTestDispatcher(1)
	a := &fakeAccel{}
	d.Accel = a
	d.Handle(pkt(packet.CmdProtocolMode, true, packet.SubSet, 1, 0))
	require.Equal(t, accel.ModeInterrupt, a.mode)
	d.Handle(pkt(packet.CmdProtocolMode, false, packet.SubGet, 0, 0))
	d.Handle(pkt(packet.CmdProtocolMode, true, packet.SubSet, 5, 0))
	require.Equal(t, accel.ModeInterrupt, a.mode)
	require.Equal(t, []packet.Packet{
		pkt(packet.CmdProtocolMode, true, packet.SubSet, 1, 0),
		pkt(packet.CmdProtocolMode, false, packet.SubGet, 1, 0),
		pkt(packet.CmdProtocolMode, false, packet.SubSet, 5, 0),
	}, s.packets(t))
}

func TestDispatcherFlash(t *testing.T) {
	d, s := newTestDispatcher(1)
	d.Flash = flash.New(flash.NewMemStorage())

	d.Handle(pkt(packet.CmdFlashProgram, true, 3, 0, 0x5a))
	d.Handle(pkt(packet.CmdFlashRead, false, 3, 0, 0))
	d.Handle(pkt(packet.CmdFlashRead, false, 4, 0, 0))
	d.Handle(pkt(packet.CmdFlashProgram, true, 9, 0, 0))
	d.Handle(pkt(packet.CmdFlashProgram, true, packet.FlashEraseAddr, 0, 0))
	d.Handle(pkt(packet.CmdFlashRead, true, 3, 0, 0))
	d.Handle(pkt(packet.CmdFlashRead, true, 8, 0, 0))
	require.Equal(t, []packet.Packet{
		pkt(packet.CmdFlashProgram, true, 3, 0, 0x5a),
		pkt(packet.CmdFlashRead, false, 3, 0, 0x5a),
		pkt(packet.CmdFlashRead, false, 4, 0, 0xff),
		pkt(packet.CmdFlashProgram, false, 9, 0, 0),
		pkt(packet.CmdFlashProgram, true, packet.FlashEraseAddr, 0, 0),
		pkt(packet.CmdFlashRead, false, 3, 0, 0xff),
		pkt(packet.CmdFlashRead, true, 3, 0, 0),
		pkt(packet.CmdFlashRead, false, 8, 0, 0),
	}, s.packets(t))
}

func TestDispatcherAnnounce(t *testing.T) {
	d, s := newTestDispatcher(0x0102)
	require.True(t, d.Announce())
	require.Equal(t, []packet.Packet{
		startupPkt,
		pkt(packet.CmdTowerNumber, false, 1, 0x02, 0x01),
		versionPkt,
		pkt(packet.CmdTowerMode, false, 1, 1, 0),
	}, s.packets(t))

	d, s = newTestDispatcher(1)
	s.fail = failAfter(2*packet.Size + 1)
	require.False(t, d.Announce())
	require.Equal(t, 2*packet.Size+1, len(s.data))
}

type failingRegister struct{}

func (failingRegister) Load() uint16       { return 0 }
func (failingRegister) Store(uint16) error { return errors.New("flash failure") }

func TestDispatcherStoreFailure(t *testing.T) {
	s := newSink()
	d := NewDispatcher(s, NewState(failingRegister{}, failingRegister{}))
	d.Handle(pkt(packet.CmdTowerNumber, true, packet.SubSet, 1, 2))
	require.Equal(t, []packet.Packet{pkt(packet.CmdTowerNumber, false, packet.SubSet, 1, 2)}, s.packets(t))
}

func TestDispatcherObservers(t *testing.T) {
	d, _ := newTestDispatcher(0x1234)
	rec := &recorder{}
	tracer := &Tracer{}
	d.Observer = Observers{tracer, rec}
	d.Handle(pkt(packet.CmdVersion, true, 0, 0, 0))
	require.Equal(t, []packet.Packet{pkt(packet.CmdVersion, true, 0, 0, 0)}, rec.received)
	require.Equal(t, []packet.Packet{
		pkt(packet.CmdVersion, false, packet.VersionTag, packet.VersionMajor, packet.VersionMinor),
		pkt(packet.CmdVersion, true, 0, 0, 0),
	}, rec.sent)
	received, sent := tracer.Counts()
	require.Equal(t, uint64(1), received)
	require.Equal(t, uint64(2), sent)
}

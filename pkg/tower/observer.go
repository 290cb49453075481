package tower

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/tower.go/pkg/packet"
)

// Observer watches the packets passing the dispatcher. It is called
// from the protocol loop and must not block.
type Observer interface {
	PacketReceived(packet.Packet)
	PacketSent(packet.Packet)
}

// Observers fans out to multiple observers.
type Observers []Observer

// PacketReceived implements Observer.
func (o Observers) PacketReceived(pkt packet.Packet) {
	for _, ob := range o {
		ob.PacketReceived(pkt)
	}
}

// PacketSent implements Observer.
func (o Observers) PacketSent(pkt packet.Packet) {
	for _, ob := range o {
		ob.PacketSent(pkt)
	}
}

// Tracer logs packets at verbosity 2 and counts them.
type Tracer struct {
	received uint64
	sent     uint64
}

// PacketReceived implements Observer.
func (t *Tracer) PacketReceived(pkt packet.Packet) {
	atomic.AddUint64(&t.received, 1)
	if glog.V(2) {
		glog.Infof("RX %s %s", packet.CommandName(pkt.Cmd().Code), pkt)
	}
}

// PacketSent implements Observer.
func (t *Tracer) PacketSent(pkt packet.Packet) {
	atomic.AddUint64(&t.sent, 1)
	if glog.V(2) {
		glog.Infof("TX %s %s", packet.CommandName(pkt.Cmd().Code), pkt)
	}
}

// Counts returns the number of packets received and sent.
func (t *Tracer) Counts() (received, sent uint64) {
	return atomic.LoadUint64(&t.received), atomic.LoadUint64(&t.sent)
}

package mqtt

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/tower.go/pkg/packet"
	"github.com/robotalks/tower.go/pkg/telemetry/msgs"
)

// Topic kinds under tower/<id>/.
const (
	KindRx   = "rx"
	KindTx   = "tx"
	KindMeta = "meta"
)

// TopicRoot is the first level of every telemetry topic.
const TopicRoot = "tower"

// Topic returns the topic of a tower and kind.
func Topic(id, kind string) string {
	return TopicRoot + "/" + id + "/" + kind
}

// ParseTopic splits a telemetry topic.
func ParseTopic(topic string) (id, kind string, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[0] != TopicRoot || items[1] == "" {
		return "", "", false
	}
	return items[1], items[2], true
}

// Target is where messages are published, Queue implements it.
type Target interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// DefaultBacklog is the number of frames buffered before dropping.
const DefaultBacklog = 256

type outgoing struct {
	dir uint32
	pkt packet.Packet
	at  time.Time
}

// Publisher publishes the packets of a tower. It implements
// tower.Observer without blocking the protocol loop.
type Publisher struct {
	Target  Target
	TowerID string
	// Info provides the retained tower description.
	Info func() *msgs.Info

	frames  chan outgoing
	dropped uint64
	now     func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(target Target, towerID string) *Publisher {
	return &Publisher{
		Target:  target,
		TowerID: towerID,
		frames:  make(chan outgoing, DefaultBacklog),
		now:     time.Now,
	}
}

// PacketReceived implements tower.Observer.
func (p *Publisher) PacketReceived(pkt packet.Packet) {
	p.enqueue(msgs.DirectionRx, pkt)
}

// PacketSent implements tower.Observer.
func (p *Publisher) PacketSent(pkt packet.Packet) {
	p.enqueue(msgs.DirectionTx, pkt)
}

// Dropped returns the number of frames dropped on a full backlog.
func (p *Publisher) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

func (p *Publisher) enqueue(dir uint32, pkt packet.Packet) {
	select {
	case p.frames <- outgoing{dir: dir, pkt: pkt, at: p.now()}:
	default:
		if atomic.AddUint64(&p.dropped, 1)%100 == 1 {
			glog.Warningf("telemetry backlog full, %d frames dropped", p.Dropped())
		}
	}
}

// PublishInfo publishes the retained tower description.
func (p *Publisher) PublishInfo() error {
	if p.Info == nil {
		return nil
	}
	payload, err := proto.Marshal(p.Info())
	if err != nil {
		return err
	}
	p.Target.PubWith(Topic(p.TowerID, KindMeta), payload, 1, true)
	return nil
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out := <-p.frames:
			p.publish(out)
		}
	}
}

func (p *Publisher) publish(out outgoing) {
	payload, err := proto.Marshal(msgs.NewFrame(out.dir, out.pkt, out.at))
	if err != nil {
		glog.Errorf("encode frame: %v", err)
		return
	}
	p.Target.PubWith(Topic(p.TowerID, msgs.DirectionName(out.dir)), payload, 0, false)
}

package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/tower.go/pkg/packet"
	"github.com/robotalks/tower.go/pkg/telemetry/msgs"
)

type published struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
}

type fakeTarget struct {
	lock sync.Mutex
	msgs []published
	ch   chan struct{}
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{ch: make(chan struct{}, 16)}
}

func (f *fakeTarget) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	f.lock.Lock()
	f.msgs = append(f.msgs, published{topic: topic, payload: payload, qos: qos, retain: retain})
	f.lock.Unlock()
	f.ch <- struct{}{}
	return &paho.DummyToken{}
}

func (f *fakeTarget) wait(t *testing.T, n int) []published {
	for i := 0; i < n; i++ {
		select {
		case <-f.ch:
		case <-time.After(2 * time.Second):
			t.Fatal("publish timeout")
		}
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]published(nil), f.msgs...)
}

func TestTopics(t *testing.T) {
	require.Equal(t, "tower/t1/rx", Topic("t1", KindRx))
	id, kind, ok := ParseTopic("tower/t1/meta")
	require.True(t, ok)
	require.Equal(t, "t1", id)
	require.Equal(t, KindMeta, kind)
	for _, topic := range []string{"tower/t1", "robot/t1/rx", "tower//rx", "tower/t1/rx/x"} {
		_, _, ok = ParseTopic(topic)
		require.False(t, ok, topic)
	}
}

func TestPublisher(t *testing.T) {
	target := newFakeTarget()
	p := NewPublisher(target, "t1")
	p.now = func() time.Time { return time.Unix(10, 0) }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	req := packet.Packet{Command: 0x89, Parameter1: 0}
	resp := packet.Packet{Command: 0x09, Parameter1: 'v', Parameter2: 1}
	p.PacketReceived(req)
	p.PacketSent(resp)

	msgsOut := target.wait(t, 2)
	require.Equal(t, "tower/t1/rx", msgsOut[0].topic)
	require.Equal(t, "tower/t1/tx", msgsOut[1].topic)
	require.False(t, msgsOut[1].retain)

	var frame msgs.Frame
	require.NoError(t, proto.Unmarshal(msgsOut[1].payload, &frame))
	require.Equal(t, resp, frame.Packet())
	require.Equal(t, msgs.DirectionTx, frame.Direction)
	require.Equal(t, int64(10e9), frame.Timestamp)
}

func TestPublisherInfo(t *testing.T) {
	target := newFakeTarget()
	p := NewPublisher(target, "t1")
	require.NoError(t, p.PublishInfo())
	require.Empty(t, target.msgs)

	p.Info = func() *msgs.Info { return &msgs.Info{ID: "t1", Number: 1234} }
	require.NoError(t, p.PublishInfo())
	out := target.wait(t, 1)
	require.Equal(t, "tower/t1/meta", out[0].topic)
	require.True(t, out[0].retain)
	var info msgs.Info
	require.NoError(t, proto.Unmarshal(out[0].payload, &info))
	require.Equal(t, uint32(1234), info.Number)
}

func TestPublisherBacklog(t *testing.T) {
	p := NewPublisher(newFakeTarget(), "t1")
	for i := 0; i < DefaultBacklog+3; i++ {
		p.PacketSent(packet.Packet{Command: 0x10})
	}
	require.Equal(t, uint64(3), p.Dropped())
}

func TestDecoder(t *testing.T) {
	q := &Queue{TopicPrefix: "lab/"}
	var frames []*msgs.Frame
	var infos []*msgs.Info
	q.subs = map[string][]Handler{
		TopicRoot + "/+/+": {Decoder(func(id string, f *msgs.Frame) {
			require.Equal(t, "t1", id)
			frames = append(frames, f)
		}, func(id string, info *msgs.Info) {
			infos = append(infos, info)
		})},
	}

	payload, err := proto.Marshal(msgs.NewFrame(msgs.DirectionRx, packet.Packet{Command: 0x04}, time.Unix(1, 0)))
	require.NoError(t, err)
	q.deliver("lab/tower/t1/rx", payload)
	q.deliver("lab/tower/t1/tx", []byte{0xff, 0xff})
	infoPayload, err := proto.Marshal(&msgs.Info{ID: "t1"})
	require.NoError(t, err)
	q.deliver("lab/tower/t1/meta", infoPayload)

	require.Len(t, frames, 1)
	require.Equal(t, byte(0x04), frames[0].Packet().Command)
	require.Len(t, infos, 1)
	require.Equal(t, "t1", infos[0].ID)
}

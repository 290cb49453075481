package mqtt

import (
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/tower.go/pkg/telemetry/msgs"
)

// FrameHandler receives decoded frames.
type FrameHandler func(towerID string, frame *msgs.Frame)

// InfoHandler receives decoded tower descriptions.
type InfoHandler func(towerID string, info *msgs.Info)

// Watch subscribes the telemetry of all towers.
func Watch(q *Queue, onFrame FrameHandler, onInfo InfoHandler) paho.Token {
	return q.Sub(TopicRoot+"/+/+", Decoder(onFrame, onInfo))
}

// Decoder creates a Handler decoding telemetry messages.
func Decoder(onFrame FrameHandler, onInfo InfoHandler) Handler {
	return func(topic string, payload []byte) {
		id, kind, ok := ParseTopic(topic)
		if !ok {
			return
		}
		switch kind {
		case KindRx, KindTx:
			var frame msgs.Frame
			if err := proto.Unmarshal(payload, &frame); err != nil {
				glog.Warningf("decode %s: %v", topic, err)
				return
			}
			if onFrame != nil {
				onFrame(id, &frame)
			}
		case KindMeta:
			var info msgs.Info
			if err := proto.Unmarshal(payload, &info); err != nil {
				glog.Warningf("decode %s: %v", topic, err)
				return
			}
			if onInfo != nil {
				onInfo(id, &info)
			}
		}
	}
}

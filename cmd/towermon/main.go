package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/tower.go/pkg/packet"
	"github.com/robotalks/tower.go/pkg/telemetry/mqtt"
	"github.com/robotalks/tower.go/pkg/telemetry/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/"
)

func init() {
	if val := os.Getenv("TOWER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	mqtt.Watch(q, func(id string, frame *msgs.Frame) {
		pkt := frame.Packet()
		log.Printf("%s %s: %s %s", id, strings.ToUpper(msgs.DirectionName(frame.Direction)),
			packet.CommandName(pkt.Cmd().Code), pkt)
	}, func(id string, info *msgs.Info) {
		log.Printf("%s meta: %s", id, info.String())
	})
	<-(chan struct{})(nil)
}

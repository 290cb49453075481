package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/tower.go/pkg/discovery"
	"github.com/robotalks/tower.go/pkg/framework"
	"github.com/robotalks/tower.go/pkg/packet"
	"github.com/robotalks/tower.go/pkg/telemetry/mqtt"
	"github.com/robotalks/tower.go/pkg/telemetry/msgs"
	"github.com/robotalks/tower.go/pkg/tower"
)

func init() {
	if err := tower.Preload(os.Args[1:]); err != nil {
		log.Fatalln(err)
	}
	tower.SetupFlags()
}

func main() {
	flag.Parse()

	conf := tower.NewConfig()
	t := conf.MustNewTower()
	runner := framework.NewRunner().HandleSignals()

	var links []framework.Runnable
	var linkNames []string
	if l := conf.NewSerialLink(t.Port); l != nil {
		links = append(links, l)
		linkNames = append(linkNames, l.Name())
	}
	if l := conf.NewWebsocketLink(t.Port); l != nil {
		links = append(links, l)
		linkNames = append(linkNames, l.Name())
	}

	observers := tower.Observers{&tower.Tracer{}}
	if conf.MQTTBrokerURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.MQTTBrokerURL)
		if err != nil {
			log.Fatalln(err)
		}
		pub := mqtt.NewPublisher(q, conf.ID)
		pub.Info = func() *msgs.Info {
			return &msgs.Info{
				ID:      conf.ID,
				Version: fmt.Sprintf("v%d.%d", packet.VersionMajor, packet.VersionMinor),
				Number:  uint32(t.Dispatcher.State.Number()),
				Mode:    uint32(t.Dispatcher.State.Mode()),
				Links:   linkNames,
			}
		}
		q.OnConnect = func(*mqtt.Queue) {
			if err := pub.PublishInfo(); err != nil {
				glog.Errorf("publish info: %v", err)
			}
		}
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			log.Fatalln(token.Error())
		}
		defer q.Close()
		observers = append(observers, pub)
		runner.Go(framework.NamedRun("telemetry", pub))
	}
	t.Dispatcher.Observer = observers

	// The loop must own the port before any link feeds it.
	loop := framework.NewLoop().Add(t)
	runner.Go(framework.NamedRun("loop", loop))
	runner.Go(links...)
	if conf.MDNS && conf.Listen != "" {
		if adv := advertiser(conf); adv != nil {
			runner.Go(adv)
		}
	}

	glog.Infof("tower %s: number %d, links %v", conf.ID, t.Dispatcher.State.Number(), linkNames)
	if err := runner.Wait(); err != nil && err != framework.ErrForcedExit {
		glog.Errorf("exit: %v", err)
	}
}

func advertiser(conf *tower.Config) *discovery.Advertiser {
	_, portStr, err := net.SplitHostPort(conf.Listen)
	if err != nil {
		glog.Warningf("mdns disabled: %v", err)
		return nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		glog.Warningf("mdns disabled: no fixed port in %q", conf.Listen)
		return nil
	}
	return &discovery.Advertiser{
		Instance: "tower-" + conf.ID,
		ID:       conf.ID,
		Port:     port,
		Path:     conf.WebsocketPath,
	}
}

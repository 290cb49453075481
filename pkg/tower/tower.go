package tower

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/tower.go/pkg/accel"
	"github.com/robotalks/tower.go/pkg/framework"
	"github.com/robotalks/tower.go/pkg/packet"
	"github.com/robotalks/tower.go/pkg/rtc"
	"github.com/robotalks/tower.go/pkg/uart"
)

type announceEvent struct{}

type timeEvent struct {
	h, m, s uint8
}

type accelEvent accel.Sample

// Tower is the protocol loop task. Packets are assembled from the Port
// and dispatched within the loop goroutine. Clock ticks and accelerometer
// samples arrive as events and are emitted from the same goroutine.
type Tower struct {
	Port       *uart.Port
	Dispatcher *Dispatcher
	Clock      *rtc.RTC
	Sampler    *accel.Sampler

	assembler packet.Assembler
}

// New creates a Tower. Clock and sampler are optional.
func New(port *uart.Port, d *Dispatcher, clock *rtc.RTC, sampler *accel.Sampler) *Tower {
	t := &Tower{Port: port, Dispatcher: d, Clock: clock, Sampler: sampler}
	if clock != nil {
		d.Clock = clock
	}
	if sampler != nil {
		d.Accel = sampler
	}
	return t
}

// AddToLoop implements framework.LoopAdder.
func (t *Tower) AddToLoop(l *framework.Loop) {
	l.AddTask(framework.PrLvHigh, t)
	t.Port.SetOnReceive(l.TriggerNext)
	if t.Clock != nil {
		l.AddRunnable(framework.NamedRun("rtc", framework.RunFunc(t.runClock)))
	}
	if t.Sampler != nil {
		l.AddRunnable(framework.NamedRun("accel", framework.RunFunc(t.runSampler)))
	}
	l.Post(announceEvent{})
	l.TriggerNext()
}

func (t *Tower) runClock(ctx context.Context) error {
	ctl := framework.LoopCtlFrom(ctx)
	t.Clock.Handler = rtc.HandlerFunc(func(h, m, s uint8) {
		ctl.Post(timeEvent{h: h, m: m, s: s})
		ctl.TriggerNext()
	})
	return t.Clock.Run(ctx)
}

func (t *Tower) runSampler(ctx context.Context) error {
	ctl := framework.LoopCtlFrom(ctx)
	t.Sampler.Handler = accel.HandlerFunc(func(s accel.Sample) {
		ctl.Post(accelEvent(s))
		ctl.TriggerNext()
	})
	return t.Sampler.Run(ctx)
}

// Step implements framework.Task.
func (t *Tower) Step(sc framework.StepContext) error {
	sc.Events().ProcessEvents(framework.ProcessEventFunc(func(ec framework.EventProcessingContext) {
		switch ev := ec.CurrentEvent().(type) {
		case announceEvent:
			if !t.Dispatcher.Announce() {
				glog.Warning("startup announcement incomplete")
			}
		case timeEvent:
			t.Dispatcher.Emit(packet.CmdTime, ev.h, ev.m, ev.s)
		case accelEvent:
			t.Dispatcher.Emit(packet.CmdAccel, ev.XYZ[0], ev.XYZ[1], ev.XYZ[2])
		default:
			return
		}
		ec.EventTaken()
	}))
	t.Poll()
	return nil
}

// Poll dispatches every packet that can be assembled from the bytes
// received so far.
func (t *Tower) Poll() int {
	n := 0
	for {
		pkt, ok := t.assembler.Drain(t.Port)
		if !ok {
			return n
		}
		t.Dispatcher.Handle(pkt)
		n++
	}
}

package accel

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Mode selects how the sensor is sampled.
type Mode int32

// Modes as encoded in the protocol.
const (
	ModePoll      Mode = 0
	ModeInterrupt Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModePoll:
		return "poll"
	case ModeInterrupt:
		return "interrupt"
	}
	return fmt.Sprintf("Mode(%d)", int32(m))
}

// Valid tells whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePoll || m == ModeInterrupt
}

// Defaults of Sampler periods.
const (
	DefaultPollPeriod      = 500 * time.Millisecond
	DefaultDataReadyPeriod = 640 * time.Millisecond
)

// Sample is a reading to be reported.
type Sample struct {
	XYZ  [3]byte
	Mode Mode
}

// Handler receives samples. It is called from the Sampler goroutine.
type Handler interface {
	AccelSample(Sample)
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func(Sample)

// AccelSample implements Handler.
func (f HandlerFunc) AccelSample(s Sample) {
	f(s)
}

// Sampler reads a Sensor according to the current Mode.
type Sampler struct {
	Sensor          Sensor
	Handler         Handler
	PollPeriod      time.Duration
	DataReadyPeriod time.Duration

	mode   int32
	modeCh chan struct{}
	filter Filter
}

// NewSampler creates a Sampler in poll mode.
func NewSampler(sensor Sensor, handler Handler) *Sampler {
	return &Sampler{
		Sensor:          sensor,
		Handler:         handler,
		PollPeriod:      DefaultPollPeriod,
		DataReadyPeriod: DefaultDataReadyPeriod,
		modeCh:          make(chan struct{}, 1),
	}
}

// Mode returns the current mode.
func (s *Sampler) Mode() Mode {
	return Mode(atomic.LoadInt32(&s.mode))
}

// SetMode switches the mode, it takes effect from the next sample.
func (s *Sampler) SetMode(m Mode) {
	if Mode(atomic.SwapInt32(&s.mode, int32(m))) == m {
		return
	}
	glog.Infof("accel: %s mode", m)
	select {
	case s.modeCh <- struct{}{}:
	default:
	}
}

// Step reads the sensor once and reports a sample if there is one.
func (s *Sampler) Step() error {
	xyz, err := s.Sensor.ReadXYZ()
	if err != nil {
		return err
	}
	mode := s.Mode()
	if mode == ModePoll {
		median, changed := s.filter.Push(xyz)
		if !changed {
			return nil
		}
		xyz = median
	}
	if s.Handler != nil {
		s.Handler.AccelSample(Sample{XYZ: xyz, Mode: mode})
	}
	return nil
}

func (s *Sampler) period() time.Duration {
	if s.Mode() == ModeInterrupt {
		return s.DataReadyPeriod
	}
	return s.PollPeriod
}

// Run implements Runnable.
func (s *Sampler) Run(ctx context.Context) error {
	for {
		timer := time.NewTimer(s.period())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.modeCh:
			timer.Stop()
			continue
		case <-timer.C:
		}
		if err := s.Step(); err != nil {
			glog.Warningf("accel: read failed: %v", err)
		}
	}
}

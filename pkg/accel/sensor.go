package accel

import (
	"math/rand"
	"sync"
)

// Sensor reads one sample of each axis.
type Sensor interface {
	ReadXYZ() ([3]byte, error)
}

// Sim is a sensor whose axes random walk within [Min, Max].
type Sim struct {
	Min, Max byte
	// MaxStep bounds the change of an axis between readings.
	MaxStep int

	xyz  [3]byte
	rnd  *rand.Rand
	lock sync.Mutex
}

// NewSim creates a Sim around the resting value of a tower lying flat.
func NewSim(seed int64) *Sim {
	return &Sim{
		Min:     0x00,
		Max:     0x7f,
		MaxStep: 2,
		xyz:     [3]byte{0x00, 0x00, 0x40},
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// ReadXYZ implements Sensor.
func (s *Sim) ReadXYZ() ([3]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i, v := range s.xyz {
		n := int(v) + s.rnd.Intn(2*s.MaxStep+1) - s.MaxStep
		if n < int(s.Min) {
			n = int(s.Min)
		}
		if n > int(s.Max) {
			n = int(s.Max)
		}
		s.xyz[i] = byte(n)
	}
	return s.xyz, nil
}

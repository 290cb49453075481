// Package rtc is a time-of-day clock with a one second tick.
package rtc

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SecondsPerDay is where the clock wraps.
const SecondsPerDay = 24 * 60 * 60

// ErrOutOfRange is returned by Set for an invalid time of day.
var ErrOutOfRange = errors.New("time out of range")

// Handler is called once per second with the current time.
type Handler interface {
	SecondTick(h, m, s uint8)
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func(h, m, s uint8)

// SecondTick implements Handler.
func (f HandlerFunc) SecondTick(h, m, s uint8) {
	f(h, m, s)
}

// RTC counts seconds of day from the moment it was last set.
type RTC struct {
	Handler Handler

	now    func() time.Time
	base   time.Time
	offset int
	lock   sync.Mutex
}

// New creates an RTC starting at 00:00:00.
func New() *RTC {
	return NewWithClock(time.Now)
}

// NewWithClock creates an RTC reading time from now.
func NewWithClock(now func() time.Time) *RTC {
	return &RTC{now: now, base: now()}
}

// Set sets the time of day.
func (r *RTC) Set(h, m, s uint8) error {
	if h > 23 || m > 59 || s > 59 {
		return ErrOutOfRange
	}
	r.lock.Lock()
	r.base = r.now()
	r.offset = int(h)*3600 + int(m)*60 + int(s)
	r.lock.Unlock()
	return nil
}

// Get returns the time of day.
func (r *RTC) Get() (h, m, s uint8) {
	r.lock.Lock()
	elapsed := int(r.now().Sub(r.base) / time.Second)
	secs := (r.offset + elapsed) % SecondsPerDay
	r.lock.Unlock()
	return uint8(secs / 3600), uint8(secs / 60 % 60), uint8(secs % 60)
}

// Run calls Handler every second until ctx is done.
func (r *RTC) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.Handler != nil {
				r.Handler.SecondTick(r.Get())
			}
		}
	}
}

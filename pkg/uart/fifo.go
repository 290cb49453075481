package uart

import "sync"

// DefaultFIFOSize is the capacity used when none is given.
const DefaultFIFOSize = 256

// FIFO is a bounded byte ring buffer safe for one producer and one
// consumer in different goroutines.
type FIFO struct {
	buf   []byte
	start int
	count int
	lock  sync.Mutex
}

// NewFIFO creates a FIFO holding up to size bytes.
func NewFIFO(size int) *FIFO {
	if size <= 0 {
		size = DefaultFIFOSize
	}
	return &FIFO{buf: make([]byte, size)}
}

// Put appends a byte. It returns false when the FIFO is full.
func (f *FIFO) Put(b byte) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.count == len(f.buf) {
		return false
	}
	f.buf[(f.start+f.count)%len(f.buf)] = b
	f.count++
	return true
}

// Get removes the oldest byte. It returns false when the FIFO is empty.
func (f *FIFO) Get() (byte, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.count == 0 {
		return 0, false
	}
	b := f.buf[f.start]
	f.start = (f.start + 1) % len(f.buf)
	f.count--
	return b, true
}

// Take moves up to len(p) bytes into p and returns the count.
func (f *FIFO) Take(p []byte) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for n < len(p) && f.count > 0 {
		p[n] = f.buf[f.start]
		f.start = (f.start + 1) % len(f.buf)
		f.count--
		n++
	}
	return n
}

// Len returns the number of buffered bytes.
func (f *FIFO) Len() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.count
}

// Cap returns the capacity.
func (f *FIFO) Cap() int {
	return len(f.buf)
}

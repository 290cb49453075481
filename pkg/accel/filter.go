package accel

// Median3 returns the median of three values.
func Median3(a, b, c byte) byte {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		return a
	}
	return b
}

// Filter keeps the last three readings of each axis.
type Filter struct {
	history [3][3]byte
	last    [3]byte
}

// Push adds a reading. It returns the median triple and whether it
// differs from the previously reported one.
func (f *Filter) Push(xyz [3]byte) ([3]byte, bool) {
	var median [3]byte
	for axis, v := range xyz {
		h := &f.history[axis]
		h[2], h[1], h[0] = h[1], h[0], v
		median[axis] = Median3(h[0], h[1], h[2])
	}
	if median == f.last {
		return median, false
	}
	f.last = median
	return median, true
}

// Reset clears history.
func (f *Filter) Reset() {
	*f = Filter{}
}

package tower

import "sync"

// Register is the storage contract of an identity register.
type Register interface {
	Load() uint16
	Store(uint16) error
}

// MemRegister is a Register held in memory only.
type MemRegister struct {
	val  uint16
	lock sync.Mutex
}

// NewMemRegister creates a MemRegister.
func NewMemRegister(val uint16) *MemRegister {
	return &MemRegister{val: val}
}

// Load implements Register.
func (r *MemRegister) Load() uint16 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.val
}

// Store implements Register.
func (r *MemRegister) Store(val uint16) error {
	r.lock.Lock()
	r.val = val
	r.lock.Unlock()
	return nil
}

// State holds the identity registers of the tower.
type State struct {
	number Register
	mode   Register
	lock   sync.Mutex
}

// NewState creates State over the registers.
func NewState(number, mode Register) *State {
	return &State{number: number, mode: mode}
}

// Number returns the tower number.
func (s *State) Number() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.number.Load()
}

// SetNumber updates the tower number.
func (s *State) SetNumber(v uint16) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.number.Store(v)
}

// Mode returns the tower mode.
func (s *State) Mode() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mode.Load()
}

// SetMode updates the tower mode.
func (s *State) SetMode(v uint16) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mode.Store(v)
}

func lsb(v uint16) byte { return byte(v) }
func msb(v uint16) byte { return byte(v >> 8) }

func join(lo, hi byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

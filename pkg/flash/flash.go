package flash

import (
	"encoding/binary"
	"sync"

	"github.com/golang/glog"
)

// PhraseSize is the size of the data sector in bytes.
const PhraseSize = 8

// Erased is the value of an erased byte.
const Erased byte = 0xFF

// Phrase is the content of the data sector.
type Phrase [PhraseSize]byte

// ErasedPhrase returns a phrase with all bytes erased.
func ErasedPhrase() Phrase {
	var p Phrase
	for i := range p {
		p[i] = Erased
	}
	return p
}

// Flash allocates and accesses variables in the data sector.
type Flash struct {
	storage   Storage
	allocated [PhraseSize]bool
	lock      sync.Mutex
}

// New creates a Flash on top of storage.
func New(storage Storage) *Flash {
	return &Flash{storage: storage}
}

// AllocateVar reserves size bytes and returns the address.
// Allocation is not persisted and survives Erase.
func (f *Flash) AllocateVar(size int) (int, error) {
	if size != 1 && size != 2 && size != 4 {
		return 0, ErrInvalidSize
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	for addr := 0; addr+size <= PhraseSize; addr += size {
		if f.isFree(addr, size) {
			for i := addr; i < addr+size; i++ {
				f.allocated[i] = true
			}
			glog.V(2).Infof("flash: allocated %d bytes at %d", size, addr)
			return addr, nil
		}
	}
	return 0, ErrNoSpace
}

func (f *Flash) isFree(addr, size int) bool {
	for i := addr; i < addr+size; i++ {
		if f.allocated[i] {
			return false
		}
	}
	return true
}

func checkAddr(addr, size int) error {
	if addr < 0 || addr+size > PhraseSize || addr%size != 0 {
		return ErrInvalidAddress
	}
	return nil
}

func (f *Flash) modify(addr, size int, fn func(b []byte)) error {
	if err := checkAddr(addr, size); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	p, err := f.storage.ReadPhrase()
	if err != nil {
		return err
	}
	fn(p[addr : addr+size])
	return f.storage.WritePhrase(p)
}

func (f *Flash) read(addr, size int) ([]byte, error) {
	if err := checkAddr(addr, size); err != nil {
		return nil, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	p, err := f.storage.ReadPhrase()
	if err != nil {
		return nil, err
	}
	return p[addr : addr+size], nil
}

// Write8 programs a byte.
func (f *Flash) Write8(addr int, v uint8) error {
	return f.modify(addr, 1, func(b []byte) { b[0] = v })
}

// Write16 programs a half-word at an even address.
func (f *Flash) Write16(addr int, v uint16) error {
	return f.modify(addr, 2, func(b []byte) { binary.LittleEndian.PutUint16(b, v) })
}

// Write32 programs a word at an address divisible by 4.
func (f *Flash) Write32(addr int, v uint32) error {
	return f.modify(addr, 4, func(b []byte) { binary.LittleEndian.PutUint32(b, v) })
}

// Read8 reads a byte.
func (f *Flash) Read8(addr int) (uint8, error) {
	b, err := f.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Read16 reads a half-word.
func (f *Flash) Read16(addr int) (uint16, error) {
	b, err := f.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Read32 reads a word.
func (f *Flash) Read32(addr int) (uint32, error) {
	b, err := f.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Erase erases the whole sector.
func (f *Flash) Erase() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	glog.Info("flash: erase sector")
	return f.storage.WritePhrase(ErasedPhrase())
}

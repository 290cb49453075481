package flash

import "github.com/golang/glog"

// ErasedHalfWord is what Read16 returns from an erased slot.
const ErasedHalfWord uint16 = 0xFFFF

// Var16 is a half-word variable in flash.
type Var16 struct {
	Flash *Flash
	Addr  int
}

// NewVar16 allocates a half-word. When the slot is erased it is
// programmed with def.
func NewVar16(f *Flash, def uint16) (*Var16, error) {
	addr, err := f.AllocateVar(2)
	if err != nil {
		return nil, err
	}
	v := &Var16{Flash: f, Addr: addr}
	val, err := f.Read16(addr)
	if err != nil {
		return nil, err
	}
	if val == ErasedHalfWord {
		if err := f.Write16(addr, def); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the value. A read failure reads as erased.
func (v *Var16) Load() uint16 {
	val, err := v.Flash.Read16(v.Addr)
	if err != nil {
		glog.Errorf("flash: read %d: %v", v.Addr, err)
		return ErasedHalfWord
	}
	return val
}

// Store programs the value.
func (v *Var16) Store(val uint16) error {
	return v.Flash.Write16(v.Addr, val)
}

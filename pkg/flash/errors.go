package flash

import "errors"

var (
	// ErrNoSpace indicates no aligned free slot is left in the phrase.
	ErrNoSpace = errors.New("no space left in flash")
	// ErrInvalidSize indicates a variable size other than 1, 2 or 4.
	ErrInvalidSize = errors.New("invalid variable size")
	// ErrInvalidAddress indicates an address out of range or misaligned.
	ErrInvalidAddress = errors.New("invalid flash address")
)

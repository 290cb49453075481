package sh

import (
	"fmt"
	"strconv"
)

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// ParseByte parses a byte argument, decimal or 0x hex.
func ParseByte(s string) (byte, error) {
	v, err := parseUint(s, 8)
	return byte(v), err
}

// ParseUint16 parses a 16-bit argument.
func ParseUint16(s string) (uint16, error) {
	v, err := parseUint(s, 16)
	return uint16(v), err
}

package packet

import "errors"

// ErrChecksum indicates a frame with a mismatched checksum. It is only
// returned by Parse, the Assembler never surfaces framing errors.
var ErrChecksum = errors.New("checksum mismatch")

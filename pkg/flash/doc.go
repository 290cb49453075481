// Package flash emulates the tower's non-volatile data sector.
//
// The sector is a single 8-byte phrase. Variables of 1, 2 or 4 bytes are
// allocated at addresses aligned to their size; every write is a
// read-modify-write of the whole phrase, as the hardware can only program
// erased phrases.
package flash

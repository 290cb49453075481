package packet

// Command codes understood by the tower.
const (
	CmdStartup      byte = 0x04
	CmdFlashProgram byte = 0x07
	CmdFlashRead    byte = 0x08
	CmdVersion      byte = 0x09
	CmdProtocolMode byte = 0x0A
	CmdTowerNumber  byte = 0x0B
	CmdTime         byte = 0x0C
	CmdTowerMode    byte = 0x0D
	CmdAccel        byte = 0x10
)

// Sub-commands in Parameter1 of PROTOCOL_MODE, TOWER_NUMBER and TOWER_MODE.
const (
	SubGet byte = 1
	SubSet byte = 2
)

// FlashEraseAddr in Parameter1 of FLASH_PROGRAM erases the sector.
const FlashEraseAddr byte = 8

// Version packet parameters.
const (
	VersionTag   byte = 'v'
	VersionMajor byte = 1
	VersionMinor byte = 0
)

// CommandName returns a readable name of a command code.
func CommandName(code byte) string {
	switch code &^ AckFlag {
	case CmdStartup:
		return "startup"
	case CmdFlashProgram:
		return "flash.program"
	case CmdFlashRead:
		return "flash.read"
	case CmdVersion:
		return "version"
	case CmdProtocolMode:
		return "protocol.mode"
	case CmdTowerNumber:
		return "tower.number"
	case CmdTime:
		return "time"
	case CmdTowerMode:
		return "tower.mode"
	case CmdAccel:
		return "accel"
	}
	return "unknown"
}

package client

import (
	"context"
	"fmt"

	"github.com/robotalks/tower.go/pkg/packet"
)

func request(code, p1, p2, p3 byte, expect ...byte) Request {
	return Request{
		Packet: packet.Packet{Command: code, Parameter1: p1, Parameter2: p2, Parameter3: p3},
		Expect: expect,
	}
}

func (c *Client) get(ctx context.Context, req Request) (packet.Packet, error) {
	pkts, err := c.Do(ctx, req)
	if err != nil {
		return packet.Packet{}, err
	}
	if len(pkts) != 1 {
		return packet.Packet{}, fmt.Errorf("%w: %d packets", ErrUnexpectedResponse, len(pkts))
	}
	return pkts[0], nil
}

func join(lo, hi byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// Version is the firmware version.
type Version struct {
	Major, Minor byte
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// StartupInfo is what the tower reports on a startup request.
type StartupInfo struct {
	Version Version
	Number  uint16
}

// Startup requests the startup packets.
func (c *Client) Startup(ctx context.Context) (*StartupInfo, error) {
	pkts, err := c.Do(ctx, request(packet.CmdStartup, 0, 0, 0,
		packet.CmdStartup, packet.CmdVersion, packet.CmdTowerNumber))
	if err != nil {
		return nil, err
	}
	info := &StartupInfo{}
	for _, pkt := range pkts {
		switch pkt.Cmd().Code {
		case packet.CmdVersion:
			info.Version = Version{Major: pkt.Parameter2, Minor: pkt.Parameter3}
		case packet.CmdTowerNumber:
			info.Number = join(pkt.Parameter2, pkt.Parameter3)
		}
	}
	return info, nil
}

// Version requests the firmware version.
func (c *Client) Version(ctx context.Context) (Version, error) {
	pkt, err := c.get(ctx, request(packet.CmdVersion, 0, 0, 0, packet.CmdVersion))
	if err != nil {
		return Version{}, err
	}
	if pkt.Parameter1 != packet.VersionTag {
		return Version{}, fmt.Errorf("%w: %s", ErrUnexpectedResponse, pkt)
	}
	return Version{Major: pkt.Parameter2, Minor: pkt.Parameter3}, nil
}

// TowerNumber gets the tower number.
func (c *Client) TowerNumber(ctx context.Context) (uint16, error) {
	pkt, err := c.get(ctx, request(packet.CmdTowerNumber, packet.SubGet, 0, 0, packet.CmdTowerNumber))
	if err != nil {
		return 0, err
	}
	return join(pkt.Parameter2, pkt.Parameter3), nil
}

// SetTowerNumber sets the tower number.
func (c *Client) SetTowerNumber(ctx context.Context, n uint16) error {
	_, err := c.Do(ctx, request(packet.CmdTowerNumber, packet.SubSet, byte(n), byte(n>>8)))
	return err
}

// TowerMode gets the tower mode.
func (c *Client) TowerMode(ctx context.Context) (uint16, error) {
	pkt, err := c.get(ctx, request(packet.CmdTowerMode, packet.SubGet, 0, 0, packet.CmdTowerMode))
	if err != nil {
		return 0, err
	}
	return join(pkt.Parameter2, pkt.Parameter3), nil
}

// SetTowerMode sets the tower mode.
func (c *Client) SetTowerMode(ctx context.Context, m uint16) error {
	_, err := c.Do(ctx, request(packet.CmdTowerMode, packet.SubSet, byte(m), byte(m>>8)))
	return err
}

// ProtocolMode gets the accelerometer mode, 0 poll, 1 interrupt.
func (c *Client) ProtocolMode(ctx context.Context) (byte, error) {
	pkt, err := c.get(ctx, request(packet.CmdProtocolMode, packet.SubGet, 0, 0, packet.CmdProtocolMode))
	if err != nil {
		return 0, err
	}
	return pkt.Parameter2, nil
}

// SetProtocolMode sets the accelerometer mode.
func (c *Client) SetProtocolMode(ctx context.Context, mode byte) error {
	_, err := c.Do(ctx, request(packet.CmdProtocolMode, packet.SubSet, mode, 0))
	return err
}

// SetTime sets the tower clock.
func (c *Client) SetTime(ctx context.Context, h, m, s byte) error {
	_, err := c.Do(ctx, request(packet.CmdTime, h, m, s))
	return err
}

// FlashRead reads a byte of flash.
func (c *Client) FlashRead(ctx context.Context, addr byte) (byte, error) {
	pkt, err := c.get(ctx, request(packet.CmdFlashRead, addr, 0, 0, packet.CmdFlashRead))
	if err != nil {
		return 0, err
	}
	return pkt.Parameter3, nil
}

// FlashWrite programs a byte of flash.
func (c *Client) FlashWrite(ctx context.Context, addr, val byte) error {
	_, err := c.Do(ctx, request(packet.CmdFlashProgram, addr, 0, val))
	return err
}

// FlashErase erases the flash sector.
func (c *Client) FlashErase(ctx context.Context) error {
	_, err := c.Do(ctx, request(packet.CmdFlashProgram, packet.FlashEraseAddr, 0, 0))
	return err
}

package tower

import (
	"context"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/tower.go/pkg/accel"
	"github.com/robotalks/tower.go/pkg/cli/sh"
	"github.com/robotalks/tower.go/pkg/client"
)

var timeNow = time.Now

type op func(ctx context.Context, cl *client.Client) (interface{}, error)

func do(fn op) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		sh.Do(c, fn)
	})
}

// getOrSet runs get without arguments, set with a single 16-bit argument.
func getOrSet(c *ishell.Context,
	get func(*client.Client, context.Context) (uint16, error),
	set func(*client.Client, context.Context, uint16) error) {
	if len(c.Args) == 0 {
		sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
			return get(cl, ctx)
		})
		return
	}
	v, err := sh.ParseUint16(c.Args[0])
	if err != nil {
		c.Err(err)
		return
	}
	sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
		return nil, set(cl, ctx, v)
	})
}

func parseBytes(c *ishell.Context, n int) ([]byte, error) {
	if len(c.Args) != n {
		return nil, fmt.Errorf("expect %d arguments", n)
	}
	vals := make([]byte, n)
	for i, arg := range c.Args {
		v, err := sh.ParseByte(arg)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func parseAccelMode(s string) (accel.Mode, error) {
	switch s {
	case "poll", "0":
		return accel.ModePoll, nil
	case "int", "interrupt", "1":
		return accel.ModeInterrupt, nil
	}
	return 0, fmt.Errorf("unknown mode %q, expect poll or int", s)
}

var (
	// StartupCmd requests the startup packets.
	StartupCmd = ishell.Cmd{
		Name: "startup",
		Func: do(func(ctx context.Context, cl *client.Client) (interface{}, error) {
			return cl.Startup(ctx)
		}),
	}

	// VersionCmd requests the firmware version.
	VersionCmd = ishell.Cmd{
		Name:    "version",
		Aliases: []string{"ver"},
		Func: do(func(ctx context.Context, cl *client.Client) (interface{}, error) {
			v, err := cl.Version(ctx)
			if err != nil {
				return nil, err
			}
			return v.String(), nil
		}),
	}

	// NumberCmd gets or sets the tower number.
	NumberCmd = ishell.Cmd{
		Name:    "number",
		Aliases: []string{"num"},
		Help:    "[N]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			getOrSet(c, (*client.Client).TowerNumber, (*client.Client).SetTowerNumber)
		}),
	}

	// ModeCmd gets or sets the tower mode.
	ModeCmd = ishell.Cmd{
		Name: "mode",
		Help: "[N]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			getOrSet(c, (*client.Client).TowerMode, (*client.Client).SetTowerMode)
		}),
	}

	// TimeCmd sets the tower clock, to local time without arguments.
	TimeCmd = ishell.Cmd{
		Name: "time",
		Help: "[H M S]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var hms []byte
			if len(c.Args) == 0 {
				h, m, s := timeNow().Clock()
				hms = []byte{byte(h), byte(m), byte(s)}
			} else {
				var err error
				if hms, err = parseBytes(c, 3); err != nil {
					c.Err(err)
					return
				}
			}
			sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
				return nil, cl.SetTime(ctx, hms[0], hms[1], hms[2])
			})
		}),
	}

	// FlashReadCmd reads a flash byte.
	FlashReadCmd = ishell.Cmd{
		Name:    "flash.read",
		Aliases: []string{"fr"},
		Help:    "ADDR",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			args, err := parseBytes(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
				return cl.FlashRead(ctx, args[0])
			})
		}),
	}

	// FlashWriteCmd programs a flash byte.
	FlashWriteCmd = ishell.Cmd{
		Name:    "flash.write",
		Aliases: []string{"fw"},
		Help:    "ADDR VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			args, err := parseBytes(c, 2)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
				return nil, cl.FlashWrite(ctx, args[0], args[1])
			})
		}),
	}

	// FlashEraseCmd erases the flash sector.
	FlashEraseCmd = ishell.Cmd{
		Name: "flash.erase",
		Func: do(func(ctx context.Context, cl *client.Client) (interface{}, error) {
			return nil, cl.FlashErase(ctx)
		}),
	}

	// AccelCmd gets or switches the accelerometer mode.
	AccelCmd = ishell.Cmd{
		Name: "accel",
		Help: "[poll|int]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
					m, err := cl.ProtocolMode(ctx)
					if err != nil {
						return nil, err
					}
					return accel.Mode(m).String(), nil
				})
				return
			}
			mode, err := parseAccelMode(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Do(c, func(ctx context.Context, cl *client.Client) (interface{}, error) {
				return nil, cl.SetProtocolMode(ctx, byte(mode))
			})
		}),
	}
)

func init() {
	sh.AddCmds(
		&StartupCmd,
		&VersionCmd,
		&NumberCmd,
		&ModeCmd,
		&TimeCmd,
		&FlashReadCmd,
		&FlashWriteCmd,
		&FlashEraseCmd,
		&AccelCmd,
	)
}

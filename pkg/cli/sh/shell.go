// Package sh is the interactive tower console.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/tower.go/pkg/client"
	"github.com/robotalks/tower.go/pkg/discovery"
	"github.com/robotalks/tower.go/pkg/packet"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn

	// Dial opens links, client.Dial by default.
	Dial func(target string) (io.ReadWriteCloser, error)
}

// Conn is a connected tower.
type Conn struct {
	Target string
	Client *client.Client
	Cancel func()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&EventsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Dial = func(target string) (io.ReadWriteCloser, error) {
		return client.Dial(target, s.Config.SerialOptions)
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Do runs a request against the connected tower and prints the result.
func Do(c *ishell.Context, fn func(ctx context.Context, cl *client.Client) (interface{}, error)) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Timeout)
	defer cancel()
	res, err := fn(ctx, s.Conn.Client)
	if err != nil {
		c.Err(err)
		return err
	}
	return s.print(c, res)
}

func (s *Shell) print(c *ishell.Context, res interface{}) error {
	if s.OutputJSON {
		if res == nil {
			res = map[string]bool{"ok": true}
		}
		out, err := json.Marshal(res)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	if res == nil {
		c.Println("OK")
		return nil
	}
	c.Println(res)
	return nil
}

// FormatPacket renders a packet received from a tower.
func FormatPacket(pkt packet.Packet) string {
	switch pkt.Cmd().Code {
	case packet.CmdTime:
		return fmt.Sprintf("time %02d:%02d:%02d", pkt.Parameter1, pkt.Parameter2, pkt.Parameter3)
	case packet.CmdAccel:
		return fmt.Sprintf("accel x=%d y=%d z=%d", int8(pkt.Parameter1), int8(pkt.Parameter2), int8(pkt.Parameter3))
	}
	return fmt.Sprintf("%s %s", packet.CommandName(pkt.Cmd().Code), pkt)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// SelectTower discovers towers and asks for a choice.
func (s *Shell) SelectTower() (*discovery.Tower, error) {
	towers, err := discovery.Browse(context.Background(), s.Config.DiscoverTimeout)
	if err != nil {
		return nil, err
	}
	switch {
	case len(towers) == 0:
		return nil, fmt.Errorf("no tower discovered")
	case len(towers) == 1:
		return towers[0], nil
	case !s.Interactive:
		return nil, fmt.Errorf("more than 1 towers discovered in non-interactive mode")
	}
	items := make([]string, len(towers))
	for n, t := range towers {
		items[n] = t.Instance + ": " + t.Target()
	}
	return towers[s.Shell.MultiChoice(items, "Which one to connect?")], nil
}

// Connect connects a tower.
func (s *Shell) Connect(target string) error {
	rw, err := s.Dial(target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn := &Conn{Target: target, Client: client.New(rw), Cancel: cancel}
	go conn.Client.Run(ctx)
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

// Disconnect disconnects current tower.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Target != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Target)
		}
		if err := s.Connect(s.Config.Target); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Target, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd lists towers advertised on the local network.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			towers, err := discovery.Browse(context.Background(), s.Config.DiscoverTimeout)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				targets := make([]string, 0, len(towers))
				for _, t := range towers {
					targets = append(targets, t.Target())
				}
				s.print(c, targets)
				return
			}
			if len(towers) == 0 {
				c.Println("No towers found")
				return
			}
			for _, t := range towers {
				c.Printf("%s (%s): %s\n", t.Instance, t.ID, t.Target())
			}
		},
	}

	// ConnectCmd connects a tower.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TARGET]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var target string
			if len(c.Args) > 0 {
				target = c.Args[0]
			} else {
				t, err := s.SelectTower()
				if err != nil {
					c.Err(err)
					return
				}
				target = t.Target()
			}
			if err := s.Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current tower.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// EventsCmd prints unsolicited packets.
	EventsCmd = ishell.Cmd{
		Name:    "events",
		Aliases: []string{"ev"},
		Help:    "[SECONDS]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			dur := 5 * time.Second
			if len(c.Args) > 0 {
				secs, err := parseUint(c.Args[0], 16)
				if err != nil {
					c.Err(err)
					return
				}
				dur = time.Duration(secs) * time.Second
			}
			timeout := time.After(dur)
			for {
				select {
				case pkt, ok := <-s.Conn.Client.EventChan():
					if !ok {
						c.Err(client.ErrClosed)
						return
					}
					if s.OutputJSON {
						s.print(c, pkt)
					} else {
						c.Println(FormatPacket(pkt))
					}
				case <-timeout:
					return
				}
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}

package tower

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/tower.go/pkg/accel"
	"github.com/robotalks/tower.go/pkg/flash"
	"github.com/robotalks/tower.go/pkg/rtc"
	"github.com/robotalks/tower.go/pkg/uart"
)

// Config defines how towerd builds a tower.
type Config struct {
	// ID identifies the tower in telemetry and discovery.
	ID string `yaml:"id"`

	Serial        string           `yaml:"serial"`
	SerialOptions uart.PortOptions `yaml:"serial_options"`
	Listen        string           `yaml:"listen"`
	WebsocketPath string           `yaml:"websocket_path"`
	RxFIFOSize    int              `yaml:"rx_fifo_size"`
	TxFIFOSize    int              `yaml:"tx_fifo_size"`

	// FlashImage persists the flash sector, in memory when empty.
	FlashImage string `yaml:"flash"`
	// Number and Mode are programmed when the flash is erased.
	Number uint `yaml:"number"`
	Mode   uint `yaml:"mode"`

	AccelSeed int64 `yaml:"accel_seed"`

	// MQTTBrokerURL enables telemetry, e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
	// MDNS advertises the websocket link.
	MDNS bool `yaml:"mdns"`

	configFile string
}

var defaultConfig = Config{
	Listen:        ":8070",
	WebsocketPath: uart.DefaultWebsocketPath,
	RxFIFOSize:    uart.DefaultFIFOSize,
	TxFIFOSize:    uart.DefaultFIFOSize,
	Number:        1234,
	Mode:          1,
	AccelSeed:     1,
}

// ConfigFileFlag is the flag naming the YAML config file.
const ConfigFileFlag = "config"

func init() {
	if id, err := machineid.ProtectedID("k70tower"); err == nil && len(id) > 16 {
		defaultConfig.ID = id[:16]
	} else {
		defaultConfig.ID = "tower"
	}
	defaultConfig.loadEnv(os.Getenv)
}

func (c *Config) loadEnv(getenv func(string) string) {
	if val := getenv("TOWER_ID"); val != "" {
		c.ID = val
	}
	if val := getenv("TOWER_SERIAL"); val != "" {
		c.Serial = val
	}
	if val := getenv("TOWER_LISTEN"); val != "" {
		c.Listen = val
	}
	if val := getenv("TOWER_FLASH"); val != "" {
		c.FlashImage = val
	}
	if val := getenv("TOWER_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := getenv("TOWER_NUMBER"); val != "" {
		if n, err := strconv.ParseUint(val, 0, 16); err == nil {
			c.Number = uint(n)
		}
	}
}

// LoadFile overlays the YAML file onto the config.
func (c *Config) LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Preload looks for the config file flag in args and loads the file into
// the defaults, so flags parsed later take precedence.
func Preload(args []string) error {
	return defaultConfig.preload(args)
}

func (c *Config) preload(args []string) error {
	for i := 0; i < len(args); i++ {
		arg := strings.TrimLeft(args[i], "-")
		if arg == args[i] || len(args[i])-len(arg) > 2 {
			continue
		}
		var path string
		switch {
		case arg == ConfigFileFlag && i+1 < len(args):
			path = args[i+1]
		case strings.HasPrefix(arg, ConfigFileFlag+"="):
			path = arg[len(ConfigFileFlag)+1:]
		default:
			continue
		}
		c.configFile = path
		return c.LoadFile(path)
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.configFile, ConfigFileFlag, defaultConfig.configFile, "YAML config file")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Tower ID")
	flag.StringVar(&defaultConfig.Serial, "serial", defaultConfig.Serial, "Serial device of the UART link")
	flag.IntVar(&defaultConfig.SerialOptions.BaudRate, "baud", defaultConfig.SerialOptions.BaudRate, "Serial baud rate, 0 for 115200")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Websocket link address, empty to disable")
	flag.StringVar(&defaultConfig.WebsocketPath, "path", defaultConfig.WebsocketPath, "Websocket link path")
	flag.StringVar(&defaultConfig.FlashImage, "flash", defaultConfig.FlashImage, "Flash image file")
	flag.UintVar(&defaultConfig.Number, "number", defaultConfig.Number, "Tower number of an erased flash")
	flag.UintVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Tower mode of an erased flash")
	flag.Int64Var(&defaultConfig.AccelSeed, "accel-seed", defaultConfig.AccelSeed, "Seed of the simulated accelerometer")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for telemetry")
	flag.BoolVar(&defaultConfig.MDNS, "mdns", defaultConfig.MDNS, "Advertise the websocket link over mDNS")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.Serial == "" && c.Listen == "" {
		return errors.New("at least one of serial or listen is required")
	}
	if c.Number > 0xffff {
		return fmt.Errorf("tower number %d out of range", c.Number)
	}
	if c.Mode > 0xffff {
		return fmt.Errorf("tower mode %d out of range", c.Mode)
	}
	if c.Serial != "" {
		if _, err := c.SerialOptions.Normalize(); err != nil {
			return err
		}
	}
	return nil
}

// NewStorage creates the flash storage.
func (c *Config) NewStorage() flash.Storage {
	if c.FlashImage != "" {
		return &flash.FileStorage{Path: c.FlashImage}
	}
	return flash.NewMemStorage()
}

// NewTower creates the tower and its collaborators.
func (c *Config) NewTower() (*Tower, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	fl := flash.New(c.NewStorage())
	number, err := flash.NewVar16(fl, uint16(c.Number))
	if err != nil {
		return nil, fmt.Errorf("allocate tower number: %w", err)
	}
	mode, err := flash.NewVar16(fl, uint16(c.Mode))
	if err != nil {
		return nil, fmt.Errorf("allocate tower mode: %w", err)
	}
	port := uart.NewPort(c.RxFIFOSize, c.TxFIFOSize)
	d := NewDispatcher(port, NewState(number, mode))
	d.Flash = fl
	sampler := accel.NewSampler(accel.NewSim(c.AccelSeed), nil)
	return New(port, d, rtc.New(), sampler), nil
}

// MustNewTower creates the tower and fails on error.
func (c *Config) MustNewTower() *Tower {
	t, err := c.NewTower()
	if err != nil {
		log.Fatalln(err)
	}
	return t
}

// NewSerialLink creates the serial link, nil when disabled.
func (c *Config) NewSerialLink(port *uart.Port) *uart.SerialLink {
	if c.Serial == "" {
		return nil
	}
	return uart.NewSerialLink(c.Serial, c.SerialOptions, port)
}

// NewWebsocketLink creates the websocket link, nil when disabled.
func (c *Config) NewWebsocketLink(port *uart.Port) *uart.WebsocketLink {
	if c.Listen == "" {
		return nil
	}
	return &uart.WebsocketLink{Addr: c.Listen, Path: c.WebsocketPath, Port: port}
}

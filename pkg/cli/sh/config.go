package sh

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/tower.go/pkg/uart"
)

// Config defines how the console reaches towers.
type Config struct {
	// Target is a ws:// URL or a serial device.
	Target          string
	SerialOptions   uart.PortOptions
	Timeout         time.Duration
	DiscoverTimeout time.Duration
}

var defaultConfig = Config{
	Timeout:         time.Second,
	DiscoverTimeout: 2 * time.Second,
}

func init() {
	if val := os.Getenv("TOWER_TARGET"); val != "" {
		defaultConfig.Target = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Target, "target", defaultConfig.Target, "Tower to connect, ws://host:port/path or serial device")
	flag.IntVar(&defaultConfig.SerialOptions.BaudRate, "baud", defaultConfig.SerialOptions.BaudRate, "Serial baud rate, 0 for 115200")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Command timeout")
	flag.DurationVar(&defaultConfig.DiscoverTimeout, "discover-timeout", defaultConfig.DiscoverTimeout, "mDNS discovery timeout")
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

package uart

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// OpenSerial opens a serial device.
func OpenSerial(path string, opts PortOptions) (io.ReadWriteCloser, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	return serial.Open(path, mode)
}

// SerialLink attaches a serial device to a Port.
type SerialLink struct {
	Path    string
	Options PortOptions
	Port    *Port
	// RetryInterval reopens the device after it fails, 0 disables.
	RetryInterval time.Duration

	open func(string, PortOptions) (io.ReadWriteCloser, error)
}

// NewSerialLink creates a SerialLink.
func NewSerialLink(path string, opts PortOptions, port *Port) *SerialLink {
	return &SerialLink{Path: path, Options: opts, Port: port, RetryInterval: time.Second}
}

// Name implements Named.
func (l *SerialLink) Name() string {
	return "serial:" + l.Path
}

// Run implements Runnable.
func (l *SerialLink) Run(ctx context.Context) error {
	open := l.open
	if open == nil {
		open = OpenSerial
	}
	for {
		dev, err := open(l.Path, l.Options)
		if err == nil {
			glog.Infof("serial %s opened", l.Path)
			err = l.Port.Serve(ctx, dev)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if l.RetryInterval <= 0 {
			return err
		}
		glog.Warningf("serial %s: %v, retry in %s", l.Path, err, l.RetryInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.RetryInterval):
		}
	}
}

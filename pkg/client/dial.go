package client

import (
	"io"
	"strings"

	"github.com/robotalks/tower.go/pkg/uart"
)

// Dial opens a link to a tower. ws:// and wss:// targets are websocket
// links, anything else is a serial device.
func Dial(target string, opts uart.PortOptions) (io.ReadWriteCloser, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		conn, err := uart.DialWebsocket(target)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return uart.OpenSerial(target, opts)
}

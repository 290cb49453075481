package client

import (
	"errors"
	"fmt"

	"github.com/robotalks/tower.go/pkg/packet"
)

var (
	// ErrClosed fails the pending request when the link is gone.
	ErrClosed = errors.New("client closed")
	// ErrUnexpectedResponse indicates a response packet does not carry
	// what the request expects.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// NAckError is returned when the tower acknowledges a command negatively.
type NAckError struct {
	Packet packet.Packet
}

// Error implements error.
func (e *NAckError) Error() string {
	return fmt.Sprintf("%s %s not acknowledged", packet.CommandName(e.Packet.Command), e.Packet)
}

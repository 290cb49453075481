package uart

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSerialLinkRetry(t *testing.T) {
	port := NewPort(16, 16)
	link := NewSerialLink("/dev/ttyTEST", PortOptions{}, port)
	link.RetryInterval = time.Millisecond

	remotes := make(chan net.Conn, 1)
	attempts := 0
	link.open = func(path string, opts PortOptions) (io.ReadWriteCloser, error) {
		require.Equal(t, "/dev/ttyTEST", path)
		attempts++
		if attempts == 1 {
			return nil, errors.New("no such device")
		}
		local, remote := net.Pipe()
		remotes <- remote
		return local, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- link.Run(ctx) }()

	remote := <-remotes
	_, err := remote.Write([]byte{0x04})
	require.NoError(t, err)
	waitFor(t, func() bool { return port.rx.Len() == 1 })
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, "serial:/dev/ttyTEST", link.Name())
}

func TestSerialLinkNoRetry(t *testing.T) {
	link := NewSerialLink("/dev/ttyTEST", PortOptions{}, NewPort(1, 1))
	link.RetryInterval = 0
	link.open = func(string, PortOptions) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}
	require.EqualError(t, link.Run(context.Background()), "no such device")
}

func TestWebsocketLink(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := NewPort(16, 16)
	link := &WebsocketLink{Port: port}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- link.Serve(ctx, ln) }()

	conn, err := DialWebsocket("ws://" + ln.Addr().String() + DefaultWebsocketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0x09, 0x76})
	require.NoError(t, err)
	waitFor(t, func() bool { return port.rx.Len() == 2 })

	require.True(t, port.TrySendByte(0x42))
	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0x42}, buf[:n])

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

package uart

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// DefaultWebsocketPath is the HTTP path of the websocket link.
const DefaultWebsocketPath = "/uart"

// WebsocketLink exposes a Port as a websocket endpoint. Each binary
// message carries raw UART bytes. One peer is attached at a time.
type WebsocketLink struct {
	Addr string
	Path string
	Port *Port

	// OnListen is called with the bound address once listening.
	OnListen func(net.Addr)
}

// Name implements Named.
func (l *WebsocketLink) Name() string {
	return "websocket:" + l.Addr
}

// Run implements Runnable.
func (l *WebsocketLink) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	return l.Serve(ctx, ln)
}

// Serve accepts websocket peers on ln until ctx is done.
func (l *WebsocketLink) Serve(ctx context.Context, ln net.Listener) error {
	path := l.Path
	if path == "" {
		path = DefaultWebsocketPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Server{Handler: func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		glog.Infof("websocket peer %s attached", conn.Request().RemoteAddr)
		err := l.Port.Serve(ctx, conn)
		glog.Infof("websocket peer %s detached: %v", conn.Request().RemoteAddr, err)
	}})
	srv := &http.Server{Handler: mux}
	if fn := l.OnListen; fn != nil {
		fn(ln.Addr())
	}
	glog.Infof("websocket link on %s%s", ln.Addr(), path)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		srv.Close()
		<-errCh
		return ctx.Err()
	}
}

// DialWebsocket connects to a websocket link.
func DialWebsocket(url string) (*websocket.Conn, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

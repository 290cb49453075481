package uart

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/golang/glog"
)

// ErrLinkBusy is returned when a second link is attached to a Port.
var ErrLinkBusy = errors.New("link busy")

// Port is a buffered UART. It implements packet.ByteSource and
// packet.ByteSink.
type Port struct {
	onReceive atomic.Value

	rx, tx   *FIFO
	txReady  chan struct{}
	attached int32
	overruns uint64
}

// NewPort creates a Port with the given FIFO capacities.
func NewPort(rxSize, txSize int) *Port {
	return &Port{
		rx:      NewFIFO(rxSize),
		tx:      NewFIFO(txSize),
		txReady: make(chan struct{}, 1),
	}
}

// SetOnReceive sets the func called from the receive pump after new
// bytes are buffered. It must not block. It is safe to call while the
// Port is served.
func (p *Port) SetOnReceive(fn func()) {
	p.onReceive.Store(fn)
}

func (p *Port) notifyReceive() {
	if fn, _ := p.onReceive.Load().(func()); fn != nil {
		fn()
	}
}

// TryReceiveByte implements packet.ByteSource.
func (p *Port) TryReceiveByte() (byte, bool) {
	return p.rx.Get()
}

// TrySendByte implements packet.ByteSink. It returns false if the
// transmit FIFO is full.
func (p *Port) TrySendByte(b byte) bool {
	if !p.tx.Put(b) {
		return false
	}
	select {
	case p.txReady <- struct{}{}:
	default:
	}
	return true
}

// Overruns returns the number of received bytes dropped because the
// receive FIFO was full.
func (p *Port) Overruns() uint64 {
	return atomic.LoadUint64(&p.overruns)
}

// Serve pumps bytes between the FIFOs and rw until rw fails or ctx is
// done. Only one link can be served at a time. When rw is an io.Closer
// it is closed on return, which releases a blocked Read.
func (p *Port) Serve(ctx context.Context, rw io.ReadWriter) error {
	if !atomic.CompareAndSwapInt32(&p.attached, 0, 1) {
		return ErrLinkBusy
	}
	defer atomic.StoreInt32(&p.attached, 0)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	txDone := make(chan struct{})
	go func() {
		errCh <- p.receive(rw)
	}()
	go func() {
		defer close(txDone)
		errCh <- p.transmit(ctx, rw)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	if closer, ok := rw.(io.Closer); ok {
		closer.Close()
	}
	<-txDone
	return err
}

func (p *Port) receive(r io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if !p.rx.Put(b) {
				atomic.AddUint64(&p.overruns, 1)
				glog.Warningf("receive FIFO overrun, dropped %02x", b)
			}
		}
		if n > 0 {
			p.notifyReceive()
		}
		if err != nil {
			return err
		}
	}
}

func (p *Port) transmit(ctx context.Context, w io.Writer) error {
	buf := make([]byte, p.tx.Cap())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.txReady:
		}
		for {
			n := p.tx.Take(buf)
			if n == 0 {
				break
			}
			if glog.V(4) {
				glog.Infof("TX % x", buf[:n])
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
		}
	}
}

// Package client talks to a tower from the PC side.
package client

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/tower.go/pkg/framework"
	"github.com/robotalks/tower.go/pkg/packet"
)

// DefaultEventBacklog is the capacity of the event chan.
const DefaultEventBacklog = 64

// DefaultNAckSettle is how long a response that may also be a negative
// ack waits for the acknowledgment.
const DefaultNAckSettle = 100 * time.Millisecond

// Request is a command expecting an acknowledgment.
type Request struct {
	Packet packet.Packet
	// Expect lists the codes of the packets the tower sends before
	// the acknowledgment.
	Expect []byte
}

// Result is the outcome of a Request.
type Result struct {
	Err     error
	Packets []packet.Packet
}

type call struct {
	req      packet.Packet
	expect   []byte
	packets  []packet.Packet
	resultCh chan Result

	// nack is set when the last consumed packet is both an expected
	// response and the negative ack of req.
	nack *packet.Packet
	seq  int
}

// Client sends requests and dispatches received packets. Packets which
// are not part of a response are reported as events.
type Client struct {
	// NAckSettle bounds the wait for an ack after a packet which can be
	// read as a response or a negative ack.
	NAckSettle time.Duration

	rw      io.ReadWriteCloser
	eventCh chan packet.Packet

	doLock      sync.Mutex
	pending     *call
	pendingLock sync.Mutex
	writeLock   sync.Mutex

	assembler packet.Assembler
}

// New creates a Client over a link.
func New(rw io.ReadWriteCloser) *Client {
	return &Client{
		NAckSettle: DefaultNAckSettle,
		rw:         rw,
		eventCh:    make(chan packet.Packet, DefaultEventBacklog),
	}
}

// EventChan retrieves the chan of unsolicited packets.
func (c *Client) EventChan() <-chan packet.Packet {
	return c.eventCh
}

// Close closes the link.
func (c *Client) Close() error {
	return c.rw.Close()
}

// Send writes a packet without waiting for anything.
func (c *Client) Send(pkt packet.Packet) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	_, err := pkt.WriteTo(c.rw)
	return err
}

// Do sends the request with the ack flag set and waits for the
// acknowledgment. Requests are sent one at a time.
func (c *Client) Do(ctx context.Context, req Request) ([]packet.Packet, error) {
	c.doLock.Lock()
	defer c.doLock.Unlock()

	pkt := req.Packet
	pkt.Command = pkt.Cmd().WithAck(true).Pack()
	cl := &call{
		req:      pkt,
		expect:   append([]byte(nil), req.Expect...),
		resultCh: make(chan Result, 1),
	}
	c.setPending(cl)
	defer c.setPending(nil)

	if glog.V(2) {
		glog.Infof("REQ %s", pkt)
	}
	if err := c.Send(pkt); err != nil {
		return nil, err
	}
	select {
	case res := <-cl.resultCh:
		return res.Packets, res.Err
	case <-ctx.Done():
		c.pendingLock.Lock()
		nack := cl.nack
		c.pendingLock.Unlock()
		if nack != nil {
			return nil, &NAckError{Packet: *nack}
		}
		return nil, ctx.Err()
	}
}

func (c *Client) setPending(cl *call) {
	c.pendingLock.Lock()
	c.pending = cl
	c.pendingLock.Unlock()
}

// HandlePacket matches a received packet with the pending request.
func (c *Client) HandlePacket(pkt packet.Packet) {
	if glog.V(2) {
		glog.Infof("RCV %s", pkt)
	}
	c.pendingLock.Lock()
	cl := c.pending
	var res *Result
	matched := cl != nil
	if matched {
		res, matched = cl.match(pkt)
		if res != nil {
			c.pending = nil
		} else if matched && cl.nack != nil {
			seq := cl.seq
			time.AfterFunc(c.NAckSettle, func() { c.settle(cl, seq) })
		}
	}
	c.pendingLock.Unlock()
	if res != nil {
		cl.resultCh <- *res
		return
	}
	if matched {
		return
	}
	select {
	case c.eventCh <- pkt:
	default:
		glog.Warningf("event backlog full, dropped %s", pkt)
	}
}

func sameParameters(a, b packet.Packet) bool {
	return a.Parameter1 == b.Parameter1 && a.Parameter2 == b.Parameter2 && a.Parameter3 == b.Parameter3
}

// settle fails the call with the pending negative ack if nothing else
// arrived since it was armed.
func (c *Client) settle(cl *call, seq int) {
	c.pendingLock.Lock()
	if c.pending != cl || cl.nack == nil || cl.seq != seq {
		c.pendingLock.Unlock()
		return
	}
	c.pending = nil
	nack := *cl.nack
	c.pendingLock.Unlock()
	cl.resultCh <- Result{Err: &NAckError{Packet: nack}}
}

// match consumes pkt if it belongs to the call, and returns a result
// once the call is complete.
//
// A negative ack echoes the request without the ack flag, which can be
// identical to an expected response (e.g. startup, or a zero value). Such
// a packet is kept as a response and remembered in nack until the ack or
// another expected packet confirms it.
func (cl *call) match(pkt packet.Packet) (*Result, bool) {
	if pkt.Command == cl.req.Command && sameParameters(pkt, cl.req) {
		return &Result{Packets: cl.packets}, true
	}
	cmd := pkt.Cmd()
	if cmd.Ack {
		return nil, false
	}
	isNAck := cmd.Code == cl.req.Cmd().Code && sameParameters(pkt, cl.req)
	for i, code := range cl.expect {
		if code == cmd.Code {
			cl.expect = append(cl.expect[:i], cl.expect[i+1:]...)
			cl.packets = append(cl.packets, pkt)
			cl.seq++
			cl.nack = nil
			if isNAck {
				cl.nack = &pkt
			}
			return nil, true
		}
	}
	if isNAck {
		return &Result{Packets: cl.packets, Err: &NAckError{Packet: pkt}}, true
	}
	return nil, false
}

// Run reads packets until the link fails or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	err := framework.RunWithContextCloser(ctx, c.rw, func() error {
		buf := make([]byte, 64)
		for {
			n, err := c.rw.Read(buf)
			for _, b := range buf[:n] {
				if pkt, ok := c.assembler.Feed(b); ok {
					c.HandlePacket(pkt)
				}
			}
			if err != nil {
				return err
			}
		}
	})
	c.pendingLock.Lock()
	if cl := c.pending; cl != nil {
		c.pending = nil
		cl.resultCh <- Result{Err: ErrClosed}
	}
	c.pendingLock.Unlock()
	close(c.eventCh)
	return err
}

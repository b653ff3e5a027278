// Package client implements the SSPQ client-side state machine: connect,
// send, receive, confirm, disconnect.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/mee4895/sspq-go/wire"
)

// state is the client's connection state machine position.
type state int

const (
	disconnected state = iota
	connectedState
	awaitingMsg
)

// Client speaks the SSPQ wire protocol over a single TCP connection.
// A Client is not safe for concurrent use by multiple goroutines.
type Client struct {
	cfg Config

	mu    sync.Mutex
	conn  net.Conn
	state state
}

// New returns a Client in the DISCONNECTED state, configured per cfg.
func New(cfg Config) *Client {
	return &Client{cfg: cfg, state: disconnected}
}

// Connect opens a TCP connection to cfg.Address:cfg.Port. It fails with
// ErrAlreadyConnected unless the client is currently DISCONNECTED.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != disconnected {
		return ErrAlreadyConnected
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", c.cfg.Address, c.cfg.Port))
	if err != nil {
		return err
	}

	c.conn = conn
	c.state = connectedState
	return nil
}

// Send emits one SEND frame carrying payload and retries. Allowed in both
// CONNECTED and AWAITING_MSG; fails with ErrNotConnected if DISCONNECTED.
// retries must be 0..255 (255 meaning infinite, per wire.InfiniteRetries).
func (c *Client) Send(payload []byte, retries uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == disconnected {
		return ErrNotConnected
	}

	_, err := c.conn.Write(wire.Encode(wire.Item{
		Type:        wire.Send,
		Retries:     retries,
		PayloadSize: uint32(len(payload)),
		Payload:     payload,
	}))
	return err
}

// Receive requests one item. dead selects DEAD_RECEIVE over RECEIVE.
//
// Fails with ErrNotConnected unless CONNECTED, or ErrBusyReceiving if
// already AWAITING_MSG. On success it moves to AWAITING_MSG, sends the
// request frame, and blocks for exactly one response frame:
//   - SEND: returns its payload, stays in AWAITING_MSG (call Confirm next).
//   - NO_RECEIVE: moves back to CONNECTED and returns *ErrServerRefused.
//   - anything else: returns *ErrServerProtocol and closes the connection,
//     since an unrecognized response leaves the session state ambiguous.
func (c *Client) Receive(dead bool) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == disconnected {
		return nil, ErrNotConnected
	}
	if c.state == awaitingMsg {
		return nil, ErrBusyReceiving
	}

	reqType := wire.Receive
	if dead {
		reqType = wire.DeadReceive
	}
	if _, err := c.conn.Write(wire.Encode(wire.Item{Type: reqType})); err != nil {
		return nil, err
	}
	c.state = awaitingMsg

	item, err := wire.ReadFrame(c.conn)
	if err != nil {
		return nil, err
	}

	switch item.Type {
	case wire.Send:
		return item.Payload, nil

	case wire.NoReceive:
		c.state = connectedState
		reason := "blocks receiving"
		if dead {
			reason = "no dead letter queue"
		}
		return nil, &ErrServerRefused{Reason: reason}

	default:
		// An unrecognized response type means the broker and client have
		// fallen out of sync; close rather than leave the connection in
		// an ambiguous state.
		c.closeLocked()
		return nil, &ErrServerProtocol{Got: item.Type.String()}
	}
}

// ReceiveAndConfirm calls Receive and, if cfg.AutoConfirm is set, follows a
// successful Receive with a Confirm. confirmed reports whether that Confirm
// happened, so callers that log the distinction don't have to track
// cfg.AutoConfirm themselves.
func (c *Client) ReceiveAndConfirm(dead bool) (payload []byte, confirmed bool, err error) {
	payload, err = c.Receive(dead)
	if err != nil {
		return nil, false, err
	}
	if !c.cfg.AutoConfirm {
		return payload, false, nil
	}
	if err := c.Confirm(); err != nil {
		return payload, false, err
	}
	return payload, true, nil
}

// Confirm emits one CONFIRM frame and moves from AWAITING_MSG back to
// CONNECTED. Fails with ErrNotConnected unless CONNECTED-or-AWAITING_MSG,
// or ErrNothingToConfirm unless AWAITING_MSG.
func (c *Client) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == disconnected {
		return ErrNotConnected
	}
	if c.state != awaitingMsg {
		return ErrNothingToConfirm
	}

	if _, err := c.conn.Write(wire.Encode(wire.Item{Type: wire.Confirm})); err != nil {
		return err
	}
	c.state = connectedState
	return nil
}

// Disconnect closes the socket and moves to DISCONNECTED. Fails with
// ErrNotConnected if already DISCONNECTED.
//
// Disconnecting while AWAITING_MSG causes the server to retry the in-flight
// item: this is the documented auto-requeue-on-disconnect semantic.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == disconnected {
		return ErrNotConnected
	}
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	err := c.conn.Close()
	c.state = disconnected
	return err
}

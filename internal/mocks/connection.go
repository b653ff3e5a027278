// Package mocks provides an in-memory net.Conn stand-in for exercising the
// client and broker session logic without a real TCP socket.
package mocks

import (
	"bytes"
	"errors"
	"net"
	"time"

	"github.com/mee4895/sspq-go/wire"
)

// NewConnection creates a new instance of MockConnection.
// Responder is invoked by Write when a full frame is received.
// Return a nil slice/nil error to swallow the frame.
// Return a non-nil error to simulate a write error.
func NewConnection(resp func(wire.Item) ([]byte, error)) *MockConnection {
	return &MockConnection{
		resp: resp,
		// during shutdown, a reader can close before a writer as they both
		// return on readClose being closed, so there is some non-determinism
		// here. buffering avoids writes blocking on a reader that's already
		// gone.
		readData:  make(chan []byte, 10),
		readClose: make(chan struct{}),
	}
}

// MockConnection is a mock connection that satisfies the net.Conn interface.
// Writes are decoded as whole wire frames and handed to the responder
// callback; any bytes it returns become available to the next Read.
//
// NOTE: Read, Write, and Close may be called by separate goroutines.
type MockConnection struct {
	resp      func(wire.Item) ([]byte, error)
	readDL    *time.Timer
	readData  chan []byte
	readClose chan struct{}
	closed    bool

	pending bytes.Buffer
}

// Read blocks until Write or Close is called, or the read deadline expires.
func (m *MockConnection) Read(b []byte) (n int, err error) {
	if m.pending.Len() > 0 {
		return m.pending.Read(b)
	}

	select {
	case <-m.readClose:
		return 0, errors.New("mock connection was closed")
	default:
	}

	var deadlineC <-chan time.Time
	if m.readDL != nil {
		deadlineC = m.readDL.C
	}

	select {
	case <-m.readClose:
		return 0, errors.New("mock connection was closed")
	case <-deadlineC:
		return 0, errors.New("mock connection read deadline exceeded")
	case rd := <-m.readData:
		m.pending.Write(rd)
		return m.pending.Read(b)
	}
}

// Write decodes exactly one wire frame from b and invokes the responder.
func (m *MockConnection) Write(b []byte) (n int, err error) {
	select {
	case <-m.readClose:
		return 0, errors.New("mock connection was closed")
	default:
	}

	item, err := wire.ReadFrame(bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	resp, err := m.resp(item)
	if err != nil {
		return 0, err
	}
	if resp != nil {
		m.readData <- resp
	}
	return len(b), nil
}

// Close is called when the code under test tears down the connection.
func (m *MockConnection) Close() error {
	if m.closed {
		return errors.New("double close")
	}
	m.closed = true
	close(m.readClose)
	return nil
}

func (m *MockConnection) LocalAddr() net.Addr {
	return &net.IPAddr{IP: net.IPv4(127, 0, 0, 2)}
}

func (m *MockConnection) RemoteAddr() net.Addr {
	return &net.IPAddr{IP: net.IPv4(127, 0, 0, 2)}
}

func (m *MockConnection) SetDeadline(t time.Time) error {
	return errors.New("not used")
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	if m.readDL != nil && !m.readDL.Stop() {
		<-m.readDL.C
	}
	m.readDL = time.NewTimer(time.Until(t))
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	return nil
}

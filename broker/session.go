package broker

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/mee4895/sspq-go/internal/debug"
	"github.com/mee4895/sspq-go/wire"
)

// Session is the broker-side record for one TCP connection. It owns at
// most one held item, awaiting that item's CONFIRM. The fields after mu are
// guarded by it since the session's own read loop and a dispatcher's
// delivery sub-task touch them concurrently; writes to conn are serialized
// by writeMu.
type Session struct {
	peer string
	conn net.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	heldItem *wire.Item
	closed   bool
	signal   chan struct{} // edge-triggered: closed once to fire CONFIRM-or-close
}

func newSession(conn net.Conn) *Session {
	return &Session{
		peer:   conn.RemoteAddr().String(),
		conn:   conn,
		signal: make(chan struct{}),
	}
}

// Peer returns the remote address, for logging only.
func (s *Session) Peer() string { return s.peer }

// Closed reports whether the session has latched closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// markReady clears the delivery signal and reports whether the session is
// eligible to be enqueued as a receiver (held_item absent). Called from the
// session's read loop on RECEIVE/DEAD_RECEIVE.
func (s *Session) markReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heldItem != nil {
		return false
	}
	s.signal = make(chan struct{})
	return true
}

// confirm releases the held item and fires the delivery signal. Reports
// false (and does nothing) if nothing is held, per the CONFIRM-with-no-held-
// item drop rule.
func (s *Session) confirm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heldItem == nil {
		return false
	}
	s.heldItem = nil
	close(s.signal)
	return true
}

// close latches closed, fires the delivery signal (idempotent if already
// closed), and tears down the socket.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	select {
	case <-s.signal: // already fired by a CONFIRM
	default:
		close(s.signal)
	}
	s.mu.Unlock()
	s.conn.Close()
}

// beginDelivery assigns item as the session's held item and returns the
// signal channel the delivery sub-task must wait on. Returns ok=false if
// the session closed between being dequeued as a receiver and delivery
// starting.
func (s *Session) beginDelivery(item wire.Item) (sig <-chan struct{}, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	it := item
	s.heldItem = &it
	return s.signal, true
}

// deliveryFailed reports whether, after the delivery signal fired, the held
// item is still present — meaning the session closed without confirming.
func (s *Session) deliveryFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heldItem != nil
}

// writeFrame serializes and writes a single frame. Safe for concurrent
// callers (a delivery sub-task and a NO_RECEIVE refusal never write to the
// same session at once in practice, but the mutex keeps the write itself
// from tearing).
func (s *Session) writeFrame(item wire.Item) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(wire.Encode(item))
	return err
}

// readLoop reads frames until BadFrame/EOF, dispatching each one per the
// connection state table. It owns all mutation of this session's
// held_item/closed/signal triple from the "read" side; beginDelivery and
// deliveryFailed are the dispatcher's side of that same triple.
func (b *Broker) readLoop(ctx context.Context, s *Session) {
	defer func() {
		s.close()
		b.stats.SessionsClosed.Add(1)
		debug.Logf(ctx, b.cfg.LogLevel, "peer %s disconnected", s.peer)
	}()

	for {
		item, err := wire.ReadFrame(s.conn)
		if err != nil {
			return
		}

		switch item.Type {
		case wire.Send:
			item = b.cfg.applyForceRetries(item)
			b.mainQueue.Enqueue(item)
			b.stats.MainEnqueued.Add(1)

		case wire.Receive:
			if !s.markReady() {
				debug.Log(ctx, slog.LevelWarn, "dropping RECEIVE: session already holding an item", "peer", s.peer)
				continue
			}
			b.mainReceivers.Enqueue(s)

		case wire.DeadReceive:
			if !s.markReady() {
				debug.Log(ctx, slog.LevelWarn, "dropping DEAD_RECEIVE: session already holding an item", "peer", s.peer)
				continue
			}
			b.deadReceivers.Enqueue(s)

		case wire.Confirm:
			if !s.confirm() {
				debug.Log(ctx, slog.LevelWarn, "dropping CONFIRM: session has nothing held", "peer", s.peer)
				continue
			}

		default:
			debug.Log(ctx, slog.LevelWarn, "dropping frame of unexpected type", "peer", s.peer, "type", item.Type.String())
		}
	}
}

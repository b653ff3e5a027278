package broker

import (
	"context"
	"log/slog"

	"github.com/mee4895/sspq-go/internal/debug"
	"github.com/mee4895/sspq-go/wire"
)

// runMainDispatcher pairs MainQueue items with MainReceivers sessions,
// spawning an independent delivery sub-task per pair so concurrent
// deliveries to different sessions never serialize behind each other.
func (b *Broker) runMainDispatcher(ctx context.Context) {
	for {
		item, err := b.mainQueue.Dequeue(ctx)
		if err != nil {
			return
		}

		s, err := b.nextLiveReceiver(ctx, b.mainReceivers)
		if err != nil {
			return
		}

		go b.deliverMain(ctx, item, s)
	}
}

// runDeadLetterDispatcher pairs DeadLetterQueue items with DeadReceivers
// when dead-lettering is enabled; otherwise it refuses every DeadReceivers
// entry with a NO_RECEIVE frame and the queue is never populated.
func (b *Broker) runDeadLetterDispatcher(ctx context.Context) {
	if !b.cfg.DeadLetterEnabled {
		b.runDeadLetterRefusal(ctx)
		return
	}

	for {
		item, err := b.deadQueue.Dequeue(ctx)
		if err != nil {
			return
		}

		s, err := b.nextLiveReceiver(ctx, b.deadReceivers)
		if err != nil {
			return
		}

		go b.deliverDeadLetter(ctx, item, s)
	}
}

func (b *Broker) runDeadLetterRefusal(ctx context.Context) {
	for {
		s, err := b.nextLiveReceiver(ctx, b.deadReceivers)
		if err != nil {
			return
		}
		if err := s.writeFrame(wire.Item{Type: wire.NoReceive}); err != nil {
			debug.Log(ctx, slog.LevelWarn, "failed to send NO_RECEIVE", "peer", s.Peer(), "error", err)
		}
	}
}

// nextLiveReceiver dequeues sessions from recv until it finds one that
// hasn't closed, discarding closed ones as it goes. It suspends (does
// not busy-spin) once the receiver buffer drains.
func (b *Broker) nextLiveReceiver(ctx context.Context, recv *sessionQueue) (*Session, error) {
	for {
		s, err := recv.Dequeue(ctx)
		if err != nil {
			return nil, err
		}
		if !s.Closed() {
			return s, nil
		}
	}
}

// deliverMain is the Main dispatcher's delivery sub-task.
func (b *Broker) deliverMain(ctx context.Context, item wire.Item, s *Session) {
	sig, ok := s.beginDelivery(item)
	if !ok {
		// Session closed between being dequeued as a receiver and delivery
		// assignment; the item was never handed out, so it goes straight
		// back to the tail of MainQueue for the next receiver.
		b.mainQueue.Enqueue(item)
		return
	}

	if err := s.writeFrame(wire.Item{Type: wire.Send, Retries: item.Retries, PayloadSize: item.PayloadSize, Payload: item.Payload}); err != nil {
		debug.Log(ctx, slog.LevelWarn, "failed to send item to receiver", "peer", s.Peer(), "error", err)
	}

	select {
	case <-sig:
	case <-ctx.Done():
		return
	}

	if !s.deliveryFailed() {
		b.stats.Delivered.Add(1)
		return
	}

	b.retryOrDeadLetter(item)
}

// deliverDeadLetter is the DeadLetter dispatcher's delivery sub-task.
// Unlike the Main path, a failed delivery always re-enqueues the item to
// DeadLetterQueue unchanged: dead letters are meant to be inspected, not
// exhausted.
func (b *Broker) deliverDeadLetter(ctx context.Context, item wire.Item, s *Session) {
	sig, ok := s.beginDelivery(item)
	if !ok {
		b.deadQueue.Enqueue(item)
		return
	}

	if err := s.writeFrame(wire.Item{Type: wire.Send, Retries: item.Retries, PayloadSize: item.PayloadSize, Payload: item.Payload}); err != nil {
		debug.Log(ctx, slog.LevelWarn, "failed to send dead-letter item to receiver", "peer", s.Peer(), "error", err)
	}

	select {
	case <-sig:
	case <-ctx.Done():
		return
	}

	if !s.deliveryFailed() {
		b.stats.Delivered.Add(1)
		return
	}

	b.deadQueue.Enqueue(item)
}

// retryOrDeadLetter applies the Main path's retry/dead-letter rules to an
// item whose delivery failed: retries==0 moves it to DeadLetterQueue (or
// discards it when dead-lettering is disabled); otherwise retries is
// decremented (unless it is the 255 infinite sentinel) and the item goes
// to the tail of MainQueue.
func (b *Broker) retryOrDeadLetter(item wire.Item) {
	if item.Retries == 0 {
		if b.cfg.DeadLetterEnabled {
			b.deadQueue.Enqueue(item)
			b.stats.DeadEnqueued.Add(1)
		}
		return
	}

	if item.Retries != wire.InfiniteRetries {
		item.Retries--
	}
	b.stats.Retried.Add(1)
	b.mainQueue.Enqueue(item)
}

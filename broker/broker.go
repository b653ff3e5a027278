// Package broker implements the SSPQ broker core: the per-connection
// session state machine, the four FIFO buffers, and the two rendezvous
// dispatchers that pair pending items with ready receivers.
package broker

import (
	"context"
	"sync"

	"github.com/mee4895/sspq-go/broker/queue"
	"github.com/mee4895/sspq-go/broker/stats"
	"github.com/mee4895/sspq-go/wire"
)

type itemQueue = queue.BlockingQueue[wire.Item]
type sessionQueue = queue.BlockingQueue[*Session]

// Broker holds the four shared FIFO buffers and the configuration threaded
// to every Session.
type Broker struct {
	cfg   Config
	stats *stats.Stats

	mainQueue     *itemQueue
	deadQueue     *itemQueue
	mainReceivers *sessionQueue
	deadReceivers *sessionQueue

	sessionsMu sync.Mutex
	sessions   map[*Session]struct{}
}

// New creates a Broker ready to have Run called on it.
func New(cfg Config) *Broker {
	return &Broker{
		cfg:           cfg,
		stats:         &stats.Stats{},
		mainQueue:     queue.NewBlocking[wire.Item](),
		deadQueue:     queue.NewBlocking[wire.Item](),
		mainReceivers: queue.NewBlocking[*Session](),
		deadReceivers: queue.NewBlocking[*Session](),
		sessions:      make(map[*Session]struct{}),
	}
}

// Stats returns the broker's live counters.
func (b *Broker) Stats() stats.Snapshot { return b.stats.Snapshot() }

func (b *Broker) trackSession(s *Session) {
	b.sessionsMu.Lock()
	b.sessions[s] = struct{}{}
	b.sessionsMu.Unlock()
}

func (b *Broker) untrackSession(s *Session) {
	b.sessionsMu.Lock()
	delete(b.sessions, s)
	b.sessionsMu.Unlock()
}

// closeAllSessions closes every currently-tracked session. Used on
// shutdown; in-flight held items are simply dropped, per the broker's
// volatile, non-persistent design.
func (b *Broker) closeAllSessions() {
	b.sessionsMu.Lock()
	sessions := make([]*Session, 0, len(b.sessions))
	for s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.sessionsMu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// runDispatchers starts the Main and DeadLetter dispatcher goroutines and
// blocks until ctx is cancelled.
func (b *Broker) runDispatchers(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.runMainDispatcher(ctx)
	}()
	go func() {
		defer wg.Done()
		b.runDeadLetterDispatcher(ctx)
	}()
	<-ctx.Done()
	wg.Wait()
}

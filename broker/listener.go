package broker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mee4895/sspq-go/internal/debug"
)

// Listener accepts inbound connections and spawns a Session per socket.
type Listener struct {
	broker   *Broker
	listener net.Listener
}

// Listen binds the broker's configured host/port.
func Listen(b *Broker) (*Listener, error) {
	addr := fmt.Sprintf("%s:%d", b.cfg.Host, b.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{broker: b, listener: ln}, nil
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr { return l.listener.Addr() }

// Serve runs the accept loop and both dispatchers until ctx is cancelled,
// at which point it stops accepting, the dispatchers unwind, and every
// live session is closed.
func (l *Listener) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.broker.runDispatchers(ctx)
	}()

	var stopping atomic.Bool
	go func() {
		<-ctx.Done()
		stopping.Store(true)
		l.listener.Close()
	}()

	debug.Log(ctx, slog.LevelInfo, "broker listening", "addr", l.listener.Addr().String())

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			cancel()
			wg.Wait()
			l.broker.closeAllSessions()
			if stopping.Load() {
				return nil
			}
			return err
		}

		s := newSession(conn)
		l.broker.trackSession(s)
		l.broker.stats.SessionsAccepted.Add(1)
		debug.Logf(ctx, l.broker.cfg.LogLevel, "peer %s connected", s.Peer())

		go func() {
			l.broker.readLoop(ctx, s)
			l.broker.untrackSession(s)
		}()
	}
}

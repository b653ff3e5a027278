package broker

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mee4895/sspq-go/wire"
)

func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { clientSide.Close() })
	return newSession(serverSide), clientSide
}

func TestSessionMarkReadyRequiresNoHeldItem(t *testing.T) {
	s, _ := newTestSession(t)

	require.True(t, s.markReady())

	sig, ok := s.beginDelivery(wire.Item{Type: wire.Send, Payload: []byte("x")})
	require.True(t, ok)

	// held_item is now present: a second markReady must be rejected (drop).
	require.False(t, s.markReady())

	_ = sig
}

func TestSessionConfirmRequiresHeldItem(t *testing.T) {
	s, _ := newTestSession(t)

	// CONFIRM with nothing held is dropped.
	require.False(t, s.confirm())

	s.markReady()
	_, ok := s.beginDelivery(wire.Item{Type: wire.Send})
	require.True(t, ok)

	require.True(t, s.confirm())
	require.False(t, s.deliveryFailed())

	// A second CONFIRM now has nothing held either.
	require.False(t, s.confirm())
}

func TestSessionCloseFiresSignalAndIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t)
	s.markReady()
	sig, ok := s.beginDelivery(wire.Item{Type: wire.Send})
	require.True(t, ok)

	s.close()
	<-sig // must not block: close fires the delivery signal

	require.True(t, s.Closed())
	require.True(t, s.deliveryFailed(), "held item was never confirmed")

	require.NotPanics(t, func() { s.close() }, "closing twice must be harmless")
}

func TestSessionBeginDeliveryFailsOnClosedSession(t *testing.T) {
	s, _ := newTestSession(t)
	s.markReady()
	s.close()

	_, ok := s.beginDelivery(wire.Item{Type: wire.Send})
	require.False(t, ok)
}

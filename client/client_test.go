package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mee4895/sspq-go/internal/mocks"
	"github.com/mee4895/sspq-go/wire"
)

func connectedClient(resp func(wire.Item) ([]byte, error)) *Client {
	return &Client{
		conn:  mocks.NewConnection(resp),
		state: connectedState,
	}
}

func TestSendRequiresConnection(t *testing.T) {
	c := New(DefaultConfig())
	err := c.Send([]byte("hi"), 3)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSendEmitsSendFrame(t *testing.T) {
	var got wire.Item
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		got = item
		return nil, nil
	})

	require.NoError(t, c.Send([]byte("hi"), 3))
	require.Equal(t, wire.Send, got.Type)
	require.EqualValues(t, 3, got.Retries)
	require.Equal(t, []byte("hi"), got.Payload)
}

func TestReceiveReturnsPayloadAndStaysAwaiting(t *testing.T) {
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		require.Equal(t, wire.Receive, item.Type)
		return wire.Encode(wire.Item{Type: wire.Send, Payload: []byte("late")}), nil
	})

	payload, err := c.Receive(false)
	require.NoError(t, err)
	require.Equal(t, []byte("late"), payload)
	require.Equal(t, awaitingMsg, c.state)

	// A second Receive while AWAITING_MSG is rejected before anything hits
	// the wire.
	_, err = c.Receive(false)
	require.ErrorIs(t, err, ErrBusyReceiving)
}

func TestReceiveDeadSendsDeadReceive(t *testing.T) {
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		require.Equal(t, wire.DeadReceive, item.Type)
		return wire.Encode(wire.Item{Type: wire.Send, Payload: []byte("dead")}), nil
	})

	payload, err := c.Receive(true)
	require.NoError(t, err)
	require.Equal(t, []byte("dead"), payload)
}

func TestReceiveNoReceiveReturnsServerRefused(t *testing.T) {
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		return wire.Encode(wire.Item{Type: wire.NoReceive}), nil
	})

	_, err := c.Receive(true)
	var refused *ErrServerRefused
	require.ErrorAs(t, err, &refused)
	require.Equal(t, "no dead letter queue", refused.Reason)
	require.Equal(t, connectedState, c.state, "refusal returns to CONNECTED")
}

func TestReceiveNoReceiveReasonWhenNotDead(t *testing.T) {
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		return wire.Encode(wire.Item{Type: wire.NoReceive}), nil
	})

	_, err := c.Receive(false)
	var refused *ErrServerRefused
	require.ErrorAs(t, err, &refused)
	require.Equal(t, "blocks receiving", refused.Reason)
}

func TestReceiveUnexpectedFrameIsServerProtocolAndCloses(t *testing.T) {
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		return wire.Encode(wire.Item{Type: wire.Confirm}), nil
	})

	_, err := c.Receive(false)
	var protoErr *ErrServerProtocol
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, "CONFIRM", protoErr.Got)
	require.Equal(t, disconnected, c.state)
}

func TestReceiveAndConfirmAutoConfirms(t *testing.T) {
	var confirmSeen bool
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		if item.Type == wire.Confirm {
			confirmSeen = true
			return nil, nil
		}
		return wire.Encode(wire.Item{Type: wire.Send, Payload: []byte("x")}), nil
	})
	c.cfg.AutoConfirm = true

	payload, confirmed, err := c.ReceiveAndConfirm(false)
	require.NoError(t, err)
	require.Equal(t, []byte("x"), payload)
	require.True(t, confirmed)
	require.True(t, confirmSeen)
	require.Equal(t, connectedState, c.state)
}

func TestReceiveAndConfirmSkipsConfirmWhenDisabled(t *testing.T) {
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		require.NotEqual(t, wire.Confirm, item.Type, "Confirm must not be sent when AutoConfirm is false")
		return wire.Encode(wire.Item{Type: wire.Send, Payload: []byte("x")}), nil
	})
	c.cfg.AutoConfirm = false

	payload, confirmed, err := c.ReceiveAndConfirm(false)
	require.NoError(t, err)
	require.Equal(t, []byte("x"), payload)
	require.False(t, confirmed)
	require.Equal(t, awaitingMsg, c.state)
}

func TestConfirmRequiresAwaitingMsg(t *testing.T) {
	c := connectedClient(func(wire.Item) ([]byte, error) { return nil, nil })
	err := c.Confirm()
	require.ErrorIs(t, err, ErrNothingToConfirm)
}

func TestConfirmEmitsConfirmFrameAndReturnsToConnected(t *testing.T) {
	var got wire.Item
	c := connectedClient(func(item wire.Item) ([]byte, error) {
		if item.Type == wire.Receive {
			return wire.Encode(wire.Item{Type: wire.Send, Payload: []byte("x")}), nil
		}
		got = item
		return nil, nil
	})

	_, err := c.Receive(false)
	require.NoError(t, err)

	require.NoError(t, c.Confirm())
	require.Equal(t, wire.Confirm, got.Type)
	require.Equal(t, connectedState, c.state)
}

func TestDisconnectRequiresConnection(t *testing.T) {
	c := New(DefaultConfig())
	err := c.Disconnect()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnectClosesAndMovesToDisconnected(t *testing.T) {
	c := connectedClient(func(wire.Item) ([]byte, error) { return nil, nil })
	require.NoError(t, c.Disconnect())
	require.Equal(t, disconnected, c.state)
	require.ErrorIs(t, c.Disconnect(), ErrNotConnected)
}

func TestConnectFailsWhenAlreadyConnected(t *testing.T) {
	c := connectedClient(func(wire.Item) ([]byte, error) { return nil, nil })
	err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestWriteErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	c := connectedClient(func(wire.Item) ([]byte, error) {
		return nil, wantErr
	})
	err := c.Send([]byte("x"), 0)
	require.ErrorIs(t, err, wantErr)
}

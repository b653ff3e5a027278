package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeLength(t *testing.T) {
	item := Item{Type: Send, Retries: 3, Payload: []byte("hi")}
	buf := Encode(item)
	require.Len(t, buf, 8+len("hi"))
	require.Equal(t, Magic[0], buf[0])
	require.Equal(t, Magic[1], buf[1])
}

func TestRoundTrip(t *testing.T) {
	tests := []Item{
		{Type: Send, Retries: 3, Payload: []byte("hi")},
		{Type: Receive, Retries: 0, Payload: nil},
		{Type: Confirm},
		{Type: DeadReceive},
		{Type: NoReceive},
		{Type: Send, Retries: InfiniteRetries, Payload: []byte("infinite")},
		{Type: Send, Payload: []byte{}}, // payload_size of 0 is valid
	}

	for _, want := range tests {
		want.PayloadSize = uint32(len(want.Payload))
		encoded := Encode(want)

		got, err := ReadFrame(bytes.NewReader(encoded))
		require.NoError(t, err)

		if want.Payload == nil {
			want.Payload = []byte{}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestReadFrameUnknownTypeDecodesToOther(t *testing.T) {
	buf := Encode(Item{Type: Send})
	buf[2] = 0x42 // not in the type table

	got, err := ReadFrame(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, Other, got.Type)
}

func TestReadFrameCleanEOF(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrameBadMagic(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x00}))
	require.ErrorIs(t, err, ErrBadFrame)
}

func TestReadFrameShortHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x55, 0x99, byte(Send)}))
	require.ErrorIs(t, err, ErrBadFrame)
}

func TestReadFrameShortPayload(t *testing.T) {
	full := Encode(Item{Type: Send, Payload: []byte("hello")})
	_, err := ReadFrame(bytes.NewReader(full[:len(full)-2]))
	require.ErrorIs(t, err, ErrBadFrame)
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "SEND", Send.String())
	require.Equal(t, "OTHER", Type(0x99).String())
}

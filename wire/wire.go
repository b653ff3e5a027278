// Package wire implements the SSPQ framed binary protocol: a fixed 8-byte
// header (magic, type, retries, payload size) followed by an opaque payload.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// Magic is the two-byte prefix that must begin every valid frame.
var Magic = [2]byte{0x55, 0x99}

const (
	headerSize = 8 // magic(2) + type(1) + retries(1) + payload_size(4)

	// InfiniteRetries is the sentinel retries value that is never
	// decremented by the dispatcher.
	InfiniteRetries uint8 = 255
)

// Type is the single-byte message type carried in every frame.
type Type uint8

// Wire type values. Any byte not listed here decodes to Other.
const (
	Send        Type = 0x5e
	Receive     Type = 0xec
	Confirm     Type = 0xc0
	DeadReceive Type = 0xde
	NoReceive   Type = 0x0e

	// Ping/Pong are decoded for forward compatibility but are not emitted
	// or waited on by any broker or client component.
	Ping Type = 0x91
	Pong Type = 0x90

	Other Type = 0xff
)

func (t Type) String() string {
	switch t {
	case Send:
		return "SEND"
	case Receive:
		return "RECEIVE"
	case Confirm:
		return "CONFIRM"
	case DeadReceive:
		return "DEAD_RECEIVE"
	case NoReceive:
		return "NO_RECEIVE"
	case Ping:
		return "PING"
	case Pong:
		return "PONG"
	default:
		return "OTHER"
	}
}

// typeFromByte maps a wire byte onto a Type, defaulting to Other for any
// value not in the table.
func typeFromByte(b byte) Type {
	switch Type(b) {
	case Send, Receive, Confirm, DeadReceive, NoReceive, Ping, Pong:
		return Type(b)
	default:
		return Other
	}
}

// ErrBadFrame is returned by ReadFrame when the magic prefix doesn't match
// or the stream ends mid-frame. It is fatal for the connection; the codec
// never attempts to resynchronize.
var ErrBadFrame = errors.New("wire: bad frame")

// Item is the decoded representation of one frame.
type Item struct {
	Type        Type
	Retries     uint8
	PayloadSize uint32
	Payload     []byte
}

// Encode returns the wire representation of item. The result is always
// exactly 8+len(item.Payload) bytes.
func Encode(item Item) []byte {
	buf := make([]byte, headerSize+len(item.Payload))
	buf[0], buf[1] = Magic[0], Magic[1]
	buf[2] = byte(item.Type)
	buf[3] = item.Retries
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(item.Payload)))
	copy(buf[8:], item.Payload)
	return buf
}

// ReadFrame reads exactly one frame from r.
//
// A clean close before any bytes are read is reported as io.EOF. A magic
// mismatch or any short read is reported as ErrBadFrame, wrapping the
// underlying error when there is one.
func ReadFrame(r io.Reader) (Item, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r, hdr[:2])
	if n == 0 && err != nil {
		if errors.Is(err, io.EOF) {
			return Item{}, io.EOF
		}
		return Item{}, errBadFrame(err)
	}
	if err != nil || hdr[0] != Magic[0] || hdr[1] != Magic[1] {
		if err != nil {
			return Item{}, errBadFrame(err)
		}
		return Item{}, ErrBadFrame
	}

	if _, err := io.ReadFull(r, hdr[2:headerSize]); err != nil {
		return Item{}, errBadFrame(err)
	}

	typ := typeFromByte(hdr[2])
	retries := hdr[3]
	size := binary.BigEndian.Uint32(hdr[4:8])

	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Item{}, errBadFrame(err)
		}
	}

	return Item{
		Type:        typ,
		Retries:     retries,
		PayloadSize: size,
		Payload:     payload,
	}, nil
}

func errBadFrame(cause error) error {
	if cause == nil {
		return ErrBadFrame
	}
	return errors.Join(ErrBadFrame, cause)
}

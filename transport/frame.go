package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/opd-ai/toxbind/limits"
)

// FrameType identifies a frame on a relay TCP connection.
type FrameType uint8

const (
	// FrameHello registers the client's public key with the relay.
	FrameHello FrameType = iota + 1
	// FrameHelloAck answers Hello with the relay's public key.
	FrameHelloAck
	// FrameRoute carries [destination key][packet] from a client to the relay.
	FrameRoute
	// FrameDeliver carries [source key][packet] from the relay to a client.
	FrameDeliver
	// FramePing is a keepalive.
	FramePing
	// FramePong answers FramePing.
	FramePong
)

// maxFrameSize bounds a single relay frame: a routed packet plus its key.
const maxFrameSize = limits.MaxPacketSize + 32 + 1

// ErrFrameTooLarge is returned for frames over maxFrameSize.
var ErrFrameTooLarge = errors.New("relay frame too large")

// writeFrame writes [length(2)][type(1)][payload].
func writeFrame(w io.Writer, ft FrameType, payload []byte) error {
	if len(payload)+1 > maxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 3+len(payload))
	binary.BigEndian.PutUint16(buf[:2], uint16(len(payload)+1))
	buf[2] = byte(ft)
	copy(buf[3:], payload)
	_, err := w.Write(buf)
	return err
}

// readFrame reads one frame written by writeFrame.
func readFrame(r io.Reader) (FrameType, []byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	length := int(binary.BigEndian.Uint16(header[:]))
	if length == 0 {
		return 0, nil, errors.New("empty relay frame")
	}
	if length > maxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return FrameType(body[0]), body[1:], nil
}

// keyedPayload joins a public key and a serialized packet.
func keyedPayload(key [32]byte, packet *Packet) ([]byte, error) {
	data, err := packet.Serialize()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 32+len(data))
	copy(out, key[:])
	copy(out[32:], data)
	return out, nil
}

// splitKeyedPayload reverses keyedPayload.
func splitKeyedPayload(payload []byte) ([32]byte, []byte, error) {
	var key [32]byte
	if len(payload) < 33 {
		return key, nil, errors.New("keyed relay payload too short")
	}
	copy(key[:], payload[:32])
	return key, payload[32:], nil
}

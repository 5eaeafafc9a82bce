package transport

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, FrameRoute, []byte("payload")))
	require.NoError(t, writeFrame(&buf, FramePing, nil))

	ft, payload, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, FrameRoute, ft)
	assert.Equal(t, "payload", string(payload))

	ft, payload, err = readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, FramePing, ft)
	assert.Empty(t, payload)

	_, _, err = readFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameLimits(t *testing.T) {
	assert.ErrorIs(t, writeFrame(io.Discard, FrameRoute, make([]byte, maxFrameSize)), ErrFrameTooLarge)

	_, _, err := readFrame(bytes.NewReader([]byte{0xFF, 0xFF, 1}))
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	_, _, err = readFrame(bytes.NewReader([]byte{0, 0}))
	assert.Error(t, err)

	_, _, err = readFrame(bytes.NewReader([]byte{0, 5, 1}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKeyedPayload(t *testing.T) {
	payload, err := keyedPayload([32]byte{7}, &Packet{PacketType: PacketSessionData, Data: []byte{1}})
	require.NoError(t, err)

	key, data, err := splitKeyedPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, [32]byte{7}, key)
	assert.Equal(t, []byte{byte(PacketSessionData), 1}, data)

	_, _, err = splitKeyedPayload(make([]byte, 32))
	assert.Error(t, err)
}

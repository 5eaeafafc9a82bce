package dht

import (
	"net"
	"testing"
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	alice, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bob, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	eve, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	packet, err := Seal(alice, bob.Public, EncodePing(77))
	require.NoError(t, err)

	sender, inner, err := Open(bob, packet)
	require.NoError(t, err)
	assert.Equal(t, alice.Public, sender)
	id, err := DecodePing(inner)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), id)

	_, _, err = Open(eve, packet)
	assert.Error(t, err, "a node with another key cannot open the packet")

	_, _, err = Open(bob, packet[:40])
	assert.Error(t, err)
}

func TestGetNodesCodec(t *testing.T) {
	target := keyWithPrefix(9)
	got, id, err := DecodeGetNodes(EncodeGetNodes(target, 5))
	require.NoError(t, err)
	assert.Equal(t, target, got)
	assert.Equal(t, uint64(5), id)

	_, _, err = DecodeGetNodes(make([]byte, 10))
	assert.ErrorIs(t, err, ErrPayloadTooShort)
}

func TestSendNodesCodec(t *testing.T) {
	now := time.Now()
	v6 := &net.UDPAddr{IP: net.ParseIP("2001:db8::1"), Port: 33445}
	nodes := []*Node{
		NewNode(keyWithPrefix(1), udpAddr(4000), now),
		NewNode(keyWithPrefix(2), &mockRelayAddr{}, now),
		NewNode(keyWithPrefix(3), v6, now),
	}

	id, entries, err := DecodeSendNodes(EncodeSendNodes(11, nodes))
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)
	require.Len(t, entries, 2, "non-UDP addresses are skipped")
	assert.Equal(t, keyWithPrefix(1), entries[0].PublicKey)
	assert.Equal(t, "127.0.0.1:4000", entries[0].Addr.String())
	assert.Equal(t, keyWithPrefix(3), entries[1].PublicKey)
	assert.True(t, entries[1].Addr.IP.Equal(v6.IP))
}

func TestDecodeSendNodesRejectsBadCount(t *testing.T) {
	data := EncodeSendNodes(1, []*Node{NewNode(keyWithPrefix(1), udpAddr(1), time.Now())})
	data[8] = 3
	_, _, err := DecodeSendNodes(data)
	assert.ErrorIs(t, err, ErrNodeCount)

	_, _, err = DecodeSendNodes([]byte{1})
	assert.ErrorIs(t, err, ErrPayloadTooShort)
}

type mockRelayAddr struct{}

func (mockRelayAddr) Network() string { return "relay" }
func (mockRelayAddr) String() string  { return "relay://x" }

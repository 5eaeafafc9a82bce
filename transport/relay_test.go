package transport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRelay(t *testing.T) (*RelayServer, RelayServerInfo) {
	t.Helper()
	key := [32]byte{0xAA}
	server, err := ListenRelay(key, false, 0)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server, RelayServerInfo{Address: fmt.Sprintf("127.0.0.1:%d", server.Port()), PublicKey: key}
}

func TestRelayRoutesBetweenClients(t *testing.T) {
	server, info := startRelay(t)
	ctx := context.Background()

	inboxA := make(chan Datagram, 4)
	inboxB := make(chan Datagram, 4)
	alice, err := DialRelay(ctx, nil, info, [32]byte{1}, inboxA)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := DialRelay(ctx, nil, info, [32]byte{2}, inboxB)
	require.NoError(t, err)
	defer bob.Close()

	require.Eventually(t, func() bool { return server.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, alice.RelayTo(&Packet{PacketType: PacketSessionData, Data: []byte("via relay")}, [32]byte{2}))

	select {
	case d := <-inboxB:
		assert.Equal(t, PacketSessionData, d.Packet.PacketType)
		assert.Equal(t, "via relay", string(d.Packet.Data))
		ra, ok := d.Addr.(*RelayedAddress)
		require.True(t, ok)
		assert.Equal(t, [32]byte{1}, ra.PeerKey)
		assert.Equal(t, info.Address, ra.Relay)

		require.NoError(t, bob.Send(&Packet{PacketType: PacketSessionData, Data: []byte("reply")}, ra))
	case <-time.After(2 * time.Second):
		t.Fatal("relayed packet not delivered")
	}

	select {
	case d := <-inboxA:
		assert.Equal(t, "reply", string(d.Packet.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("reply not delivered")
	}
	assert.NoError(t, alice.Ping())
}

func TestRelayKeyMismatch(t *testing.T) {
	_, info := startRelay(t)
	info.PublicKey = [32]byte{0xBB}

	_, err := DialRelay(context.Background(), nil, info, [32]byte{1}, make(chan Datagram, 1))
	assert.ErrorIs(t, err, ErrRelayKeyMismatch)
}

func TestRelayClientDisconnectsWhenServerCloses(t *testing.T) {
	server, info := startRelay(t)
	client, err := DialRelay(context.Background(), nil, info, [32]byte{3}, make(chan Datagram, 1))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, server.Close())
	assert.Eventually(t, func() bool { return !client.IsConnected() }, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, client.RelayTo(&Packet{PacketType: PacketSessionData, Data: []byte{1}}, [32]byte{1}))
}

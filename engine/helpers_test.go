package engine

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestOptions returns options for a loopback engine on a random port.
func newTestOptions() *Options {
	opts, _ := OptionsNew()
	opts.IPv6Enabled = false
	opts.StartPort = 0
	opts.EndPort = 0
	return opts
}

func newTestTox(t *testing.T) *Tox {
	t.Helper()
	tox, code := New(newTestOptions())
	require.Equal(t, NewOK, code)
	t.Cleanup(tox.Kill)
	return tox
}

func udpPort(t *testing.T, tox *Tox) uint16 {
	t.Helper()
	port, code := tox.SelfGetUDPPort()
	require.Equal(t, GetPortOK, code)
	return port
}

// iterateUntil drives the engines until cond holds or the timeout expires.
func iterateUntil(t *testing.T, timeout time.Duration, cond func() bool, toxes ...*Tox) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, x := range toxes {
			x.Iterate()
		}
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// connectFriends makes a and b friends over loopback UDP, with the request
// accepted from b's friend request callback. It returns the friend number of
// b on a and of a on b.
func connectFriends(t *testing.T, a, b *Tox) (uint32, uint32) {
	t.Helper()

	pkB := b.SelfGetPublicKey()
	require.Equal(t, BootstrapOK, a.Bootstrap("127.0.0.1", udpPort(t, b), pkB[:]))

	accepted := uint32(0)
	acceptedOK := false
	b.CallbackFriendRequest(func(tox *Tox, pk [32]byte, msg []byte, _ interface{}) {
		n, code := tox.FriendAddNoRequest(pk[:])
		require.Equal(t, FriendAddOK, code)
		accepted, acceptedOK = n, true
	}, nil)

	addr := b.SelfGetAddress()
	onA, code := a.FriendAdd(addr[:], []byte("hello"))
	require.Equal(t, FriendAddOK, code)

	iterateUntil(t, 15*time.Second, func() bool {
		ca, _ := a.FriendGetConnectionStatus(onA)
		if !acceptedOK {
			return false
		}
		cb, _ := b.FriendGetConnectionStatus(accepted)
		return ca != ConnectionNone && cb != ConnectionNone
	}, a, b)

	b.CallbackFriendRequest(nil, nil)
	return onA, accepted
}

func freeTCPPort(t *testing.T) uint16 {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(l.Addr().(*net.TCPAddr).Port)
	require.NoError(t, l.Close())
	return port
}

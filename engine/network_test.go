package engine

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfConnectionOverUDP(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)

	var changes []Connection
	a.CallbackSelfConnectionStatus(func(_ *Tox, c Connection, ud interface{}) {
		assert.Equal(t, "ud", ud)
		changes = append(changes, c)
	}, "ud")

	assert.Equal(t, ConnectionNone, a.SelfGetConnectionStatus())
	pk := b.SelfGetPublicKey()
	require.Equal(t, BootstrapOK, a.Bootstrap("127.0.0.1", udpPort(t, b), pk[:]))

	iterateUntil(t, 5*time.Second, func() bool {
		return a.SelfGetConnectionStatus() == ConnectionUDP
	}, a, b)
	assert.Equal(t, []Connection{ConnectionUDP}, changes)
}

func TestBootstrapWithWrongKeyGetsNoAnswer(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)
	wrong := a.SelfGetPublicKey()
	wrong[0] ^= 0xff

	require.Equal(t, BootstrapOK, a.Bootstrap("127.0.0.1", udpPort(t, b), wrong[:]))
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		a.Iterate()
		b.Iterate()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, ConnectionNone, a.SelfGetConnectionStatus())
}

func TestFriendsExchangeMessages(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)
	require.Equal(t, SetInfoOK, b.SelfSetName([]byte("Bob")))

	var gotName []byte
	a.CallbackFriendName(func(_ *Tox, _ uint32, name []byte, _ interface{}) {
		gotName = name
	}, nil)

	onA, onB := connectFriends(t, a, b)

	iterateUntil(t, 5*time.Second, func() bool { return gotName != nil }, a, b)
	assert.Equal(t, "Bob", string(gotName))

	var received []string
	var kinds []MessageType
	b.CallbackFriendMessage(func(_ *Tox, fn uint32, kind MessageType, msg []byte, _ interface{}) {
		assert.Equal(t, onB, fn)
		received = append(received, string(msg))
		kinds = append(kinds, kind)
	}, nil)
	var receipts []uint32
	a.CallbackFriendReadReceipt(func(_ *Tox, fn, id uint32, _ interface{}) {
		assert.Equal(t, onA, fn)
		receipts = append(receipts, id)
	}, nil)

	id1, code := a.FriendSendMessage(onA, MessageTypeNormal, []byte("hi bob"))
	require.Equal(t, FriendSendMessageOK, code)
	id2, code := a.FriendSendMessage(onA, MessageTypeAction, bytes.Repeat([]byte("x"), 1372))
	require.Equal(t, FriendSendMessageOK, code)
	assert.NotZero(t, id1)
	assert.Greater(t, id2, id1)

	iterateUntil(t, 5*time.Second, func() bool { return len(receipts) == 2 }, a, b)
	assert.Equal(t, []string{"hi bob", string(bytes.Repeat([]byte("x"), 1372))}, received)
	assert.Equal(t, []MessageType{MessageTypeNormal, MessageTypeAction}, kinds)
	assert.ElementsMatch(t, []uint32{id1, id2}, receipts)

	var typing []bool
	b.CallbackFriendTyping(func(_ *Tox, _ uint32, on bool, _ interface{}) {
		typing = append(typing, on)
	}, nil)
	require.Equal(t, SetTypingOK, a.SelfSetTyping(onA, true))
	iterateUntil(t, 5*time.Second, func() bool { return len(typing) == 1 }, a, b)
	assert.Equal(t, []bool{true}, typing)
	on, _ := b.FriendGetTyping(onB)
	assert.True(t, on)

	last, lc := b.FriendGetLastOnline(onB)
	require.Equal(t, FriendGetLastOnlineOK, lc)
	assert.NotZero(t, last)
}

func TestFriendDeleteTakesPeerOffline(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)
	onA, onB := connectFriends(t, a, b)

	var statuses []Connection
	b.CallbackFriendConnectionStatus(func(_ *Tox, fn uint32, c Connection, _ interface{}) {
		assert.Equal(t, onB, fn)
		statuses = append(statuses, c)
	}, nil)

	require.Equal(t, FriendDeleteOK, a.FriendDelete(onA))
	iterateUntil(t, 5*time.Second, func() bool { return len(statuses) > 0 }, a, b)
	assert.Equal(t, ConnectionNone, statuses[0])

	_, code := b.FriendSendMessage(onB, MessageTypeNormal, []byte("still there?"))
	assert.Equal(t, FriendSendMessageFriendNotConnected, code)
}

func TestFriendsOverRelay(t *testing.T) {
	hostOpts := newTestOptions()
	hostOpts.UDPEnabled = false
	hostOpts.TCPPort = freeTCPPort(t)
	host, code := New(hostOpts)
	require.Equal(t, NewOK, code)
	defer host.Kill()
	tcpPort, pc := host.SelfGetTCPPort()
	require.Equal(t, GetPortOK, pc)
	relayKey := host.SelfGetPublicKey()

	newClient := func() *Tox {
		opts := newTestOptions()
		opts.UDPEnabled = false
		tox, code := New(opts)
		require.Equal(t, NewOK, code)
		t.Cleanup(tox.Kill)
		require.Equal(t, BootstrapOK, tox.AddTCPRelay("127.0.0.1", tcpPort, relayKey[:]))
		return tox
	}
	a := newClient()
	b := newClient()

	iterateUntil(t, 5*time.Second, func() bool {
		return a.SelfGetConnectionStatus() == ConnectionTCP && b.SelfGetConnectionStatus() == ConnectionTCP
	}, a, b, host)

	b.CallbackFriendRequest(func(tox *Tox, pk [32]byte, msg []byte, _ interface{}) {
		assert.Equal(t, "via relay", string(msg))
		tox.FriendAddNoRequest(pk[:])
	}, nil)
	addr := b.SelfGetAddress()
	onA, fc := a.FriendAdd(addr[:], []byte("via relay"))
	require.Equal(t, FriendAddOK, fc)

	iterateUntil(t, 15*time.Second, func() bool {
		c, _ := a.FriendGetConnectionStatus(onA)
		return c == ConnectionTCP
	}, a, b, host)

	// Saved relays come back after a reload.
	data := saveOf(a)
	restored, nc := New(func() *Options {
		o := loadOptions(data)
		o.UDPEnabled = false
		return o
	}())
	require.Equal(t, NewOK, nc)
	defer restored.Kill()
	assert.Len(t, restored.relays, 1)
}

package engine

import (
	"bytes"
	"testing"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAddress(t *testing.T, nospam uint32) ([crypto.ToxIDSize]byte, [32]byte) {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	var out [crypto.ToxIDSize]byte
	copy(out[:], crypto.NewToxID(kp.Public, crypto.NospamFromUint32(nospam)).Bytes())
	return out, kp.Public
}

func TestFriendAddCodes(t *testing.T) {
	tox := newTestTox(t)
	addr, pk := newAddress(t, 1)

	badChecksum := addr
	badChecksum[crypto.ToxIDSize-1] ^= 0xff
	own := tox.SelfGetAddress()

	tests := []struct {
		name    string
		address []byte
		message []byte
		want    FriendAddCode
	}{
		{"nil address", nil, []byte("hi"), FriendAddNull},
		{"nil message", addr[:], nil, FriendAddNull},
		{"too long", addr[:], bytes.Repeat([]byte("a"), 1017), FriendAddTooLong},
		{"bad checksum", badChecksum[:], []byte("hi"), FriendAddBadChecksum},
		{"no message", addr[:], []byte{}, FriendAddNoMessage},
		{"own key", own[:], []byte("hi"), FriendAddOwnKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := tox.FriendAdd(tt.address, tt.message)
			assert.Equal(t, tt.want, code)
		})
	}
	assert.Zero(t, tox.SelfGetFriendListSize(), "failed adds leave the list unchanged")

	n, code := tox.FriendAdd(addr[:], bytes.Repeat([]byte("a"), 1016))
	require.Equal(t, FriendAddOK, code)
	assert.Equal(t, uint32(0), n)

	_, code = tox.FriendAdd(addr[:], []byte("again"))
	assert.Equal(t, FriendAddAlreadySent, code)

	renewed := crypto.NewToxID(pk, crypto.NospamFromUint32(2)).Bytes()
	_, code = tox.FriendAdd(renewed[:], []byte("new nospam"))
	assert.Equal(t, FriendAddSetNewNospam, code)
	assert.Equal(t, uint32(2), tox.slot(0).Nospam)

	_, code = tox.FriendAddNoRequest(pk[:])
	assert.Equal(t, FriendAddAlreadySent, code)
	self := tox.SelfGetPublicKey()
	_, code = tox.FriendAddNoRequest(self[:])
	assert.Equal(t, FriendAddOwnKey, code)
	_, code = tox.FriendAddNoRequest(nil)
	assert.Equal(t, FriendAddNull, code)
}

func TestFriendNumbersAreFirstFree(t *testing.T) {
	tox := newTestTox(t)

	var keys [][32]byte
	for i := 0; i < 3; i++ {
		_, pk := newAddress(t, 0)
		n, code := tox.FriendAddNoRequest(pk[:])
		require.Equal(t, FriendAddOK, code)
		assert.Equal(t, uint32(i), n)
		keys = append(keys, pk)
	}

	require.Equal(t, FriendDeleteOK, tox.FriendDelete(1))
	assert.Equal(t, FriendDeleteFriendNotFound, tox.FriendDelete(1))
	assert.False(t, tox.FriendExists(1))

	list := make([]uint32, tox.SelfGetFriendListSize())
	tox.SelfGetFriendList(list)
	assert.Equal(t, []uint32{0, 2}, list)

	n, code := tox.FriendByPublicKey(keys[2][:])
	require.Equal(t, FriendByPublicKeyOK, code)
	assert.Equal(t, uint32(2), n, "numbers are not renumbered")
	_, code = tox.FriendByPublicKey(keys[1][:])
	assert.Equal(t, FriendByPublicKeyNotFound, code)
	_, code = tox.FriendByPublicKey(nil)
	assert.Equal(t, FriendByPublicKeyNull, code)

	_, pk := newAddress(t, 0)
	n, addCode := tox.FriendAddNoRequest(pk[:])
	require.Equal(t, FriendAddOK, addCode)
	assert.Equal(t, uint32(1), n, "freed number is reused")

	got, gc := tox.FriendGetPublicKey(1)
	require.Equal(t, FriendGetPublicKeyOK, gc)
	assert.Equal(t, pk, got)
	_, gc = tox.FriendGetPublicKey(99)
	assert.Equal(t, FriendGetPublicKeyFriendNotFound, gc)
}

func TestFriendQueries(t *testing.T) {
	tox := newTestTox(t)
	_, pk := newAddress(t, 0)
	n, _ := tox.FriendAddNoRequest(pk[:])

	size, code := tox.FriendGetNameSize(n)
	require.Equal(t, FriendQueryOK, code)
	assert.Zero(t, size)
	assert.Equal(t, FriendQueryNull, tox.FriendGetName(n, nil))
	assert.Equal(t, FriendQueryFriendNotFound, tox.FriendGetName(42, make([]byte, 1)))
	_, code = tox.FriendGetStatusMessageSize(42)
	assert.Equal(t, FriendQueryFriendNotFound, code)

	status, code := tox.FriendGetStatus(n)
	require.Equal(t, FriendQueryOK, code)
	assert.Equal(t, UserStatusNone, status)
	conn, _ := tox.FriendGetConnectionStatus(n)
	assert.Equal(t, ConnectionNone, conn)
	typing, _ := tox.FriendGetTyping(n)
	assert.False(t, typing)

	last, lc := tox.FriendGetLastOnline(n)
	require.Equal(t, FriendGetLastOnlineOK, lc)
	assert.Zero(t, last, "never seen")
	_, lc = tox.FriendGetLastOnline(42)
	assert.Equal(t, FriendGetLastOnlineFriendNotFound, lc)
}

func TestSendMessageCodes(t *testing.T) {
	tox := newTestTox(t)
	_, pk := newAddress(t, 0)
	n, _ := tox.FriendAddNoRequest(pk[:])

	tests := []struct {
		name   string
		friend uint32
		msg    []byte
		want   FriendSendMessageCode
	}{
		{"nil", n, nil, FriendSendMessageNull},
		{"empty", n, []byte{}, FriendSendMessageEmpty},
		{"empty beats unknown friend", 7, []byte{}, FriendSendMessageEmpty},
		{"unknown friend", 7, []byte("hi"), FriendSendMessageFriendNotFound},
		{"too long", n, bytes.Repeat([]byte("x"), 1373), FriendSendMessageTooLong},
		{"offline", n, bytes.Repeat([]byte("x"), 1372), FriendSendMessageFriendNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, code := tox.FriendSendMessage(tt.friend, MessageTypeNormal, tt.msg)
			assert.Equal(t, tt.want, code)
			assert.Zero(t, id)
		})
	}
}

func TestSelfInfo(t *testing.T) {
	tox := newTestTox(t)

	assert.Equal(t, SetInfoNull, tox.SelfSetName(nil))
	assert.Equal(t, SetInfoTooLong, tox.SelfSetName(bytes.Repeat([]byte("n"), 129)))
	require.Equal(t, SetInfoOK, tox.SelfSetName(bytes.Repeat([]byte("n"), 128)))
	assert.Equal(t, 128, tox.SelfGetNameSize())

	require.Equal(t, SetInfoOK, tox.SelfSetStatusMessage([]byte("busy coding")))
	buf := make([]byte, tox.SelfGetStatusMessageSize())
	tox.SelfGetStatusMessage(buf)
	assert.Equal(t, "busy coding", string(buf))
	assert.Equal(t, SetInfoTooLong, tox.SelfSetStatusMessage(bytes.Repeat([]byte("s"), 1008)))

	tox.SelfSetStatus(UserStatusAway)
	assert.Equal(t, UserStatusAway, tox.SelfGetStatus())
	tox.SelfSetStatus(UserStatus(9))
	assert.Equal(t, UserStatusAway, tox.SelfGetStatus())

	before := tox.SelfGetAddress()
	tox.SelfSetNospam(0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), tox.SelfGetNospam())
	after := tox.SelfGetAddress()
	assert.NotEqual(t, before, after)
	assert.Equal(t, before[:32], after[:32])

	id, err := crypto.ToxIDFromBytes(after[:])
	require.NoError(t, err)
	assert.True(t, id.Valid())

	assert.Equal(t, SetTypingFriendNotFound, tox.SelfSetTyping(3, true))
}

func TestBootstrapCodes(t *testing.T) {
	tox := newTestTox(t)
	pk := tox.SelfGetPublicKey()

	assert.Equal(t, BootstrapNull, tox.Bootstrap("", 33445, pk[:]))
	assert.Equal(t, BootstrapNull, tox.Bootstrap("127.0.0.1", 33445, nil))
	assert.Equal(t, BootstrapBadPort, tox.Bootstrap("127.0.0.1", 0, pk[:]))
	assert.Equal(t, BootstrapBadHost, tox.Bootstrap("no-such-host.invalid", 33445, pk[:]))
	assert.Equal(t, BootstrapBadHost, tox.Bootstrap("::1", 33445, pk[:]), "ipv6 is disabled")
	assert.Equal(t, BootstrapOK, tox.Bootstrap("127.0.0.1", 33445, pk[:]))

	assert.Equal(t, BootstrapNull, tox.AddTCPRelay("", 33445, pk[:]))
	assert.Equal(t, BootstrapBadPort, tox.AddTCPRelay("127.0.0.1", 0, pk[:]))
	assert.Equal(t, BootstrapBadHost, tox.AddTCPRelay("no-such-host.invalid", 33445, pk[:]))
}

package toxbind

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func bootstrapTo(t *testing.T, from, to *Tox) {
	t.Helper()
	port, err := to.SelfGetUDPPort()
	require.NoError(t, err)
	pk, err := to.SelfGetPublicKey()
	require.NoError(t, err)
	require.NoError(t, from.Bootstrap("127.0.0.1", port, pk))
}

// befriend connects a and b and returns b's number on a and a's on b.
func befriend(t *testing.T, a, b *Tox) (uint32, uint32) {
	t.Helper()
	bootstrapTo(t, a, b)

	var onB uint32
	accepted := false
	require.NoError(t, b.OnFriendRequest(func(t2 *Tox, pk PublicKey, msg string, _ interface{}) {
		n, err := t2.FriendAddNoRequest(pk)
		if err == nil {
			onB, accepted = n, true
		}
	}, nil))

	addr, err := b.SelfGetAddress()
	require.NoError(t, err)
	onA, err := a.FriendAdd(addr, "let's talk")
	require.NoError(t, err)

	iterateUntil(t, 15*time.Second, func() bool {
		if !accepted {
			return false
		}
		ca, _ := a.FriendGetConnectionStatus(onA)
		cb, _ := b.FriendGetConnectionStatus(onB)
		return ca != ConnectionNone && cb != ConnectionNone
	}, a, b)
	require.NoError(t, b.OnFriendRequest(nil, nil))
	return onA, onB
}

func TestAliceAddsAndDeletesFriend(t *testing.T) {
	tox := newTestTox(t)
	require.NoError(t, tox.SelfSetName("alice"))

	other := newTestTox(t)
	addr, err := other.SelfGetAddress()
	require.NoError(t, err)

	n, err := tox.FriendAdd(addr, "hi")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)

	require.NoError(t, tox.FriendDelete(0))
	_, err = tox.FriendGetPublicKey(0)
	assert.ErrorIs(t, err, ErrFriendGetPublicKeyFriendNotFound)
}

func TestFriendAddTwice(t *testing.T) {
	tox := newTestTox(t)
	other := newTestTox(t)
	addr, _ := other.SelfGetAddress()

	n, err := tox.FriendAdd(addr, "hi")
	require.NoError(t, err)
	_, err = tox.FriendAdd(addr, "hi again")
	assert.ErrorIs(t, err, ErrFriendAddAlreadySent)

	byKey, err := tox.FriendByPublicKey(addr.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, n, byKey)
}

func TestFriendAddErrors(t *testing.T) {
	tox := newTestTox(t)
	own, _ := tox.SelfGetAddress()
	other := newTestTox(t)
	addr, _ := other.SelfGetAddress()
	corrupt := addr
	corrupt[37] ^= 0xff

	tests := []struct {
		name    string
		address Address
		message string
		want    error
	}{
		{"empty message", addr, "", ErrFriendAddNoMessage},
		{"too long", addr, strings.Repeat("x", 1017), ErrFriendAddTooLong},
		{"own key", own, "hi", ErrFriendAddOwnKey},
		{"bad checksum", corrupt, "hi", ErrFriendAddBadChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tox.FriendAdd(tt.address, tt.message)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMissingFriendReasons(t *testing.T) {
	tox := newTestTox(t)
	const missing = 17

	err := tox.FriendDelete(missing)
	assert.ErrorIs(t, err, ErrFriendDeleteFriendNotFound)
	_, err = tox.FriendGetPublicKey(missing)
	assert.ErrorIs(t, err, ErrFriendGetPublicKeyFriendNotFound)
	_, err = tox.FriendSendMessage(missing, MessageTypeNormal, "hi")
	assert.ErrorIs(t, err, ErrSendMessageFriendNotFound)
	err = tox.SelfSetTyping(missing, true)
	assert.ErrorIs(t, err, ErrSetTypingFriendNotFound)
	_, err = tox.FriendGetName(missing)
	assert.ErrorIs(t, err, ErrFriendQueryFriendNotFound)
	_, err = tox.FriendGetLastOnline(missing)
	assert.ErrorIs(t, err, ErrFriendGetLastOnlineFriendNotFound)
	_, err = tox.FriendByPublicKey(PublicKey{9})
	assert.ErrorIs(t, err, ErrFriendByPublicKeyNotFound)

	var e *Error
	require.True(t, errors.As(tox.FriendDelete(missing), &e))
	assert.Equal(t, ClassNotFound, e.Class())
	assert.Equal(t, CategoryFriendDelete, e.Category)
}

func TestSelfInfoLimits(t *testing.T) {
	tox := newTestTox(t)

	require.NoError(t, tox.SelfSetName(strings.Repeat("n", 128)))
	assert.ErrorIs(t, tox.SelfSetName(strings.Repeat("n", 129)), ErrSetInfoTooLong)
	name, _ := tox.SelfGetName()
	assert.Len(t, name, 128, "a rejected name leaves the old one")

	require.NoError(t, tox.SelfSetStatusMessage(strings.Repeat("s", 1007)))
	assert.ErrorIs(t, tox.SelfSetStatusMessage(strings.Repeat("s", 1008)), ErrSetInfoTooLong)

	require.NoError(t, tox.SelfSetName(""))
	name, _ = tox.SelfGetName()
	assert.Empty(t, name)

	before, _ := tox.SelfGetAddress()
	require.NoError(t, tox.SelfSetNospam(0xdeadbeef))
	after, _ := tox.SelfGetAddress()
	nospam, _ := tox.SelfGetNospam()
	assert.Equal(t, uint32(0xdeadbeef), nospam)
	assert.Equal(t, uint32(0xdeadbeef), after.Nospam())
	assert.NotEqual(t, before, after)
	assert.Equal(t, before.PublicKey(), after.PublicKey())
}

func TestBootstrapErrors(t *testing.T) {
	tox := newTestTox(t)
	pk := PublicKey{1}
	assert.ErrorIs(t, tox.Bootstrap("", 33445, pk), ErrBootstrapNull)
	assert.ErrorIs(t, tox.Bootstrap("127.0.0.1", 0, pk), ErrBootstrapBadPort)
	assert.ErrorIs(t, tox.Bootstrap("host.invalid", 33445, pk), ErrBootstrapBadHost)
	assert.ErrorIs(t, tox.AddTCPRelay("127.0.0.1", 0, pk), ErrBootstrapBadPort)
}

func TestConnectionAfterBootstrap(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)

	var seen []Connection
	require.NoError(t, a.OnSelfConnectionStatus(func(_ *Tox, c Connection, _ interface{}) {
		seen = append(seen, c)
	}, nil))

	for i := 0; i < 10; i++ {
		a.Iterate()
	}
	status, err := a.SelfGetConnectionStatus()
	require.NoError(t, err)
	assert.Equal(t, ConnectionNone, status)
	assert.Empty(t, seen)

	bootstrapTo(t, a, b)
	iterateUntil(t, 5*time.Second, func() bool { return len(seen) > 0 }, a, b)
	assert.NotEqual(t, ConnectionNone, seen[0])
}

func TestSendMessageBoundaries(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)
	onA, onB := befriend(t, a, b)

	var got []string
	require.NoError(t, b.OnFriendMessage(func(_ *Tox, fn uint32, _ MessageType, msg string, _ interface{}) {
		assert.Equal(t, onB, fn)
		got = append(got, msg)
	}, nil))
	var receipts []uint32
	require.NoError(t, a.OnFriendReadReceipt(func(_ *Tox, fn, id uint32, _ interface{}) {
		receipts = append(receipts, id)
	}, nil))

	_, err := a.FriendSendMessage(onA, MessageTypeNormal, "")
	assert.ErrorIs(t, err, ErrSendMessageEmpty)
	_, err = a.FriendSendMessage(onA, MessageTypeNormal, strings.Repeat("m", 1373))
	assert.ErrorIs(t, err, ErrSendMessageTooLong)

	one, err := a.FriendSendMessage(onA, MessageTypeNormal, "x")
	require.NoError(t, err)
	longest, err := a.FriendSendMessage(onA, MessageTypeNormal, strings.Repeat("m", 1372))
	require.NoError(t, err)
	assert.Greater(t, longest, one)

	iterateUntil(t, 5*time.Second, func() bool { return len(receipts) == 2 }, a, b)
	assert.Equal(t, []string{"x", strings.Repeat("m", 1372)}, got)
	assert.ElementsMatch(t, []uint32{one, longest}, receipts)
}

func TestFriendProfileAndTyping(t *testing.T) {
	a := newTestTox(t)
	b := newTestTox(t)
	require.NoError(t, b.SelfSetName("bob"))
	onA, onB := befriend(t, a, b)

	var status []UserStatus
	var messages []string
	var typing []bool
	require.NoError(t, a.OnFriendStatus(func(_ *Tox, _ uint32, s UserStatus, _ interface{}) {
		status = append(status, s)
	}, nil))
	require.NoError(t, a.OnFriendStatusMessage(func(_ *Tox, _ uint32, m string, _ interface{}) {
		messages = append(messages, m)
	}, nil))
	require.NoError(t, a.OnFriendTyping(func(_ *Tox, _ uint32, on bool, _ interface{}) {
		typing = append(typing, on)
	}, nil))

	require.NoError(t, b.SelfSetStatus(UserStatusBusy))
	require.NoError(t, b.SelfSetStatusMessage("compiling"))
	require.NoError(t, b.SelfSetTyping(onB, true))

	iterateUntil(t, 5*time.Second, func() bool {
		return len(status) > 0 && len(messages) > 0 && len(typing) > 0
	}, a, b)
	assert.Equal(t, UserStatusBusy, status[len(status)-1])
	assert.Equal(t, "compiling", messages[len(messages)-1])
	assert.True(t, typing[len(typing)-1])

	name, err := a.FriendGetName(onA)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
	msg, err := a.FriendGetStatusMessage(onA)
	require.NoError(t, err)
	assert.Equal(t, "compiling", msg)
	on, err := a.FriendGetTyping(onA)
	require.NoError(t, err)
	assert.True(t, on)
	last, err := a.FriendGetLastOnline(onA)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), last, time.Minute)
}

func TestRunStopsOnCancelAndKill(t *testing.T) {
	tox, err := New(testOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tox.Run(ctx), context.DeadlineExceeded)
	assert.False(t, tox.IsRunning())

	done := make(chan error, 1)
	go func() { done <- tox.Run(context.Background()) }()
	require.Eventually(t, tox.IsRunning, time.Second, time.Millisecond)
	assert.ErrorIs(t, tox.Run(context.Background()), ErrAlreadyRunning)

	tox.Kill()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Kill")
	}
}

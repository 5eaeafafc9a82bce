package toxbind

import (
	"errors"
	"testing"

	"github.com/opd-ai/toxbind/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fireMessage(text string) func(n *fakeNative) {
	return func(n *fakeNative) {
		if n.onMessage != nil {
			n.onMessage(nil, 3, engine.MessageTypeAction, []byte(text), nil)
		}
	}
}

func TestHandlerReplacement(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)
	defer tox.Kill()

	var first, second []string
	require.NoError(t, tox.OnFriendMessage(func(_ *Tox, _ uint32, _ MessageType, msg string, _ interface{}) {
		first = append(first, msg)
	}, nil))
	require.NoError(t, tox.OnFriendMessage(func(_ *Tox, fn uint32, kind MessageType, msg string, ud interface{}) {
		assert.Equal(t, uint32(3), fn)
		assert.Equal(t, MessageTypeAction, kind)
		assert.Equal(t, "ctx", ud)
		second = append(second, msg)
	}, "ctx"))

	native.iterate = fireMessage("hello")
	tox.Iterate()

	assert.Empty(t, first)
	assert.Equal(t, []string{"hello"}, second)
}

func TestNilHandlerDetaches(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)
	defer tox.Kill()

	require.NoError(t, tox.OnFriendMessage(func(*Tox, uint32, MessageType, string, interface{}) {}, nil))
	assert.NotNil(t, native.onMessage)
	require.NoError(t, tox.OnFriendMessage(nil, nil))
	assert.Nil(t, native.onMessage)
}

func TestHandlersRunAfterUnlock(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)
	defer tox.Kill()

	var order []string
	native.iterate = func(n *fakeNative) {
		n.onName(nil, 0, []byte("bob"), nil)
		n.onMessage(nil, 0, engine.MessageTypeNormal, []byte("one"), nil)
		n.onMessage(nil, 0, engine.MessageTypeNormal, []byte("two"), nil)
		order = append(order, "engine done")
	}
	require.NoError(t, tox.OnFriendName(func(_ *Tox, fn uint32, name string, _ interface{}) {
		order = append(order, "name "+name)
	}, nil))
	require.NoError(t, tox.OnFriendMessage(func(x *Tox, fn uint32, _ MessageType, msg string, _ interface{}) {
		order = append(order, "message "+msg)
		// Calling back into the handle must not deadlock.
		_, err := x.FriendSendMessage(fn, MessageTypeNormal, "echo "+msg)
		assert.NoError(t, err)
	}, nil))

	tox.Iterate()
	assert.Equal(t, []string{"engine done", "name bob", "message one", "message two"}, order)
}

func TestHandlerMayKill(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)

	calls := 0
	native.iterate = func(n *fakeNative) {
		n.onMessage(nil, 0, engine.MessageTypeNormal, []byte("a"), nil)
		n.onMessage(nil, 0, engine.MessageTypeNormal, []byte("b"), nil)
	}
	require.NoError(t, tox.OnFriendMessage(func(x *Tox, _ uint32, _ MessageType, _ string, _ interface{}) {
		calls++
		x.Kill()
		_, err := x.FriendSendMessage(0, MessageTypeNormal, "x")
		assert.True(t, errors.Is(err, ErrKilled))
	}, nil))

	tox.Iterate()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, native.kills)
}

func TestSetTypingUsesTypingEntryPoint(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)
	defer tox.Kill()

	require.NoError(t, tox.SelfSetTyping(4, true))
	assert.Equal(t, []uint32{4}, native.typingCalls)
	assert.Empty(t, native.deleted)
}

func TestUnknownEngineCodeSurfacesAsContractError(t *testing.T) {
	_, native := newFake()
	native.deleteCode = engine.FriendDeleteCode(9)
	native.sendCode = engine.FriendSendMessageCode(77)
	tox := Restore(native)
	defer tox.Kill()

	err := tox.FriendDelete(1)
	assert.ErrorIs(t, err, ErrContractViolation)

	id, err := tox.FriendSendMessage(1, MessageTypeNormal, "hi")
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Zero(t, id, "the result is not trusted when the code is bad")
}

func TestEventQueue(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)
	defer tox.Kill()

	// Attach registers every kind; the fake only keeps three of them.
	native.Native = nullCallbacks{}
	q := NewEventQueue(2)
	require.NoError(t, q.Attach(tox))

	native.iterate = func(n *fakeNative) {
		n.onConnection(nil, engine.ConnectionUDP, nil)
		n.onName(nil, 5, []byte("carol"), nil)
		n.onMessage(nil, 5, engine.MessageTypeNormal, []byte("dropped"), nil)
	}
	tox.Iterate()

	ev := <-q.Events()
	assert.Equal(t, Event{Kind: EventSelfConnectionStatus, Connection: ConnectionUDP}, ev)
	ev = <-q.Events()
	assert.Equal(t, Event{Kind: EventFriendName, FriendNumber: 5, Text: "carol"}, ev)
	assert.Equal(t, uint64(1), q.Dropped())
}

// nullCallbacks accepts the registrations fakeNative does not override.
type nullCallbacks struct{ Native }

func (nullCallbacks) CallbackFriendStatusMessage(engine.FriendStatusMessageFunc, interface{})       {}
func (nullCallbacks) CallbackFriendStatus(engine.FriendStatusFunc, interface{})                     {}
func (nullCallbacks) CallbackFriendConnectionStatus(engine.FriendConnectionStatusFunc, interface{}) {}
func (nullCallbacks) CallbackFriendTyping(engine.FriendTypingFunc, interface{})                     {}
func (nullCallbacks) CallbackFriendReadReceipt(engine.FriendReadReceiptFunc, interface{})           {}
func (nullCallbacks) CallbackFriendRequest(engine.FriendRequestFunc, interface{})                   {}

func TestIteratePanicReleasesHandle(t *testing.T) {
	_, native := newFake()
	tox := Restore(native)
	defer tox.Kill()

	var got []string
	require.NoError(t, tox.OnFriendMessage(func(_ *Tox, _ uint32, _ MessageType, msg string, _ interface{}) {
		got = append(got, msg)
	}, nil))

	native.iterate = func(n *fakeNative) {
		n.onMessage(nil, 0, engine.MessageTypeNormal, []byte("lost"), nil)
		panic("engine failure")
	}
	assert.Panics(t, tox.Iterate)

	pk, err := tox.SelfGetPublicKey()
	require.NoError(t, err, "the handle must be usable after a panic")
	assert.Equal(t, PublicKey{1, 2, 3}, pk)

	native.iterate = fireMessage("after")
	tox.Iterate()
	assert.Equal(t, []string{"after"}, got)
}

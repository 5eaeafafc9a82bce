package toxbind

import (
	"github.com/opd-ai/toxbind/engine"
	"github.com/opd-ai/toxbind/internal/instrument"
)

// Handler signatures. Every handler receives the handle and the user data
// given at registration.
type (
	SelfConnectionStatusHandler   func(t *Tox, status Connection, userData interface{})
	FriendNameHandler             func(t *Tox, friendNumber uint32, name string, userData interface{})
	FriendStatusMessageHandler    func(t *Tox, friendNumber uint32, message string, userData interface{})
	FriendStatusHandler           func(t *Tox, friendNumber uint32, status UserStatus, userData interface{})
	FriendConnectionStatusHandler func(t *Tox, friendNumber uint32, status Connection, userData interface{})
	FriendTypingHandler           func(t *Tox, friendNumber uint32, typing bool, userData interface{})
	FriendReadReceiptHandler      func(t *Tox, friendNumber uint32, messageID uint32, userData interface{})
	FriendRequestHandler          func(t *Tox, publicKey PublicKey, message string, userData interface{})
	FriendMessageHandler          func(t *Tox, friendNumber uint32, kind MessageType, message string, userData interface{})
)

// slot is the single registration of one event kind.
type slot struct {
	handler  interface{}
	userData interface{}
}

type pendingEvent struct {
	kind EventKind
	call func()
}

// register stores handler in the slot for kind, replacing any earlier one.
// install attaches (on=true) or detaches the native thunk; it runs only
// when the attachment actually changes.
func (t *Tox) register(kind EventKind, handler interface{}, set bool, userData interface{}, install func(n Native, on bool)) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()

	if !set {
		t.slots[kind] = slot{}
		if t.installed[kind] {
			install(t.native, false)
			t.installed[kind] = false
		}
		return nil
	}
	t.slots[kind] = slot{handler: handler, userData: userData}
	if !t.installed[kind] {
		install(t.native, true)
		t.installed[kind] = true
	}
	return nil
}

// record is called by a native thunk while the handle is locked. The slot
// is read now, so a handler replaced later in the same Iterate still sees
// the events recorded before the replacement.
func (t *Tox) record(kind EventKind, call func(s slot)) {
	s := t.slots[kind]
	if s.handler == nil {
		return
	}
	t.pending = append(t.pending, pendingEvent{kind: kind, call: func() { call(s) }})
}

// dispatch runs recorded events in order. The handle must not be locked.
func dispatch(events []pendingEvent) {
	for _, ev := range events {
		ev.call()
		instrument.EventDispatched(ev.kind.String())
	}
}

// OnSelfConnectionStatus registers the handler for our own connection
// changes. A nil handler unregisters.
func (t *Tox) OnSelfConnectionStatus(handler SelfConnectionStatusHandler, userData interface{}) error {
	return t.register(EventSelfConnectionStatus, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackSelfConnectionStatus(nil, nil)
			return
		}
		n.CallbackSelfConnectionStatus(func(_ *engine.Tox, status engine.Connection, _ interface{}) {
			t.record(EventSelfConnectionStatus, func(s slot) {
				s.handler.(SelfConnectionStatusHandler)(t, Connection(status), s.userData)
			})
		}, nil)
	})
}

// OnFriendName registers the handler for friend name changes.
func (t *Tox) OnFriendName(handler FriendNameHandler, userData interface{}) error {
	return t.register(EventFriendName, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendName(nil, nil)
			return
		}
		n.CallbackFriendName(func(_ *engine.Tox, friendNumber uint32, name []byte, _ interface{}) {
			text := string(name)
			t.record(EventFriendName, func(s slot) {
				s.handler.(FriendNameHandler)(t, friendNumber, text, s.userData)
			})
		}, nil)
	})
}

// OnFriendStatusMessage registers the handler for status message changes.
func (t *Tox) OnFriendStatusMessage(handler FriendStatusMessageHandler, userData interface{}) error {
	return t.register(EventFriendStatusMessage, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendStatusMessage(nil, nil)
			return
		}
		n.CallbackFriendStatusMessage(func(_ *engine.Tox, friendNumber uint32, message []byte, _ interface{}) {
			text := string(message)
			t.record(EventFriendStatusMessage, func(s slot) {
				s.handler.(FriendStatusMessageHandler)(t, friendNumber, text, s.userData)
			})
		}, nil)
	})
}

// OnFriendStatus registers the handler for presence changes.
func (t *Tox) OnFriendStatus(handler FriendStatusHandler, userData interface{}) error {
	return t.register(EventFriendStatus, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendStatus(nil, nil)
			return
		}
		n.CallbackFriendStatus(func(_ *engine.Tox, friendNumber uint32, status engine.UserStatus, _ interface{}) {
			t.record(EventFriendStatus, func(s slot) {
				s.handler.(FriendStatusHandler)(t, friendNumber, UserStatus(status), s.userData)
			})
		}, nil)
	})
}

// OnFriendConnectionStatus registers the handler for friends going online
// or offline.
func (t *Tox) OnFriendConnectionStatus(handler FriendConnectionStatusHandler, userData interface{}) error {
	return t.register(EventFriendConnectionStatus, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendConnectionStatus(nil, nil)
			return
		}
		n.CallbackFriendConnectionStatus(func(_ *engine.Tox, friendNumber uint32, status engine.Connection, _ interface{}) {
			t.record(EventFriendConnectionStatus, func(s slot) {
				s.handler.(FriendConnectionStatusHandler)(t, friendNumber, Connection(status), s.userData)
			})
		}, nil)
	})
}

// OnFriendTyping registers the handler for typing notifications.
func (t *Tox) OnFriendTyping(handler FriendTypingHandler, userData interface{}) error {
	return t.register(EventFriendTyping, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendTyping(nil, nil)
			return
		}
		n.CallbackFriendTyping(func(_ *engine.Tox, friendNumber uint32, typing bool, _ interface{}) {
			t.record(EventFriendTyping, func(s slot) {
				s.handler.(FriendTypingHandler)(t, friendNumber, typing, s.userData)
			})
		}, nil)
	})
}

// OnFriendReadReceipt registers the handler for delivery receipts. The
// message id is the one FriendSendMessage returned.
func (t *Tox) OnFriendReadReceipt(handler FriendReadReceiptHandler, userData interface{}) error {
	return t.register(EventFriendReadReceipt, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendReadReceipt(nil, nil)
			return
		}
		n.CallbackFriendReadReceipt(func(_ *engine.Tox, friendNumber, messageID uint32, _ interface{}) {
			t.record(EventFriendReadReceipt, func(s slot) {
				s.handler.(FriendReadReceiptHandler)(t, friendNumber, messageID, s.userData)
			})
		}, nil)
	})
}

// OnFriendRequest registers the handler for incoming friend requests. To
// accept, call FriendAddNoRequest with the key from the handler.
func (t *Tox) OnFriendRequest(handler FriendRequestHandler, userData interface{}) error {
	return t.register(EventFriendRequest, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendRequest(nil, nil)
			return
		}
		n.CallbackFriendRequest(func(_ *engine.Tox, publicKey [32]byte, message []byte, _ interface{}) {
			text := string(message)
			t.record(EventFriendRequest, func(s slot) {
				s.handler.(FriendRequestHandler)(t, PublicKey(publicKey), text, s.userData)
			})
		}, nil)
	})
}

// OnFriendMessage registers the handler for incoming messages.
func (t *Tox) OnFriendMessage(handler FriendMessageHandler, userData interface{}) error {
	return t.register(EventFriendMessage, handler, handler != nil, userData, func(n Native, on bool) {
		if !on {
			n.CallbackFriendMessage(nil, nil)
			return
		}
		n.CallbackFriendMessage(func(_ *engine.Tox, friendNumber uint32, kind engine.MessageType, message []byte, _ interface{}) {
			text := string(message)
			t.record(EventFriendMessage, func(s slot) {
				s.handler.(FriendMessageHandler)(t, friendNumber, MessageType(kind), text, s.userData)
			})
		}, nil)
	})
}

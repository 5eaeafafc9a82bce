package toxbind

import "github.com/opd-ai/toxbind/engine"

// FriendSendMessage queues a message for a connected friend and returns its
// id. The engine resends it until the friend acknowledges it; the receipt
// arrives through OnFriendReadReceipt with the same id. An unknown kind
// returns ErrBadMessageType without reaching the engine.
func (t *Tox) FriendSendMessage(friendNumber uint32, kind MessageType, message string) (uint32, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	if !kind.valid() {
		return 0, ErrBadMessageType
	}
	id, code := t.native.FriendSendMessage(friendNumber, engine.MessageType(kind), []byte(message))
	if err := translate(CategoryFriendSendMessage, uint32(code)); err != nil {
		return 0, err
	}
	return id, nil
}

// SelfSetTyping tells a friend whether we are typing to them.
func (t *Tox) SelfSetTyping(friendNumber uint32, typing bool) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return translate(CategorySetTyping, uint32(t.native.SelfSetTyping(friendNumber, typing)))
}

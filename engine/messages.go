package engine

import (
	"encoding/binary"
	"errors"

	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/limits"
	"github.com/opd-ai/toxbind/messaging"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
)

// messageHeaderSize is the sender epoch and message id in front of the text.
const messageHeaderSize = 8

// FriendSendMessage queues a message for an online friend and returns its id.
// The message stays queued and is resent until the friend's receipt arrives.
func (t *Tox) FriendSendMessage(friendNumber uint32, kind MessageType, message []byte) (uint32, FriendSendMessageCode) {
	if message == nil {
		return 0, FriendSendMessageNull
	}
	if len(message) == 0 {
		return 0, FriendSendMessageEmpty
	}
	s := t.slot(friendNumber)
	if s == nil {
		return 0, FriendSendMessageFriendNotFound
	}
	if err := limits.ValidatePlaintextMessage(message); err != nil {
		return 0, FriendSendMessageTooLong
	}
	if s.ConnectionStatus == friend.ConnectionNone {
		return 0, FriendSendMessageFriendNotConnected
	}

	id := t.ids.Next()
	if _, err := s.queue.Enqueue(id, messageTypeToQueue(kind), message); err != nil {
		return 0, FriendSendMessageSendQ
	}
	t.flushQueue(s)
	return id, FriendSendMessageOK
}

// SelfSetTyping sets whether we are typing to a friend.
func (t *Tox) SelfSetTyping(friendNumber uint32, typing bool) SetTypingCode {
	s := t.slot(friendNumber)
	if s == nil {
		return SetTypingFriendNotFound
	}
	if s.selfTyping != typing {
		s.selfTyping = typing
		s.dirtyTyping = true
	}
	return SetTypingOK
}

// flushQueue puts every due message of s on the wire.
func (t *Tox) flushQueue(s *friendSlot) {
	if s.session == nil || !s.verified {
		return
	}
	for _, m := range s.queue.Due() {
		lt := transport.LinkMessage
		if m.Type == messaging.MessageTypeAction {
			lt = transport.LinkAction
		}
		payload := make([]byte, messageHeaderSize+len(m.Text))
		binary.BigEndian.PutUint32(payload[0:4], t.epoch)
		binary.BigEndian.PutUint32(payload[4:8], m.ID)
		copy(payload[messageHeaderSize:], m.Text)
		if err := t.sendLink(s, lt, payload); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "flushQueue",
				"message_id": m.ID,
				"error":      err.Error(),
			}).Debug("Message send failed, will retry")
		}
	}
}

var errShortLink = errors.New("link packet too short")

// handleLinkMessage delivers a message and always answers with a receipt so
// the sender stops resending.
func (t *Tox) handleLinkMessage(s *friendSlot, kind MessageType, payload []byte) error {
	if len(payload) <= messageHeaderSize {
		return errShortLink
	}
	epoch := binary.BigEndian.Uint32(payload[0:4])
	id := binary.BigEndian.Uint32(payload[4:8])
	text := payload[messageHeaderSize:]
	if len(text) > limits.MaxPlaintextMessage {
		return limits.ErrMessageTooLarge
	}

	receipt := make([]byte, 4)
	binary.BigEndian.PutUint32(receipt, id)
	if err := t.sendLink(s, transport.LinkReceipt, receipt); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "handleLinkMessage",
			"message_id": id,
			"error":      err.Error(),
		}).Debug("Receipt send failed")
	}

	if !s.received.Observe(epoch, id) {
		return nil
	}
	t.fireFriendMessage(s.number, kind, text)
	return nil
}

func (t *Tox) handleLinkReceipt(s *friendSlot, payload []byte) error {
	if len(payload) < 4 {
		return errShortLink
	}
	id := binary.BigEndian.Uint32(payload[:4])
	if s.queue.Acknowledge(id) {
		t.fireFriendReadReceipt(s.number, id)
	}
	return nil
}

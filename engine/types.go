package engine

import (
	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/messaging"
)

// Connection is the kind of link to the network or to a friend.
type Connection uint8

const (
	ConnectionNone Connection = iota
	ConnectionTCP
	ConnectionUDP
)

// UserStatus is the presence a user advertises.
type UserStatus uint8

const (
	UserStatusNone UserStatus = iota
	UserStatusAway
	UserStatusBusy
)

// MessageType distinguishes normal messages from actions.
type MessageType uint8

const (
	MessageTypeNormal MessageType = iota
	MessageTypeAction
)

func connectionFromFriend(c friend.ConnectionStatus) Connection {
	switch c {
	case friend.ConnectionTCP:
		return ConnectionTCP
	case friend.ConnectionUDP:
		return ConnectionUDP
	default:
		return ConnectionNone
	}
}

func statusFromFriend(s friend.Status) UserStatus {
	return UserStatus(s)
}

// messageTypeToQueue maps anything other than an action to a normal message.
func messageTypeToQueue(t MessageType) messaging.MessageType {
	if t == MessageTypeAction {
		return messaging.MessageTypeAction
	}
	return messaging.MessageTypeNormal
}

// Callback signatures. Every callback receives the engine that fired it and
// the user data passed at registration.
type (
	SelfConnectionStatusFunc   func(t *Tox, status Connection, userData interface{})
	FriendNameFunc             func(t *Tox, friendNumber uint32, name []byte, userData interface{})
	FriendStatusMessageFunc    func(t *Tox, friendNumber uint32, message []byte, userData interface{})
	FriendStatusFunc           func(t *Tox, friendNumber uint32, status UserStatus, userData interface{})
	FriendConnectionStatusFunc func(t *Tox, friendNumber uint32, status Connection, userData interface{})
	FriendTypingFunc           func(t *Tox, friendNumber uint32, typing bool, userData interface{})
	FriendReadReceiptFunc      func(t *Tox, friendNumber uint32, messageID uint32, userData interface{})
	FriendRequestFunc          func(t *Tox, publicKey [32]byte, message []byte, userData interface{})
	FriendMessageFunc          func(t *Tox, friendNumber uint32, kind MessageType, message []byte, userData interface{})
)

package toxbind

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/engine"
)

// Connection is how we, or a friend, are connected to the network.
type Connection uint8

const (
	ConnectionNone Connection = Connection(engine.ConnectionNone)
	ConnectionTCP  Connection = Connection(engine.ConnectionTCP)
	ConnectionUDP  Connection = Connection(engine.ConnectionUDP)
)

func (c Connection) String() string {
	switch c {
	case ConnectionNone:
		return "none"
	case ConnectionTCP:
		return "tcp"
	case ConnectionUDP:
		return "udp"
	default:
		return fmt.Sprintf("connection(%d)", uint8(c))
	}
}

// UserStatus is a presence state. UserStatusNone means available.
type UserStatus uint8

const (
	UserStatusNone UserStatus = UserStatus(engine.UserStatusNone)
	UserStatusAway UserStatus = UserStatus(engine.UserStatusAway)
	UserStatusBusy UserStatus = UserStatus(engine.UserStatusBusy)
)

func (s UserStatus) String() string {
	switch s {
	case UserStatusNone:
		return "available"
	case UserStatusAway:
		return "away"
	case UserStatusBusy:
		return "busy"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s UserStatus) valid() bool {
	return s <= UserStatusBusy
}

// MessageType distinguishes normal messages from actions ("/me").
type MessageType uint8

const (
	MessageTypeNormal MessageType = MessageType(engine.MessageTypeNormal)
	MessageTypeAction MessageType = MessageType(engine.MessageTypeAction)
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeNormal:
		return "normal"
	case MessageTypeAction:
		return "action"
	default:
		return fmt.Sprintf("message_type(%d)", uint8(m))
	}
}

func (m MessageType) valid() bool {
	return m <= MessageTypeAction
}

// AddressSize is the length of an Address in bytes.
const AddressSize = crypto.ToxIDSize

// Address is a public key followed by the nospam and a checksum. It is what
// users share to be added as a friend.
type Address [AddressSize]byte

// PublicKey identifies a peer.
type PublicKey [32]byte

// SecretKey is the private half of our identity.
type SecretKey [32]byte

var (
	// ErrBadAddress is returned for strings that are not 76 hex characters.
	ErrBadAddress = errors.New("toxbind: malformed address")
	// ErrBadChecksum is returned when an address checksum does not match.
	ErrBadChecksum = errors.New("toxbind: address checksum mismatch")
	// ErrBadPublicKey is returned for strings that are not 64 hex characters.
	ErrBadPublicKey = errors.New("toxbind: malformed public key")
	// ErrBadUserStatus is returned by SelfSetStatus for a value above
	// UserStatusBusy.
	ErrBadUserStatus = errors.New("toxbind: unknown user status")
	// ErrBadMessageType is returned by FriendSendMessage for a value other
	// than MessageTypeNormal or MessageTypeAction.
	ErrBadMessageType = errors.New("toxbind: unknown message type")
)

// ParseAddress decodes a hex address and verifies its checksum.
func ParseAddress(s string) (Address, error) {
	var a Address
	data, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(data) != AddressSize {
		return a, ErrBadAddress
	}
	id, err := crypto.ToxIDFromBytes(data)
	if err != nil {
		return a, ErrBadAddress
	}
	if !id.Valid() {
		return a, ErrBadChecksum
	}
	copy(a[:], data)
	return a, nil
}

// PublicKey returns the key part of the address.
func (a Address) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], a[:32])
	return pk
}

// Nospam returns the anti-spam value embedded in the address.
func (a Address) Nospam() uint32 {
	id, _ := crypto.ToxIDFromBytes(a[:])
	return id.NospamValue()
}

func (a Address) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// ParsePublicKey decodes a hex public key.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	data, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(data) != len(pk) {
		return pk, ErrBadPublicKey
	}
	copy(pk[:], data)
	return pk, nil
}

func (pk PublicKey) String() string {
	return strings.ToUpper(hex.EncodeToString(pk[:]))
}

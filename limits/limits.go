// Package limits provides centralized size limits for the Tox protocol.
// This ensures consistent validation across the binding and the engine.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxPlaintextMessage is the Tox protocol limit for a single message (1372 bytes).
	MaxPlaintextMessage = 1372

	// MaxEncryptedMessage is the maximum size after encryption overhead.
	MaxEncryptedMessage = MaxPlaintextMessage + EncryptionOverhead

	// MaxNameLength bounds the nickname of the local user and of friends.
	MaxNameLength = 128

	// MaxStatusMessageLength bounds status messages.
	MaxStatusMessageLength = 1007

	// MaxFriendRequestLength bounds the message attached to a friend request.
	MaxFriendRequestLength = 1016

	// MaxProxyHostLength bounds the proxy host name accepted at construction.
	MaxProxyHostLength = 255

	// MaxPacketSize is the largest datagram the engine will read or send.
	MaxPacketSize = 2048

	// EncryptionOverhead is the Poly1305 tag added by box.Seal and secretbox.Seal.
	EncryptionOverhead = 16 // golang.org/x/crypto/nacl/box.Overhead

	// PublicKeySize is the size of a curve25519 public key.
	PublicKeySize = 32

	// SecretKeySize is the size of a curve25519 secret key.
	SecretKeySize = 32

	// NospamSize is the size of the anti-spam value embedded in an address.
	NospamSize = 4

	// ChecksumSize is the size of the address checksum.
	ChecksumSize = 2

	// AddressSize is the size of a full Tox address.
	AddressSize = PublicKeySize + NospamSize + ChecksumSize
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidatePlaintextMessage validates a message against MaxPlaintextMessage.
func ValidatePlaintextMessage(message []byte) error {
	return ValidateMessageSize(message, MaxPlaintextMessage)
}

// ValidateFriendRequest validates a friend request message against MaxFriendRequestLength.
func ValidateFriendRequest(message []byte) error {
	return ValidateMessageSize(message, MaxFriendRequestLength)
}

// ValidateInfo checks a name or status message against its limit. Unlike
// messages, info fields may be empty.
func ValidateInfo(value []byte, maxSize int) error {
	if len(value) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(value), maxSize)
	}
	return nil
}

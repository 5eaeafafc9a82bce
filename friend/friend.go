// Package friend implements the friend records kept by the engine.
//
// Example:
//
//	f := friend.New(publicKey)
//	f.SetName("Alice")
//	f.SetStatusMessage("Available for chat")
package friend

import (
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/sirupsen/logrus"
)

// Status represents the presence a friend advertises.
type Status uint8

const (
	StatusNone Status = iota
	StatusAway
	StatusBusy
)

// Valid reports whether s is one of the known presence values.
func (s Status) Valid() bool {
	return s <= StatusBusy
}

// ConnectionStatus represents the connection status to a friend.
type ConnectionStatus uint8

const (
	ConnectionNone ConnectionStatus = iota
	ConnectionTCP
	ConnectionUDP
)

// Friend represents a friend in the Tox network.
type Friend struct {
	PublicKey        [32]byte
	Nospam           uint32
	RequestMessage   []byte
	Confirmed        bool
	Name             []byte
	StatusMessage    []byte
	Status           Status
	ConnectionStatus ConnectionStatus
	LastSeen         time.Time
	Typing           bool
	timeProvider     crypto.TimeProvider
}

// New creates a new Friend with the given public key.
func New(publicKey [32]byte) *Friend {
	return NewWithTimeProvider(publicKey, nil)
}

// NewWithTimeProvider creates a new Friend with a custom time provider.
func NewWithTimeProvider(publicKey [32]byte, tp crypto.TimeProvider) *Friend {
	if tp == nil {
		tp = crypto.DefaultTimeProvider{}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "New",
		"public_key": publicKey[:8],
	}).Debug("Creating new friend")

	return &Friend{
		PublicKey:        publicKey,
		Status:           StatusNone,
		ConnectionStatus: ConnectionNone,
		timeProvider:     tp,
	}
}

// SetName stores the nickname the friend announced.
// It reports whether the stored name changed.
func (f *Friend) SetName(name []byte) bool {
	if string(f.Name) == string(name) {
		return false
	}
	f.Name = append(f.Name[:0:0], name...)
	return true
}

// SetStatusMessage stores the friend's status message.
// It reports whether the stored value changed.
func (f *Friend) SetStatusMessage(message []byte) bool {
	if string(f.StatusMessage) == string(message) {
		return false
	}
	f.StatusMessage = append(f.StatusMessage[:0:0], message...)
	return true
}

// SetStatus sets the friend's presence and reports whether it changed.
func (f *Friend) SetStatus(status Status) bool {
	if f.Status == status {
		return false
	}
	f.Status = status
	return true
}

// SetTyping sets the typing flag and reports whether it changed.
func (f *Friend) SetTyping(typing bool) bool {
	if f.Typing == typing {
		return false
	}
	f.Typing = typing
	return true
}

// SetConnectionStatus updates the connection state and reports whether it changed.
// LastSeen is refreshed whenever the friend is or was online.
func (f *Friend) SetConnectionStatus(status ConnectionStatus) bool {
	if f.ConnectionStatus == status {
		return false
	}

	logrus.WithFields(logrus.Fields{
		"function":              "SetConnectionStatus",
		"public_key":            f.PublicKey[:8],
		"old_connection_status": f.ConnectionStatus,
		"new_connection_status": status,
	}).Info("Friend connection status changed")

	f.ConnectionStatus = status
	f.Touch()
	if status == ConnectionNone {
		f.Typing = false
	}
	return true
}

// Touch records that the friend was seen now.
func (f *Friend) Touch() {
	tp := f.timeProvider
	if tp == nil {
		tp = crypto.DefaultTimeProvider{}
	}
	f.LastSeen = tp.Now()
}

// IsOnline checks if the friend is currently online.
func (f *Friend) IsOnline() bool {
	return f.ConnectionStatus != ConnectionNone
}

// Package noise provides the Noise IK handshake the engine uses to open an
// encrypted session with a friend, and the session that carries friend-link
// packets afterwards.
package noise

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/flynn/noise"
	"github.com/opd-ai/toxbind/crypto"
)

var (
	// ErrHandshakeNotComplete indicates handshake is still in progress
	ErrHandshakeNotComplete = errors.New("handshake not complete")
	// ErrHandshakeComplete indicates handshake is already complete
	ErrHandshakeComplete = errors.New("handshake already complete")
	// ErrWrongRole indicates a call that does not apply to this side of the handshake
	ErrWrongRole = errors.New("operation not valid for handshake role")
	// ErrReplay indicates a session packet counter was already seen or is too old
	ErrReplay = errors.New("replayed or stale session packet")
)

// HandshakeRole defines whether we're initiating or responding to handshake
type HandshakeRole uint8

const (
	// Initiator starts the handshake (knows peer's static key)
	Initiator HandshakeRole = iota
	// Responder responds to handshake initiation
	Responder
)

// timestampSize is the length of the freshness payload carried in both messages.
const timestampSize = 8

// IKHandshake implements the Noise IK pattern.
//
//	-> e, es, s, ss
//	<- e, ee, se
type IKHandshake struct {
	role      HandshakeRole
	state     *noise.HandshakeState
	session   *Session
	peer      [32]byte
	timestamp time.Time
}

// NewIKHandshake creates a new IK pattern handshake.
// peerPubKey is required for the initiator and ignored for the responder.
func NewIKHandshake(self *crypto.KeyPair, peerPubKey []byte, role HandshakeRole) (*IKHandshake, error) {
	if self == nil {
		return nil, errors.New("static key pair required")
	}
	if role == Initiator && len(peerPubKey) != 32 {
		return nil, fmt.Errorf("initiator requires peer public key (32 bytes), got %d", len(peerPubKey))
	}

	staticKey := noise.DHKey{
		Private: append([]byte(nil), self.Private[:]...),
		Public:  append([]byte(nil), self.Public[:]...),
	}

	config := noise.Config{
		CipherSuite:   noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256),
		Random:        rand.Reader,
		Pattern:       noise.HandshakeIK,
		Initiator:     role == Initiator,
		StaticKeypair: staticKey,
	}
	ik := &IKHandshake{role: role, timestamp: time.Now()}
	if role == Initiator {
		config.PeerStatic = append([]byte(nil), peerPubKey...)
		copy(ik.peer[:], peerPubKey)
	}

	state, err := noise.NewHandshakeState(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create handshake state: %w", err)
	}
	ik.state = state
	return ik, nil
}

// Initiate writes the first message. Initiator only.
func (ik *IKHandshake) Initiate(now time.Time) ([]byte, error) {
	if ik.role != Initiator {
		return nil, ErrWrongRole
	}
	if ik.session != nil {
		return nil, ErrHandshakeComplete
	}
	ik.timestamp = now
	msg, _, _, err := ik.state.WriteMessage(nil, encodeTimestamp(now))
	if err != nil {
		return nil, fmt.Errorf("initiator write failed: %w", err)
	}
	return msg, nil
}

// ReadInitiation consumes the initiator's message and returns the
// initiator's static key and the time it claims to have sent the message.
// Responder only. The caller decides whether to answer with Respond.
func (ik *IKHandshake) ReadInitiation(message []byte) ([32]byte, time.Time, error) {
	if ik.role != Responder {
		return [32]byte{}, time.Time{}, ErrWrongRole
	}
	payload, _, _, err := ik.state.ReadMessage(nil, message)
	if err != nil {
		return [32]byte{}, time.Time{}, fmt.Errorf("responder read failed: %w", err)
	}
	copy(ik.peer[:], ik.state.PeerStatic())
	sent, err := decodeTimestamp(payload)
	if err != nil {
		return [32]byte{}, time.Time{}, err
	}
	return ik.peer, sent, nil
}

// Respond writes the second message and completes the responder side.
func (ik *IKHandshake) Respond(now time.Time) ([]byte, *Session, error) {
	if ik.role != Responder {
		return nil, nil, ErrWrongRole
	}
	if ik.session != nil {
		return nil, nil, ErrHandshakeComplete
	}
	msg, cs1, cs2, err := ik.state.WriteMessage(nil, encodeTimestamp(now))
	if err != nil {
		return nil, nil, fmt.Errorf("responder write failed: %w", err)
	}
	if cs1 == nil || cs2 == nil {
		return nil, nil, ErrHandshakeNotComplete
	}
	// cs1 carries initiator->responder traffic, cs2 the reverse.
	ik.session = newSession(ik.peer, cs2, cs1, now)
	return msg, ik.session, nil
}

// Finish reads the responder's reply and completes the initiator side.
func (ik *IKHandshake) Finish(message []byte, now time.Time) (*Session, error) {
	if ik.role != Initiator {
		return nil, ErrWrongRole
	}
	if ik.session != nil {
		return nil, ErrHandshakeComplete
	}
	payload, cs1, cs2, err := ik.state.ReadMessage(nil, message)
	if err != nil {
		return nil, fmt.Errorf("initiator read response failed: %w", err)
	}
	if _, err := decodeTimestamp(payload); err != nil {
		return nil, err
	}
	if cs1 == nil || cs2 == nil {
		return nil, ErrHandshakeNotComplete
	}
	ik.session = newSession(ik.peer, cs1, cs2, now)
	return ik.session, nil
}

// Role returns the side of the handshake.
func (ik *IKHandshake) Role() HandshakeRole {
	return ik.role
}

// Peer returns the peer's static key. For a responder it is known only after
// ReadInitiation.
func (ik *IKHandshake) Peer() [32]byte {
	return ik.peer
}

// Started returns when the handshake message was written.
func (ik *IKHandshake) Started() time.Time {
	return ik.timestamp
}

// IsComplete returns true once a session is available.
func (ik *IKHandshake) IsComplete() bool {
	return ik.session != nil
}

func encodeTimestamp(t time.Time) []byte {
	b := make([]byte, timestampSize)
	binary.BigEndian.PutUint64(b, uint64(t.UnixMilli()))
	return b
}

func decodeTimestamp(b []byte) (time.Time, error) {
	if len(b) != timestampSize {
		return time.Time{}, fmt.Errorf("handshake payload is %d bytes, want %d", len(b), timestampSize)
	}
	return time.UnixMilli(int64(binary.BigEndian.Uint64(b))), nil
}

package noise

import (
	"errors"
	"math"
	"time"

	"github.com/flynn/noise"
	"github.com/opd-ai/toxbind/crypto"
)

// Session encrypts friend-link traffic after a completed handshake.
// Every packet carries its own 64-bit counter so datagrams may be lost or
// reordered; the receiver rejects counters it has already accepted.
type Session struct {
	peer        [32]byte
	send        noise.Cipher
	recv        noise.Cipher
	sendCounter uint64
	window      crypto.ReplayWindow
	established time.Time
}

func newSession(peer [32]byte, send, recv *noise.CipherState, now time.Time) *Session {
	return &Session{
		peer:        peer,
		send:        send.Cipher(),
		recv:        recv.Cipher(),
		established: now,
	}
}

// Peer returns the static public key of the other side.
func (s *Session) Peer() [32]byte {
	return s.peer
}

// Established returns when the handshake completed.
func (s *Session) Established() time.Time {
	return s.established
}

// Seal encrypts plaintext under the next counter.
func (s *Session) Seal(plaintext []byte) (uint64, []byte, error) {
	if s.sendCounter == math.MaxUint64-1 {
		return 0, nil, errors.New("session counter exhausted")
	}
	s.sendCounter++
	return s.sendCounter, s.send.Encrypt(nil, s.sendCounter, nil, plaintext), nil
}

// Open authenticates and decrypts a packet sealed under counter.
func (s *Session) Open(counter uint64, ciphertext []byte) ([]byte, error) {
	if !s.window.Check(counter) {
		return nil, ErrReplay
	}
	plain, err := s.recv.Decrypt(nil, counter, nil, ciphertext)
	if err != nil {
		return nil, err
	}
	if !s.window.Accept(counter) {
		return nil, ErrReplay
	}
	return plain, nil
}

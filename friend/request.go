package friend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/limits"
	"github.com/sirupsen/logrus"
)

// requestHeaderSize is sender public key plus nonce.
const requestHeaderSize = 32 + 24

var (
	// ErrRequestTooShort is returned for packets that cannot hold a sealed request.
	ErrRequestTooShort = errors.New("invalid friend request packet: too short")
	// ErrRequestNospam is returned when the request was addressed with a stale nospam.
	ErrRequestNospam = errors.New("friend request nospam mismatch")
)

// Request is a friend request after it has been opened.
type Request struct {
	SenderPublicKey [32]byte
	Nospam          uint32
	Message         []byte
	Timestamp       time.Time
}

// SealRequest builds the wire form of a friend request:
// [sender public key(32)][nonce(24)][box(nospam(4) | message)].
func SealRequest(sender *crypto.KeyPair, recipient [32]byte, nospam uint32, message []byte) ([]byte, error) {
	if len(message) == 0 {
		return nil, errors.New("message cannot be empty")
	}

	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return nil, err
	}

	plain := make([]byte, 4+len(message))
	binary.BigEndian.PutUint32(plain[:4], nospam)
	copy(plain[4:], message)

	sealed, err := crypto.Encrypt(plain, nonce, recipient, sender.Private)
	if err != nil {
		return nil, fmt.Errorf("seal friend request: %w", err)
	}

	packet := make([]byte, 0, requestHeaderSize+len(sealed))
	packet = append(packet, sender.Public[:]...)
	packet = append(packet, nonce[:]...)
	packet = append(packet, sealed...)
	return packet, nil
}

// OpenRequest decrypts a friend request addressed to recipient.
func OpenRequest(packet []byte, recipient *crypto.KeyPair) (*Request, error) {
	if len(packet) < requestHeaderSize+4+limits.EncryptionOverhead {
		return nil, ErrRequestTooShort
	}

	req := &Request{Timestamp: time.Now()}
	copy(req.SenderPublicKey[:], packet[:32])
	var nonce crypto.Nonce
	copy(nonce[:], packet[32:requestHeaderSize])

	plain, err := crypto.Decrypt(packet[requestHeaderSize:], nonce, req.SenderPublicKey, recipient.Private)
	if err != nil {
		return nil, err
	}
	if len(plain) < 4 {
		return nil, ErrRequestTooShort
	}
	req.Nospam = binary.BigEndian.Uint32(plain[:4])
	req.Message = plain[4:]
	return req, nil
}

// RequestManager remembers inbound requests so that a request resent by the
// same peer is reported only once.
type RequestManager struct {
	pending map[[32]byte]*Request
	mu      sync.Mutex
}

// NewRequestManager creates an empty request manager.
func NewRequestManager() *RequestManager {
	return &RequestManager{pending: make(map[[32]byte]*Request)}
}

// AddRequest records req and reports whether it is new. A request that repeats
// the sender and message of a pending one is not new.
func (m *RequestManager) AddRequest(req *Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.pending[req.SenderPublicKey]; ok && string(existing.Message) == string(req.Message) {
		return false
	}
	m.pending[req.SenderPublicKey] = req

	logrus.WithFields(logrus.Fields{
		"function":   "AddRequest",
		"public_key": req.SenderPublicKey[:8],
		"length":     len(req.Message),
	}).Info("New friend request")
	return true
}

// Remove forgets the request from publicKey, e.g. once it was accepted.
func (m *RequestManager) Remove(publicKey [32]byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[publicKey]; !ok {
		return false
	}
	delete(m.pending, publicKey)
	return true
}

// Pending returns the requests that have not been removed.
func (m *RequestManager) Pending() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, 0, len(m.pending))
	for _, r := range m.pending {
		out = append(out, r)
	}
	return out
}

// Clear forgets every pending request.
func (m *RequestManager) Clear() {
	m.mu.Lock()
	m.pending = make(map[[32]byte]*Request)
	m.mu.Unlock()
}

// Package messaging implements the per-friend outgoing message queue used by
// the engine: message ids, retransmission, receipts and duplicate suppression
// on the receiving side.
//
// Example:
//
//	q := messaging.NewSendQueue(messaging.DefaultQueueSize, nil)
//	msg, err := q.Enqueue(ids.Next(), messaging.MessageTypeNormal, []byte("hi"))
//	for _, m := range q.Due() {
//	    send(m)
//	}
//	q.Acknowledge(msg.ID) // receipt arrived
package messaging

import (
	"errors"
	"sync"
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/sirupsen/logrus"
)

// MessageType represents the type of message.
type MessageType uint8

const (
	// MessageTypeNormal is a regular text message.
	MessageTypeNormal MessageType = iota
	// MessageTypeAction is an action message (like /me).
	MessageTypeAction
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t <= MessageTypeAction
}

// MessageState represents the delivery state of a message.
type MessageState uint8

const (
	// MessageStatePending means the message is waiting to be sent.
	MessageStatePending MessageState = iota
	// MessageStateSent means the message has been sent but not confirmed.
	MessageStateSent
	// MessageStateDelivered means a receipt arrived.
	MessageStateDelivered
)

const (
	// DefaultQueueSize is the number of unacknowledged messages kept per friend.
	DefaultQueueSize = 256
	// DefaultRetryInterval is how long a sent message waits for its receipt before resending.
	DefaultRetryInterval = time.Second
)

// ErrQueueFull is returned when a friend's send queue cannot take another message.
var ErrQueueFull = errors.New("send queue full")

// Message is an outgoing message awaiting its receipt.
type Message struct {
	ID          uint32
	Type        MessageType
	Text        []byte
	Timestamp   time.Time
	State       MessageState
	Retries     uint8
	LastAttempt time.Time
}

// IDAllocator hands out message ids. Ids increase monotonically and skip 0.
type IDAllocator struct {
	mu   sync.Mutex
	last uint32
}

// Next returns the next message id.
func (a *IDAllocator) Next() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last++
	if a.last == 0 {
		a.last = 1
	}
	return a.last
}

// SendQueue holds one friend's unacknowledged messages in send order.
type SendQueue struct {
	pending       []*Message
	maxSize       int
	retryInterval time.Duration
	timeProvider  crypto.TimeProvider

	mu sync.Mutex
}

// NewSendQueue creates a queue that holds at most maxSize messages.
func NewSendQueue(maxSize int, tp crypto.TimeProvider) *SendQueue {
	if tp == nil {
		tp = crypto.DefaultTimeProvider{}
	}
	if maxSize <= 0 {
		maxSize = DefaultQueueSize
	}
	return &SendQueue{
		maxSize:       maxSize,
		retryInterval: DefaultRetryInterval,
		timeProvider:  tp,
	}
}

// SetRetryInterval changes how long a sent message waits before resending.
func (q *SendQueue) SetRetryInterval(d time.Duration) {
	q.mu.Lock()
	q.retryInterval = d
	q.mu.Unlock()
}

// Enqueue appends a message under id.
func (q *SendQueue) Enqueue(id uint32, kind MessageType, text []byte) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) >= q.maxSize {
		logrus.WithFields(logrus.Fields{
			"function":   "Enqueue",
			"message_id": id,
			"queue_size": len(q.pending),
		}).Warn("Send queue full")
		return nil, ErrQueueFull
	}

	msg := &Message{
		ID:        id,
		Type:      kind,
		Text:      append([]byte(nil), text...),
		Timestamp: q.timeProvider.Now(),
		State:     MessageStatePending,
	}
	q.pending = append(q.pending, msg)
	return msg, nil
}

// Due returns the messages that should go on the wire now, oldest first, and
// records the attempt on each.
func (q *SendQueue) Due() []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.timeProvider.Now()
	var due []*Message
	for _, m := range q.pending {
		if m.State == MessageStateSent && now.Sub(m.LastAttempt) < q.retryInterval {
			continue
		}
		if m.State == MessageStateSent {
			m.Retries++
		}
		m.State = MessageStateSent
		m.LastAttempt = now
		due = append(due, m)
	}
	return due
}

// HasUnsent reports whether any message is waiting for its first transmission.
func (q *SendQueue) HasUnsent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range q.pending {
		if m.State == MessageStatePending {
			return true
		}
	}
	return false
}

// Acknowledge removes the message with id and reports whether it was queued.
func (q *SendQueue) Acknowledge(id uint32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, m := range q.pending {
		if m.ID == id {
			m.State = MessageStateDelivered
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Requeue marks every message pending again so the next Due resends all of
// them. Called when the friend comes back online.
func (q *SendQueue) Requeue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range q.pending {
		m.State = MessageStatePending
	}
}

// Len returns the number of unacknowledged messages.
func (q *SendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Clear drops every queued message.
func (q *SendQueue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

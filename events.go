package toxbind

import (
	"fmt"
	"sync/atomic"

	"github.com/opd-ai/toxbind/internal/instrument"
)

// EventKind names one callback category.
type EventKind uint8

const (
	EventSelfConnectionStatus EventKind = iota
	EventFriendName
	EventFriendStatusMessage
	EventFriendStatus
	EventFriendConnectionStatus
	EventFriendTyping
	EventFriendReadReceipt
	EventFriendRequest
	EventFriendMessage

	eventKindCount
)

var eventKindNames = [...]string{
	EventSelfConnectionStatus:   "self_connection_status",
	EventFriendName:             "friend_name",
	EventFriendStatusMessage:    "friend_status_message",
	EventFriendStatus:           "friend_status",
	EventFriendConnectionStatus: "friend_connection_status",
	EventFriendTyping:           "friend_typing",
	EventFriendReadReceipt:      "friend_read_receipt",
	EventFriendRequest:          "friend_request",
	EventFriendMessage:          "friend_message",
}

func (k EventKind) String() string {
	if k < eventKindCount {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Event is one engine event as delivered by an EventQueue. Only the fields
// that belong to Kind are set.
type Event struct {
	Kind         EventKind
	FriendNumber uint32
	Connection   Connection
	Status       UserStatus
	MessageType  MessageType
	MessageID    uint32
	PublicKey    PublicKey
	Typing       bool
	// Text is the name, status message, request message or message body.
	Text string
}

// EventQueue moves events off the iterate goroutine. Handlers installed by
// Attach never block: when the buffer is full the event is dropped and
// counted.
type EventQueue struct {
	ch      chan Event
	dropped atomic.Uint64
}

// NewEventQueue returns a queue buffering up to size events.
func NewEventQueue(size int) *EventQueue {
	return &EventQueue{ch: make(chan Event, size)}
}

// Events returns the channel events are delivered on.
func (q *EventQueue) Events() <-chan Event {
	return q.ch
}

// Dropped returns the number of events lost to a full buffer.
func (q *EventQueue) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *EventQueue) push(ev Event) {
	select {
	case q.ch <- ev:
	default:
		q.dropped.Add(1)
		instrument.EventDropped(ev.Kind.String())
	}
}

// Attach registers a handler for every event kind on t, replacing any
// handlers registered before.
func (q *EventQueue) Attach(t *Tox) error {
	registrations := []func() error{
		func() error {
			return t.OnSelfConnectionStatus(func(_ *Tox, c Connection, _ interface{}) {
				q.push(Event{Kind: EventSelfConnectionStatus, Connection: c})
			}, nil)
		},
		func() error {
			return t.OnFriendName(func(_ *Tox, fn uint32, name string, _ interface{}) {
				q.push(Event{Kind: EventFriendName, FriendNumber: fn, Text: name})
			}, nil)
		},
		func() error {
			return t.OnFriendStatusMessage(func(_ *Tox, fn uint32, msg string, _ interface{}) {
				q.push(Event{Kind: EventFriendStatusMessage, FriendNumber: fn, Text: msg})
			}, nil)
		},
		func() error {
			return t.OnFriendStatus(func(_ *Tox, fn uint32, s UserStatus, _ interface{}) {
				q.push(Event{Kind: EventFriendStatus, FriendNumber: fn, Status: s})
			}, nil)
		},
		func() error {
			return t.OnFriendConnectionStatus(func(_ *Tox, fn uint32, c Connection, _ interface{}) {
				q.push(Event{Kind: EventFriendConnectionStatus, FriendNumber: fn, Connection: c})
			}, nil)
		},
		func() error {
			return t.OnFriendTyping(func(_ *Tox, fn uint32, typing bool, _ interface{}) {
				q.push(Event{Kind: EventFriendTyping, FriendNumber: fn, Typing: typing})
			}, nil)
		},
		func() error {
			return t.OnFriendReadReceipt(func(_ *Tox, fn, id uint32, _ interface{}) {
				q.push(Event{Kind: EventFriendReadReceipt, FriendNumber: fn, MessageID: id})
			}, nil)
		},
		func() error {
			return t.OnFriendRequest(func(_ *Tox, pk PublicKey, msg string, _ interface{}) {
				q.push(Event{Kind: EventFriendRequest, PublicKey: pk, Text: msg})
			}, nil)
		},
		func() error {
			return t.OnFriendMessage(func(_ *Tox, fn uint32, kind MessageType, msg string, _ interface{}) {
				q.push(Event{Kind: EventFriendMessage, FriendNumber: fn, MessageType: kind, Text: msg})
			}, nil)
		},
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

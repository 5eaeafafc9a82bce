package engine

import (
	"net"
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/limits"
	"github.com/opd-ai/toxbind/messaging"
	"github.com/opd-ai/toxbind/noise"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
)

// friendSlot is the engine's state for one friend number.
type friendSlot struct {
	*friend.Friend
	number uint32

	queue    *messaging.SendQueue
	received *messaging.ReceiveTracker

	addr      net.Addr
	session   *noise.Session
	verified  bool
	handshake *noise.IKHandshake
	// lastInitiation is the newest handshake timestamp accepted from the friend.
	lastInitiation time.Time

	lastReceived    time.Time
	lastPingSent    time.Time
	lastRequestSent time.Time
	lastHandshake   time.Time
	lastLookup      time.Time
	lastProbe       time.Time

	selfTyping         bool
	dirtyName          bool
	dirtyStatusMessage bool
	dirtyStatus        bool
	dirtyTyping        bool
}

func (t *Tox) newSlot(pk [32]byte) *friendSlot {
	s := &friendSlot{
		Friend:   friend.NewWithTimeProvider(pk, t.timeProvider),
		queue:    messaging.NewSendQueue(messaging.DefaultQueueSize, t.timeProvider),
		received: messaging.NewReceiveTracker(),
	}
	return s
}

// insertSlot stores s under the lowest free friend number.
func (t *Tox) insertSlot(s *friendSlot) uint32 {
	for i, existing := range t.friends {
		if existing == nil {
			s.number = uint32(i)
			t.friends[i] = s
			return s.number
		}
	}
	s.number = uint32(len(t.friends))
	t.friends = append(t.friends, s)
	return s.number
}

func (t *Tox) friendCount() int {
	n := 0
	for _, s := range t.friends {
		if s != nil {
			n++
		}
	}
	return n
}

func (t *Tox) slot(friendNumber uint32) *friendSlot {
	if uint64(friendNumber) >= uint64(len(t.friends)) {
		return nil
	}
	return t.friends[friendNumber]
}

func (t *Tox) slotByKey(pk [32]byte) *friendSlot {
	for _, s := range t.friends {
		if s != nil && s.PublicKey == pk {
			return s
		}
	}
	return nil
}

// FriendAdd adds a friend by address and queues a friend request carrying
// message.
func (t *Tox) FriendAdd(address []byte, message []byte) (uint32, FriendAddCode) {
	if address == nil || message == nil || len(address) != crypto.ToxIDSize {
		return 0, FriendAddNull
	}
	if len(message) > limits.MaxFriendRequestLength {
		return 0, FriendAddTooLong
	}
	id, err := crypto.ToxIDFromBytes(address)
	if err != nil || !id.Valid() {
		return 0, FriendAddBadChecksum
	}
	if len(message) == 0 {
		return 0, FriendAddNoMessage
	}
	if id.PublicKey == t.keyPair.Public {
		return 0, FriendAddOwnKey
	}

	nospam := id.NospamValue()
	if s := t.slotByKey(id.PublicKey); s != nil {
		if s.Confirmed || s.Nospam == nospam {
			return 0, FriendAddAlreadySent
		}
		s.Nospam = nospam
		s.lastRequestSent = time.Time{}
		return 0, FriendAddSetNewNospam
	}

	if t.friendCount() >= maxFriends {
		return 0, FriendAddMalloc
	}

	s := t.newSlot(id.PublicKey)
	s.Nospam = nospam
	s.RequestMessage = append([]byte(nil), message...)
	fn := t.insertSlot(s)

	crypto.NewLogger("engine", "FriendAdd").
		WithField("friend_number", fn).
		WithKey("public_key", id.PublicKey).
		Info("Friend added, request queued")
	return fn, FriendAddOK
}

// FriendAddNoRequest adds a friend without sending a request, typically to
// accept one. The friend is confirmed at once.
func (t *Tox) FriendAddNoRequest(publicKey []byte) (uint32, FriendAddCode) {
	if publicKey == nil || len(publicKey) != 32 {
		return 0, FriendAddNull
	}
	var pk [32]byte
	copy(pk[:], publicKey)
	if pk == t.keyPair.Public {
		return 0, FriendAddOwnKey
	}
	if t.slotByKey(pk) != nil {
		return 0, FriendAddAlreadySent
	}
	if t.friendCount() >= maxFriends {
		return 0, FriendAddMalloc
	}

	s := t.newSlot(pk)
	s.Confirmed = true
	if addr, ok := t.peerAddrs[pk]; ok {
		s.addr = addr
	}
	t.requests.Remove(pk)
	fn := t.insertSlot(s)

	crypto.NewLogger("engine", "FriendAddNoRequest").
		WithField("friend_number", fn).
		WithKey("public_key", pk).
		Info("Friend added without request")
	return fn, FriendAddOK
}

// FriendDelete removes a friend. An online friend is told we went offline.
func (t *Tox) FriendDelete(friendNumber uint32) FriendDeleteCode {
	s := t.slot(friendNumber)
	if s == nil {
		return FriendDeleteFriendNotFound
	}
	if s.session != nil {
		t.sendLink(s, transport.LinkOffline, nil)
	}
	s.queue.Clear()
	t.friends[friendNumber] = nil
	for len(t.friends) > 0 && t.friends[len(t.friends)-1] == nil {
		t.friends = t.friends[:len(t.friends)-1]
	}
	delete(t.peerAddrs, s.PublicKey)

	logrus.WithFields(logrus.Fields{
		"function":      "FriendDelete",
		"friend_number": friendNumber,
	}).Info("Friend deleted")
	return FriendDeleteOK
}

// FriendByPublicKey returns the friend number holding publicKey.
func (t *Tox) FriendByPublicKey(publicKey []byte) (uint32, FriendByPublicKeyCode) {
	if publicKey == nil || len(publicKey) != 32 {
		return 0, FriendByPublicKeyNull
	}
	var pk [32]byte
	copy(pk[:], publicKey)
	s := t.slotByKey(pk)
	if s == nil {
		return 0, FriendByPublicKeyNotFound
	}
	return s.number, FriendByPublicKeyOK
}

// FriendGetPublicKey returns the public key of a friend.
func (t *Tox) FriendGetPublicKey(friendNumber uint32) ([32]byte, FriendGetPublicKeyCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return [32]byte{}, FriendGetPublicKeyFriendNotFound
	}
	return s.PublicKey, FriendGetPublicKeyOK
}

// FriendExists reports whether friendNumber is in use.
func (t *Tox) FriendExists(friendNumber uint32) bool {
	return t.slot(friendNumber) != nil
}

// SelfGetFriendListSize returns the number of friends.
func (t *Tox) SelfGetFriendListSize() int {
	return t.friendCount()
}

// SelfGetFriendList copies the friend numbers in ascending order into dst and
// returns how many were copied.
func (t *Tox) SelfGetFriendList(dst []uint32) int {
	n := 0
	for _, s := range t.friends {
		if s == nil {
			continue
		}
		if n == len(dst) {
			break
		}
		dst[n] = s.number
		n++
	}
	return n
}

// FriendGetLastOnline returns when the friend was last seen as a Unix
// timestamp, or 0 if never.
func (t *Tox) FriendGetLastOnline(friendNumber uint32) (uint64, FriendGetLastOnlineCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return 0, FriendGetLastOnlineFriendNotFound
	}
	if s.LastSeen.IsZero() {
		return 0, FriendGetLastOnlineOK
	}
	return uint64(s.LastSeen.Unix()), FriendGetLastOnlineOK
}

// FriendGetNameSize returns the length of a friend's nickname.
func (t *Tox) FriendGetNameSize(friendNumber uint32) (int, FriendQueryCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return 0, FriendQueryFriendNotFound
	}
	return len(s.Name), FriendQueryOK
}

// FriendGetName copies a friend's nickname into dst.
func (t *Tox) FriendGetName(friendNumber uint32, dst []byte) FriendQueryCode {
	if dst == nil {
		return FriendQueryNull
	}
	s := t.slot(friendNumber)
	if s == nil {
		return FriendQueryFriendNotFound
	}
	copy(dst, s.Name)
	return FriendQueryOK
}

// FriendGetStatusMessageSize returns the length of a friend's status message.
func (t *Tox) FriendGetStatusMessageSize(friendNumber uint32) (int, FriendQueryCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return 0, FriendQueryFriendNotFound
	}
	return len(s.StatusMessage), FriendQueryOK
}

// FriendGetStatusMessage copies a friend's status message into dst.
func (t *Tox) FriendGetStatusMessage(friendNumber uint32, dst []byte) FriendQueryCode {
	if dst == nil {
		return FriendQueryNull
	}
	s := t.slot(friendNumber)
	if s == nil {
		return FriendQueryFriendNotFound
	}
	copy(dst, s.StatusMessage)
	return FriendQueryOK
}

// FriendGetStatus returns a friend's presence.
func (t *Tox) FriendGetStatus(friendNumber uint32) (UserStatus, FriendQueryCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return UserStatusNone, FriendQueryFriendNotFound
	}
	return statusFromFriend(s.Status), FriendQueryOK
}

// FriendGetConnectionStatus returns how we are connected to a friend.
func (t *Tox) FriendGetConnectionStatus(friendNumber uint32) (Connection, FriendQueryCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return ConnectionNone, FriendQueryFriendNotFound
	}
	return connectionFromFriend(s.ConnectionStatus), FriendQueryOK
}

// FriendGetTyping reports whether a friend is typing to us.
func (t *Tox) FriendGetTyping(friendNumber uint32) (bool, FriendQueryCode) {
	s := t.slot(friendNumber)
	if s == nil {
		return false, FriendQueryFriendNotFound
	}
	return s.Typing, FriendQueryOK
}

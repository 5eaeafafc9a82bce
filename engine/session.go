package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/limits"
	"github.com/opd-ai/toxbind/noise"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
)

// sessionHeaderSize is the sender public key and packet counter.
const sessionHeaderSize = 32 + 8

var (
	errNoSession    = errors.New("no session with peer")
	errNotFriend    = errors.New("peer is not a friend")
	errStale        = errors.New("stale handshake")
	errBadLinkValue = errors.New("invalid link packet value")
)

// isInitiator reports whether the side holding self opens the session.
// The lower public key initiates.
func isInitiator(self, peer [32]byte) bool {
	return bytes.Compare(self[:], peer[:]) < 0
}

func connectionFor(addr net.Addr) friend.ConnectionStatus {
	if _, ok := addr.(*net.UDPAddr); ok {
		return friend.ConnectionUDP
	}
	return friend.ConnectionTCP
}

// friendAddr returns the best known address of a friend, or nil.
func (t *Tox) friendAddr(s *friendSlot) net.Addr {
	if s.addr != nil {
		return s.addr
	}
	if addr, ok := t.peerAddrs[s.PublicKey]; ok {
		return addr
	}
	if n := t.routing.Lookup(s.PublicKey); n != nil {
		return n.Address
	}
	return nil
}

// noteFriendAddr records where an authenticated packet from a friend came
// from. An established session keeps its address.
func (t *Tox) noteFriendAddr(s *friendSlot, addr net.Addr, now time.Time) {
	if s.session != nil {
		return
	}
	s.addr = addr
	if isInitiator(t.keyPair.Public, s.PublicKey) && now.Sub(s.lastHandshake) >= handshakeNudge {
		s.lastHandshake = time.Time{}
	}
}

func (t *Tox) initiateHandshake(s *friendSlot, now time.Time) {
	addr := t.friendAddr(s)
	if !t.canReach(addr) {
		return
	}
	hs, err := noise.NewIKHandshake(t.keyPair, s.PublicKey[:], noise.Initiator)
	if err != nil {
		return
	}
	msg, err := hs.Initiate(now)
	if err != nil {
		return
	}
	s.handshake = hs
	s.lastHandshake = now
	t.sendToPeer(s.PublicKey, addr, &transport.Packet{PacketType: transport.PacketHandshakeInit, Data: msg})

	logrus.WithFields(logrus.Fields{
		"function":      "initiateHandshake",
		"friend_number": s.number,
		"address":       addr,
	}).Debug("Handshake initiated")
}

func (t *Tox) handleHandshakeInit(d transport.Datagram, now time.Time) error {
	hs, err := noise.NewIKHandshake(t.keyPair, nil, noise.Responder)
	if err != nil {
		return err
	}
	peer, sent, err := hs.ReadInitiation(d.Packet.Data)
	if err != nil {
		return err
	}
	s := t.slotByKey(peer)
	if s == nil {
		return errNotFriend
	}
	if isInitiator(t.keyPair.Public, peer) {
		return errors.New("handshake from the responding side")
	}
	age := now.Sub(sent)
	if age > handshakeFreshness || age < -handshakeFreshness || !sent.After(s.lastInitiation) {
		return errStale
	}

	msg, sess, err := hs.Respond(now)
	if err != nil {
		return err
	}
	s.lastInitiation = sent

	reply := make([]byte, 0, 32+len(msg))
	reply = append(reply, t.keyPair.Public[:]...)
	reply = append(reply, msg...)
	if err := t.sendTo(d.Addr, &transport.Packet{PacketType: transport.PacketHandshakeResponse, Data: reply}); err != nil {
		return err
	}

	// The session is used once the initiator's first packet proves it
	// received our reply.
	t.establish(s, sess, d.Addr, now, false)
	return nil
}

func (t *Tox) handleHandshakeResponse(d transport.Datagram, now time.Time) error {
	data := d.Packet.Data
	if len(data) <= 32 {
		return errShortLink
	}
	var pk [32]byte
	copy(pk[:], data[:32])
	s := t.slotByKey(pk)
	if s == nil {
		return errNotFriend
	}
	if s.handshake == nil || now.Sub(s.handshake.Started()) > handshakeTimeout {
		return errStale
	}
	sess, err := s.handshake.Finish(data[32:], now)
	if err != nil {
		s.handshake = nil
		return err
	}
	t.establish(s, sess, d.Addr, now, true)
	return nil
}

// establish installs a new session. A verified session is usable at once.
func (t *Tox) establish(s *friendSlot, sess *noise.Session, addr net.Addr, now time.Time, verified bool) {
	s.session = sess
	s.verified = verified
	s.handshake = nil
	s.addr = addr
	s.lastReceived = now
	s.lastPingSent = time.Time{}
	s.dirtyName, s.dirtyStatusMessage, s.dirtyStatus, s.dirtyTyping = true, true, true, true
	s.queue.Requeue()

	crypto.NewLogger("engine", "establish").
		WithFields(logrus.Fields{
			"friend_number": s.number,
			"address":       addr,
			"verified":      verified,
		}).
		WithKey("peer", s.PublicKey).
		Info("Friend session established")

	if verified {
		t.sessionUp(s, addr, now)
	}
}

// sessionUp marks the friend online and pushes our info and queued messages.
func (t *Tox) sessionUp(s *friendSlot, addr net.Addr, now time.Time) {
	s.verified = true
	if !s.Confirmed {
		s.Confirmed = true
		s.RequestMessage = nil
	}
	t.requests.Remove(s.PublicKey)
	t.setFriendConnection(s, connectionFor(addr))
	if s.session == nil {
		return
	}
	s.lastPingSent = now
	t.sendLink(s, transport.LinkPing, nil)
	t.sendInfo(s)
	t.flushQueue(s)
}

func (t *Tox) setFriendConnection(s *friendSlot, status friend.ConnectionStatus) {
	if s.SetConnectionStatus(status) {
		t.fireFriendConnectionStatus(s.number, connectionFromFriend(status))
	}
}

// goOffline drops the session. Queued messages are resent after the next
// handshake.
func (t *Tox) goOffline(s *friendSlot, reason string) {
	s.session = nil
	s.verified = false
	s.handshake = nil
	s.lastHandshake = time.Time{}
	s.queue.Requeue()

	logrus.WithFields(logrus.Fields{
		"function":      "goOffline",
		"friend_number": s.number,
		"reason":        reason,
	}).Info("Friend went offline")
	t.setFriendConnection(s, friend.ConnectionNone)
}

// sendLink seals a friend-link packet into the session.
// Wire format: [sender public key(32)][counter(8)][ciphertext].
func (t *Tox) sendLink(s *friendSlot, lt transport.LinkType, payload []byte) error {
	if s.session == nil {
		return errNoSession
	}
	plain := make([]byte, 1+len(payload))
	plain[0] = byte(lt)
	copy(plain[1:], payload)

	counter, ct, err := s.session.Seal(plain)
	if err != nil {
		return err
	}
	data := make([]byte, sessionHeaderSize+len(ct))
	copy(data[:32], t.keyPair.Public[:])
	binary.BigEndian.PutUint64(data[32:40], counter)
	copy(data[40:], ct)
	return t.sendTo(s.addr, &transport.Packet{PacketType: transport.PacketSessionData, Data: data})
}

// sendInfo sends whatever part of our profile the friend has not seen yet.
func (t *Tox) sendInfo(s *friendSlot) {
	if s.session == nil || !s.verified {
		return
	}
	if s.dirtyName && t.sendLink(s, transport.LinkNickname, t.name) == nil {
		s.dirtyName = false
	}
	if s.dirtyStatusMessage && t.sendLink(s, transport.LinkStatusMessage, t.statusMessage) == nil {
		s.dirtyStatusMessage = false
	}
	if s.dirtyStatus && t.sendLink(s, transport.LinkUserStatus, []byte{byte(t.status)}) == nil {
		s.dirtyStatus = false
	}
	if s.dirtyTyping {
		typing := byte(0)
		if s.selfTyping {
			typing = 1
		}
		if t.sendLink(s, transport.LinkTyping, []byte{typing}) == nil {
			s.dirtyTyping = false
		}
	}
}

func (t *Tox) handleSessionData(d transport.Datagram, now time.Time) error {
	data := d.Packet.Data
	if len(data) <= sessionHeaderSize {
		return errShortLink
	}
	var pk [32]byte
	copy(pk[:], data[:32])
	s := t.slotByKey(pk)
	if s == nil {
		return errNotFriend
	}
	if s.session == nil {
		return errNoSession
	}
	counter := binary.BigEndian.Uint64(data[32:40])
	plain, err := s.session.Open(counter, data[sessionHeaderSize:])
	if err != nil {
		return err
	}
	if len(plain) == 0 {
		return errShortLink
	}

	s.lastReceived = now
	s.Touch()
	s.addr = d.Addr
	if !s.verified {
		t.sessionUp(s, d.Addr, now)
	} else if connectionFor(d.Addr) != s.ConnectionStatus {
		t.setFriendConnection(s, connectionFor(d.Addr))
	}
	return t.handleLink(s, transport.LinkType(plain[0]), plain[1:])
}

func (t *Tox) handleLink(s *friendSlot, lt transport.LinkType, payload []byte) error {
	switch lt {
	case transport.LinkPing:
		return nil
	case transport.LinkOffline:
		t.goOffline(s, "peer left")
		return nil
	case transport.LinkNickname:
		if len(payload) > limits.MaxNameLength {
			return errBadLinkValue
		}
		if s.SetName(payload) {
			t.fireFriendName(s.number, payload)
		}
	case transport.LinkStatusMessage:
		if len(payload) > limits.MaxStatusMessageLength {
			return errBadLinkValue
		}
		if s.SetStatusMessage(payload) {
			t.fireFriendStatusMessage(s.number, payload)
		}
	case transport.LinkUserStatus:
		if len(payload) < 1 || !friend.Status(payload[0]).Valid() {
			return errBadLinkValue
		}
		if s.SetStatus(friend.Status(payload[0])) {
			t.fireFriendStatus(s.number, UserStatus(payload[0]))
		}
	case transport.LinkTyping:
		if len(payload) < 1 {
			return errBadLinkValue
		}
		if s.SetTyping(payload[0] != 0) {
			t.fireFriendTyping(s.number, payload[0] != 0)
		}
	case transport.LinkMessage:
		return t.handleLinkMessage(s, MessageTypeNormal, payload)
	case transport.LinkAction:
		return t.handleLinkMessage(s, MessageTypeAction, payload)
	case transport.LinkReceipt:
		return t.handleLinkReceipt(s, payload)
	default:
		return errBadLinkValue
	}
	return nil
}

package engine

import (
	"net"
	"time"

	"github.com/opd-ai/toxbind/dht"
	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/limits"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
)

// Iterate runs one round of the engine: queued packets are handled, timers
// fire and callbacks run. It must be called every IterationInterval.
func (t *Tox) Iterate() {
	if t.killed {
		return
	}
	now := t.now()
	t.collectRelayResults(now)

drain:
	for i := 0; i < maxPacketsPerIterate; i++ {
		select {
		case d := <-t.inbox:
			if err := t.handlePacket(d, now); err != nil {
				logrus.WithFields(logrus.Fields{
					"function":    "Iterate",
					"packet_type": d.Packet.PacketType.String(),
					"address":     d.Addr,
					"error":       err.Error(),
				}).Debug("Dropped packet")
			}
			if t.killed {
				return
			}
		default:
			break drain
		}
	}

	t.maintainDHT(now)
	t.maintainRelays(now)
	t.maintainFriends(now)
	t.updateSelfConnection(now)
}

// IterationInterval returns how long to wait before the next Iterate. The
// interval is shorter while handshakes, requests or messages are in flight.
func (t *Tox) IterationInterval() time.Duration {
	if t.busy() {
		return busyInterval
	}
	return idleInterval
}

func (t *Tox) busy() bool {
	if len(t.inbox) > 0 {
		return true
	}
	for _, s := range t.friends {
		if s == nil {
			continue
		}
		if s.handshake != nil || !s.Confirmed || s.queue.Len() > 0 || (s.session != nil && !s.verified) {
			return true
		}
	}
	for _, link := range t.relays {
		if link.dialing {
			return true
		}
	}
	return false
}

func (t *Tox) handlePacket(d transport.Datagram, now time.Time) error {
	switch d.Packet.PacketType {
	case transport.PacketPingRequest, transport.PacketPingResponse,
		transport.PacketGetNodes, transport.PacketSendNodes:
		return t.handleDHT(d, now)
	case transport.PacketFriendRequest:
		return t.handleFriendRequest(d, now)
	case transport.PacketHandshakeInit:
		return t.handleHandshakeInit(d, now)
	case transport.PacketHandshakeResponse:
		return t.handleHandshakeResponse(d, now)
	case transport.PacketSessionData:
		return t.handleSessionData(d, now)
	default:
		return errBadLinkValue
	}
}

func (t *Tox) handleDHT(d transport.Datagram, now time.Time) error {
	sender, inner, err := dht.Open(t.keyPair, d.Packet.Data)
	if err != nil {
		return err
	}
	udp, isUDP := d.Addr.(*net.UDPAddr)
	if isUDP {
		t.routing.Touch(sender, udp, now)
	}
	if s := t.slotByKey(sender); s != nil {
		t.noteFriendAddr(s, d.Addr, now)
	}

	switch d.Packet.PacketType {
	case transport.PacketPingRequest:
		id, err := dht.DecodePing(inner)
		if err != nil {
			return err
		}
		t.sendDHT(sender, d.Addr, transport.PacketPingResponse, dht.EncodePing(id))

	case transport.PacketPingResponse:
		id, err := dht.DecodePing(inner)
		if err != nil {
			return err
		}
		if !t.queries.Resolve(id, sender, now) {
			return errStale
		}
		t.dhtAnswered(sender, isUDP, now)

	case transport.PacketGetNodes:
		target, id, err := dht.DecodeGetNodes(inner)
		if err != nil {
			return err
		}
		var nodes []*dht.Node
		for _, n := range t.routing.FindClosestNodes(target, dht.MaxNodesPerResponse+1) {
			if n.PublicKey != sender {
				nodes = append(nodes, n)
			}
		}
		t.sendDHT(sender, d.Addr, transport.PacketSendNodes, dht.EncodeSendNodes(id, nodes))

	case transport.PacketSendNodes:
		id, entries, err := dht.DecodeSendNodes(inner)
		if err != nil {
			return err
		}
		if !t.queries.Resolve(id, sender, now) {
			return errStale
		}
		t.dhtAnswered(sender, isUDP, now)
		for _, e := range entries {
			t.learnNode(e, now)
		}
	}
	return nil
}

func (t *Tox) dhtAnswered(sender [32]byte, viaUDP bool, now time.Time) {
	if !viaUDP {
		return
	}
	t.lastDHTResponse = now
	if n := t.routing.Lookup(sender); n != nil {
		n.RecordPingResponse(true, now)
	}
	t.bootstrap.MarkSuccess(sender)
}

// learnNode handles one node advertised by another node. Advertised
// addresses are not authenticated, so the node is pinged before it enters
// the table.
func (t *Tox) learnNode(e dht.NodeEntry, now time.Time) {
	if e.PublicKey == t.keyPair.Public {
		return
	}
	if !t.ipv6 && e.Addr.IP.To4() == nil {
		return
	}
	if s := t.slotByKey(e.PublicKey); s != nil && s.session == nil && s.addr == nil {
		s.addr = e.Addr
		s.lastHandshake, s.lastProbe, s.lastRequestSent = time.Time{}, time.Time{}, time.Time{}
	}
	if t.routing.Lookup(e.PublicKey) == nil {
		t.sendPing(e.PublicKey, e.Addr, now)
	}
}

func (t *Tox) handleFriendRequest(d transport.Datagram, now time.Time) error {
	req, err := friend.OpenRequest(d.Packet.Data, t.keyPair)
	if err != nil {
		return err
	}
	if req.Nospam != t.nospam {
		return friend.ErrRequestNospam
	}
	if err := limits.ValidateFriendRequest(req.Message); err != nil {
		return err
	}

	if udp, ok := d.Addr.(*net.UDPAddr); ok {
		t.routing.Touch(req.SenderPublicKey, udp, now)
	}
	if s := t.slotByKey(req.SenderPublicKey); s != nil {
		// Both sides added each other; the session handshake takes over.
		t.noteFriendAddr(s, d.Addr, now)
		return nil
	}
	if len(t.peerAddrs) >= maxPeerAddrs {
		t.peerAddrs = make(map[[32]byte]net.Addr)
	}
	t.peerAddrs[req.SenderPublicKey] = d.Addr

	if !t.requests.AddRequest(req) {
		return nil
	}
	t.fireFriendRequest(req.SenderPublicKey, req.Message)
	return nil
}

func (t *Tox) maintainDHT(now time.Time) {
	t.queries.Expire(now)
	if t.udp == nil {
		return
	}
	if t.selfConnection != ConnectionUDP && now.Sub(t.lastBootstrap) >= bootstrapInterval {
		t.lastBootstrap = now
		for _, bn := range t.bootstrap.Nodes() {
			t.sendPing(bn.PublicKey, bn.Address, now)
			t.sendGetNodes(bn.PublicKey, bn.Address, t.keyPair.Public, now)
			t.bootstrap.MarkUsed(bn.PublicKey, now)
		}
	}
	for _, n := range t.routing.GetAllNodes() {
		if now.Sub(n.PingStats.LastPingSent) >= dhtPingInterval {
			n.RecordPingSent(now)
			t.sendPing(n.PublicKey, n.Address, now)
		}
	}
	t.routing.Prune(now, 2*dhtNodeTimeout)
}

func (t *Tox) maintainFriends(now time.Time) {
	for i := 0; i < len(t.friends); i++ {
		s := t.friends[i]
		if s == nil {
			continue
		}

		if s.session != nil {
			if now.Sub(s.lastReceived) > friendTimeout {
				t.goOffline(s, "timeout")
				continue
			}
			if !s.verified {
				if now.Sub(s.session.Established()) > handshakeTimeout && s.ConnectionStatus == friend.ConnectionNone {
					s.session = nil
				}
				continue
			}
			if now.Sub(s.lastPingSent) >= friendPingInterval {
				s.lastPingSent = now
				t.sendLink(s, transport.LinkPing, nil)
			}
			t.sendInfo(s)
			t.flushQueue(s)
			continue
		}

		if s.handshake != nil && now.Sub(s.handshake.Started()) > handshakeTimeout {
			s.handshake = nil
		}
		addr := t.friendAddr(s)
		if addr == nil && now.Sub(s.lastLookup) >= lookupInterval {
			s.lastLookup = now
			t.lookupFriend(s, now)
		}
		if !s.Confirmed && now.Sub(s.lastRequestSent) >= friendRequestInterval {
			if t.sendFriendRequest(s, addr) {
				s.lastRequestSent = now
			}
		}
		if isInitiator(t.keyPair.Public, s.PublicKey) {
			if now.Sub(s.lastHandshake) >= handshakeInterval {
				t.initiateHandshake(s, now)
			}
		} else if now.Sub(s.lastProbe) >= handshakeInterval && t.canReach(addr) {
			s.lastProbe = now
			t.probeFriend(s, addr, now)
		}
	}
}

// lookupFriend asks the nodes closest to a friend's key where the friend is.
func (t *Tox) lookupFriend(s *friendSlot, now time.Time) {
	if t.udp == nil {
		return
	}
	nodes := t.routing.FindClosestNodes(s.PublicKey, dht.MaxNodesPerResponse)
	for _, n := range nodes {
		t.sendGetNodes(n.PublicKey, n.Address, s.PublicKey, now)
	}
	if len(nodes) == 0 {
		for _, bn := range t.bootstrap.Nodes() {
			t.sendGetNodes(bn.PublicKey, bn.Address, s.PublicKey, now)
		}
	}
}

func (t *Tox) sendFriendRequest(s *friendSlot, addr net.Addr) bool {
	if !t.canReach(addr) {
		return false
	}
	data, err := friend.SealRequest(t.keyPair, s.PublicKey, s.Nospam, s.RequestMessage)
	if err != nil {
		return false
	}
	return t.sendToPeer(s.PublicKey, addr, &transport.Packet{PacketType: transport.PacketFriendRequest, Data: data})
}

// probeFriend pings a friend so it learns where we are. The responding side
// of a session does this while it waits for the initiator's handshake.
func (t *Tox) probeFriend(s *friendSlot, addr net.Addr, now time.Time) {
	id := t.queries.New(s.PublicKey, now)
	data, err := dht.Seal(t.keyPair, s.PublicKey, dht.EncodePing(id))
	if err != nil {
		return
	}
	t.sendToPeer(s.PublicKey, addr, &transport.Packet{PacketType: transport.PacketPingRequest, Data: data})
}

func (t *Tox) updateSelfConnection(now time.Time) {
	status := ConnectionNone
	switch {
	case t.udp != nil && !t.lastDHTResponse.IsZero() && now.Sub(t.lastDHTResponse) < dhtNodeTimeout:
		status = ConnectionUDP
	case t.anyRelayConnected():
		status = ConnectionTCP
	}
	if status == t.selfConnection {
		return
	}
	t.selfConnection = status

	logrus.WithFields(logrus.Fields{
		"function": "updateSelfConnection",
		"status":   status,
	}).Info("Self connection changed")
	t.fireSelfConnectionStatus(status)
}

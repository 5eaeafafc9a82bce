package engine

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/opd-ai/toxbind/dht"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
)

var (
	errNoUDP       = errors.New("udp disabled")
	errRelayDown   = errors.New("relay not connected")
	errUnreachable = errors.New("no route to peer")
)

// relayLink is a configured TCP relay and its current client, if any.
type relayLink struct {
	info     transport.RelayServerInfo
	client   *transport.RelayClient
	dialing  bool
	nextDial time.Time
	backoff  time.Duration
	lastPing time.Time
}

type relayResult struct {
	address string
	client  *transport.RelayClient
	err     error
}

// Bootstrap adds a DHT node to start from and queries it at once.
func (t *Tox) Bootstrap(host string, port uint16, publicKey []byte) BootstrapCode {
	if host == "" || publicKey == nil || len(publicKey) != 32 {
		return BootstrapNull
	}
	if port == 0 {
		return BootstrapBadPort
	}
	addr, err := t.resolve("udp", host, port)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Bootstrap",
			"host":     host,
			"error":    err.Error(),
		}).Warn("Cannot resolve bootstrap host")
		return BootstrapBadHost
	}

	var pk [32]byte
	copy(pk[:], publicKey)
	udpAddr := addr.(*net.UDPAddr)
	t.bootstrap.Add(udpAddr, pk)

	if t.udp != nil {
		now := t.now()
		t.sendPing(pk, udpAddr, now)
		t.sendGetNodes(pk, udpAddr, t.keyPair.Public, now)
		t.bootstrap.MarkUsed(pk, now)
	}
	return BootstrapOK
}

// AddTCPRelay adds a TCP relay and starts connecting to it in the background.
func (t *Tox) AddTCPRelay(host string, port uint16, publicKey []byte) BootstrapCode {
	if host == "" || publicKey == nil || len(publicKey) != 32 {
		return BootstrapNull
	}
	if port == 0 {
		return BootstrapBadPort
	}
	addr, err := t.resolve("tcp", host, port)
	if err != nil {
		return BootstrapBadHost
	}

	var pk [32]byte
	copy(pk[:], publicKey)
	if link := t.addRelay(transport.RelayServerInfo{Address: addr.String(), PublicKey: pk}); link != nil {
		t.startRelayDial(link)
	}
	return BootstrapOK
}

// addRelay registers a relay and returns it, or nil if it was already known.
func (t *Tox) addRelay(info transport.RelayServerInfo) *relayLink {
	if _, ok := t.relays[info.Address]; ok {
		return nil
	}
	link := &relayLink{info: info, backoff: relayBackoffMin}
	t.relays[info.Address] = link
	t.relayOrder = append(t.relayOrder, info.Address)
	return link
}

func (t *Tox) reconnectRelays() {
	for _, key := range t.relayOrder {
		t.startRelayDial(t.relays[key])
	}
}

func (t *Tox) startRelayDial(link *relayLink) {
	if t.ctx == nil || link.dialing || link.client != nil {
		return
	}
	link.dialing = true

	ctx, info, pk := t.ctx, link.info, t.keyPair.Public
	dialer, inbox, results := t.dialer, t.inbox, t.relayResults
	go func() {
		dialCtx, cancel := context.WithTimeout(ctx, relayDialTimeout)
		defer cancel()
		client, err := transport.DialRelay(dialCtx, dialer, info, pk, inbox)
		select {
		case results <- relayResult{address: info.Address, client: client, err: err}:
		case <-ctx.Done():
			if client != nil {
				client.Close()
			}
		}
	}()
}

func (t *Tox) collectRelayResults(now time.Time) {
	for {
		select {
		case r := <-t.relayResults:
			t.attachRelay(r, now)
		default:
			return
		}
	}
}

func (t *Tox) attachRelay(r relayResult, now time.Time) {
	link, ok := t.relays[r.address]
	if !ok {
		if r.client != nil {
			r.client.Close()
		}
		return
	}
	link.dialing = false
	if r.err != nil {
		link.nextDial = now.Add(link.backoff)
		logrus.WithFields(logrus.Fields{
			"function": "attachRelay",
			"address":  r.address,
			"retry_in": link.backoff.String(),
			"error":    r.err.Error(),
		}).Warn("Relay connection failed")
		link.backoff *= 2
		if link.backoff > relayBackoffMax {
			link.backoff = relayBackoffMax
		}
		return
	}

	link.client = r.client
	link.backoff = relayBackoffMin
	link.lastPing = now
	// Offline friends may now be reachable through the relay.
	for _, s := range t.friends {
		if s != nil && s.session == nil {
			s.lastHandshake, s.lastProbe, s.lastRequestSent = time.Time{}, time.Time{}, time.Time{}
		}
	}
}

func (t *Tox) maintainRelays(now time.Time) {
	for _, key := range t.relayOrder {
		link := t.relays[key]
		if link.client != nil && !link.client.IsConnected() {
			link.client.Close()
			link.client = nil
			link.nextDial = now.Add(link.backoff)
		}
		if link.client == nil {
			if !link.dialing && !now.Before(link.nextDial) {
				t.startRelayDial(link)
			}
			continue
		}
		if now.Sub(link.lastPing) >= relayPingInterval {
			link.lastPing = now
			link.client.Ping()
		}
	}
}

func (t *Tox) anyRelayConnected() bool {
	for _, link := range t.relays {
		if link.client != nil && link.client.IsConnected() {
			return true
		}
	}
	return false
}

func (t *Tox) closeRelays() {
	for _, link := range t.relays {
		if link.client != nil {
			link.client.Close()
			link.client = nil
		}
	}
	for {
		select {
		case r := <-t.relayResults:
			if r.client != nil {
				r.client.Close()
			}
		default:
			return
		}
	}
}

// sendTo writes packet to a UDP or relayed address.
func (t *Tox) sendTo(addr net.Addr, packet *transport.Packet) error {
	switch a := addr.(type) {
	case *net.UDPAddr:
		if t.udp == nil {
			return errNoUDP
		}
		return t.udp.Send(packet, a)
	case *transport.RelayedAddress:
		link, ok := t.relays[a.Relay]
		if !ok || link.client == nil {
			return errRelayDown
		}
		return link.client.Send(packet, a)
	default:
		return errUnreachable
	}
}

// sendToPeer sends to a peer we may not have an address for. Unless a UDP
// address is known the packet also goes through every connected relay.
// It reports whether any copy was written.
func (t *Tox) sendToPeer(pk [32]byte, addr net.Addr, packet *transport.Packet) bool {
	sent := false
	if addr != nil && t.sendTo(addr, packet) == nil {
		sent = true
	}
	if _, udp := addr.(*net.UDPAddr); udp && sent {
		return true
	}
	for _, key := range t.relayOrder {
		link := t.relays[key]
		if link.client == nil || !link.client.IsConnected() {
			continue
		}
		if ra, ok := addr.(*transport.RelayedAddress); ok && ra.Relay == key && sent {
			continue
		}
		if link.client.RelayTo(packet, pk) == nil {
			sent = true
		}
	}
	return sent
}

func (t *Tox) canReach(addr net.Addr) bool {
	if addr != nil {
		return true
	}
	return t.anyRelayConnected()
}

func (t *Tox) sendPing(pk [32]byte, addr net.Addr, now time.Time) {
	id := t.queries.New(pk, now)
	t.sendDHT(pk, addr, transport.PacketPingRequest, dht.EncodePing(id))
}

func (t *Tox) sendGetNodes(pk [32]byte, addr net.Addr, target [32]byte, now time.Time) {
	id := t.queries.New(pk, now)
	t.sendDHT(pk, addr, transport.PacketGetNodes, dht.EncodeGetNodes(target, id))
}

func (t *Tox) sendDHT(pk [32]byte, addr net.Addr, pt transport.PacketType, inner []byte) {
	data, err := dht.Seal(t.keyPair, pk, inner)
	if err != nil {
		return
	}
	if err := t.sendTo(addr, &transport.Packet{PacketType: pt, Data: data}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "sendDHT",
			"packet_type": pt.String(),
			"address":     addr,
			"error":       err.Error(),
		}).Debug("DHT send failed")
	}
}

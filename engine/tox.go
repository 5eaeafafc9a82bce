package engine

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/dht"
	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/limits"
	"github.com/opd-ai/toxbind/messaging"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

const (
	inboxSize       = 1024
	maxFriends      = 1024
	bucketSize      = 8
	relayResultSize = 16
)

// Tox is one engine instance.
type Tox struct {
	keyPair       *crypto.KeyPair
	nospam        uint32
	name          []byte
	statusMessage []byte
	status        UserStatus
	epoch         uint32

	ipv6 bool

	friends  []*friendSlot
	requests *friend.RequestManager
	ids      messaging.IDAllocator
	// peerAddrs remembers where request senders were last heard from.
	peerAddrs map[[32]byte]net.Addr

	routing   *dht.RoutingTable
	bootstrap *dht.BootstrapList
	queries   *dht.QueryTracker

	inbox        chan transport.Datagram
	udp          *transport.UDPTransport
	relayServer  *transport.RelayServer
	dialer       proxy.Dialer
	relays       map[string]*relayLink
	relayOrder   []string
	relayResults chan relayResult

	selfConnection  Connection
	lastDHTResponse time.Time
	lastBootstrap   time.Time

	timeProvider crypto.TimeProvider
	ctx          context.Context
	cancel       context.CancelFunc
	killed       bool

	cb callbacks
}

// New creates an engine from opts. Checks run in a fixed order and the first
// failing one decides the code.
func New(opts *Options) (*Tox, NewCode) {
	if opts == nil {
		return nil, NewNull
	}

	dialer, code := proxyDialer(opts)
	if code != NewOK {
		return nil, code
	}

	t := &Tox{
		ipv6:         opts.IPv6Enabled,
		requests:     friend.NewRequestManager(),
		peerAddrs:    make(map[[32]byte]net.Addr),
		bootstrap:    dht.NewBootstrapList(),
		queries:      dht.NewQueryTracker(queryTimeout),
		inbox:        make(chan transport.Datagram, inboxSize),
		dialer:       dialer,
		relays:       make(map[string]*relayLink),
		relayResults: make(chan relayResult, relayResultSize),
		timeProvider: opts.TimeProvider,
	}
	if t.timeProvider == nil {
		t.timeProvider = crypto.DefaultTimeProvider{}
	}
	t.epoch = randomUint32()

	if code := t.load(opts); code != NewOK {
		return nil, code
	}
	t.routing = dht.NewRoutingTable(t.keyPair.Public, bucketSize)
	t.ctx, t.cancel = context.WithCancel(context.Background())

	if opts.UDPEnabled {
		udp, err := transport.ListenUDPRange(transport.UDPConfig{
			IPv6Enabled: opts.IPv6Enabled,
			StartPort:   opts.StartPort,
			EndPort:     opts.EndPort,
		}, t.inbox)
		if err != nil {
			t.cancel()
			return nil, NewPortAlloc
		}
		t.udp = udp
	}

	if opts.TCPPort != 0 {
		server, err := transport.ListenRelay(t.keyPair.Public, opts.IPv6Enabled, opts.TCPPort)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "New",
				"tcp_port": opts.TCPPort,
				"error":    err.Error(),
			}).Error("Failed to start relay server")
			if t.udp != nil {
				t.udp.Close()
			}
			t.cancel()
			return nil, NewPortAlloc
		}
		t.relayServer = server
	}

	t.reconnectRelays()

	logrus.WithFields(logrus.Fields{
		"function":    "New",
		"public_key":  t.keyPair.Public[:8],
		"udp_enabled": t.udp != nil,
		"friends":     len(t.friends),
	}).Info("Engine created")
	return t, NewOK
}

// proxyDialer validates the proxy settings and builds the relay dialer.
func proxyDialer(opts *Options) (proxy.Dialer, NewCode) {
	if opts.ProxyType > ProxyTypeSOCKS5 {
		return nil, NewProxyBadType
	}
	if opts.ProxyType == ProxyTypeNone {
		d, _ := transport.NewDialer(nil)
		return d, NewOK
	}
	if opts.ProxyHost == "" || len(opts.ProxyHost) > limits.MaxProxyHostLength {
		return nil, NewProxyBadHost
	}
	if opts.ProxyPort == 0 {
		return nil, NewProxyBadPort
	}
	if _, err := net.LookupHost(opts.ProxyHost); err != nil {
		return nil, NewProxyNotFound
	}

	cfg := &transport.ProxyConfig{Type: "socks5", Host: opts.ProxyHost, Port: opts.ProxyPort}
	if opts.ProxyType == ProxyTypeHTTP {
		cfg.Type = "http"
	}
	d, err := transport.NewDialer(cfg)
	if err != nil {
		return nil, NewProxyBadType
	}
	return d, NewOK
}

func randomUint32() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.BigEndian.Uint32(b[:])
}

// Kill shuts the engine down. Online friends are told we are leaving.
// Calling Kill more than once is harmless.
func (t *Tox) Kill() {
	if t.killed {
		return
	}
	t.killed = true

	for _, s := range t.friends {
		if s != nil && s.session != nil {
			t.sendLink(s, transport.LinkOffline, nil)
		}
	}

	t.cancel()
	if t.udp != nil {
		t.udp.Close()
	}
	t.closeRelays()
	if t.relayServer != nil {
		t.relayServer.Close()
	}
	crypto.WipeKeyPair(t.keyPair)

	logrus.WithFields(logrus.Fields{
		"function": "Kill",
	}).Info("Engine killed")
}

func (t *Tox) now() time.Time {
	return t.timeProvider.Now()
}

// SelfGetAddress returns our 38-byte Tox address.
func (t *Tox) SelfGetAddress() [crypto.ToxIDSize]byte {
	var out [crypto.ToxIDSize]byte
	id := crypto.NewToxID(t.keyPair.Public, crypto.NospamFromUint32(t.nospam))
	copy(out[:], id.Bytes())
	return out
}

// SelfGetPublicKey returns our long-term public key.
func (t *Tox) SelfGetPublicKey() [32]byte {
	return t.keyPair.Public
}

// SelfGetSecretKey returns our long-term secret key.
func (t *Tox) SelfGetSecretKey() [32]byte {
	return t.keyPair.Private
}

// SelfSetNospam changes the nospam part of our address.
func (t *Tox) SelfSetNospam(nospam uint32) {
	t.nospam = nospam
}

// SelfGetNospam returns the nospam part of our address.
func (t *Tox) SelfGetNospam() uint32 {
	return t.nospam
}

// SelfSetName sets our nickname. Friends learn it on the next iteration.
func (t *Tox) SelfSetName(name []byte) SetInfoCode {
	if name == nil {
		return SetInfoNull
	}
	if len(name) > limits.MaxNameLength {
		return SetInfoTooLong
	}
	t.name = append(t.name[:0:0], name...)
	t.markFriendsDirty(func(s *friendSlot) { s.dirtyName = true })
	return SetInfoOK
}

// SelfGetNameSize returns the length of our nickname.
func (t *Tox) SelfGetNameSize() int {
	return len(t.name)
}

// SelfGetName copies our nickname into dst and returns the bytes copied.
func (t *Tox) SelfGetName(dst []byte) int {
	return copy(dst, t.name)
}

// SelfSetStatusMessage sets our status message.
func (t *Tox) SelfSetStatusMessage(message []byte) SetInfoCode {
	if message == nil {
		return SetInfoNull
	}
	if len(message) > limits.MaxStatusMessageLength {
		return SetInfoTooLong
	}
	t.statusMessage = append(t.statusMessage[:0:0], message...)
	t.markFriendsDirty(func(s *friendSlot) { s.dirtyStatusMessage = true })
	return SetInfoOK
}

// SelfGetStatusMessageSize returns the length of our status message.
func (t *Tox) SelfGetStatusMessageSize() int {
	return len(t.statusMessage)
}

// SelfGetStatusMessage copies our status message into dst.
func (t *Tox) SelfGetStatusMessage(dst []byte) int {
	return copy(dst, t.statusMessage)
}

// SelfSetStatus sets our presence. Unknown values are ignored.
func (t *Tox) SelfSetStatus(status UserStatus) {
	if status > UserStatusBusy {
		return
	}
	t.status = status
	t.markFriendsDirty(func(s *friendSlot) { s.dirtyStatus = true })
}

// SelfGetStatus returns our presence.
func (t *Tox) SelfGetStatus() UserStatus {
	return t.status
}

// SelfGetConnectionStatus returns our connection to the network.
func (t *Tox) SelfGetConnectionStatus() Connection {
	return t.selfConnection
}

// SelfGetUDPPort returns the port the UDP socket is bound to.
func (t *Tox) SelfGetUDPPort() (uint16, GetPortCode) {
	if t.udp == nil {
		return 0, GetPortNotBound
	}
	return t.udp.Port(), GetPortOK
}

// SelfGetTCPPort returns the port the relay server listens on.
func (t *Tox) SelfGetTCPPort() (uint16, GetPortCode) {
	if t.relayServer == nil {
		return 0, GetPortNotBound
	}
	return t.relayServer.Port(), GetPortOK
}

func (t *Tox) markFriendsDirty(mark func(*friendSlot)) {
	for _, s := range t.friends {
		if s != nil {
			mark(s)
		}
	}
}

// resolve looks host up for the given network, rejecting IPv6 results when
// IPv6 is disabled.
func (t *Tox) resolve(network, host string, port uint16) (net.Addr, error) {
	if !t.ipv6 {
		network += "4"
	}
	hostport := net.JoinHostPort(host, strconv.Itoa(int(port)))
	if network[:3] == "tcp" {
		return net.ResolveTCPAddr(network, hostport)
	}
	addr, err := net.ResolveUDPAddr(network, hostport)
	if err != nil {
		return nil, err
	}
	if !t.ipv6 && addr.IP.To4() == nil {
		return nil, errors.New("ipv6 address while ipv6 is disabled")
	}
	return addr, nil
}

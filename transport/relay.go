package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// RelayState represents the current state of a relay connection.
type RelayState uint8

const (
	// RelayStateDisconnected means not connected to the relay.
	RelayStateDisconnected RelayState = iota
	// RelayStateConnecting means connection is in progress.
	RelayStateConnecting
	// RelayStateConnected means connected and ready for relay.
	RelayStateConnected
)

// ErrRelayKeyMismatch is returned when the relay answers with another public key.
var ErrRelayKeyMismatch = errors.New("relay public key mismatch")

// RelayServerInfo contains information about a TCP relay server.
type RelayServerInfo struct {
	Address   string
	PublicKey [32]byte
}

// RelayClient is one connection to a TCP relay. Frames delivered by the relay
// are posted to the inbox with a RelayedAddress source.
type RelayClient struct {
	server  RelayServerInfo
	conn    net.Conn
	inbox   chan<- Datagram
	state   RelayState
	mu      sync.RWMutex
	done    chan struct{}
	timeout time.Duration
}

// DialRelay connects to a relay through dialer, registers localPublicKey and
// checks that the relay holds the expected key.
func DialRelay(ctx context.Context, dialer proxy.Dialer, server RelayServerInfo, localPublicKey [32]byte, inbox chan<- Datagram) (*RelayClient, error) {
	if dialer == nil {
		dialer = proxy.Direct
	}

	logrus.WithFields(logrus.Fields{
		"function": "DialRelay",
		"address":  server.Address,
	}).Debug("Connecting to relay")

	conn, err := dialContext(ctx, dialer, server.Address)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", server.Address, err)
	}

	rc := &RelayClient{
		server:  server,
		conn:    conn,
		inbox:   inbox,
		state:   RelayStateConnecting,
		done:    make(chan struct{}),
		timeout: helloTimeout,
	}
	if err := rc.performHandshake(localPublicKey); err != nil {
		conn.Close()
		return nil, err
	}

	rc.setState(RelayStateConnected)
	go rc.readLoop()

	logrus.WithFields(logrus.Fields{
		"function":   "DialRelay",
		"address":    server.Address,
		"public_key": server.PublicKey[:8],
	}).Info("Relay connected")
	return rc, nil
}

func dialContext(ctx context.Context, dialer proxy.Dialer, address string) (net.Conn, error) {
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", address)
	}
	return dialer.Dial("tcp", address)
}

func (rc *RelayClient) performHandshake(localPublicKey [32]byte) error {
	if err := rc.conn.SetDeadline(time.Now().Add(rc.timeout)); err != nil {
		return err
	}
	if err := writeFrame(rc.conn, FrameHello, localPublicKey[:]); err != nil {
		return fmt.Errorf("relay hello: %w", err)
	}
	ft, payload, err := readFrame(rc.conn)
	if err != nil {
		return fmt.Errorf("relay hello ack: %w", err)
	}
	if ft != FrameHelloAck || len(payload) != 32 {
		return errors.New("relay answered hello with unexpected frame")
	}
	var key [32]byte
	copy(key[:], payload)
	if key != rc.server.PublicKey {
		return ErrRelayKeyMismatch
	}
	return rc.conn.SetDeadline(time.Time{})
}

// RelayTo sends a packet to the peer holding targetPublicKey on this relay.
func (rc *RelayClient) RelayTo(packet *Packet, targetPublicKey [32]byte) error {
	if !rc.IsConnected() {
		return errors.New("relay not connected")
	}
	payload, err := keyedPayload(targetPublicKey, packet)
	if err != nil {
		return err
	}
	if err := writeFrame(rc.conn, FrameRoute, payload); err != nil {
		rc.handleDisconnect()
		return err
	}
	return nil
}

// Send implements Transport for packets addressed with a RelayedAddress.
func (rc *RelayClient) Send(packet *Packet, addr net.Addr) error {
	ra, ok := addr.(*RelayedAddress)
	if !ok {
		return fmt.Errorf("relay cannot send to %s address", addr.Network())
	}
	return rc.RelayTo(packet, ra.PeerKey)
}

// Ping writes a keepalive frame.
func (rc *RelayClient) Ping() error {
	if !rc.IsConnected() {
		return errors.New("relay not connected")
	}
	if err := writeFrame(rc.conn, FramePing, nil); err != nil {
		rc.handleDisconnect()
		return err
	}
	return nil
}

func (rc *RelayClient) readLoop() {
	defer close(rc.done)
	for {
		ft, payload, err := readFrame(rc.conn)
		if err != nil {
			rc.handleDisconnect()
			return
		}
		if ft != FrameDeliver {
			continue
		}
		src, data, err := splitKeyedPayload(payload)
		if err != nil {
			continue
		}
		packet, err := ParsePacket(data)
		if err != nil {
			continue
		}
		post(rc.inbox, Datagram{
			Packet: packet,
			Addr:   &RelayedAddress{Relay: rc.server.Address, PeerKey: src},
		})
	}
}

func (rc *RelayClient) handleDisconnect() {
	rc.mu.Lock()
	wasConnected := rc.state == RelayStateConnected
	rc.state = RelayStateDisconnected
	rc.mu.Unlock()

	rc.conn.Close()
	if wasConnected {
		logrus.WithFields(logrus.Fields{
			"function": "handleDisconnect",
			"address":  rc.server.Address,
		}).Warn("Relay disconnected")
	}
}

func (rc *RelayClient) setState(state RelayState) {
	rc.mu.Lock()
	rc.state = state
	rc.mu.Unlock()
}

// GetState returns the connection state.
func (rc *RelayClient) GetState() RelayState {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.state
}

// IsConnected reports whether frames can be sent.
func (rc *RelayClient) IsConnected() bool {
	return rc.GetState() == RelayStateConnected
}

// Server returns the relay this client is attached to.
func (rc *RelayClient) Server() RelayServerInfo {
	return rc.server
}

// LocalAddr returns the local end of the TCP connection.
func (rc *RelayClient) LocalAddr() net.Addr {
	return rc.conn.LocalAddr()
}

// Close disconnects and waits for the reader to exit.
func (rc *RelayClient) Close() error {
	rc.handleDisconnect()
	<-rc.done
	return nil
}

package transport

import (
	"fmt"
	"net"
)

// Datagram is a received packet waiting for the engine.
type Datagram struct {
	Packet *Packet
	Addr   net.Addr
}

// Transport defines the interface for network transports used by the engine.
type Transport interface {
	// Send sends a packet to the specified address.
	Send(packet *Packet, addr net.Addr) error

	// Close shuts down the transport.
	Close() error

	// LocalAddr returns the local address the transport is listening on.
	LocalAddr() net.Addr
}

// RelayedAddress names a peer reached through a TCP relay.
type RelayedAddress struct {
	Relay   string
	PeerKey [32]byte
}

// Network returns the network type for a relayed address.
func (ra *RelayedAddress) Network() string {
	return "relay"
}

func (ra *RelayedAddress) String() string {
	return fmt.Sprintf("relay://%s/%x", ra.Relay, ra.PeerKey[:8])
}

// post hands d to the engine without blocking. It reports false when the
// inbox is full and the packet was dropped.
func post(inbox chan<- Datagram, d Datagram) bool {
	select {
	case inbox <- d:
		return true
	default:
		return false
	}
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/opd-ai/toxbind/limits"
	"github.com/sirupsen/logrus"
)

// ErrPortAlloc is returned when no port in the configured range could be bound.
var ErrPortAlloc = errors.New("no port available in range")

// UDPConfig selects the socket the engine listens on.
type UDPConfig struct {
	IPv6Enabled bool
	StartPort   uint16
	EndPort     uint16
}

// UDPTransport implements UDP-based communication for the engine.
// It satisfies the Transport interface.
type UDPTransport struct {
	conn   net.PacketConn
	inbox  chan<- Datagram
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// portRange normalizes the configured range. Both zero means any port; a
// single zero bound means the other one only.
func (c UDPConfig) portRange() (uint16, uint16) {
	start, end := c.StartPort, c.EndPort
	switch {
	case start == 0 && end == 0:
		return 0, 0
	case start == 0:
		return end, end
	case end == 0:
		return start, start
	case start > end:
		return end, start
	}
	return start, end
}

// ListenUDPRange binds the first free port in the configured range and starts
// delivering packets to inbox.
func ListenUDPRange(cfg UDPConfig, inbox chan<- Datagram) (*UDPTransport, error) {
	network := "udp4"
	if cfg.IPv6Enabled {
		network = "udp"
	}

	start, end := cfg.portRange()
	var lastErr error
	for port := uint32(start); port <= uint32(end); port++ {
		conn, err := net.ListenPacket(network, fmt.Sprintf(":%d", port))
		if err != nil {
			lastErr = err
			continue
		}
		return newUDPTransport(conn, inbox), nil
	}

	logrus.WithFields(logrus.Fields{
		"function":   "ListenUDPRange",
		"start_port": start,
		"end_port":   end,
		"error":      lastErr,
	}).Error("Failed to bind UDP socket")
	return nil, fmt.Errorf("%w: %d-%d: %v", ErrPortAlloc, start, end, lastErr)
}

func newUDPTransport(conn net.PacketConn, inbox chan<- Datagram) *UDPTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &UDPTransport{
		conn:   conn,
		inbox:  inbox,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.processPackets()
	return t
}

// Send sends a packet to the specified address.
func (t *UDPTransport) Send(packet *Packet, addr net.Addr) error {
	data, err := packet.Serialize()
	if err != nil {
		return err
	}

	_, err = t.conn.WriteTo(data, addr)
	return err
}

// Close shuts down the transport and waits for the reader to exit.
func (t *UDPTransport) Close() error {
	t.cancel()
	err := t.conn.Close()
	<-t.done
	return err
}

// LocalAddr returns the local address the transport is listening on.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Port returns the bound UDP port.
func (t *UDPTransport) Port() uint16 {
	if ua, ok := t.conn.LocalAddr().(*net.UDPAddr); ok {
		return uint16(ua.Port)
	}
	return 0
}

// processPackets reads datagrams until the transport is closed.
func (t *UDPTransport) processPackets() {
	defer close(t.done)
	buffer := make([]byte, limits.MaxPacketSize)

	for {
		n, addr, err := t.conn.ReadFrom(buffer)
		if err != nil {
			if t.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		packet, err := ParsePacket(buffer[:n])
		if err != nil {
			continue
		}
		if !post(t.inbox, Datagram{Packet: packet, Addr: addr}) {
			logrus.WithFields(logrus.Fields{
				"function":    "processPackets",
				"packet_type": packet.PacketType,
				"from":        addr.String(),
			}).Debug("Inbox full, dropping packet")
		}
	}
}

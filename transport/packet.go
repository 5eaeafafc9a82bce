// Package transport implements the network transport layer used by the engine.
//
// This package handles packet framing, the UDP socket, TCP relays and proxy
// dialing. Transports never call into the engine: every received packet is
// posted to a channel the engine drains during its iteration.
//
// Example:
//
//	inbox := make(chan transport.Datagram, 256)
//	udp, err := transport.ListenUDPRange(transport.UDPConfig{StartPort: 33445, EndPort: 33545}, inbox)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = udp.Send(&transport.Packet{PacketType: transport.PacketPingRequest, Data: data}, addr)
package transport

import (
	"errors"
)

// PacketType identifies the type of a packet on the wire.
type PacketType byte

const (
	// DHT packet types
	PacketPingRequest PacketType = iota + 1
	PacketPingResponse
	PacketGetNodes
	PacketSendNodes

	// Friend related packet types
	PacketFriendRequest

	// Friend session packet types
	PacketHandshakeInit
	PacketHandshakeResponse
	PacketSessionData
)

// String returns a readable name for logging.
func (t PacketType) String() string {
	switch t {
	case PacketPingRequest:
		return "ping_request"
	case PacketPingResponse:
		return "ping_response"
	case PacketGetNodes:
		return "get_nodes"
	case PacketSendNodes:
		return "send_nodes"
	case PacketFriendRequest:
		return "friend_request"
	case PacketHandshakeInit:
		return "handshake_init"
	case PacketHandshakeResponse:
		return "handshake_response"
	case PacketSessionData:
		return "session_data"
	default:
		return "unknown"
	}
}

// LinkType identifies a friend-link packet carried inside session data.
type LinkType byte

const (
	LinkPing LinkType = iota + 1
	LinkOffline
	LinkNickname
	LinkStatusMessage
	LinkUserStatus
	LinkTyping
	LinkMessage
	LinkAction
	LinkReceipt
)

// Packet represents a packet on the wire.
type Packet struct {
	PacketType PacketType
	Data       []byte
}

// Serialize converts a packet to a byte slice for transmission.
func (p *Packet) Serialize() ([]byte, error) {
	if p.Data == nil {
		return nil, errors.New("packet data is nil")
	}

	// Format: [packet type (1 byte)][data (variable length)]
	result := make([]byte, 1+len(p.Data))
	result[0] = byte(p.PacketType)
	copy(result[1:], p.Data)

	return result, nil
}

// ParsePacket converts a byte slice to a Packet structure.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < 1 {
		return nil, errors.New("packet too short")
	}

	packet := &Packet{
		PacketType: PacketType(data[0]),
		Data:       make([]byte, len(data)-1),
	}
	copy(packet.Data, data[1:])

	return packet, nil
}

// NodePacket is the sealed envelope used by DHT and friend request packets.
type NodePacket struct {
	PublicKey [32]byte
	Nonce     [24]byte
	Payload   []byte
}

// Serialize converts a NodePacket to a byte slice.
func (np *NodePacket) Serialize() []byte {
	// Format: [public key (32 bytes)][nonce (24 bytes)][payload (variable)]
	result := make([]byte, 32+24+len(np.Payload))

	copy(result[0:32], np.PublicKey[:])
	copy(result[32:56], np.Nonce[:])
	copy(result[56:], np.Payload)

	return result
}

// ParseNodePacket converts a byte slice to a NodePacket structure.
func ParseNodePacket(data []byte) (*NodePacket, error) {
	if len(data) < 56 { // 32 (pubkey) + 24 (nonce)
		return nil, errors.New("node packet too short")
	}

	packet := &NodePacket{
		Payload: make([]byte, len(data)-56),
	}

	copy(packet.PublicKey[:], data[0:32])
	copy(packet.Nonce[:], data[32:56])
	copy(packet.Payload, data[56:])

	return packet, nil
}

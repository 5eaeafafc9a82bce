package dht

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/transport"
)

const (
	// pingIDSize is the length of the request id echoed in replies.
	pingIDSize = 8
	// nodeEntrySize is public key, IPv6 or IPv4-mapped address and port.
	nodeEntrySize = 32 + 16 + 2
	// MaxNodesPerResponse bounds the entries in one send-nodes packet.
	MaxNodesPerResponse = 4
)

var (
	// ErrPayloadTooShort is returned for DHT payloads shorter than their fixed part.
	ErrPayloadTooShort = errors.New("dht payload too short")
	// ErrNodeCount is returned when a send-nodes packet claims more entries than it holds.
	ErrNodeCount = errors.New("dht node count does not match payload")
)

// NodeEntry is one node advertised in a send-nodes reply.
type NodeEntry struct {
	PublicKey [32]byte
	Addr      *net.UDPAddr
}

// Seal wraps inner in a NodePacket encrypted from self to recipient.
func Seal(self *crypto.KeyPair, recipient [32]byte, inner []byte) ([]byte, error) {
	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return nil, err
	}
	sealed, err := crypto.Encrypt(inner, nonce, recipient, self.Private)
	if err != nil {
		return nil, fmt.Errorf("seal dht packet: %w", err)
	}
	np := &transport.NodePacket{PublicKey: self.Public, Nonce: nonce, Payload: sealed}
	return np.Serialize(), nil
}

// Open authenticates a NodePacket addressed to self and returns the sender
// and the inner payload.
func Open(self *crypto.KeyPair, data []byte) ([32]byte, []byte, error) {
	np, err := transport.ParseNodePacket(data)
	if err != nil {
		return [32]byte{}, nil, err
	}
	inner, err := crypto.Decrypt(np.Payload, crypto.Nonce(np.Nonce), np.PublicKey, self.Private)
	if err != nil {
		return [32]byte{}, nil, err
	}
	return np.PublicKey, inner, nil
}

// EncodePing builds the inner payload of a ping request or response.
func EncodePing(id uint64) []byte {
	b := make([]byte, pingIDSize)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// DecodePing extracts the ping id.
func DecodePing(data []byte) (uint64, error) {
	if len(data) < pingIDSize {
		return 0, ErrPayloadTooShort
	}
	return binary.BigEndian.Uint64(data[:pingIDSize]), nil
}

// EncodeGetNodes builds the inner payload of a get-nodes request:
// [target public key(32)][request id(8)].
func EncodeGetNodes(target [32]byte, id uint64) []byte {
	b := make([]byte, 32+pingIDSize)
	copy(b[:32], target[:])
	binary.BigEndian.PutUint64(b[32:], id)
	return b
}

// DecodeGetNodes extracts the target key and request id.
func DecodeGetNodes(data []byte) ([32]byte, uint64, error) {
	var target [32]byte
	if len(data) < 32+pingIDSize {
		return target, 0, ErrPayloadTooShort
	}
	copy(target[:], data[:32])
	return target, binary.BigEndian.Uint64(data[32 : 32+pingIDSize]), nil
}

// EncodeSendNodes builds a send-nodes reply:
// [request id(8)][count(1)][entries(50 bytes each)].
// Nodes without a UDP address are skipped.
func EncodeSendNodes(id uint64, nodes []*Node) []byte {
	entries := make([]byte, 0, len(nodes)*nodeEntrySize)
	count := 0
	for _, n := range nodes {
		if count == MaxNodesPerResponse {
			break
		}
		udp, ok := n.Address.(*net.UDPAddr)
		if !ok {
			continue
		}
		entries = append(entries, encodeNodeEntry(n.PublicKey, udp)...)
		count++
	}

	b := make([]byte, pingIDSize+1, pingIDSize+1+len(entries))
	binary.BigEndian.PutUint64(b[:pingIDSize], id)
	b[pingIDSize] = byte(count)
	return append(b, entries...)
}

// DecodeSendNodes extracts the request id and node entries.
func DecodeSendNodes(data []byte) (uint64, []NodeEntry, error) {
	if len(data) < pingIDSize+1 {
		return 0, nil, ErrPayloadTooShort
	}
	id := binary.BigEndian.Uint64(data[:pingIDSize])
	count := int(data[pingIDSize])
	body := data[pingIDSize+1:]
	if count > MaxNodesPerResponse || len(body) != count*nodeEntrySize {
		return 0, nil, ErrNodeCount
	}

	entries := make([]NodeEntry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, decodeNodeEntry(body[i*nodeEntrySize:(i+1)*nodeEntrySize]))
	}
	return id, entries, nil
}

func encodeNodeEntry(pk [32]byte, addr *net.UDPAddr) []byte {
	b := make([]byte, nodeEntrySize)
	copy(b[:32], pk[:])
	// To16 stores IPv4 in the IPv4-mapped form.
	copy(b[32:48], addr.IP.To16())
	binary.BigEndian.PutUint16(b[48:], uint16(addr.Port))
	return b
}

func decodeNodeEntry(b []byte) NodeEntry {
	var e NodeEntry
	copy(e.PublicKey[:], b[:32])
	ip := make(net.IP, 16)
	copy(ip, b[32:48])
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	e.Addr = &net.UDPAddr{IP: ip, Port: int(binary.BigEndian.Uint16(b[48:]))}
	return e
}

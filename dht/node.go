package dht

import (
	"net"
	"time"
)

// NodeStatus represents the connection status of a node.
type NodeStatus uint8

const (
	StatusUnknown NodeStatus = iota
	StatusBad
	StatusGood
)

// PingStats tracks ping statistics for a node.
type PingStats struct {
	LastPingSent     time.Time
	LastPingReceived time.Time
	PingCount        uint32
	SuccessCount     uint32
	FailureCount     uint32
}

// Node represents a peer in the DHT.
type Node struct {
	PublicKey [32]byte
	Address   net.Addr
	LastSeen  time.Time
	Status    NodeStatus
	PingStats PingStats
}

// NewNode creates a node object with the given key and network address.
func NewNode(publicKey [32]byte, addr net.Addr, now time.Time) *Node {
	return &Node{
		PublicKey: publicKey,
		Address:   addr,
		LastSeen:  now,
		Status:    StatusUnknown,
	}
}

// Distance calculates the XOR distance between this node and a key.
func (n *Node) Distance(key [32]byte) [32]byte {
	var result [32]byte
	for i := 0; i < 32; i++ {
		result[i] = n.PublicKey[i] ^ key[i]
	}
	return result
}

// IsActive checks if the node has been seen within the timeout period.
func (n *Node) IsActive(now time.Time, timeout time.Duration) bool {
	return now.Sub(n.LastSeen) < timeout
}

// Update marks the node as seen at now and updates its status.
func (n *Node) Update(status NodeStatus, now time.Time) {
	n.LastSeen = now
	n.Status = status
}

// RecordPingSent marks that a ping was sent to this node.
func (n *Node) RecordPingSent(now time.Time) {
	n.PingStats.LastPingSent = now
	n.PingStats.PingCount++
}

// RecordPingResponse marks the outcome of a ping.
func (n *Node) RecordPingResponse(success bool, now time.Time) {
	if success {
		n.PingStats.LastPingReceived = now
		n.PingStats.SuccessCount++
		n.Update(StatusGood, now)
		return
	}
	n.PingStats.FailureCount++
	if n.PingStats.FailureCount > n.PingStats.SuccessCount {
		n.Status = StatusBad
	}
}

package dht

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BootstrapNode is a node the user told us to start from.
type BootstrapNode struct {
	Address   *net.UDPAddr
	PublicKey [32]byte
	LastUsed  time.Time
	Success   bool
}

// BootstrapList holds the configured bootstrap nodes. Adding the same key
// and address twice keeps one entry.
type BootstrapList struct {
	nodes []*BootstrapNode
	mu    sync.RWMutex
}

// NewBootstrapList creates an empty list.
func NewBootstrapList() *BootstrapList {
	return &BootstrapList{}
}

// Add records a bootstrap node and reports whether it was new.
func (bl *BootstrapList) Add(addr *net.UDPAddr, publicKey [32]byte) bool {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	for _, n := range bl.nodes {
		if n.PublicKey == publicKey && n.Address.String() == addr.String() {
			return false
		}
	}
	bl.nodes = append(bl.nodes, &BootstrapNode{Address: addr, PublicKey: publicKey})

	logrus.WithFields(logrus.Fields{
		"function":   "Add",
		"address":    addr.String(),
		"public_key": publicKey[:8],
	}).Info("Adding bootstrap node")
	return true
}

// MarkUsed records a query sent to the node at now.
func (bl *BootstrapList) MarkUsed(publicKey [32]byte, now time.Time) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	for _, n := range bl.nodes {
		if n.PublicKey == publicKey {
			n.LastUsed = now
		}
	}
}

// MarkSuccess records that the node answered.
func (bl *BootstrapList) MarkSuccess(publicKey [32]byte) bool {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	found := false
	for _, n := range bl.nodes {
		if n.PublicKey == publicKey {
			n.Success = true
			found = true
		}
	}
	return found
}

// Nodes returns a copy of the list.
func (bl *BootstrapList) Nodes() []BootstrapNode {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	out := make([]BootstrapNode, len(bl.nodes))
	for i, n := range bl.nodes {
		out[i] = *n
	}
	return out
}

// Len returns the number of bootstrap nodes.
func (bl *BootstrapList) Len() int {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	return len(bl.nodes)
}

type pendingQuery struct {
	publicKey [32]byte
	sent      time.Time
}

// QueryTracker matches replies to the requests we sent. A reply is accepted
// only once, only from the node the request went to, and only before it
// expires.
type QueryTracker struct {
	pending map[uint64]pendingQuery
	timeout time.Duration
}

// NewQueryTracker creates a tracker that forgets requests after timeout.
func NewQueryTracker(timeout time.Duration) *QueryTracker {
	return &QueryTracker{
		pending: make(map[uint64]pendingQuery),
		timeout: timeout,
	}
}

// New allocates a random id for a request sent to publicKey at now.
func (qt *QueryTracker) New(publicKey [32]byte, now time.Time) uint64 {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		id := binary.BigEndian.Uint64(b[:])
		if _, taken := qt.pending[id]; id != 0 && !taken {
			qt.pending[id] = pendingQuery{publicKey: publicKey, sent: now}
			return id
		}
	}
}

// Resolve consumes id if it was sent to publicKey and has not expired.
func (qt *QueryTracker) Resolve(id uint64, publicKey [32]byte, now time.Time) bool {
	q, ok := qt.pending[id]
	if !ok || q.publicKey != publicKey {
		return false
	}
	delete(qt.pending, id)
	return now.Sub(q.sent) <= qt.timeout
}

// Expire drops requests older than the timeout.
func (qt *QueryTracker) Expire(now time.Time) int {
	n := 0
	for id, q := range qt.pending {
		if now.Sub(q.sent) > qt.timeout {
			delete(qt.pending, id)
			n++
		}
	}
	return n
}

// Len returns the number of outstanding requests.
func (qt *QueryTracker) Len() int {
	return len(qt.pending)
}

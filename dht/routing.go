package dht

import (
	"container/heap"
	"net"
	"sync"
	"time"
)

// KBucket implements a k-bucket for the Kademlia DHT.
type KBucket struct {
	nodes   []*Node
	maxSize int
	mu      sync.RWMutex
}

// NewKBucket creates a new k-bucket with the specified maximum size.
func NewKBucket(maxSize int) *KBucket {
	return &KBucket{
		nodes:   make([]*Node, 0, maxSize),
		maxSize: maxSize,
	}
}

// AddNode adds a node to the k-bucket if there is space or if it's better than an existing node.
func (kb *KBucket) AddNode(node *Node) bool {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	for i, existing := range kb.nodes {
		if existing.PublicKey == node.PublicKey {
			// Move to the end (most recently seen)
			kb.nodes = append(kb.nodes[:i], kb.nodes[i+1:]...)
			kb.nodes = append(kb.nodes, node)
			return true
		}
	}

	if len(kb.nodes) < kb.maxSize {
		kb.nodes = append(kb.nodes, node)
		return true
	}

	// The bucket is full, check if we can replace a bad node
	for i, existing := range kb.nodes {
		if existing.Status == StatusBad {
			kb.nodes[i] = node
			return true
		}
	}
	return false
}

// GetNodes returns a copy of all nodes in the k-bucket.
func (kb *KBucket) GetNodes() []*Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	result := make([]*Node, len(kb.nodes))
	copy(result, kb.nodes)
	return result
}

// RemoveNode removes the node with publicKey and reports whether it was present.
func (kb *KBucket) RemoveNode(publicKey [32]byte) bool {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	for i, node := range kb.nodes {
		if node.PublicKey == publicKey {
			kb.nodes = append(kb.nodes[:i], kb.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// RoutingTable manages k-buckets for the DHT routing.
type RoutingTable struct {
	kBuckets [256]*KBucket
	selfKey  [32]byte
	mu       sync.RWMutex
}

// NewRoutingTable creates a new DHT routing table.
func NewRoutingTable(selfKey [32]byte, maxBucketSize int) *RoutingTable {
	rt := &RoutingTable{selfKey: selfKey}
	for i := 0; i < 256; i++ {
		rt.kBuckets[i] = NewKBucket(maxBucketSize)
	}
	return rt
}

func (rt *RoutingTable) bucketFor(publicKey [32]byte) *KBucket {
	var dist [32]byte
	for i := range dist {
		dist[i] = publicKey[i] ^ rt.selfKey[i]
	}
	return rt.kBuckets[getBucketIndex(dist)]
}

// AddNode adds a node to the appropriate k-bucket in the routing table.
func (rt *RoutingTable) AddNode(node *Node) bool {
	if node.PublicKey == rt.selfKey {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.bucketFor(node.PublicKey).AddNode(node)
}

// Touch records that publicKey was heard from at addr. The node is added if
// it was unknown and its address is refreshed if it moved.
func (rt *RoutingTable) Touch(publicKey [32]byte, addr net.Addr, now time.Time) *Node {
	if publicKey == rt.selfKey {
		return nil
	}
	if n := rt.Lookup(publicKey); n != nil {
		rt.mu.Lock()
		n.Address = addr
		n.Update(StatusGood, now)
		rt.mu.Unlock()
		return n
	}
	n := NewNode(publicKey, addr, now)
	n.Status = StatusGood
	if !rt.AddNode(n) {
		return nil
	}
	return n
}

// Lookup returns the node with publicKey or nil.
func (rt *RoutingTable) Lookup(publicKey [32]byte) *Node {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	for _, n := range rt.bucketFor(publicKey).GetNodes() {
		if n.PublicKey == publicKey {
			return n
		}
	}
	return nil
}

// RemoveNode drops the node with publicKey.
func (rt *RoutingTable) RemoveNode(publicKey [32]byte) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.bucketFor(publicKey).RemoveNode(publicKey)
}

// nodeHeap implements heap.Interface for finding closest nodes efficiently.
// It's a max-heap based on distance, keeping the k closest nodes.
type nodeHeap struct {
	nodes     []*Node
	distances [][32]byte
	target    [32]byte
}

func (h *nodeHeap) Len() int { return len(h.nodes) }

func (h *nodeHeap) Less(i, j int) bool {
	// Max-heap: return true if i is farther than j
	return lessDistance(h.distances[j], h.distances[i])
}

func (h *nodeHeap) Swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
	h.distances[i], h.distances[j] = h.distances[j], h.distances[i]
}

func (h *nodeHeap) Push(x interface{}) {
	item := x.(*Node)
	h.nodes = append(h.nodes, item)
	h.distances = append(h.distances, item.Distance(h.target))
}

func (h *nodeHeap) Pop() interface{} {
	n := len(h.nodes)
	item := h.nodes[n-1]
	h.nodes = h.nodes[:n-1]
	h.distances = h.distances[:n-1]
	return item
}

// FindClosestNodes finds the count closest nodes to target, closest first.
func (rt *RoutingTable) FindClosestNodes(target [32]byte, count int) []*Node {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if count <= 0 {
		return []*Node{}
	}

	h := &nodeHeap{
		nodes:     make([]*Node, 0, count),
		distances: make([][32]byte, 0, count),
		target:    target,
	}

	for _, bucket := range rt.kBuckets {
		for _, node := range bucket.GetNodes() {
			if len(h.nodes) < count {
				heap.Push(h, node)
				continue
			}
			if lessDistance(node.Distance(target), h.distances[0]) {
				heap.Pop(h)
				heap.Push(h, node)
			}
		}
	}

	result := make([]*Node, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(*Node)
	}
	return result
}

// GetAllNodes returns all nodes from all k-buckets in the routing table.
func (rt *RoutingTable) GetAllNodes() []*Node {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	var all []*Node
	for _, bucket := range rt.kBuckets {
		all = append(all, bucket.GetNodes()...)
	}
	return all
}

// CountActive returns the number of nodes heard from within timeout.
func (rt *RoutingTable) CountActive(now time.Time, timeout time.Duration) int {
	count := 0
	for _, n := range rt.GetAllNodes() {
		if n.IsActive(now, timeout) {
			count++
		}
	}
	return count
}

// Prune removes nodes not heard from within timeout.
func (rt *RoutingTable) Prune(now time.Time, timeout time.Duration) int {
	removed := 0
	for _, n := range rt.GetAllNodes() {
		if !n.IsActive(now, timeout) && rt.RemoveNode(n.PublicKey) {
			removed++
		}
	}
	return removed
}

// getBucketIndex determines which k-bucket a node belongs in based on distance.
func getBucketIndex(distance [32]byte) int {
	for i := 0; i < 32; i++ {
		if distance[i] == 0 {
			continue
		}
		b := distance[i]
		for j := 0; j < 8; j++ {
			if (b>>(7-j))&1 == 1 {
				return i*8 + j
			}
		}
	}
	return 255
}

// lessDistance compares two distances and returns true if a is less than b.
func lessDistance(a, b [32]byte) bool {
	for i := 0; i < 32; i++ {
		if a[i] < b[i] {
			return true
		} else if a[i] > b[i] {
			return false
		}
	}
	return false
}

package messaging

// receiveWindowSize is how many recent message ids are remembered per sender.
const receiveWindowSize = 512

// ReceiveTracker suppresses messages a sender retransmitted after the first
// copy was already delivered. Ids are scoped to the sender's epoch, a random
// value chosen once per engine instance, so a restarted peer reusing small
// ids is not mistaken for a duplicate.
type ReceiveTracker struct {
	epoch uint32
	seen  map[uint32]struct{}
	order []uint32
}

// NewReceiveTracker creates an empty tracker.
func NewReceiveTracker() *ReceiveTracker {
	return &ReceiveTracker{seen: make(map[uint32]struct{})}
}

// Observe records (epoch, id) and reports whether it is seen for the first time.
func (r *ReceiveTracker) Observe(epoch, id uint32) bool {
	if epoch != r.epoch {
		r.epoch = epoch
		r.seen = make(map[uint32]struct{})
		r.order = r.order[:0]
	}
	if _, dup := r.seen[id]; dup {
		return false
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	if len(r.order) > receiveWindowSize {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	return true
}

package crypto

import "sync"

// ReplayWindowSize is how far behind the highest accepted counter a packet may arrive.
const ReplayWindowSize = 64

// ReplayWindow rejects duplicate or stale packet counters on a session.
// Counters start at 1; zero is never valid.
type ReplayWindow struct {
	mu     sync.Mutex
	latest uint64
	bitmap uint64
}

// Check reports whether counter is acceptable without recording it.
func (w *ReplayWindow) Check(counter uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.check(counter)
}

func (w *ReplayWindow) check(counter uint64) bool {
	if counter == 0 {
		return false
	}
	if counter > w.latest {
		return true
	}
	diff := w.latest - counter
	if diff >= ReplayWindowSize {
		return false
	}
	return w.bitmap&(1<<diff) == 0
}

// Accept records counter if it is fresh and reports whether it was.
func (w *ReplayWindow) Accept(counter uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.check(counter) {
		return false
	}
	if counter > w.latest {
		shift := counter - w.latest
		if shift >= ReplayWindowSize {
			w.bitmap = 0
		} else {
			w.bitmap <<= shift
		}
		w.bitmap |= 1
		w.latest = counter
		return true
	}
	w.bitmap |= 1 << (w.latest - counter)
	return true
}

// Reset forgets all recorded counters, used when a session is re-keyed.
func (w *ReplayWindow) Reset() {
	w.mu.Lock()
	w.latest, w.bitmap = 0, 0
	w.mu.Unlock()
}

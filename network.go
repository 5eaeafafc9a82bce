package toxbind

import (
	"context"
	"errors"
	"time"

	"github.com/opd-ai/toxbind/internal/instrument"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned by Run when another Run is driving the
// handle.
var ErrAlreadyRunning = errors.New("toxbind: loop already running")

// Bootstrap adds a DHT node to connect through.
func (t *Tox) Bootstrap(host string, port uint16, publicKey PublicKey) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return translate(CategoryBootstrap, uint32(t.native.Bootstrap(host, port, publicKey[:])))
}

// AddTCPRelay adds a TCP relay to connect through when UDP is unavailable.
func (t *Tox) AddTCPRelay(host string, port uint16, publicKey PublicKey) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return translate(CategoryBootstrap, uint32(t.native.AddTCPRelay(host, port, publicKey[:])))
}

// IterationInterval returns how long to wait before the next Iterate. It
// changes with the engine's state, so query it every cycle. A killed handle
// returns 0.
func (t *Tox) IterationInterval() time.Duration {
	if err := t.lock(); err != nil {
		return 0
	}
	defer t.mu.Unlock()
	return t.native.IterationInterval()
}

// Iterate advances the engine by one step. Handlers for the events it
// produced run after the engine returns, on the calling goroutine, with the
// handle unlocked, so they may call back into it.
func (t *Tox) Iterate() {
	dispatch(t.step())
}

// step runs the native iterate under the lock and takes the events it
// recorded. If the native step panics the lock is still released and the
// partial events are discarded.
func (t *Tox) step() (events []pendingEvent) {
	if err := t.lock(); err != nil {
		return nil
	}
	defer func() {
		events, t.pending = t.pending, nil
		t.mu.Unlock()
	}()

	start := time.Now()
	t.native.Iterate()
	instrument.Iteration(time.Since(start))
	return nil
}

// Run calls Iterate at the engine's interval until ctx is done or the handle
// is killed. It returns ctx.Err() on cancellation and nil after Kill.
func (t *Tox) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer t.running.Store(false)

	logrus.WithFields(logrus.Fields{
		"function": "Run",
	}).Info("Network loop started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function": "Run",
				"reason":   ctx.Err().Error(),
			}).Info("Network loop stopped")
			return ctx.Err()
		case <-timer.C:
		}

		t.Iterate()
		if t.Killed() {
			logrus.WithFields(logrus.Fields{
				"function": "Run",
				"reason":   "killed",
			}).Info("Network loop stopped")
			return nil
		}
		timer.Reset(t.IterationInterval())
	}
}

// IsRunning reports whether Run is driving the handle.
func (t *Tox) IsRunning() bool {
	return t.running.Load()
}

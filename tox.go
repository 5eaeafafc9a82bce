package toxbind

import (
	"sync"
	"sync/atomic"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/engine"
	"github.com/sirupsen/logrus"
)

// Tox owns one native engine instance. All access to the instance goes
// through one mutex, and every method returns ErrKilled once Kill has run.
type Tox struct {
	mu     sync.Mutex
	native Native
	killed bool

	// lib and options are set only for handles built by New. The options
	// struct is freed by Kill.
	lib     Library
	options *engine.Options

	fromSavedata bool
	restored     bool
	running      atomic.Bool

	slots     [eventKindCount]slot
	installed [eventKindCount]bool
	// pending holds events recorded by the native thunks during Iterate.
	pending []pendingEvent
}

// New creates an engine from opts using DefaultLibrary. A nil opts uses
// NewOptions.
func New(opts *Options) (*Tox, error) {
	return NewWithLibrary(DefaultLibrary, opts)
}

// NewWithLibrary creates an engine through lib. On failure the options
// struct allocated for the call is freed before the error is returned.
func NewWithLibrary(lib Library, opts *Options) (*Tox, error) {
	if opts == nil {
		opts = NewOptions()
	}

	nativeOpts, code := lib.OptionsNew()
	if err := translate(CategoryOptionsNew, uint32(code)); err != nil {
		logFailure("NewWithLibrary", err)
		return nil, err
	}
	if nativeOpts == nil {
		err := &ContractError{Category: CategoryOptionsNew, Code: uint32(code)}
		logFailure("NewWithLibrary", err)
		return nil, err
	}
	opts.fill(nativeOpts)

	native, newCode := lib.New(nativeOpts)
	err := translate(CategoryNew, uint32(newCode))
	if err == nil && native == nil {
		err = &ContractError{Category: CategoryNew, Code: uint32(newCode)}
	}
	if err != nil {
		crypto.ZeroBytes(nativeOpts.SavedataData)
		lib.OptionsFree(nativeOpts)
		logFailure("NewWithLibrary", err)
		return nil, err
	}
	// The blob copy is not needed once the engine has loaded it.
	crypto.ZeroBytes(nativeOpts.SavedataData)
	nativeOpts.SavedataData = nil

	t := &Tox{
		native:       native,
		lib:          lib,
		options:      nativeOpts,
		fromSavedata: len(opts.Savedata) > 0,
	}
	pk := native.SelfGetPublicKey()
	crypto.NewLogger("toxbind", "NewWithLibrary").
		WithField("from_savedata", t.fromSavedata).
		WithKey("public_key", pk).
		Info("Tox handle created")
	return t, nil
}

// Restore adopts a native instance the caller already owns. Ownership moves
// to the returned handle unconditionally; the instance is not validated.
func Restore(native Native) *Tox {
	return &Tox{native: native, restored: true}
}

func logFailure(function string, err error) {
	logrus.WithFields(logrus.Fields{
		"function": function,
		"error":    err.Error(),
	}).Error("Tox handle creation failed")
}

// lock acquires the handle for one native call sequence.
func (t *Tox) lock() error {
	t.mu.Lock()
	if t.killed {
		t.mu.Unlock()
		return ErrKilled
	}
	return nil
}

// Kill destroys the native instance and, for handles built by New, frees
// the options struct. It blocks until a running Iterate returns. Calls
// after the first do nothing.
func (t *Tox) Kill() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.killed {
		return
	}
	t.killed = true
	t.native.Kill()
	if t.lib != nil && t.options != nil {
		t.lib.OptionsFree(t.options)
	}
	t.options = nil
	t.pending = nil
	t.slots = [eventKindCount]slot{}

	logrus.WithFields(logrus.Fields{
		"function": "Kill",
		"restored": t.restored,
	}).Info("Tox handle killed")
}

// Killed reports whether Kill has run.
func (t *Tox) Killed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.killed
}

// FromSavedata reports whether the handle was created from saved state.
func (t *Tox) FromSavedata() bool {
	return t.fromSavedata
}

// Restored reports whether the handle adopted an existing native instance.
func (t *Tox) Restored() bool {
	return t.restored
}

// Savedata returns the engine state for Options.Savedata. The size is
// queried first so the returned slice is exactly as long as the state.
func (t *Tox) Savedata() ([]byte, error) {
	if err := t.lock(); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	size := t.native.GetSavedataSize()
	data := make([]byte, size)
	n := t.native.GetSavedata(data)
	return data[:n], nil
}

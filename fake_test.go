package toxbind

import (
	"time"

	"github.com/opd-ai/toxbind/engine"
)

// fakeLibrary hands out a fakeNative and counts options allocations.
type fakeLibrary struct {
	optionsCode engine.OptionsNewCode
	newCode     engine.NewCode
	native      *fakeNative

	allocated int
	freed     int
	savedata  []byte
	options   *engine.Options
}

func (l *fakeLibrary) OptionsNew() (*engine.Options, engine.OptionsNewCode) {
	if l.optionsCode != engine.OptionsNewOK {
		return nil, l.optionsCode
	}
	l.allocated++
	opts, code := engine.OptionsNew()
	l.options = opts
	return opts, code
}

func (l *fakeLibrary) OptionsFree(opts *engine.Options) {
	l.freed++
}

func (l *fakeLibrary) New(opts *engine.Options) (Native, engine.NewCode) {
	l.savedata = append([]byte(nil), opts.SavedataData[:opts.SavedataLength]...)
	if l.newCode != engine.NewOK {
		return nil, l.newCode
	}
	return l.native, engine.NewOK
}

// fakeNative implements the calls the tests use. Anything else panics
// through the nil embedded interface.
type fakeNative struct {
	Native

	kills       int
	deleteCode  engine.FriendDeleteCode
	sendCode    engine.FriendSendMessageCode
	typingCalls []uint32
	deleted     []uint32
	sends       int
	statuses    []engine.UserStatus
	savedata    []byte

	onMessage    engine.FriendMessageFunc
	onName       engine.FriendNameFunc
	onConnection engine.SelfConnectionStatusFunc
	// iterate runs inside Iterate, where the engine fires callbacks.
	iterate func(n *fakeNative)
}

func (n *fakeNative) Kill()                            { n.kills++ }
func (n *fakeNative) SelfGetPublicKey() [32]byte       { return [32]byte{1, 2, 3} }
func (n *fakeNative) IterationInterval() time.Duration { return time.Millisecond }
func (n *fakeNative) GetSavedataSize() int             { return len(n.savedata) }
func (n *fakeNative) GetSavedata(dst []byte) int       { return copy(dst, n.savedata) }

func (n *fakeNative) Iterate() {
	if n.iterate != nil {
		n.iterate(n)
	}
}

func (n *fakeNative) FriendDelete(friendNumber uint32) engine.FriendDeleteCode {
	n.deleted = append(n.deleted, friendNumber)
	return n.deleteCode
}

func (n *fakeNative) SelfSetTyping(friendNumber uint32, typing bool) engine.SetTypingCode {
	n.typingCalls = append(n.typingCalls, friendNumber)
	return engine.SetTypingOK
}

func (n *fakeNative) SelfSetStatus(status engine.UserStatus) {
	n.statuses = append(n.statuses, status)
}

func (n *fakeNative) FriendSendMessage(friendNumber uint32, kind engine.MessageType, message []byte) (uint32, engine.FriendSendMessageCode) {
	n.sends++
	if n.sendCode != engine.FriendSendMessageOK {
		return 7, n.sendCode
	}
	return 1, engine.FriendSendMessageOK
}

func (n *fakeNative) CallbackFriendMessage(cb engine.FriendMessageFunc, userData interface{}) {
	n.onMessage = cb
}

func (n *fakeNative) CallbackFriendName(cb engine.FriendNameFunc, userData interface{}) {
	n.onName = cb
}

func (n *fakeNative) CallbackSelfConnectionStatus(cb engine.SelfConnectionStatusFunc, userData interface{}) {
	n.onConnection = cb
}

func newFake() (*fakeLibrary, *fakeNative) {
	native := &fakeNative{}
	return &fakeLibrary{native: native}, native
}

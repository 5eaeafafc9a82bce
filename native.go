package toxbind

import (
	"time"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/engine"
)

// Native is the engine instance a handle owns. Every fallible call returns
// its result together with a numeric code that must be checked first.
// *engine.Tox implements it.
type Native interface {
	Kill()
	GetSavedataSize() int
	GetSavedata(dst []byte) int

	Bootstrap(host string, port uint16, publicKey []byte) engine.BootstrapCode
	AddTCPRelay(host string, port uint16, publicKey []byte) engine.BootstrapCode
	IterationInterval() time.Duration
	Iterate()

	SelfGetConnectionStatus() engine.Connection
	SelfGetAddress() [crypto.ToxIDSize]byte
	SelfGetPublicKey() [32]byte
	SelfGetSecretKey() [32]byte
	SelfSetNospam(nospam uint32)
	SelfGetNospam() uint32
	SelfSetName(name []byte) engine.SetInfoCode
	SelfGetNameSize() int
	SelfGetName(dst []byte) int
	SelfSetStatusMessage(message []byte) engine.SetInfoCode
	SelfGetStatusMessageSize() int
	SelfGetStatusMessage(dst []byte) int
	SelfSetStatus(status engine.UserStatus)
	SelfGetStatus() engine.UserStatus
	SelfGetUDPPort() (uint16, engine.GetPortCode)
	SelfGetTCPPort() (uint16, engine.GetPortCode)

	FriendAdd(address []byte, message []byte) (uint32, engine.FriendAddCode)
	FriendAddNoRequest(publicKey []byte) (uint32, engine.FriendAddCode)
	FriendDelete(friendNumber uint32) engine.FriendDeleteCode
	FriendByPublicKey(publicKey []byte) (uint32, engine.FriendByPublicKeyCode)
	FriendGetPublicKey(friendNumber uint32) ([32]byte, engine.FriendGetPublicKeyCode)
	FriendExists(friendNumber uint32) bool
	SelfGetFriendListSize() int
	SelfGetFriendList(dst []uint32) int
	FriendGetLastOnline(friendNumber uint32) (uint64, engine.FriendGetLastOnlineCode)
	FriendGetNameSize(friendNumber uint32) (int, engine.FriendQueryCode)
	FriendGetName(friendNumber uint32, dst []byte) engine.FriendQueryCode
	FriendGetStatusMessageSize(friendNumber uint32) (int, engine.FriendQueryCode)
	FriendGetStatusMessage(friendNumber uint32, dst []byte) engine.FriendQueryCode
	FriendGetStatus(friendNumber uint32) (engine.UserStatus, engine.FriendQueryCode)
	FriendGetConnectionStatus(friendNumber uint32) (engine.Connection, engine.FriendQueryCode)
	FriendGetTyping(friendNumber uint32) (bool, engine.FriendQueryCode)

	SelfSetTyping(friendNumber uint32, typing bool) engine.SetTypingCode
	FriendSendMessage(friendNumber uint32, kind engine.MessageType, message []byte) (uint32, engine.FriendSendMessageCode)

	CallbackSelfConnectionStatus(cb engine.SelfConnectionStatusFunc, userData interface{})
	CallbackFriendName(cb engine.FriendNameFunc, userData interface{})
	CallbackFriendStatusMessage(cb engine.FriendStatusMessageFunc, userData interface{})
	CallbackFriendStatus(cb engine.FriendStatusFunc, userData interface{})
	CallbackFriendConnectionStatus(cb engine.FriendConnectionStatusFunc, userData interface{})
	CallbackFriendTyping(cb engine.FriendTypingFunc, userData interface{})
	CallbackFriendReadReceipt(cb engine.FriendReadReceiptFunc, userData interface{})
	CallbackFriendRequest(cb engine.FriendRequestFunc, userData interface{})
	CallbackFriendMessage(cb engine.FriendMessageFunc, userData interface{})
}

// Library creates native instances and owns the options structs they are
// built from.
type Library interface {
	OptionsNew() (*engine.Options, engine.OptionsNewCode)
	OptionsFree(opts *engine.Options)
	New(opts *engine.Options) (Native, engine.NewCode)
}

// DefaultLibrary is the in-process engine.
var DefaultLibrary Library = engineLibrary{}

type engineLibrary struct{}

func (engineLibrary) OptionsNew() (*engine.Options, engine.OptionsNewCode) {
	return engine.OptionsNew()
}

func (engineLibrary) OptionsFree(opts *engine.Options) {
	engine.OptionsFree(opts)
}

func (engineLibrary) New(opts *engine.Options) (Native, engine.NewCode) {
	t, code := engine.New(opts)
	if t == nil {
		return nil, code
	}
	return t, code
}

var _ Native = (*engine.Tox)(nil)

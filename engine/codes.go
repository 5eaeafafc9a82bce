package engine

import "fmt"

// OptionsNewCode is the result of OptionsNew.
type OptionsNewCode uint32

const (
	OptionsNewOK OptionsNewCode = iota
	OptionsNewMalloc
)

// NewCode is the result of New.
type NewCode uint32

const (
	NewOK NewCode = iota
	NewNull
	NewMalloc
	NewPortAlloc
	NewProxyBadType
	NewProxyBadHost
	NewProxyBadPort
	NewProxyNotFound
	NewLoadEncrypted
	NewLoadBadFormat
)

// BootstrapCode is the result of Bootstrap and AddTCPRelay.
type BootstrapCode uint32

const (
	BootstrapOK BootstrapCode = iota
	BootstrapNull
	BootstrapBadHost
	BootstrapBadPort
)

// SetInfoCode is the result of the self name and status message setters.
type SetInfoCode uint32

const (
	SetInfoOK SetInfoCode = iota
	SetInfoNull
	SetInfoTooLong
)

// FriendAddCode is the result of FriendAdd and FriendAddNoRequest.
type FriendAddCode uint32

const (
	FriendAddOK FriendAddCode = iota
	FriendAddNull
	FriendAddTooLong
	FriendAddNoMessage
	FriendAddOwnKey
	FriendAddAlreadySent
	FriendAddBadChecksum
	FriendAddSetNewNospam
	FriendAddMalloc
)

// FriendDeleteCode is the result of FriendDelete.
type FriendDeleteCode uint32

const (
	FriendDeleteOK FriendDeleteCode = iota
	FriendDeleteFriendNotFound
)

// FriendByPublicKeyCode is the result of FriendByPublicKey.
type FriendByPublicKeyCode uint32

const (
	FriendByPublicKeyOK FriendByPublicKeyCode = iota
	FriendByPublicKeyNull
	FriendByPublicKeyNotFound
)

// FriendGetPublicKeyCode is the result of FriendGetPublicKey.
type FriendGetPublicKeyCode uint32

const (
	FriendGetPublicKeyOK FriendGetPublicKeyCode = iota
	FriendGetPublicKeyFriendNotFound
)

// FriendGetLastOnlineCode is the result of FriendGetLastOnline.
type FriendGetLastOnlineCode uint32

const (
	FriendGetLastOnlineOK FriendGetLastOnlineCode = iota
	FriendGetLastOnlineFriendNotFound
)

// FriendQueryCode is the result of the friend attribute getters.
type FriendQueryCode uint32

const (
	FriendQueryOK FriendQueryCode = iota
	FriendQueryNull
	FriendQueryFriendNotFound
)

// SetTypingCode is the result of SelfSetTyping.
type SetTypingCode uint32

const (
	SetTypingOK SetTypingCode = iota
	SetTypingFriendNotFound
)

// FriendSendMessageCode is the result of FriendSendMessage.
type FriendSendMessageCode uint32

const (
	FriendSendMessageOK FriendSendMessageCode = iota
	FriendSendMessageNull
	FriendSendMessageFriendNotFound
	FriendSendMessageFriendNotConnected
	FriendSendMessageSendQ
	FriendSendMessageTooLong
	FriendSendMessageEmpty
)

// GetPortCode is the result of the port getters.
type GetPortCode uint32

const (
	GetPortOK GetPortCode = iota
	GetPortNotBound
)

var newCodeNames = [...]string{"OK", "NULL", "MALLOC", "PORT_ALLOC", "PROXY_BAD_TYPE",
	"PROXY_BAD_HOST", "PROXY_BAD_PORT", "PROXY_NOT_FOUND", "LOAD_ENCRYPTED", "LOAD_BAD_FORMAT"}

func (c NewCode) String() string {
	if int(c) < len(newCodeNames) {
		return newCodeNames[c]
	}
	return fmt.Sprintf("NewCode(%d)", uint32(c))
}

var friendAddCodeNames = [...]string{"OK", "NULL", "TOO_LONG", "NO_MESSAGE", "OWN_KEY",
	"ALREADY_SENT", "BAD_CHECKSUM", "SET_NEW_NOSPAM", "MALLOC"}

func (c FriendAddCode) String() string {
	if int(c) < len(friendAddCodeNames) {
		return friendAddCodeNames[c]
	}
	return fmt.Sprintf("FriendAddCode(%d)", uint32(c))
}

var sendMessageCodeNames = [...]string{"OK", "NULL", "FRIEND_NOT_FOUND", "FRIEND_NOT_CONNECTED",
	"SENDQ", "TOO_LONG", "EMPTY"}

func (c FriendSendMessageCode) String() string {
	if int(c) < len(sendMessageCodeNames) {
		return sendMessageCodeNames[c]
	}
	return fmt.Sprintf("FriendSendMessageCode(%d)", uint32(c))
}

var bootstrapCodeNames = [...]string{"OK", "NULL", "BAD_HOST", "BAD_PORT"}

func (c BootstrapCode) String() string {
	if int(c) < len(bootstrapCodeNames) {
		return bootstrapCodeNames[c]
	}
	return fmt.Sprintf("BootstrapCode(%d)", uint32(c))
}

package toxbind

import (
	"errors"
	"fmt"

	"github.com/opd-ai/toxbind/engine"
	"github.com/opd-ai/toxbind/internal/instrument"
	"github.com/sirupsen/logrus"
)

// Category identifies the operation family an engine code belongs to.
// Codes of one category are never interpreted with another category's table.
type Category uint8

const (
	CategoryOptionsNew Category = iota
	CategoryNew
	CategoryBootstrap
	CategorySetInfo
	CategoryFriendAdd
	CategoryFriendDelete
	CategoryFriendByPublicKey
	CategoryFriendGetPublicKey
	CategoryFriendGetLastOnline
	CategoryFriendQuery
	CategorySetTyping
	CategoryFriendSendMessage
	CategoryGetPort
)

var categoryNames = [...]string{
	CategoryOptionsNew:          "options_new",
	CategoryNew:                 "new",
	CategoryBootstrap:           "bootstrap",
	CategorySetInfo:             "set_info",
	CategoryFriendAdd:           "friend_add",
	CategoryFriendDelete:        "friend_delete",
	CategoryFriendByPublicKey:   "friend_by_public_key",
	CategoryFriendGetPublicKey:  "friend_get_public_key",
	CategoryFriendGetLastOnline: "friend_get_last_online",
	CategoryFriendQuery:         "friend_query",
	CategorySetTyping:           "set_typing",
	CategoryFriendSendMessage:   "friend_send_message",
	CategoryGetPort:             "get_port",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Class groups reasons by how a caller should react to them.
type Class uint8

const (
	// ClassArgument means the call was misused: fix the input.
	ClassArgument Class = iota
	// ClassNotFound means the friend or node named by the call does not exist.
	ClassNotFound
	// ClassAllocation means the engine ran out of a resource: retry later.
	ClassAllocation
	// ClassState means the call is valid but not possible right now.
	ClassState
	// ClassNetwork covers port binding and address resolution failures.
	ClassNetwork
	// ClassLoad covers saved state the engine cannot read.
	ClassLoad
)

func (c Class) String() string {
	switch c {
	case ClassArgument:
		return "argument"
	case ClassNotFound:
		return "not found"
	case ClassAllocation:
		return "allocation"
	case ClassState:
		return "state"
	case ClassNetwork:
		return "network"
	case ClassLoad:
		return "load"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Error is a failure reported by the engine: a category and one reason
// from that category's table.
type Error struct {
	Category Category
	Code     uint32

	reason string
	class  Class
}

func (e *Error) Error() string {
	return fmt.Sprintf("toxbind: %s: %s", e.Category, e.reason)
}

// Reason returns the reason name, e.g. "friend not found".
func (e *Error) Reason() string {
	return e.reason
}

// Class reports how the caller should react to the error.
func (e *Error) Class() Class {
	return e.class
}

// Is matches any *Error with the same category and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Category == e.Category && t.Code == e.Code
}

func reason(c Category, code uint32, name string, class Class) *Error {
	return &Error{Category: c, Code: code, reason: name, class: class}
}

// ErrContractViolation is wrapped by every *ContractError.
var ErrContractViolation = errors.New("toxbind: engine contract violated")

// ErrKilled is returned by every operation on a handle after Kill.
var ErrKilled = errors.New("toxbind: handle killed")

// ContractError reports an engine code outside its category's table. It is
// a defect in the binding or the engine, never a protocol failure.
type ContractError struct {
	Category Category
	Code     uint32
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%v: %s returned unknown code %d", ErrContractViolation, e.Category, e.Code)
}

func (e *ContractError) Unwrap() error {
	return ErrContractViolation
}

var (
	ErrOptionsNewMalloc = reason(CategoryOptionsNew, uint32(engine.OptionsNewMalloc), "allocation failed", ClassAllocation)

	ErrNewNull          = reason(CategoryNew, uint32(engine.NewNull), "null argument", ClassArgument)
	ErrNewMalloc        = reason(CategoryNew, uint32(engine.NewMalloc), "allocation failed", ClassAllocation)
	ErrNewPortAlloc     = reason(CategoryNew, uint32(engine.NewPortAlloc), "could not bind a port", ClassNetwork)
	ErrNewProxyBadType  = reason(CategoryNew, uint32(engine.NewProxyBadType), "invalid proxy type", ClassArgument)
	ErrNewProxyBadHost  = reason(CategoryNew, uint32(engine.NewProxyBadHost), "invalid proxy host", ClassArgument)
	ErrNewProxyBadPort  = reason(CategoryNew, uint32(engine.NewProxyBadPort), "invalid proxy port", ClassArgument)
	ErrNewProxyNotFound = reason(CategoryNew, uint32(engine.NewProxyNotFound), "proxy address could not be resolved", ClassNetwork)
	ErrNewLoadEncrypted = reason(CategoryNew, uint32(engine.NewLoadEncrypted), "saved state is encrypted", ClassLoad)
	ErrNewLoadBadFormat = reason(CategoryNew, uint32(engine.NewLoadBadFormat), "saved state is corrupt or incompatible", ClassLoad)

	ErrBootstrapNull    = reason(CategoryBootstrap, uint32(engine.BootstrapNull), "null argument", ClassArgument)
	ErrBootstrapBadHost = reason(CategoryBootstrap, uint32(engine.BootstrapBadHost), "host could not be resolved", ClassNetwork)
	ErrBootstrapBadPort = reason(CategoryBootstrap, uint32(engine.BootstrapBadPort), "invalid port", ClassArgument)

	ErrSetInfoNull    = reason(CategorySetInfo, uint32(engine.SetInfoNull), "null argument", ClassArgument)
	ErrSetInfoTooLong = reason(CategorySetInfo, uint32(engine.SetInfoTooLong), "too long", ClassArgument)

	ErrFriendAddNull         = reason(CategoryFriendAdd, uint32(engine.FriendAddNull), "null argument", ClassArgument)
	ErrFriendAddTooLong      = reason(CategoryFriendAdd, uint32(engine.FriendAddTooLong), "request message too long", ClassArgument)
	ErrFriendAddNoMessage    = reason(CategoryFriendAdd, uint32(engine.FriendAddNoMessage), "empty request message", ClassArgument)
	ErrFriendAddOwnKey       = reason(CategoryFriendAdd, uint32(engine.FriendAddOwnKey), "address is our own", ClassArgument)
	ErrFriendAddAlreadySent  = reason(CategoryFriendAdd, uint32(engine.FriendAddAlreadySent), "request already sent or friend present", ClassState)
	ErrFriendAddBadChecksum  = reason(CategoryFriendAdd, uint32(engine.FriendAddBadChecksum), "address checksum mismatch", ClassArgument)
	ErrFriendAddSetNewNospam = reason(CategoryFriendAdd, uint32(engine.FriendAddSetNewNospam), "friend present with a different nospam", ClassState)
	ErrFriendAddMalloc       = reason(CategoryFriendAdd, uint32(engine.FriendAddMalloc), "friend list full", ClassAllocation)

	ErrFriendDeleteFriendNotFound = reason(CategoryFriendDelete, uint32(engine.FriendDeleteFriendNotFound), "friend not found", ClassNotFound)

	ErrFriendByPublicKeyNull     = reason(CategoryFriendByPublicKey, uint32(engine.FriendByPublicKeyNull), "null argument", ClassArgument)
	ErrFriendByPublicKeyNotFound = reason(CategoryFriendByPublicKey, uint32(engine.FriendByPublicKeyNotFound), "no friend with that key", ClassNotFound)

	ErrFriendGetPublicKeyFriendNotFound = reason(CategoryFriendGetPublicKey, uint32(engine.FriendGetPublicKeyFriendNotFound), "friend not found", ClassNotFound)

	ErrFriendGetLastOnlineFriendNotFound = reason(CategoryFriendGetLastOnline, uint32(engine.FriendGetLastOnlineFriendNotFound), "friend not found", ClassNotFound)

	ErrFriendQueryNull           = reason(CategoryFriendQuery, uint32(engine.FriendQueryNull), "null argument", ClassArgument)
	ErrFriendQueryFriendNotFound = reason(CategoryFriendQuery, uint32(engine.FriendQueryFriendNotFound), "friend not found", ClassNotFound)

	ErrSetTypingFriendNotFound = reason(CategorySetTyping, uint32(engine.SetTypingFriendNotFound), "friend not found", ClassNotFound)

	ErrSendMessageNull               = reason(CategoryFriendSendMessage, uint32(engine.FriendSendMessageNull), "null argument", ClassArgument)
	ErrSendMessageFriendNotFound     = reason(CategoryFriendSendMessage, uint32(engine.FriendSendMessageFriendNotFound), "friend not found", ClassNotFound)
	ErrSendMessageFriendNotConnected = reason(CategoryFriendSendMessage, uint32(engine.FriendSendMessageFriendNotConnected), "friend not connected", ClassState)
	ErrSendMessageSendQ              = reason(CategoryFriendSendMessage, uint32(engine.FriendSendMessageSendQ), "send queue full", ClassAllocation)
	ErrSendMessageTooLong            = reason(CategoryFriendSendMessage, uint32(engine.FriendSendMessageTooLong), "message too long", ClassArgument)
	ErrSendMessageEmpty              = reason(CategoryFriendSendMessage, uint32(engine.FriendSendMessageEmpty), "empty message", ClassArgument)

	ErrGetPortNotBound = reason(CategoryGetPort, uint32(engine.GetPortNotBound), "port not bound", ClassState)
)

// reasonTables maps each category's codes to its reasons. Index 0 is OK.
var reasonTables = map[Category][]*Error{
	CategoryOptionsNew: {nil, ErrOptionsNewMalloc},
	CategoryNew: {nil, ErrNewNull, ErrNewMalloc, ErrNewPortAlloc, ErrNewProxyBadType,
		ErrNewProxyBadHost, ErrNewProxyBadPort, ErrNewProxyNotFound, ErrNewLoadEncrypted, ErrNewLoadBadFormat},
	CategoryBootstrap:  {nil, ErrBootstrapNull, ErrBootstrapBadHost, ErrBootstrapBadPort},
	CategorySetInfo:    {nil, ErrSetInfoNull, ErrSetInfoTooLong},
	CategoryFriendAdd: {nil, ErrFriendAddNull, ErrFriendAddTooLong, ErrFriendAddNoMessage, ErrFriendAddOwnKey,
		ErrFriendAddAlreadySent, ErrFriendAddBadChecksum, ErrFriendAddSetNewNospam, ErrFriendAddMalloc},
	CategoryFriendDelete:        {nil, ErrFriendDeleteFriendNotFound},
	CategoryFriendByPublicKey:   {nil, ErrFriendByPublicKeyNull, ErrFriendByPublicKeyNotFound},
	CategoryFriendGetPublicKey:  {nil, ErrFriendGetPublicKeyFriendNotFound},
	CategoryFriendGetLastOnline: {nil, ErrFriendGetLastOnlineFriendNotFound},
	CategoryFriendQuery:         {nil, ErrFriendQueryNull, ErrFriendQueryFriendNotFound},
	CategorySetTyping:           {nil, ErrSetTypingFriendNotFound},
	CategoryFriendSendMessage: {nil, ErrSendMessageNull, ErrSendMessageFriendNotFound, ErrSendMessageFriendNotConnected,
		ErrSendMessageSendQ, ErrSendMessageTooLong, ErrSendMessageEmpty},
	CategoryGetPort: {nil, ErrGetPortNotBound},
}

// translate maps an engine code to nil, a reason sentinel, or a
// *ContractError when the code is not in the category's table.
func translate(c Category, code uint32) error {
	if code == 0 {
		return nil
	}
	table := reasonTables[c]
	if int(code) < len(table) {
		instrument.OperationError(c.String())
		return table[code]
	}

	instrument.ContractViolation(c.String())
	logrus.WithFields(logrus.Fields{
		"function": "translate",
		"category": c.String(),
		"code":     code,
	}).Error("Engine returned a code outside the category table")
	return &ContractError{Category: c, Code: code}
}

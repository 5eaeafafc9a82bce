package engine

type callbacks struct {
	selfConnectionStatus   SelfConnectionStatusFunc
	selfConnectionData     interface{}
	friendName             FriendNameFunc
	friendNameData         interface{}
	friendStatusMessage    FriendStatusMessageFunc
	friendStatusMsgData    interface{}
	friendStatus           FriendStatusFunc
	friendStatusData       interface{}
	friendConnectionStatus FriendConnectionStatusFunc
	friendConnectionData   interface{}
	friendTyping           FriendTypingFunc
	friendTypingData       interface{}
	friendReadReceipt      FriendReadReceiptFunc
	friendReadReceiptData  interface{}
	friendRequest          FriendRequestFunc
	friendRequestData      interface{}
	friendMessage          FriendMessageFunc
	friendMessageData      interface{}
}

// CallbackSelfConnectionStatus sets the handler for changes of our own
// network connection. Passing nil clears it.
func (t *Tox) CallbackSelfConnectionStatus(cb SelfConnectionStatusFunc, userData interface{}) {
	t.cb.selfConnectionStatus, t.cb.selfConnectionData = cb, userData
}

// CallbackFriendName sets the handler for friend nickname changes.
func (t *Tox) CallbackFriendName(cb FriendNameFunc, userData interface{}) {
	t.cb.friendName, t.cb.friendNameData = cb, userData
}

// CallbackFriendStatusMessage sets the handler for friend status message changes.
func (t *Tox) CallbackFriendStatusMessage(cb FriendStatusMessageFunc, userData interface{}) {
	t.cb.friendStatusMessage, t.cb.friendStatusMsgData = cb, userData
}

// CallbackFriendStatus sets the handler for friend presence changes.
func (t *Tox) CallbackFriendStatus(cb FriendStatusFunc, userData interface{}) {
	t.cb.friendStatus, t.cb.friendStatusData = cb, userData
}

// CallbackFriendConnectionStatus sets the handler for friend connection changes.
func (t *Tox) CallbackFriendConnectionStatus(cb FriendConnectionStatusFunc, userData interface{}) {
	t.cb.friendConnectionStatus, t.cb.friendConnectionData = cb, userData
}

// CallbackFriendTyping sets the handler for friend typing notifications.
func (t *Tox) CallbackFriendTyping(cb FriendTypingFunc, userData interface{}) {
	t.cb.friendTyping, t.cb.friendTypingData = cb, userData
}

// CallbackFriendReadReceipt sets the handler for delivery receipts.
func (t *Tox) CallbackFriendReadReceipt(cb FriendReadReceiptFunc, userData interface{}) {
	t.cb.friendReadReceipt, t.cb.friendReadReceiptData = cb, userData
}

// CallbackFriendRequest sets the handler for inbound friend requests.
func (t *Tox) CallbackFriendRequest(cb FriendRequestFunc, userData interface{}) {
	t.cb.friendRequest, t.cb.friendRequestData = cb, userData
}

// CallbackFriendMessage sets the handler for inbound messages.
func (t *Tox) CallbackFriendMessage(cb FriendMessageFunc, userData interface{}) {
	t.cb.friendMessage, t.cb.friendMessageData = cb, userData
}

func (t *Tox) fireSelfConnectionStatus(status Connection) {
	if cb := t.cb.selfConnectionStatus; cb != nil {
		cb(t, status, t.cb.selfConnectionData)
	}
}

func (t *Tox) fireFriendName(fn uint32, name []byte) {
	if cb := t.cb.friendName; cb != nil {
		cb(t, fn, append([]byte(nil), name...), t.cb.friendNameData)
	}
}

func (t *Tox) fireFriendStatusMessage(fn uint32, msg []byte) {
	if cb := t.cb.friendStatusMessage; cb != nil {
		cb(t, fn, append([]byte(nil), msg...), t.cb.friendStatusMsgData)
	}
}

func (t *Tox) fireFriendStatus(fn uint32, status UserStatus) {
	if cb := t.cb.friendStatus; cb != nil {
		cb(t, fn, status, t.cb.friendStatusData)
	}
}

func (t *Tox) fireFriendConnectionStatus(fn uint32, status Connection) {
	if cb := t.cb.friendConnectionStatus; cb != nil {
		cb(t, fn, status, t.cb.friendConnectionData)
	}
}

func (t *Tox) fireFriendTyping(fn uint32, typing bool) {
	if cb := t.cb.friendTyping; cb != nil {
		cb(t, fn, typing, t.cb.friendTypingData)
	}
}

func (t *Tox) fireFriendReadReceipt(fn, id uint32) {
	if cb := t.cb.friendReadReceipt; cb != nil {
		cb(t, fn, id, t.cb.friendReadReceiptData)
	}
}

func (t *Tox) fireFriendRequest(pk [32]byte, msg []byte) {
	if cb := t.cb.friendRequest; cb != nil {
		cb(t, pk, append([]byte(nil), msg...), t.cb.friendRequestData)
	}
}

func (t *Tox) fireFriendMessage(fn uint32, kind MessageType, msg []byte) {
	if cb := t.cb.friendMessage; cb != nil {
		cb(t, fn, kind, append([]byte(nil), msg...), t.cb.friendMessageData)
	}
}

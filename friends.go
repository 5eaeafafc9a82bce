package toxbind

import (
	"time"
)

// FriendAdd sends a friend request to address and returns the new friend
// number. The message must be 1 to 1016 bytes.
func (t *Tox) FriendAdd(address Address, message string) (uint32, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	n, code := t.native.FriendAdd(address[:], []byte(message))
	if err := translate(CategoryFriendAdd, uint32(code)); err != nil {
		return 0, err
	}
	return n, nil
}

// FriendAddNoRequest adds a friend without sending a request. Use it to
// accept a request received through OnFriendRequest.
func (t *Tox) FriendAddNoRequest(publicKey PublicKey) (uint32, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	n, code := t.native.FriendAddNoRequest(publicKey[:])
	if err := translate(CategoryFriendAdd, uint32(code)); err != nil {
		return 0, err
	}
	return n, nil
}

// FriendDelete removes a friend. Its number may be reused by a later add.
func (t *Tox) FriendDelete(friendNumber uint32) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return translate(CategoryFriendDelete, uint32(t.native.FriendDelete(friendNumber)))
}

// FriendByPublicKey returns the number of the friend with publicKey.
func (t *Tox) FriendByPublicKey(publicKey PublicKey) (uint32, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	n, code := t.native.FriendByPublicKey(publicKey[:])
	if err := translate(CategoryFriendByPublicKey, uint32(code)); err != nil {
		return 0, err
	}
	return n, nil
}

// FriendGetPublicKey returns the public key of a friend.
func (t *Tox) FriendGetPublicKey(friendNumber uint32) (PublicKey, error) {
	if err := t.lock(); err != nil {
		return PublicKey{}, err
	}
	defer t.mu.Unlock()
	pk, code := t.native.FriendGetPublicKey(friendNumber)
	if err := translate(CategoryFriendGetPublicKey, uint32(code)); err != nil {
		return PublicKey{}, err
	}
	return PublicKey(pk), nil
}

// FriendExists reports whether friendNumber is in the friend list.
func (t *Tox) FriendExists(friendNumber uint32) (bool, error) {
	if err := t.lock(); err != nil {
		return false, err
	}
	defer t.mu.Unlock()
	return t.native.FriendExists(friendNumber), nil
}

// SelfGetFriendList returns the current friend numbers in ascending order.
func (t *Tox) SelfGetFriendList() ([]uint32, error) {
	if err := t.lock(); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()
	list := make([]uint32, t.native.SelfGetFriendListSize())
	n := t.native.SelfGetFriendList(list)
	return list[:n], nil
}

// FriendGetLastOnline returns when the friend was last connected. The zero
// time means never.
func (t *Tox) FriendGetLastOnline(friendNumber uint32) (time.Time, error) {
	if err := t.lock(); err != nil {
		return time.Time{}, err
	}
	defer t.mu.Unlock()
	unix, code := t.native.FriendGetLastOnline(friendNumber)
	if err := translate(CategoryFriendGetLastOnline, uint32(code)); err != nil {
		return time.Time{}, err
	}
	if unix == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(unix), 0), nil
}

// FriendGetName returns the name a friend last sent us.
func (t *Tox) FriendGetName(friendNumber uint32) (string, error) {
	if err := t.lock(); err != nil {
		return "", err
	}
	defer t.mu.Unlock()
	size, code := t.native.FriendGetNameSize(friendNumber)
	if err := translate(CategoryFriendQuery, uint32(code)); err != nil {
		return "", err
	}
	buf := make([]byte, size)
	if err := translate(CategoryFriendQuery, uint32(t.native.FriendGetName(friendNumber, buf))); err != nil {
		return "", err
	}
	return string(buf), nil
}

// FriendGetStatusMessage returns the status message a friend last sent us.
func (t *Tox) FriendGetStatusMessage(friendNumber uint32) (string, error) {
	if err := t.lock(); err != nil {
		return "", err
	}
	defer t.mu.Unlock()
	size, code := t.native.FriendGetStatusMessageSize(friendNumber)
	if err := translate(CategoryFriendQuery, uint32(code)); err != nil {
		return "", err
	}
	buf := make([]byte, size)
	if err := translate(CategoryFriendQuery, uint32(t.native.FriendGetStatusMessage(friendNumber, buf))); err != nil {
		return "", err
	}
	return string(buf), nil
}

// FriendGetStatus returns the presence a friend advertises.
func (t *Tox) FriendGetStatus(friendNumber uint32) (UserStatus, error) {
	if err := t.lock(); err != nil {
		return UserStatusNone, err
	}
	defer t.mu.Unlock()
	status, code := t.native.FriendGetStatus(friendNumber)
	if err := translate(CategoryFriendQuery, uint32(code)); err != nil {
		return UserStatusNone, err
	}
	return UserStatus(status), nil
}

// FriendGetConnectionStatus reports how we reach a friend, if at all.
func (t *Tox) FriendGetConnectionStatus(friendNumber uint32) (Connection, error) {
	if err := t.lock(); err != nil {
		return ConnectionNone, err
	}
	defer t.mu.Unlock()
	status, code := t.native.FriendGetConnectionStatus(friendNumber)
	if err := translate(CategoryFriendQuery, uint32(code)); err != nil {
		return ConnectionNone, err
	}
	return Connection(status), nil
}

// FriendGetTyping reports whether a friend is typing to us.
func (t *Tox) FriendGetTyping(friendNumber uint32) (bool, error) {
	if err := t.lock(); err != nil {
		return false, err
	}
	defer t.mu.Unlock()
	typing, code := t.native.FriendGetTyping(friendNumber)
	if err := translate(CategoryFriendQuery, uint32(code)); err != nil {
		return false, err
	}
	return typing, nil
}

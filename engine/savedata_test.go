package engine

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveOf(tox *Tox) []byte {
	data := make([]byte, tox.GetSavedataSize())
	tox.GetSavedata(data)
	return data
}

func loadOptions(data []byte) *Options {
	opts := newTestOptions()
	opts.SavedataType = SavedataTypeToxSave
	opts.SavedataData = data
	opts.SavedataLength = len(data)
	return opts
}

func TestSavedataRoundTrip(t *testing.T) {
	tox := newTestTox(t)
	require.Equal(t, SetInfoOK, tox.SelfSetName([]byte("Alice")))
	require.Equal(t, SetInfoOK, tox.SelfSetStatusMessage([]byte("around")))
	tox.SelfSetStatus(UserStatusBusy)
	tox.SelfSetNospam(1234)

	addr, _ := newAddress(t, 9)
	_, code := tox.FriendAdd(addr[:], []byte("add me"))
	require.Equal(t, FriendAddOK, code)
	_, pk := newAddress(t, 0)
	_, code = tox.FriendAddNoRequest(pk[:])
	require.Equal(t, FriendAddOK, code)
	require.Equal(t, FriendDeleteOK, tox.FriendDelete(0))

	data := saveOf(tox)
	assert.Len(t, data, tox.GetSavedataSize())

	restored, nc := New(loadOptions(data))
	require.Equal(t, NewOK, nc)
	defer restored.Kill()

	assert.Equal(t, tox.SelfGetPublicKey(), restored.SelfGetPublicKey())
	assert.Equal(t, tox.SelfGetSecretKey(), restored.SelfGetSecretKey())
	assert.Equal(t, tox.SelfGetAddress(), restored.SelfGetAddress())
	assert.Equal(t, UserStatusBusy, restored.SelfGetStatus())

	name := make([]byte, restored.SelfGetNameSize())
	restored.SelfGetName(name)
	assert.Equal(t, "Alice", string(name))

	assert.False(t, restored.FriendExists(0))
	n, fc := restored.FriendByPublicKey(pk[:])
	require.Equal(t, FriendByPublicKeyOK, fc)
	assert.Equal(t, uint32(1), n, "friend numbers survive a reload")
	assert.Equal(t, data, saveOf(restored))
}

func TestSavedataRejectsWrongMagic(t *testing.T) {
	tox := newTestTox(t)
	rec := tox.snapshot()
	rec.Magic++
	data, err := cbor.Marshal(&rec)
	require.NoError(t, err)

	_, code := New(loadOptions(data))
	assert.Equal(t, NewLoadBadFormat, code)

	rec.Magic = saveMagic
	rec.Version = saveVersion + 1
	data, err = cbor.Marshal(&rec)
	require.NoError(t, err)
	_, code = New(loadOptions(data))
	assert.Equal(t, NewLoadBadFormat, code)
}

func TestSavedataRejectsDuplicateFriends(t *testing.T) {
	tox := newTestTox(t)
	_, pk := newAddress(t, 0)
	tox.FriendAddNoRequest(pk[:])
	rec := tox.snapshot()
	dup := rec.Friends[0]
	dup.Number = 5
	rec.Friends = append(rec.Friends, dup)
	data, err := cbor.Marshal(&rec)
	require.NoError(t, err)

	_, code := New(loadOptions(data))
	assert.Equal(t, NewLoadBadFormat, code)
}

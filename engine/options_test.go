package engine

import (
	"net"
	"strings"
	"testing"

	"github.com/opd-ai/toxbind/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefault(t *testing.T) {
	opts, code := OptionsNew()
	require.Equal(t, OptionsNewOK, code)
	assert.True(t, opts.IPv6Enabled)
	assert.True(t, opts.UDPEnabled)
	assert.Equal(t, ProxyTypeNone, opts.ProxyType)
	assert.Equal(t, uint16(DefaultStartPort), opts.StartPort)
	assert.Equal(t, uint16(DefaultEndPort), opts.EndPort)
	assert.Zero(t, opts.TCPPort)
	assert.Equal(t, SavedataTypeNone, opts.SavedataType)

	opts.SavedataData = []byte{1, 2, 3}
	data := opts.SavedataData
	OptionsFree(opts)
	assert.Equal(t, []byte{0, 0, 0}, data, "savedata is wiped on free")
	assert.Nil(t, opts.SavedataData)

	OptionsDefault(nil)
	OptionsFree(nil)
}

func TestNewValidation(t *testing.T) {
	encrypted, err := crypto.EncryptSavedata([]byte("state"), []byte("pass"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(*Options)
		want   NewCode
	}{
		{"bad proxy type", func(o *Options) { o.ProxyType = 7 }, NewProxyBadType},
		{"empty proxy host", func(o *Options) { o.ProxyType = ProxyTypeSOCKS5 }, NewProxyBadHost},
		{"long proxy host", func(o *Options) {
			o.ProxyType = ProxyTypeHTTP
			o.ProxyHost = strings.Repeat("a", 256)
			o.ProxyPort = 8080
		}, NewProxyBadHost},
		{"proxy port zero", func(o *Options) {
			o.ProxyType = ProxyTypeSOCKS5
			o.ProxyHost = "127.0.0.1"
		}, NewProxyBadPort},
		{"proxy not found", func(o *Options) {
			o.ProxyType = ProxyTypeSOCKS5
			o.ProxyHost = "no-such-host.invalid"
			o.ProxyPort = 1080
		}, NewProxyNotFound},
		{"length mismatch", func(o *Options) {
			o.SavedataType = SavedataTypeToxSave
			o.SavedataData = []byte{1, 2, 3}
			o.SavedataLength = 2
		}, NewLoadBadFormat},
		{"encrypted", func(o *Options) {
			o.SavedataType = SavedataTypeToxSave
			o.SavedataData = encrypted
			o.SavedataLength = len(encrypted)
		}, NewLoadEncrypted},
		{"garbage", func(o *Options) {
			o.SavedataType = SavedataTypeToxSave
			o.SavedataData = []byte{0xff, 0x00, 0x13}
			o.SavedataLength = 3
		}, NewLoadBadFormat},
		{"short secret key", func(o *Options) {
			o.SavedataType = SavedataTypeSecretKey
			o.SavedataData = make([]byte, 31)
			o.SavedataLength = 31
		}, NewLoadBadFormat},
		{"unknown savedata type", func(o *Options) {
			o.SavedataType = 9
		}, NewLoadBadFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newTestOptions()
			tt.modify(opts)
			tox, code := New(opts)
			assert.Equal(t, tt.want, code)
			assert.Nil(t, tox)
		})
	}

	tox, code := New(nil)
	assert.Equal(t, NewNull, code)
	assert.Nil(t, tox)
}

func TestNewPortAlloc(t *testing.T) {
	held, err := net.ListenPacket("udp4", ":0")
	require.NoError(t, err)
	defer held.Close()
	port := uint16(held.LocalAddr().(*net.UDPAddr).Port)

	opts := newTestOptions()
	opts.StartPort, opts.EndPort = port, port
	tox, code := New(opts)
	assert.Equal(t, NewPortAlloc, code)
	assert.Nil(t, tox)
}

func TestNewRelayPortAlloc(t *testing.T) {
	held, err := net.Listen("tcp4", ":0")
	require.NoError(t, err)
	defer held.Close()

	opts := newTestOptions()
	opts.TCPPort = uint16(held.Addr().(*net.TCPAddr).Port)
	tox, code := New(opts)
	assert.Equal(t, NewPortAlloc, code)
	assert.Nil(t, tox)
}

func TestNewWithoutUDP(t *testing.T) {
	opts := newTestOptions()
	opts.UDPEnabled = false
	tox, code := New(opts)
	require.Equal(t, NewOK, code)
	defer tox.Kill()

	_, pc := tox.SelfGetUDPPort()
	assert.Equal(t, GetPortNotBound, pc)
	_, pc = tox.SelfGetTCPPort()
	assert.Equal(t, GetPortNotBound, pc)
}

func TestNewFromSecretKey(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	opts := newTestOptions()
	opts.SavedataType = SavedataTypeSecretKey
	opts.SavedataData = append([]byte(nil), kp.Private[:]...)
	opts.SavedataLength = 32
	tox, code := New(opts)
	require.Equal(t, NewOK, code)
	defer tox.Kill()

	assert.Equal(t, kp.Public, tox.SelfGetPublicKey())
}

func TestKillIsIdempotent(t *testing.T) {
	tox, code := New(newTestOptions())
	require.Equal(t, NewOK, code)
	tox.Kill()
	tox.Kill()
	tox.Iterate()
}

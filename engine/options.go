package engine

import (
	"github.com/opd-ai/toxbind/crypto"
)

// ProxyType selects how relay connections reach the network.
type ProxyType uint8

const (
	ProxyTypeNone ProxyType = iota
	ProxyTypeHTTP
	ProxyTypeSOCKS5
)

// SavedataType says how to interpret Options.SavedataData.
type SavedataType uint8

const (
	SavedataTypeNone SavedataType = iota
	// SavedataTypeToxSave is a blob previously returned by GetSavedata.
	SavedataTypeToxSave
	// SavedataTypeSecretKey is a bare 32-byte secret key.
	SavedataTypeSecretKey
)

// Default port range and relay port.
const (
	DefaultStartPort = 33445
	DefaultEndPort   = 33545
)

// Options configures New. Fields are read once during New and not retained.
type Options struct {
	IPv6Enabled bool
	UDPEnabled  bool

	ProxyType ProxyType
	ProxyHost string
	ProxyPort uint16

	// StartPort and EndPort bound the UDP port search. Both zero means any port.
	StartPort uint16
	EndPort   uint16
	// TCPPort is the relay server port. Zero disables the relay server.
	TCPPort uint16

	SavedataType   SavedataType
	SavedataData   []byte
	SavedataLength int

	// TimeProvider replaces the wall clock. Nil uses the real clock.
	TimeProvider crypto.TimeProvider
}

// OptionsNew allocates an options struct filled with defaults.
func OptionsNew() (*Options, OptionsNewCode) {
	opts := &Options{}
	OptionsDefault(opts)
	return opts, OptionsNewOK
}

// OptionsDefault resets opts to the default values.
func OptionsDefault(opts *Options) {
	if opts == nil {
		return
	}
	*opts = Options{
		IPv6Enabled: true,
		UDPEnabled:  true,
		StartPort:   DefaultStartPort,
		EndPort:     DefaultEndPort,
	}
}

// OptionsFree releases opts. The savedata buffer is wiped.
func OptionsFree(opts *Options) {
	if opts == nil {
		return
	}
	crypto.ZeroBytes(opts.SavedataData)
	*opts = Options{}
}

package toxbind

import (
	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/engine"
)

// ProxyType selects how TCP relay connections reach the network.
type ProxyType uint8

const (
	ProxyTypeNone   ProxyType = ProxyType(engine.ProxyTypeNone)
	ProxyTypeHTTP   ProxyType = ProxyType(engine.ProxyTypeHTTP)
	ProxyTypeSOCKS5 ProxyType = ProxyType(engine.ProxyTypeSOCKS5)
)

// Options describes how to create or restore an engine. New reads it once
// and does not keep it.
type Options struct {
	IPv6Enabled bool
	UDPEnabled  bool

	ProxyType ProxyType
	// ProxyHost and ProxyPort are only read when ProxyType is not None.
	ProxyHost string
	ProxyPort uint16

	// StartPort and EndPort bound the local UDP port. Zero means any.
	StartPort uint16
	EndPort   uint16
	// TCPPort enables the TCP relay server when non-zero.
	TCPPort uint16

	// Savedata is a blob returned by Tox.Savedata. It may contain any byte.
	Savedata []byte

	// TimeProvider replaces the engine's clock, mainly in tests.
	TimeProvider crypto.TimeProvider
}

// NewOptions returns the default options: IPv6 and UDP on, no proxy, the
// standard port range and no relay server.
func NewOptions() *Options {
	return &Options{
		IPv6Enabled: true,
		UDPEnabled:  true,
		StartPort:   engine.DefaultStartPort,
		EndPort:     engine.DefaultEndPort,
	}
}

// fill copies every field into the engine's options struct. Savedata is
// copied with its exact length.
func (o *Options) fill(native *engine.Options) {
	native.IPv6Enabled = o.IPv6Enabled
	native.UDPEnabled = o.UDPEnabled
	native.ProxyType = engine.ProxyType(o.ProxyType)
	native.ProxyHost = o.ProxyHost
	native.ProxyPort = o.ProxyPort
	native.StartPort = o.StartPort
	native.EndPort = o.EndPort
	native.TCPPort = o.TCPPort
	native.TimeProvider = o.TimeProvider
	if len(o.Savedata) > 0 {
		native.SavedataType = engine.SavedataTypeToxSave
		native.SavedataData = append([]byte(nil), o.Savedata...)
		native.SavedataLength = len(o.Savedata)
	}
}

// Package config implements the configuration file of the toxbind client.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/toxbind"
)

const (
	defaultLogLevel  = "info"
	defaultStartPort = 33445
	defaultEndPort   = 33545
	defaultProfile   = "profile.tox"
)

var defaultLogging = Logging{
	Disable: false,
	Level:   defaultLogLevel,
}

// Logging is the logging configuration.
type Logging struct {
	// Disable discards all log output.
	Disable bool

	// Level is a logrus level name (error, warning, info, debug, trace).
	Level string
}

func (lCfg *Logging) validate() error {
	if lCfg.Level == "" {
		lCfg.Level = defaultLogLevel
	}
	lvl, err := logrus.ParseLevel(lCfg.Level)
	if err != nil {
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl.String()
	return nil
}

// Proxy is the outgoing proxy used for TCP relay connections.
type Proxy struct {
	// Type is "none", "http" or "socks5".
	Type string
	Host string
	Port int
}

func (p *Proxy) proxyType() (toxbind.ProxyType, error) {
	switch strings.ToLower(p.Type) {
	case "", "none":
		return toxbind.ProxyTypeNone, nil
	case "http":
		return toxbind.ProxyTypeHTTP, nil
	case "socks5":
		return toxbind.ProxyTypeSOCKS5, nil
	default:
		return toxbind.ProxyTypeNone, fmt.Errorf("config: Proxy: Type '%v' is invalid", p.Type)
	}
}

// Tox holds the engine options. The zero value is the default setup.
type Tox struct {
	DisableIPv6 bool
	DisableUDP  bool

	// StartPort and EndPort bound the local UDP port.
	StartPort int
	EndPort   int

	// TCPPort runs a TCP relay server on this port when non-zero.
	TCPPort int

	Proxy *Proxy
}

func (t *Tox) fixupAndValidate() error {
	if t.StartPort == 0 && t.EndPort == 0 {
		t.StartPort, t.EndPort = defaultStartPort, defaultEndPort
	}
	for name, port := range map[string]int{"StartPort": t.StartPort, "EndPort": t.EndPort, "TCPPort": t.TCPPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("config: Tox: %s %d is out of range", name, port)
		}
	}
	if t.StartPort > t.EndPort {
		return fmt.Errorf("config: Tox: StartPort %d is above EndPort %d", t.StartPort, t.EndPort)
	}
	if t.Proxy != nil {
		typ, err := t.Proxy.proxyType()
		if err != nil {
			return err
		}
		if typ != toxbind.ProxyTypeNone && (t.Proxy.Host == "" || t.Proxy.Port <= 0 || t.Proxy.Port > 65535) {
			return errors.New("config: Proxy: Host and Port are required")
		}
	}
	return nil
}

// Profile describes the saved identity and the profile fields set at start.
type Profile struct {
	// File is where the engine state is read from and written to.
	File string

	Name          string
	StatusMessage string

	// PassphraseEnv names the environment variable holding the profile
	// passphrase. The profile is stored unencrypted when it is empty.
	PassphraseEnv string

	// AutoAccept accepts every incoming friend request.
	AutoAccept bool
}

// Passphrase returns the profile passphrase from the environment.
func (p *Profile) Passphrase() string {
	if p.PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(p.PassphraseEnv)
}

// Node is a bootstrap node or TCP relay.
type Node struct {
	Address   string
	Port      int
	PublicKey string

	key toxbind.PublicKey
}

func (n *Node) validate(section string) error {
	if n.Address == "" {
		return fmt.Errorf("config: %s: Address is empty", section)
	}
	if n.Port <= 0 || n.Port > 65535 {
		return fmt.Errorf("config: %s: Port %d is out of range", section, n.Port)
	}
	key, err := toxbind.ParsePublicKey(n.PublicKey)
	if err != nil {
		return fmt.Errorf("config: %s: PublicKey: %w", section, err)
	}
	n.key = key
	return nil
}

// Key returns the parsed public key of the node.
func (n *Node) Key() toxbind.PublicKey {
	return n.key
}

// Metrics configures the prometheus listener.
type Metrics struct {
	// Address is the listen address, e.g. "127.0.0.1:6543". Empty disables
	// the listener.
	Address string
}

// Config is the top level client configuration.
type Config struct {
	Tox       *Tox
	Profile   *Profile
	Bootstrap []*Node
	Relay     []*Node
	Metrics   *Metrics
	Logging   *Logging
}

// FixupAndValidate applies defaults to config entries and validates the
// configuration sections.
func (c *Config) FixupAndValidate() error {
	// Handle missing sections if possible.
	if c.Tox == nil {
		c.Tox = &Tox{}
	}
	if c.Profile == nil {
		c.Profile = &Profile{}
	}
	if c.Profile.File == "" {
		c.Profile.File = defaultProfile
	}
	if c.Metrics == nil {
		c.Metrics = &Metrics{}
	}
	if c.Logging == nil {
		logging := defaultLogging
		c.Logging = &logging
	}

	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.Tox.fixupAndValidate(); err != nil {
		return err
	}
	for i, n := range c.Bootstrap {
		if err := n.validate(fmt.Sprintf("Bootstrap[%d]", i)); err != nil {
			return err
		}
	}
	for i, n := range c.Relay {
		if err := n.validate(fmt.Sprintf("Relay[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// Options converts the Tox section into engine options. Saved state is
// added by the caller.
func (c *Config) Options() *toxbind.Options {
	opts := toxbind.NewOptions()
	opts.IPv6Enabled = !c.Tox.DisableIPv6
	opts.UDPEnabled = !c.Tox.DisableUDP
	opts.StartPort = uint16(c.Tox.StartPort)
	opts.EndPort = uint16(c.Tox.EndPort)
	opts.TCPPort = uint16(c.Tox.TCPPort)
	if c.Tox.Proxy != nil {
		opts.ProxyType, _ = c.Tox.Proxy.proxyType()
		opts.ProxyHost = c.Tox.Proxy.Host
		opts.ProxyPort = uint16(c.Tox.Proxy.Port)
	}
	return opts
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)

	err := toml.Unmarshal(b, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

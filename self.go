package toxbind

import "github.com/opd-ai/toxbind/engine"

// SelfGetAddress returns the address friends use to add us.
func (t *Tox) SelfGetAddress() (Address, error) {
	if err := t.lock(); err != nil {
		return Address{}, err
	}
	defer t.mu.Unlock()
	return Address(t.native.SelfGetAddress()), nil
}

// SelfGetPublicKey returns our long-term public key.
func (t *Tox) SelfGetPublicKey() (PublicKey, error) {
	if err := t.lock(); err != nil {
		return PublicKey{}, err
	}
	defer t.mu.Unlock()
	return PublicKey(t.native.SelfGetPublicKey()), nil
}

// SelfGetSecretKey returns our long-term secret key.
func (t *Tox) SelfGetSecretKey() (SecretKey, error) {
	if err := t.lock(); err != nil {
		return SecretKey{}, err
	}
	defer t.mu.Unlock()
	return SecretKey(t.native.SelfGetSecretKey()), nil
}

// SelfSetNospam changes the anti-spam value, and with it our address.
func (t *Tox) SelfSetNospam(nospam uint32) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	t.native.SelfSetNospam(nospam)
	return nil
}

// SelfGetNospam returns the anti-spam value embedded in our address.
func (t *Tox) SelfGetNospam() (uint32, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	return t.native.SelfGetNospam(), nil
}

// SelfSetName sets our nickname. Names over the limit are rejected with
// ErrSetInfoTooLong, never truncated.
func (t *Tox) SelfSetName(name string) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return translate(CategorySetInfo, uint32(t.native.SelfSetName([]byte(name))))
}

// SelfGetName returns our nickname.
func (t *Tox) SelfGetName() (string, error) {
	if err := t.lock(); err != nil {
		return "", err
	}
	defer t.mu.Unlock()
	buf := make([]byte, t.native.SelfGetNameSize())
	n := t.native.SelfGetName(buf)
	return string(buf[:n]), nil
}

// SelfSetStatusMessage sets our status message, with the same length rule
// as SelfSetName.
func (t *Tox) SelfSetStatusMessage(message string) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return translate(CategorySetInfo, uint32(t.native.SelfSetStatusMessage([]byte(message))))
}

// SelfGetStatusMessage returns our status message.
func (t *Tox) SelfGetStatusMessage() (string, error) {
	if err := t.lock(); err != nil {
		return "", err
	}
	defer t.mu.Unlock()
	buf := make([]byte, t.native.SelfGetStatusMessageSize())
	n := t.native.SelfGetStatusMessage(buf)
	return string(buf[:n]), nil
}

// SelfSetStatus sets our presence. Values above UserStatusBusy return
// ErrBadUserStatus and leave the presence unchanged.
func (t *Tox) SelfSetStatus(status UserStatus) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	if !status.valid() {
		return ErrBadUserStatus
	}
	t.native.SelfSetStatus(engine.UserStatus(status))
	return nil
}

// SelfGetStatus returns our presence.
func (t *Tox) SelfGetStatus() (UserStatus, error) {
	if err := t.lock(); err != nil {
		return UserStatusNone, err
	}
	defer t.mu.Unlock()
	return UserStatus(t.native.SelfGetStatus()), nil
}

// SelfGetConnectionStatus reports whether we reach the network over UDP,
// through a TCP relay, or not at all.
func (t *Tox) SelfGetConnectionStatus() (Connection, error) {
	if err := t.lock(); err != nil {
		return ConnectionNone, err
	}
	defer t.mu.Unlock()
	return Connection(t.native.SelfGetConnectionStatus()), nil
}

// SelfGetUDPPort returns the bound UDP port.
func (t *Tox) SelfGetUDPPort() (uint16, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	port, code := t.native.SelfGetUDPPort()
	if err := translate(CategoryGetPort, uint32(code)); err != nil {
		return 0, err
	}
	return port, nil
}

// SelfGetTCPPort returns the port of the relay server.
func (t *Tox) SelfGetTCPPort() (uint16, error) {
	if err := t.lock(); err != nil {
		return 0, err
	}
	defer t.mu.Unlock()
	port, code := t.native.SelfGetTCPPort()
	if err := translate(CategoryGetPort, uint32(code)); err != nil {
		return 0, err
	}
	return port, nil
}

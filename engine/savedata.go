package engine

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/opd-ai/toxbind/crypto"
	"github.com/opd-ai/toxbind/friend"
	"github.com/opd-ai/toxbind/limits"
	"github.com/opd-ai/toxbind/transport"
	"github.com/sirupsen/logrus"
)

const (
	saveMagic   uint32 = 0x15ed1b1f
	saveVersion uint8  = 1
)

var errBadSavedata = errors.New("malformed savedata")

type saveRecord struct {
	Magic         uint32       `cbor:"1,keyasint"`
	Version       uint8        `cbor:"2,keyasint"`
	SecretKey     []byte       `cbor:"3,keyasint"`
	Nospam        uint32       `cbor:"4,keyasint"`
	Name          []byte       `cbor:"5,keyasint,omitempty"`
	StatusMessage []byte       `cbor:"6,keyasint,omitempty"`
	Status        uint8        `cbor:"7,keyasint"`
	Friends       []saveFriend `cbor:"8,keyasint,omitempty"`
	Relays        []saveNode   `cbor:"9,keyasint,omitempty"`
	Nodes         []saveNode   `cbor:"10,keyasint,omitempty"`
}

type saveFriend struct {
	Number         uint32 `cbor:"1,keyasint"`
	PublicKey      []byte `cbor:"2,keyasint"`
	Nospam         uint32 `cbor:"3,keyasint"`
	RequestMessage []byte `cbor:"4,keyasint,omitempty"`
	Confirmed      bool   `cbor:"5,keyasint"`
	Name           []byte `cbor:"6,keyasint,omitempty"`
	StatusMessage  []byte `cbor:"7,keyasint,omitempty"`
	Status         uint8  `cbor:"8,keyasint"`
	LastSeen       int64  `cbor:"9,keyasint,omitempty"`
}

type saveNode struct {
	Address   string `cbor:"1,keyasint"`
	PublicKey []byte `cbor:"2,keyasint"`
}

// load sets up identity and friends from the savedata in opts, or creates a
// fresh identity.
func (t *Tox) load(opts *Options) NewCode {
	switch opts.SavedataType {
	case SavedataTypeNone:
		return t.freshIdentity()
	case SavedataTypeSecretKey, SavedataTypeToxSave:
	default:
		return NewLoadBadFormat
	}

	if opts.SavedataLength != len(opts.SavedataData) || opts.SavedataData == nil {
		return NewLoadBadFormat
	}

	if opts.SavedataType == SavedataTypeSecretKey {
		if len(opts.SavedataData) != limits.SecretKeySize {
			return NewLoadBadFormat
		}
		var sk [32]byte
		copy(sk[:], opts.SavedataData)
		kp, err := crypto.FromSecretKey(sk)
		if err != nil {
			return NewLoadBadFormat
		}
		t.keyPair = kp
		t.nospam = randomUint32()
		return NewOK
	}

	if crypto.IsEncrypted(opts.SavedataData) {
		return NewLoadEncrypted
	}
	if err := t.restore(opts.SavedataData); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "load",
			"length":   len(opts.SavedataData),
			"error":    err.Error(),
		}).Error("Failed to load savedata")
		return NewLoadBadFormat
	}
	return NewOK
}

func (t *Tox) freshIdentity() NewCode {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return NewMalloc
	}
	t.keyPair = kp
	t.nospam = randomUint32()
	return NewOK
}

func (t *Tox) restore(data []byte) error {
	var rec saveRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode savedata: %w", err)
	}
	if rec.Magic != saveMagic || rec.Version != saveVersion {
		return fmt.Errorf("%w: magic %#x version %d", errBadSavedata, rec.Magic, rec.Version)
	}
	if len(rec.SecretKey) != limits.SecretKeySize {
		return fmt.Errorf("%w: secret key length %d", errBadSavedata, len(rec.SecretKey))
	}
	if len(rec.Name) > limits.MaxNameLength || len(rec.StatusMessage) > limits.MaxStatusMessageLength {
		return fmt.Errorf("%w: self info too long", errBadSavedata)
	}
	if rec.Status > uint8(UserStatusBusy) {
		return fmt.Errorf("%w: status %d", errBadSavedata, rec.Status)
	}

	var sk [32]byte
	copy(sk[:], rec.SecretKey)
	kp, err := crypto.FromSecretKey(sk)
	if err != nil {
		return err
	}

	friends, err := t.restoreFriends(rec.Friends, kp.Public)
	if err != nil {
		return err
	}

	t.keyPair = kp
	t.nospam = rec.Nospam
	t.name = rec.Name
	t.statusMessage = rec.StatusMessage
	t.status = UserStatus(rec.Status)
	t.friends = friends

	for _, n := range rec.Nodes {
		var pk [32]byte
		addr, err := net.ResolveUDPAddr("udp", n.Address)
		if err != nil || len(n.PublicKey) != 32 {
			continue
		}
		copy(pk[:], n.PublicKey)
		t.bootstrap.Add(addr, pk)
	}
	for _, r := range rec.Relays {
		if len(r.PublicKey) != 32 {
			continue
		}
		var pk [32]byte
		copy(pk[:], r.PublicKey)
		t.addRelay(transport.RelayServerInfo{Address: r.Address, PublicKey: pk})
	}
	return nil
}

func (t *Tox) restoreFriends(saved []saveFriend, self [32]byte) ([]*friendSlot, error) {
	if len(saved) > maxFriends {
		return nil, fmt.Errorf("%w: %d friends", errBadSavedata, len(saved))
	}
	var slots []*friendSlot
	seen := make(map[[32]byte]bool)
	for _, sf := range saved {
		if len(sf.PublicKey) != 32 || sf.Number >= maxFriends {
			return nil, fmt.Errorf("%w: friend entry", errBadSavedata)
		}
		var pk [32]byte
		copy(pk[:], sf.PublicKey)
		if pk == self || seen[pk] {
			return nil, fmt.Errorf("%w: duplicate friend", errBadSavedata)
		}
		seen[pk] = true

		for uint32(len(slots)) <= sf.Number {
			slots = append(slots, nil)
		}
		if slots[sf.Number] != nil {
			return nil, fmt.Errorf("%w: friend number %d reused", errBadSavedata, sf.Number)
		}

		s := t.newSlot(pk)
		s.number = sf.Number
		s.Nospam = sf.Nospam
		s.RequestMessage = sf.RequestMessage
		s.Confirmed = sf.Confirmed
		s.Name = sf.Name
		s.StatusMessage = sf.StatusMessage
		s.Status = friend.Status(sf.Status)
		if !s.Status.Valid() {
			s.Status = friend.StatusNone
		}
		if sf.LastSeen != 0 {
			s.LastSeen = time.Unix(sf.LastSeen, 0)
		}
		slots[sf.Number] = s
	}
	return slots, nil
}

func (t *Tox) snapshot() saveRecord {
	rec := saveRecord{
		Magic:         saveMagic,
		Version:       saveVersion,
		SecretKey:     append([]byte(nil), t.keyPair.Private[:]...),
		Nospam:        t.nospam,
		Name:          t.name,
		StatusMessage: t.statusMessage,
		Status:        uint8(t.status),
	}
	for _, s := range t.friends {
		if s == nil {
			continue
		}
		sf := saveFriend{
			Number:         s.number,
			PublicKey:      append([]byte(nil), s.PublicKey[:]...),
			Nospam:         s.Nospam,
			RequestMessage: s.RequestMessage,
			Confirmed:      s.Confirmed,
			Name:           s.Name,
			StatusMessage:  s.StatusMessage,
			Status:         uint8(s.Status),
		}
		if !s.LastSeen.IsZero() {
			sf.LastSeen = s.LastSeen.Unix()
		}
		rec.Friends = append(rec.Friends, sf)
	}
	for _, key := range t.relayOrder {
		info := t.relays[key].info
		rec.Relays = append(rec.Relays, saveNode{Address: info.Address, PublicKey: append([]byte(nil), info.PublicKey[:]...)})
	}
	for _, n := range t.bootstrap.Nodes() {
		rec.Nodes = append(rec.Nodes, saveNode{Address: n.Address.String(), PublicKey: append([]byte(nil), n.PublicKey[:]...)})
	}
	return rec
}

func (t *Tox) encodeSavedata() []byte {
	rec := t.snapshot()
	data, err := cbor.Marshal(&rec)
	if err != nil {
		// Only plain byte slices and integers are encoded.
		panic(fmt.Sprintf("encode savedata: %v", err))
	}
	return data
}

// GetSavedataSize returns the length of the blob GetSavedata writes.
func (t *Tox) GetSavedataSize() int {
	return len(t.encodeSavedata())
}

// GetSavedata writes the current state into dst, which must be at least
// GetSavedataSize bytes, and returns the bytes written.
func (t *Tox) GetSavedata(dst []byte) int {
	return copy(dst, t.encodeSavedata())
}

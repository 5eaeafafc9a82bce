package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

// ToxIDSize is the size of a binary Tox ID.
const ToxIDSize = 38

var (
	// ErrInvalidToxIDLength is returned for IDs that are not 38 bytes (76 hex characters).
	ErrInvalidToxIDLength = errors.New("invalid Tox ID length")
	// ErrInvalidChecksum is returned when the embedded checksum does not match.
	ErrInvalidChecksum = errors.New("invalid checksum")
)

// ToxID represents a Tox identifier, consisting of a public key, nospam value, and checksum.
type ToxID struct {
	PublicKey [32]byte
	Nospam    [4]byte
	Checksum  [2]byte
}

// NewToxID creates a ToxID from a public key and nospam value.
func NewToxID(publicKey [32]byte, nospam [4]byte) *ToxID {
	id := &ToxID{
		PublicKey: publicKey,
		Nospam:    nospam,
	}
	id.Checksum = id.calculateChecksum()
	return id
}

// NospamFromUint32 converts a numeric nospam into its wire order.
func NospamFromUint32(v uint32) [4]byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], v)
	return n
}

// NospamValue returns the nospam as a number.
func (id *ToxID) NospamValue() uint32 {
	return binary.BigEndian.Uint32(id.Nospam[:])
}

// ToxIDFromBytes parses a binary Tox ID without verifying its checksum.
// Use Valid to check it.
func ToxIDFromBytes(data []byte) (*ToxID, error) {
	if len(data) != ToxIDSize {
		return nil, ErrInvalidToxIDLength
	}
	id := &ToxID{}
	copy(id.PublicKey[:], data[0:32])
	copy(id.Nospam[:], data[32:36])
	copy(id.Checksum[:], data[36:38])
	return id, nil
}

// ToxIDFromString parses a Tox ID from its hexadecimal string representation
// and verifies the checksum.
func ToxIDFromString(s string) (*ToxID, error) {
	if len(s) != ToxIDSize*2 {
		return nil, ErrInvalidToxIDLength
	}

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	id, err := ToxIDFromBytes(data)
	if err != nil {
		return nil, err
	}
	if !id.Valid() {
		return nil, ErrInvalidChecksum
	}
	return id, nil
}

// Valid reports whether the checksum matches the public key and nospam.
func (id *ToxID) Valid() bool {
	return id.Checksum == id.calculateChecksum()
}

// Bytes returns the 38-byte binary form.
func (id *ToxID) Bytes() []byte {
	data := make([]byte, ToxIDSize)
	copy(data[0:32], id.PublicKey[:])
	copy(data[32:36], id.Nospam[:])
	copy(data[36:38], id.Checksum[:])
	return data
}

// String returns the upper-case hexadecimal representation of the Tox ID.
func (id *ToxID) String() string {
	return strings.ToUpper(hex.EncodeToString(id.Bytes()))
}

// calculateChecksum XORs the public key and nospam two bytes at a time.
func (id *ToxID) calculateChecksum() [2]byte {
	var checksum [2]byte
	for i := 0; i < 32; i++ {
		checksum[i%2] ^= id.PublicKey[i]
	}
	for i := 0; i < 4; i++ {
		checksum[i%2] ^= id.Nospam[i]
	}
	return checksum
}

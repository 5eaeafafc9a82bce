package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// EncryptedMagic prefixes every passphrase-encrypted savedata blob.
	EncryptedMagic = "toxEsave"

	// SaltSize is the size of the key derivation salt.
	SaltSize = 32

	// EncryptionExtraLength is the number of bytes EncryptSavedata adds.
	EncryptionExtraLength = len(EncryptedMagic) + SaltSize + 24 + secretbox.Overhead

	// KeyIterations is the pbkdf2 work factor.
	KeyIterations = 100000
)

var (
	// ErrEmptyPassphrase is returned when no passphrase is supplied.
	ErrEmptyPassphrase = errors.New("empty passphrase")
	// ErrNotEncrypted is returned when the blob lacks the encrypted magic.
	ErrNotEncrypted = errors.New("data is not encrypted savedata")
	// ErrWrongPassphrase is returned when decryption fails authentication.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted data")
)

// PassKey is a symmetric key derived from a passphrase and a salt.
type PassKey struct {
	Salt [SaltSize]byte
	Key  [32]byte
}

// DeriveKey derives a PassKey using pbkdf2-sha256 over the given salt.
func DeriveKey(passphrase []byte, salt [SaltSize]byte) (*PassKey, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	pk := &PassKey{Salt: salt}
	copy(pk.Key[:], pbkdf2.Key(passphrase, salt[:], KeyIterations, 32, sha256.New))
	return pk, nil
}

// IsEncrypted reports whether data starts with the encrypted savedata magic.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte(EncryptedMagic))
}

// EncryptSavedata seals data with a key derived from passphrase.
// Layout: magic | salt | nonce | secretbox(data).
func EncryptSavedata(data, passphrase []byte) ([]byte, error) {
	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key.Key[:])

	nonce, err := GenerateNonce()
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(data)+EncryptionExtraLength)
	out = append(out, EncryptedMagic...)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, data, (*[24]byte)(&nonce), &key.Key)

	logrus.WithFields(logrus.Fields{
		"function":  "EncryptSavedata",
		"plaintext": len(data),
		"sealed":    len(out),
	}).Debug("Savedata encrypted")
	return out, nil
}

// DecryptSavedata reverses EncryptSavedata.
func DecryptSavedata(data, passphrase []byte) ([]byte, error) {
	if !IsEncrypted(data) || len(data) < EncryptionExtraLength {
		return nil, ErrNotEncrypted
	}
	rest := data[len(EncryptedMagic):]

	var salt [SaltSize]byte
	copy(salt[:], rest[:SaltSize])
	rest = rest[SaltSize:]

	var nonce [24]byte
	copy(nonce[:], rest[:24])
	rest = rest[24:]

	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key.Key[:])

	plain, ok := secretbox.Open(nil, rest, &nonce, &key.Key)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "DecryptSavedata",
			"size":     len(data),
		}).Warn("Savedata authentication failed")
		return nil, ErrWrongPassphrase
	}
	return plain, nil
}

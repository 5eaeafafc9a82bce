package toxbind

import "github.com/opd-ai/toxbind/crypto"

// EncryptSavedata encrypts a Savedata blob with a passphrase. The result
// cannot be passed to New until DecryptSavedata has been applied.
func EncryptSavedata(data []byte, passphrase string) ([]byte, error) {
	return crypto.EncryptSavedata(data, []byte(passphrase))
}

// DecryptSavedata reverses EncryptSavedata.
func DecryptSavedata(data []byte, passphrase string) ([]byte, error) {
	return crypto.DecryptSavedata(data, []byte(passphrase))
}

// IsDataEncrypted reports whether data carries the encrypted savedata magic.
func IsDataEncrypted(data []byte) bool {
	return crypto.IsEncrypted(data)
}

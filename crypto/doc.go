// Package crypto implements the cryptographic primitives used by the engine.
//
// # Core Types
//
//   - [KeyPair]: curve25519 key pair used for NaCl box and the Noise handshake
//   - [ToxID]: public key + nospam + checksum, the 38-byte address users share
//   - [Nonce]: 24-byte nonce for box and secretbox
//   - [ReplayWindow]: sliding window over session packet counters
//
// # Encryption
//
//	nonce, _ := crypto.GenerateNonce()
//	sealed, _ := crypto.Encrypt(plaintext, nonce, peerPublicKey, mySecretKey)
//	opened, _ := crypto.Decrypt(sealed, nonce, myPublicKey, peerSecretKey)
//
// # Encrypted savedata
//
// [EncryptSavedata] seals a profile blob with a key derived from a passphrase
// (pbkdf2-sha256). The result starts with the "toxEsave" magic; an engine asked
// to load such a blob directly refuses it.
//
//	sealed, _ := crypto.EncryptSavedata(save, []byte("passphrase"))
//	crypto.IsEncrypted(sealed) // true
//
// Secret keys are never logged. [SecureFieldHash] produces an 8-byte preview
// suitable for public keys.
package crypto

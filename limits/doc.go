// Package limits provides centralized size constants and validation functions
// for the Tox protocol.
//
// # Size Limits
//
//   - MaxPlaintextMessage (1372 bytes): a single normal or action message.
//   - MaxNameLength (128 bytes): nicknames.
//   - MaxStatusMessageLength (1007 bytes): status messages.
//   - MaxFriendRequestLength (1016 bytes): the text attached to a friend request.
//   - AddressSize (38 bytes): public key, nospam and checksum.
//
// Messages must be non-empty; names and status messages may be empty:
//
//	if err := limits.ValidatePlaintextMessage(msg); err != nil {
//	    // ErrMessageEmpty or ErrMessageTooLarge
//	}
//
// Oversized values are rejected, never truncated.
package limits

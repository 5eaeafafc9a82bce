package limits

import (
	"errors"
	"testing"

	"golang.org/x/crypto/nacl/box"
)

// TestEncryptionOverheadMatchesNaCl verifies that our EncryptionOverhead constant
// matches the actual overhead from golang.org/x/crypto/nacl/box
func TestEncryptionOverheadMatchesNaCl(t *testing.T) {
	if EncryptionOverhead != box.Overhead {
		t.Errorf("EncryptionOverhead = %d, want %d (box.Overhead)", EncryptionOverhead, box.Overhead)
	}
}

func TestAddressSize(t *testing.T) {
	if AddressSize != 38 {
		t.Errorf("AddressSize = %d, want 38", AddressSize)
	}
}

// TestValidatePlaintextMessage tests the boundary around MaxPlaintextMessage
func TestValidatePlaintextMessage(t *testing.T) {
	tests := []struct {
		name    string
		message []byte
		wantErr error
	}{
		{"empty message", []byte{}, ErrMessageEmpty},
		{"nil message", nil, ErrMessageEmpty},
		{"valid small message", []byte("Hello, world!"), nil},
		{"valid max-size message", make([]byte, MaxPlaintextMessage), nil},
		{"message too large", make([]byte, MaxPlaintextMessage+1), ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlaintextMessage(tt.message)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("ValidatePlaintextMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFriendRequest(t *testing.T) {
	if err := ValidateFriendRequest(make([]byte, MaxFriendRequestLength)); err != nil {
		t.Errorf("max-size request rejected: %v", err)
	}
	if err := ValidateFriendRequest(make([]byte, MaxFriendRequestLength+1)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversized request error = %v, want ErrMessageTooLarge", err)
	}
	if err := ValidateFriendRequest(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("empty request error = %v, want ErrMessageEmpty", err)
	}
}

func TestValidateInfo(t *testing.T) {
	if err := ValidateInfo(nil, MaxNameLength); err != nil {
		t.Errorf("empty name rejected: %v", err)
	}
	if err := ValidateInfo(make([]byte, MaxNameLength), MaxNameLength); err != nil {
		t.Errorf("max-size name rejected: %v", err)
	}
	if err := ValidateInfo(make([]byte, MaxStatusMessageLength+1), MaxStatusMessageLength); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversized status message error = %v, want ErrMessageTooLarge", err)
	}
}

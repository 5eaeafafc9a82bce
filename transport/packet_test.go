package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPacketSerialize tests the Packet.Serialize method.
func TestPacketSerialize(t *testing.T) {
	tests := []struct {
		name    string
		packet  *Packet
		wantErr bool
	}{
		{"valid packet", &Packet{PacketType: PacketPingRequest, Data: []byte{1, 2, 3, 4}}, false},
		{"empty data", &Packet{PacketType: PacketPingRequest, Data: []byte{}}, false},
		{"nil data", &Packet{PacketType: PacketPingRequest, Data: nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.packet.Serialize()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if len(result) != 1+len(tt.packet.Data) {
				t.Errorf("Expected length %d, got %d", 1+len(tt.packet.Data), len(result))
			}
			if result[0] != byte(tt.packet.PacketType) {
				t.Errorf("Expected packet type %d, got %d", tt.packet.PacketType, result[0])
			}
			if !bytes.Equal(result[1:], tt.packet.Data) {
				t.Errorf("Data mismatch")
			}
		})
	}
}

func TestParsePacket(t *testing.T) {
	_, err := ParsePacket(nil)
	assert.Error(t, err)

	p, err := ParsePacket([]byte{byte(PacketSessionData), 9, 8})
	require.NoError(t, err)
	assert.Equal(t, PacketSessionData, p.PacketType)
	assert.Equal(t, []byte{9, 8}, p.Data)
	assert.Equal(t, "session_data", p.PacketType.String())
	assert.Equal(t, "unknown", PacketType(200).String())
}

func TestNodePacket(t *testing.T) {
	np := &NodePacket{PublicKey: [32]byte{1}, Nonce: [24]byte{2}, Payload: []byte("sealed")}
	parsed, err := ParseNodePacket(np.Serialize())
	require.NoError(t, err)
	assert.Equal(t, np, parsed)

	_, err = ParseNodePacket(make([]byte, 55))
	assert.Error(t, err)
}

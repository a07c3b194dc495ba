package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyType_String(t *testing.T) {
	tests := []struct {
		name     string
		keyType  KeyType
		expected string
	}{
		{"Unknown", KeyTypeUnknown, "unknown"},
		{"Secp256k1", KeyTypeSecp256k1, "secp256k1"},
		{"Ed25519", KeyTypeEd25519, "ed25519"},
		{"Invalid value", KeyType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.keyType.String())
		})
	}
}

func TestPublicKeyType(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected KeyType
	}{
		{"Ed25519 width", 32, KeyTypeEd25519},
		{"Secp256k1 width", 64, KeyTypeSecp256k1},
		{"Too short", 10, KeyTypeUnknown},
		{"Too long", 65, KeyTypeUnknown},
		{"Empty", 0, KeyTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pubKey := make([]byte, tt.width)
			assert.Equal(t, tt.expected, PublicKeyType(pubKey))
		})
	}
}

func TestIsValidPublicKey(t *testing.T) {
	ed25519Key := make([]byte, 32)
	assert.True(t, IsValidPublicKey(ed25519Key, KeyTypeEd25519))
	assert.False(t, IsValidPublicKey(ed25519Key, KeyTypeSecp256k1))

	secp256k1Key := make([]byte, 64)
	assert.True(t, IsValidPublicKey(secp256k1Key, KeyTypeSecp256k1))
	assert.False(t, IsValidPublicKey(secp256k1Key, KeyTypeEd25519))

	shortKey := []byte{0xED, 0x94, 0x34}
	assert.False(t, IsValidPublicKey(shortKey, KeyTypeEd25519))
}

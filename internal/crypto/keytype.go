// Package crypto provides the key-generation and secure-erase primitives
// the rest of the module builds on.
package crypto

// KeyType represents the curve of a raw (unprefixed) public key.
type KeyType int

const (
	// KeyTypeUnknown indicates an unknown or invalid key type.
	KeyTypeUnknown KeyType = iota
	// KeyTypeSecp256k1 indicates a secp256k1 (ECDSA) key.
	KeyTypeSecp256k1
	// KeyTypeEd25519 indicates an Ed25519 key.
	KeyTypeEd25519
)

// String returns the string representation of the key type.
func (kt KeyType) String() string {
	switch kt {
	case KeyTypeSecp256k1:
		return "secp256k1"
	case KeyTypeEd25519:
		return "ed25519"
	default:
		return "unknown"
	}
}

// Raw public key widths, matching account.Ed25519KeySize and
// account.Secp256k1KeySize: no prefix byte, so the width alone
// identifies the curve between these two.
const (
	publicKeyWidthEd25519   = 32
	publicKeyWidthSecp256k1 = 64
)

// PublicKeyType infers a key type from a raw public key's byte width.
// It returns KeyTypeUnknown if the width matches neither curve.
func PublicKeyType(pubKey []byte) KeyType {
	switch len(pubKey) {
	case publicKeyWidthEd25519:
		return KeyTypeEd25519
	case publicKeyWidthSecp256k1:
		return KeyTypeSecp256k1
	default:
		return KeyTypeUnknown
	}
}

// IsValidPublicKey reports whether pubKey has the raw byte width want's
// curve requires.
func IsValidPublicKey(pubKey []byte, want KeyType) bool {
	return PublicKeyType(pubKey) == want
}

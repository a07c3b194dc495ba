package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

var (
	// ErrUnsupportedKeyType is returned when an unsupported key type is requested.
	ErrUnsupportedKeyType = errors.New("unsupported key type")
	// ErrRandomGeneration is returned when random number generation fails.
	ErrRandomGeneration = errors.New("failed to generate random bytes")
)

// RandomBytes generates n cryptographically secure random bytes.
// It uses crypto/rand which reads from the system's CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	b := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		return nil, ErrRandomGeneration
	}
	return b, nil
}

// RandomSecretKey generates a random secret key for the specified key type.
// The returned SecretKey should be closed when no longer needed to securely
// erase the key material from memory.
func RandomSecretKey(keyType KeyType) (*SecretKey, error) {
	switch keyType {
	case KeyTypeSecp256k1:
		return randomSecp256k1SecretKey()
	case KeyTypeEd25519:
		return randomEd25519SecretKey()
	default:
		return nil, ErrUnsupportedKeyType
	}
}

// randomSecp256k1SecretKey generates a random secp256k1 secret key.
func randomSecp256k1SecretKey() (*SecretKey, error) {
	// Generate 32 random bytes
	key, err := RandomBytes(SecretKeySecp256k1Size)
	if err != nil {
		return nil, err
	}

	// Verify it's a valid private key (within curve order)
	// This also normalizes the key if needed
	privKey, _ := btcec.PrivKeyFromBytes(key)
	if privKey == nil {
		// Very unlikely, but regenerate if invalid
		SecureErase(key)
		return randomSecp256k1SecretKey()
	}

	// Get the normalized bytes
	normalizedKey := privKey.Serialize()
	SecureErase(key)

	return NewSecretKey(normalizedKey), nil
}

// randomEd25519SecretKey generates a random Ed25519 secret key seed.
func randomEd25519SecretKey() (*SecretKey, error) {
	seed, err := RandomBytes(SecretKeyEd25519Size)
	if err != nil {
		return nil, err
	}
	return NewSecretKey(seed), nil
}

// RandomKeyPair generates a random key pair for the specified key type,
// in the raw (unprefixed) encoding account.PublicKey expects.
//
// For secp256k1:
//   - Public key: 64 bytes, uncompressed X||Y
//   - Private key: 32 bytes, the scalar
//
// For Ed25519:
//   - Public key: 32 bytes
//   - Private key: 32 bytes, the seed
func RandomKeyPair(keyType KeyType) (publicKey, privateKey []byte, err error) {
	switch keyType {
	case KeyTypeSecp256k1:
		return randomSecp256k1KeyPair()
	case KeyTypeEd25519:
		return randomEd25519KeyPair()
	default:
		return nil, nil, ErrUnsupportedKeyType
	}
}

// randomSecp256k1KeyPair generates a random secp256k1 key pair.
func randomSecp256k1KeyPair() (publicKey, privateKey []byte, err error) {
	sk, err := randomSecp256k1SecretKey()
	if err != nil {
		return nil, nil, err
	}
	defer sk.Close()

	privKey, pubKey := btcec.PrivKeyFromBytes(sk.Data())
	if privKey == nil {
		return nil, nil, ErrRandomGeneration
	}

	// SerializeUncompressed is 0x04||X||Y; the account package wants the
	// bare 64-byte coordinates.
	publicKey = append([]byte(nil), pubKey.SerializeUncompressed()[1:]...)
	privateKey = append([]byte(nil), privKey.Serialize()...)
	if !IsValidPublicKey(publicKey, KeyTypeSecp256k1) {
		return nil, nil, ErrRandomGeneration
	}

	return publicKey, privateKey, nil
}

// randomEd25519KeyPair generates a random Ed25519 key pair.
func randomEd25519KeyPair() (publicKey, privateKey []byte, err error) {
	seed, err := RandomBytes(SecretKeyEd25519Size)
	if err != nil {
		return nil, nil, err
	}
	defer SecureErase(seed)

	fullPrivKey := ed25519.NewKeyFromSeed(seed)
	pubKey := fullPrivKey.Public().(ed25519.PublicKey)

	publicKey = append([]byte(nil), pubKey...)
	privateKey = append([]byte(nil), seed...)
	if !IsValidPublicKey(publicKey, KeyTypeEd25519) {
		return nil, nil, ErrRandomGeneration
	}

	return publicKey, privateKey, nil
}

// RandomSeed generates a random 16-byte seed suitable for key derivation.
func RandomSeed() ([]byte, error) {
	return RandomBytes(16)
}

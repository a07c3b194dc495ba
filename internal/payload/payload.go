// Package payload implements the signed-envelope hashing and
// curve-dispatched signature verification the engine relies on to
// authenticate a batch before executing any of its intents.
package payload

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/crypto"
)

// HashPrefix domain-separates the engine's signing hash from any other
// hash computed over the same bytes elsewhere in the system, the same
// role XRPL's four-byte transaction-type prefixes play.
type HashPrefix uint32

// HashPrefixIntentBatch is the domain tag for a signed intent batch.
const HashPrefixIntentBatch HashPrefix = 0x49544e42 // "ITNB"

func (p HashPrefix) bytes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(p))
	return b
}

// Hash domain-separates and hashes body with Keccak-256, returning the
// 32-byte digest the signature is taken over.
func Hash(body []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(HashPrefixIntentBatch.bytes())
	h.Write(body)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

var (
	// ErrMalformedSignature names a signature whose byte width doesn't
	// match its claimed curve. Verify does not return it; it reports
	// such a signature as false.
	ErrMalformedSignature = errors.New("payload: malformed signature")
	// ErrNonCanonicalSignature names a Secp256k1 signature whose s value
	// is over half the curve order. Verify does not return it; it
	// rejects such a signature by reporting false.
	ErrNonCanonicalSignature = errors.New("payload: non-canonical signature")
)

// Verify reports whether signature authenticates hash under key. For
// Ed25519 the signature is the raw 64-byte Ed25519 signature; for
// Secp256k1 it is a 65-byte recoverable signature (r||s||v) and the
// recovered key is compared against key's raw bytes; for P256 it is a
// DER-free raw (r||s) 64-byte signature over SHA-256(hash), verified
// against the supplied uncompressed key.
func Verify(key account.PublicKey, hash [32]byte, signature []byte) bool {
	switch key.Curve {
	case account.CurveEd25519:
		return verifyEd25519(key, hash, signature)
	case account.CurveSecp256k1:
		return verifySecp256k1(key, hash, signature)
	case account.CurveP256:
		return verifyP256(key, hash, signature)
	default:
		return false
	}
}

func verifyEd25519(key account.PublicKey, hash [32]byte, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	if !crypto.Ed25519Canonical(signature) {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(key.RawBytes()), hash[:], signature)
}

// verifySecp256k1 recovers the signing key from a 65-byte r||s||v
// recoverable signature and compares it against key, rejecting any
// signature whose s component is over half the curve order.
func verifySecp256k1(key account.PublicKey, hash [32]byte, signature []byte) bool {
	if len(signature) != 65 {
		return false
	}
	r := new(big.Int).SetBytes(signature[0:32])
	s := new(big.Int).SetBytes(signature[32:64])
	v := signature[64]

	if !crypto.IsCanonicalSecp256k1S(signature[32:64]) {
		return false
	}

	compact := make([]byte, 65)
	compact[0] = 27 + v
	r.FillBytes(compact[1:33])
	s.FillBytes(compact[33:65])

	recovered, _, err := dcrecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return false
	}
	recoveredKey, err := account.NewSecp256k1PublicKey(recovered.SerializeUncompressed()[1:])
	if err != nil {
		return false
	}
	return recoveredKey == key
}

func verifyP256(key account.PublicKey, hash [32]byte, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	raw := key.RawBytes()
	x := new(big.Int).SetBytes(raw[:32])
	y := new(big.Int).SetBytes(raw[32:])
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	digest := sha256.Sum256(hash[:])
	return ecdsa.Verify(pub, digest[:], r, s)
}

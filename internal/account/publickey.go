// Package account implements the per-principal Account record: key
// management, the nonce bitmap, and checked-arithmetic token balances.
package account

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// Curve tags the cryptographic scheme a PublicKey was issued under.
type Curve uint8

const (
	// CurveEd25519 is the default curve when a text form carries no prefix.
	CurveEd25519 Curve = iota
	CurveSecp256k1
	CurveP256
)

func (c Curve) String() string {
	switch c {
	case CurveEd25519:
		return "ed25519"
	case CurveSecp256k1:
		return "secp256k1"
	case CurveP256:
		return "p256"
	default:
		return "unknown"
	}
}

// Key byte widths per curve, matching the tagged variant in the data model.
const (
	Ed25519KeySize   = 32
	Secp256k1KeySize = 64
	P256KeySize      = 64
)

var (
	// ErrUnknownCurve is returned when parsing a PublicKey text form with
	// an unrecognized curve prefix.
	ErrUnknownCurve = errors.New("account: unknown public key curve")
	// ErrMalformedPublicKey is returned when a PublicKey text form is
	// not valid base58 or has the wrong byte width for its curve.
	ErrMalformedPublicKey = errors.New("account: malformed public key")
)

// PublicKey is the tagged variant { Ed25519 | Secp256k1 | P256 }. It is
// comparable and usable as a map key.
type PublicKey struct {
	Curve Curve
	Bytes [64]byte // only the leading Curve-specific width is meaningful
	Len   int
}

// NewEd25519PublicKey constructs an Ed25519 variant from a 32-byte key.
func NewEd25519PublicKey(b []byte) (PublicKey, error) {
	if len(b) != Ed25519KeySize {
		return PublicKey{}, ErrMalformedPublicKey
	}
	var pk PublicKey
	pk.Curve = CurveEd25519
	pk.Len = Ed25519KeySize
	copy(pk.Bytes[:], b)
	return pk, nil
}

// NewSecp256k1PublicKey constructs a Secp256k1 variant from a 64-byte
// uncompressed (X||Y, no prefix byte) key.
func NewSecp256k1PublicKey(b []byte) (PublicKey, error) {
	if len(b) != Secp256k1KeySize {
		return PublicKey{}, ErrMalformedPublicKey
	}
	var pk PublicKey
	pk.Curve = CurveSecp256k1
	pk.Len = Secp256k1KeySize
	copy(pk.Bytes[:], b)
	return pk, nil
}

// NewP256PublicKey constructs a P256 (secp256r1) variant from a 64-byte
// uncompressed (X||Y) key.
func NewP256PublicKey(b []byte) (PublicKey, error) {
	if len(b) != P256KeySize {
		return PublicKey{}, ErrMalformedPublicKey
	}
	var pk PublicKey
	pk.Curve = CurveP256
	pk.Len = P256KeySize
	copy(pk.Bytes[:], b)
	return pk, nil
}

// RawBytes returns the curve-appropriate slice of the key material.
func (pk PublicKey) RawBytes() []byte {
	return pk.Bytes[:pk.Len]
}

// String renders the canonical text form curve:base58(bytes). Ed25519
// is the default curve and is rendered without a prefix.
func (pk PublicKey) String() string {
	enc := base58.Encode(pk.RawBytes())
	if pk.Curve == CurveEd25519 {
		return enc
	}
	return fmt.Sprintf("%s:%s", pk.Curve, enc)
}

// ParsePublicKey parses the text form produced by String. An unprefixed
// value is assumed Ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	curve := CurveEd25519
	encoded := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		switch s[:idx] {
		case "ed25519":
			curve = CurveEd25519
		case "secp256k1":
			curve = CurveSecp256k1
		case "p256":
			curve = CurveP256
		default:
			return PublicKey{}, ErrUnknownCurve
		}
		encoded = s[idx+1:]
	}

	raw, err := base58.Decode(encoded)
	if err != nil {
		return PublicKey{}, ErrMalformedPublicKey
	}

	switch curve {
	case CurveEd25519:
		return NewEd25519PublicKey(raw)
	case CurveSecp256k1:
		return NewSecp256k1PublicKey(raw)
	case CurveP256:
		return NewP256PublicKey(raw)
	default:
		return PublicKey{}, ErrUnknownCurve
	}
}

// PrincipalID is the canonical account identifier a PublicKey implicitly
// derives, and the type every balance/nonce/key record is keyed by.
type PrincipalID string

// keccakTail hashes b with Keccak-256 and returns the trailing 20 bytes,
// the same truncation rule Ethereum-style address derivation uses.
func keccakTail(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	sum := h.Sum(nil)
	return sum[len(sum)-20:]
}

// ImplicitPrincipalID derives the principal id a PublicKey implies by
// construction, per curve:
//   - Ed25519: the hex encoding of the raw key, no hashing.
//   - Secp256k1: the hex-encoded Keccak-256 tail of the raw key.
//   - P256: the same Keccak-256 tail, namespaced under a reserved "p256:"
//     subspace so P256 and Secp256k1 principals can never collide even
//     if the underlying coordinates did.
func (pk PublicKey) ImplicitPrincipalID() PrincipalID {
	switch pk.Curve {
	case CurveEd25519:
		return PrincipalID(hex.EncodeToString(pk.RawBytes()))
	case CurveSecp256k1:
		return PrincipalID(hex.EncodeToString(keccakTail(pk.RawBytes())))
	case CurveP256:
		return PrincipalID("p256:" + hex.EncodeToString(keccakTail(pk.RawBytes())))
	default:
		return ""
	}
}

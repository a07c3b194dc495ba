package payload

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	dcrec "github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/basinledger/settled/internal/account"
)

func TestHashDomainSeparatesFromRawSha3(t *testing.T) {
	body := []byte("batch body")
	h1 := Hash(body)
	h2 := Hash(body)
	assert.Equal(t, h1, h2)

	h3 := Hash([]byte("different body"))
	assert.NotEqual(t, h1, h3)

	raw := sha3.NewLegacyKeccak256()
	raw.Write(body)
	assert.NotEqual(t, raw.Sum(nil), h1[:])
}

func TestVerifyEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := account.NewEd25519PublicKey(pub)
	require.NoError(t, err)

	hash := Hash([]byte("intent batch"))
	sig := ed25519.Sign(priv, hash[:])

	assert.True(t, Verify(key, hash, sig))
}

func TestVerifyEd25519RejectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := account.NewEd25519PublicKey(otherPub)
	require.NoError(t, err)

	hash := Hash([]byte("intent batch"))
	sig := ed25519.Sign(priv, hash[:])

	assert.False(t, Verify(key, hash, sig))
}

func TestVerifyEd25519RejectsWrongLength(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := account.NewEd25519PublicKey(pub)
	require.NoError(t, err)

	hash := Hash([]byte("intent batch"))
	assert.False(t, Verify(key, hash, make([]byte, 10)))
}

func TestVerifySecp256k1RoundTrip(t *testing.T) {
	privBytes := make([]byte, 32)
	_, err := rand.Read(privBytes)
	require.NoError(t, err)
	priv := dcrec.PrivKeyFromBytes(privBytes)
	pub := priv.PubKey()

	key, err := account.NewSecp256k1PublicKey(pub.SerializeUncompressed()[1:])
	require.NoError(t, err)

	hash := Hash([]byte("intent batch"))
	compact := dcrecdsa.SignCompact(priv, hash[:], false)
	sig := append(append([]byte{}, compact[1:]...), compact[0]-27)

	assert.True(t, Verify(key, hash, sig))
}

func TestVerifySecp256k1RejectsNonCanonicalS(t *testing.T) {
	privBytes := make([]byte, 32)
	_, err := rand.Read(privBytes)
	require.NoError(t, err)
	priv := dcrec.PrivKeyFromBytes(privBytes)
	pub := priv.PubKey()

	key, err := account.NewSecp256k1PublicKey(pub.SerializeUncompressed()[1:])
	require.NoError(t, err)

	hash := Hash([]byte("intent batch"))
	compact := dcrecdsa.SignCompact(priv, hash[:], false)
	sig := append(append([]byte{}, compact[1:]...), compact[0]-27)

	order, ok := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	require.True(t, ok)
	s := new(big.Int).SetBytes(sig[32:64])
	highS := new(big.Int).Sub(order, s)
	highS.FillBytes(sig[32:64])

	assert.False(t, Verify(key, hash, sig))
}

func TestVerifyP256RoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	raw := make([]byte, 64)
	priv.X.FillBytes(raw[:32])
	priv.Y.FillBytes(raw[32:])
	key, err := account.NewP256PublicKey(raw)
	require.NoError(t, err)

	hash := Hash([]byte("intent batch"))
	digest := sha256.Sum256(hash[:])
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])

	assert.True(t, Verify(key, hash, sig))
}

func TestVerifyUnknownCurveRejected(t *testing.T) {
	key := account.PublicKey{Curve: account.Curve(99)}
	hash := Hash([]byte("intent batch"))
	assert.False(t, Verify(key, hash, make([]byte, 64)))
}

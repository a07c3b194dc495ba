package host

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/engine"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/payload"
	"github.com/basinledger/settled/internal/state"
	"github.com/basinledger/settled/internal/storage/database"
	"github.com/basinledger/settled/internal/tokens"
)

// memDB is a minimal in-memory database.DB used to exercise Host's
// persistence path without a real storage backend.
type memDB struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemDB() *memDB { return &memDB{data: make(map[string][]byte)} }

func (m *memDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, database.ErrKeyNotFound
	}
	return v, nil
}

func (m *memDB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = value
	return nil
}

func (m *memDB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memDB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			m.data[string(op.Key)] = op.Value
		case database.BatchDelete:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

func (m *memDB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if k >= string(start) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return &memIterator{keys: keys, data: m.data, idx: -1}, nil
}

type memIterator struct {
	keys []string
	data map[string][]byte
	idx  int
}

func (it *memIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}
func (it *memIterator) Key() []byte   { return []byte(it.keys[it.idx]) }
func (it *memIterator) Value() []byte { return it.data[it.keys[it.idx]] }
func (it *memIterator) Error() error  { return nil }
func (it *memIterator) Close() error  { return nil }

func testParams(t *testing.T) state.Params {
	t.Helper()
	wrapped, err := tokens.ParseTokenId("ft:native")
	require.NoError(t, err)
	return state.Params{
		VerifyingContract: "settlement.test",
		WrappedNative:     wrapped,
		Fee:               numeric.ZeroPips,
		FeeCollector:      "fees",
	}
}

// signedEnvelope builds a real ed25519-signed Envelope authorizing
// signer to run intents, after registering signer's key in base.
func signedEnvelope(t *testing.T, base *state.BaseState, signer account.PrincipalID, nonce byte, intents []engine.Intent) *engine.Envelope {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pk, err := account.NewEd25519PublicKey(pub)
	require.NoError(t, err)
	base.AddPublicKey(signer, pk)

	var n bitmap.Nonce
	n[0] = nonce

	body := []byte(fmt.Sprintf("batch-%d", nonce))
	hash := payload.Hash(body)
	sig := ed25519.Sign(priv, hash[:])

	return &engine.Envelope{
		Signer:            signer,
		VerifyingContract: base.VerifyingContract(),
		Deadline:          ^uint64(0),
		Nonce:             n,
		Intents:           intents,
		PublicKey:         pk,
		Signature:         sig,
		Body:              body,
	}
}

func TestHostSubmitCommitsOnSuccess(t *testing.T) {
	params := testParams(t)
	base := state.NewBaseState(params)

	tok, err := tokens.ParseTokenId("ft:usdc")
	require.NoError(t, err)
	require.NoError(t, base.InternalDeposit("alice", tok, mustAmount(t, "1000")))

	db := newMemDB()
	h := New(base, db)

	env := signedEnvelope(t, base, "alice", 0x01, []engine.Intent{
		engine.Transfer{
			Receiver: "bob",
			Deltas:   map[tokens.TokenId]numeric.Delta{tok: mustDelta(t, "-100")},
		},
	})

	_, err = h.Submit(context.Background(), 1, []*engine.Envelope{env}, nil)
	require.NoError(t, err)

	assert.Equal(t, "900", base.BalanceOf("alice", tok).String())
	assert.Equal(t, "100", base.BalanceOf("bob", tok).String())

	reloaded, err := Load(context.Background(), db, params)
	require.NoError(t, err)
	assert.Equal(t, "900", reloaded.State().BalanceOf("alice", tok).String())
}

func TestHostSubmitDiscardsOverlayOnFailure(t *testing.T) {
	params := testParams(t)
	base := state.NewBaseState(params)
	db := newMemDB()
	h := New(base, db)

	badEnv := signedEnvelope(t, base, "alice", 0x02, nil)
	badEnv.Signature = []byte("not-a-valid-signature-at-all!!!")

	_, err := h.Submit(context.Background(), 1, []*engine.Envelope{badEnv}, nil)
	require.Error(t, err)

	assert.False(t, base.IsNonceUsed("alice", badEnv.Nonce))
}

func TestHostSimulateNeverCommits(t *testing.T) {
	params := testParams(t)
	base := state.NewBaseState(params)

	tok, err := tokens.ParseTokenId("ft:usdc")
	require.NoError(t, err)
	require.NoError(t, base.InternalDeposit("alice", tok, mustAmount(t, "1000")))

	h := New(base, nil)

	env := signedEnvelope(t, base, "alice", 0x03, []engine.Intent{
		engine.Transfer{
			Receiver: "bob",
			Deltas:   map[tokens.TokenId]numeric.Delta{tok: mustDelta(t, "-100")},
		},
	})

	transfers, err := h.Simulate(1, []*engine.Envelope{env}, nil)
	require.NoError(t, err)
	require.NotNil(t, transfers)

	assert.Equal(t, "1000", base.BalanceOf("alice", tok).String())
	assert.False(t, base.IsNonceUsed("alice", env.Nonce))
}

func mustAmount(t *testing.T, s string) numeric.Amount {
	t.Helper()
	a, err := numeric.ParseAmount(s)
	require.NoError(t, err)
	return a
}

func mustDelta(t *testing.T, s string) numeric.Delta {
	t.Helper()
	d, err := numeric.ParseDelta(s)
	require.NoError(t, err)
	return d
}

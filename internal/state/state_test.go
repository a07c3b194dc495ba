package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

func mustAmount(t *testing.T, s string) numeric.Amount {
	t.Helper()
	a, err := numeric.ParseAmount(s)
	require.NoError(t, err)
	return a
}

func testParams() Params {
	return Params{
		VerifyingContract: account.PrincipalID("verifier"),
		WrappedNative:     tokens.SingleFungible("native"),
		Fee:               numeric.OnePercent,
		FeeCollector:      account.PrincipalID("collector"),
	}
}

func TestBaseStateBalanceOfAbsentAccountIsZero(t *testing.T) {
	base := NewBaseState(testParams())
	assert.Equal(t, "0", base.BalanceOf(account.PrincipalID("nobody"), tokens.SingleFungible("usdc")).String())
	assert.False(t, base.AccountExists(account.PrincipalID("nobody")))
}

func TestBaseStateDepositCreatesAccount(t *testing.T) {
	base := NewBaseState(testParams())
	tok := tokens.SingleFungible("usdc")
	require.NoError(t, base.InternalDeposit(account.PrincipalID("alice"), tok, mustAmount(t, "10")))

	assert.True(t, base.AccountExists(account.PrincipalID("alice")))
	assert.Equal(t, "10", base.BalanceOf(account.PrincipalID("alice"), tok).String())
}

func TestBaseStateWithdrawFromMissingAccountFails(t *testing.T) {
	base := NewBaseState(testParams())
	err := base.InternalWithdraw(account.PrincipalID("ghost"), tokens.SingleFungible("usdc"), mustAmount(t, "1"))
	assert.ErrorIs(t, err, ledgererr.ErrAccountNotFound)
}

func TestBaseStateNonceCommitOnlyOnce(t *testing.T) {
	base := NewBaseState(testParams())
	var n bitmap.Nonce
	n[31] = 1

	assert.True(t, base.CommitNonce(account.PrincipalID("alice"), n))
	assert.False(t, base.CommitNonce(account.PrincipalID("alice"), n))
	assert.True(t, base.IsNonceUsed(account.PrincipalID("alice"), n))
}

func TestCachedStateReadsThroughToBase(t *testing.T) {
	base := NewBaseState(testParams())
	tok := tokens.SingleFungible("usdc")
	require.NoError(t, base.InternalDeposit(account.PrincipalID("alice"), tok, mustAmount(t, "50")))

	cached := NewCachedState(base)
	assert.Equal(t, "50", cached.BalanceOf(account.PrincipalID("alice"), tok).String())
}

func TestCachedStateWritesAreIsolatedUntilCommit(t *testing.T) {
	base := NewBaseState(testParams())
	tok := tokens.SingleFungible("usdc")
	cached := NewCachedState(base)

	require.NoError(t, cached.InternalDeposit(account.PrincipalID("alice"), tok, mustAmount(t, "20")))
	assert.Equal(t, "20", cached.BalanceOf(account.PrincipalID("alice"), tok).String())
	assert.Equal(t, "0", base.BalanceOf(account.PrincipalID("alice"), tok).String())

	cached.Commit(base)
	assert.Equal(t, "20", base.BalanceOf(account.PrincipalID("alice"), tok).String())
}

func TestCachedStateWithdrawAgainstExistingBaseAccountAllowed(t *testing.T) {
	base := NewBaseState(testParams())
	tok := tokens.SingleFungible("usdc")
	require.NoError(t, base.InternalDeposit(account.PrincipalID("alice"), tok, mustAmount(t, "30")))

	cached := NewCachedState(base)
	err := cached.InternalWithdraw(account.PrincipalID("alice"), tok, mustAmount(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, "20", cached.BalanceOf(account.PrincipalID("alice"), tok).String())
}

func TestCachedStateWithdrawAgainstUnknownAccountFails(t *testing.T) {
	base := NewBaseState(testParams())
	cached := NewCachedState(base)

	err := cached.InternalWithdraw(account.PrincipalID("ghost"), tokens.SingleFungible("usdc"), mustAmount(t, "1"))
	assert.ErrorIs(t, err, ledgererr.ErrAccountNotFound)
}

func TestCachedStateKeyAddRemoveOverlay(t *testing.T) {
	base := NewBaseState(testParams())
	cached := NewCachedState(base)

	raw := make([]byte, account.Ed25519KeySize)
	raw[0] = 1
	key, err := account.NewEd25519PublicKey(raw)
	require.NoError(t, err)
	principal := account.PrincipalID("alice")

	assert.True(t, cached.AddPublicKey(principal, key))
	assert.True(t, cached.HasPublicKey(principal, key))
	assert.False(t, base.HasPublicKey(principal, key))

	cached.Commit(base)
	assert.True(t, base.HasPublicKey(principal, key))
}

func TestCachedStateNonceCommitChecksBothLayers(t *testing.T) {
	base := NewBaseState(testParams())
	var n bitmap.Nonce
	n[31] = 7
	principal := account.PrincipalID("alice")
	require.True(t, base.CommitNonce(principal, n))

	cached := NewCachedState(base)
	assert.True(t, cached.IsNonceUsed(principal, n))
	assert.False(t, cached.CommitNonce(principal, n))
}

func TestInternalAddDeltasRejectsZeroDelta(t *testing.T) {
	base := NewBaseState(testParams())
	deltas := map[tokens.TokenId]numeric.Delta{
		tokens.SingleFungible("usdc"): numeric.ZeroDelta(),
	}
	err := InternalAddDeltas(base, account.PrincipalID("alice"), deltas)
	assert.ErrorIs(t, err, ledgererr.ErrInvalidIntent)
}

func TestInternalAddDeltasAppliesDepositsAndWithdrawals(t *testing.T) {
	base := NewBaseState(testParams())
	tok := tokens.SingleFungible("usdc")
	require.NoError(t, base.InternalDeposit(account.PrincipalID("alice"), tok, mustAmount(t, "100")))

	deltas := map[tokens.TokenId]numeric.Delta{
		tok: numeric.DeltaFromInt64(-30),
	}
	require.NoError(t, InternalAddDeltas(base, account.PrincipalID("alice"), deltas))
	assert.Equal(t, "70", base.BalanceOf(account.PrincipalID("alice"), tok).String())
}

func TestFtWithdrawAppliesStorageDeposit(t *testing.T) {
	base := NewBaseState(testParams())
	tok := tokens.SingleFungible("usdc")
	native := base.WrappedNativeToken()
	require.NoError(t, base.InternalDeposit(account.PrincipalID("alice"), tok, mustAmount(t, "100")))
	require.NoError(t, base.InternalDeposit(account.PrincipalID("alice"), native, mustAmount(t, "5")))

	require.NoError(t, base.FtWithdraw(account.PrincipalID("alice"), tok, mustAmount(t, "40"), mustAmount(t, "2")))
	assert.Equal(t, "60", base.BalanceOf(account.PrincipalID("alice"), tok).String())
	assert.Equal(t, "3", base.BalanceOf(account.PrincipalID("alice"), native).String())
}

func TestMtWithdrawRejectsMismatchedLengths(t *testing.T) {
	base := NewBaseState(testParams())
	err := base.MtWithdraw(account.PrincipalID("alice"),
		[]tokens.TokenId{tokens.MultiToken("game", "1")},
		[]numeric.Amount{},
		numeric.ZeroAmount())
	assert.ErrorIs(t, err, ledgererr.ErrInvalidIntent)
}

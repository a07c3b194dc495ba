package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinledger/settled/internal/account"
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

func TestFinalizeSimpleTransferBalances(t *testing.T) {
	m := New()
	tok := tokens.SingleFungible("usdc")
	alice := account.PrincipalID("alice")
	bob := account.PrincipalID("bob")

	m.RecordWithdrawal(tok, alice, mustAmount(t, "100"))
	m.RecordDeposit(tok, bob, mustAmount(t, "100"))

	transfers, err := m.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "100", transfers.For(alice, bob, tok).String())
}

func TestFinalizeUnbalancedReturnsInvariantViolated(t *testing.T) {
	m := New()
	tok := tokens.SingleFungible("usdc")
	alice := account.PrincipalID("alice")

	m.RecordWithdrawal(tok, alice, mustAmount(t, "100"))

	transfers, err := m.Finalize()
	assert.Nil(t, transfers)
	var invariant *ledgererr.InvariantViolated
	assert.ErrorAs(t, err, &invariant)
	assert.Contains(t, invariant.UnmatchedDeltas, tok.String())
}

func TestRecordDepositCancelsOutstandingWithdrawalSameAccount(t *testing.T) {
	m := New()
	tok := tokens.SingleFungible("usdc")
	alice := account.PrincipalID("alice")
	bob := account.PrincipalID("bob")

	// alice withdraws 50 then deposits 30 back: net withdrawal is 20.
	m.RecordWithdrawal(tok, alice, mustAmount(t, "50"))
	m.RecordDeposit(tok, alice, mustAmount(t, "30"))
	m.RecordDeposit(tok, bob, mustAmount(t, "20"))

	transfers, err := m.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "20", transfers.For(alice, bob, tok).String())
}

func TestFinalizeSplitsAcrossMultipleReceivers(t *testing.T) {
	m := New()
	tok := tokens.SingleFungible("usdc")
	alice := account.PrincipalID("alice")
	bob := account.PrincipalID("bob")
	carol := account.PrincipalID("carol")

	m.RecordWithdrawal(tok, alice, mustAmount(t, "100"))
	m.RecordDeposit(tok, bob, mustAmount(t, "60"))
	m.RecordDeposit(tok, carol, mustAmount(t, "40"))

	transfers, err := m.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "60", transfers.For(alice, bob, tok).String())
	assert.Equal(t, "40", transfers.For(alice, carol, tok).String())
}

func TestFinalizeEmptyMatcherProducesEmptyTransfers(t *testing.T) {
	m := New()
	transfers, err := m.Finalize()
	require.NoError(t, err)

	count := 0
	transfers.Range(func(sender, receiver account.PrincipalID, t tokens.TokenId, amount numeric.Amount) {
		count++
	})
	assert.Equal(t, 0, count)
}

func TestTransfersAddAccumulatesAcrossCalls(t *testing.T) {
	tr := NewTransfers()
	tok := tokens.SingleFungible("usdc")
	alice := account.PrincipalID("alice")
	bob := account.PrincipalID("bob")

	tr.Add(alice, bob, tok, mustAmount(t, "10"))
	tr.Add(alice, bob, tok, mustAmount(t, "5"))

	assert.Equal(t, "15", tr.For(alice, bob, tok).String())
}

func TestTransfersAddZeroIsNoop(t *testing.T) {
	tr := NewTransfers()
	tok := tokens.SingleFungible("usdc")
	alice := account.PrincipalID("alice")
	bob := account.PrincipalID("bob")

	tr.Add(alice, bob, tok, numeric.ZeroAmount())
	assert.Equal(t, "0", tr.For(alice, bob, tok).String())

	count := 0
	tr.Range(func(sender, receiver account.PrincipalID, t tokens.TokenId, amount numeric.Amount) {
		count++
	})
	assert.Equal(t, 0, count)
}

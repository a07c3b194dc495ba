package matcher

import (
	"sort"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/cleanup"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

type tokenBook struct {
	deposits    *cleanup.DefaultMap[account.PrincipalID, numeric.Amount]
	withdrawals *cleanup.DefaultMap[account.PrincipalID, numeric.Amount]
}

func newTokenBook() *tokenBook {
	return &tokenBook{
		deposits:    cleanup.NewDefaultMap[account.PrincipalID, numeric.Amount](),
		withdrawals: cleanup.NewDefaultMap[account.PrincipalID, numeric.Amount](),
	}
}

// TransferMatcher records every gross deposit and withdrawal an
// engine's intents issue during one batch, per (token, account), and
// decomposes the result into concrete transfers at finalize time.
type TransferMatcher struct {
	books map[tokens.TokenId]*tokenBook
}

// New constructs an empty TransferMatcher.
func New() *TransferMatcher {
	return &TransferMatcher{books: make(map[tokens.TokenId]*tokenBook)}
}

func (m *TransferMatcher) book(t tokens.TokenId) *tokenBook {
	b, ok := m.books[t]
	if !ok {
		b = newTokenBook()
		m.books[t] = b
	}
	return b
}

// RecordDeposit records that acct received amount of t. A deposit to an
// account with outstanding withdrawals cancels those withdrawals
// greedily first (the same-account self-transfer optimization).
func (m *TransferMatcher) RecordDeposit(t tokens.TokenId, acct account.PrincipalID, amount numeric.Amount) {
	b := m.book(t)
	m.record(t, acct, amount, b.withdrawals, b.deposits)
}

// RecordWithdrawal records that acct sent amount of t. Mirrors
// RecordDeposit, cancelling against outstanding deposits first.
func (m *TransferMatcher) RecordWithdrawal(t tokens.TokenId, acct account.PrincipalID, amount numeric.Amount) {
	b := m.book(t)
	m.record(t, acct, amount, b.deposits, b.withdrawals)
}

func (m *TransferMatcher) record(t tokens.TokenId, acct account.PrincipalID, amount numeric.Amount, opposite, same *cleanup.DefaultMap[account.PrincipalID, numeric.Amount]) {
	if amount.IsZero() {
		return
	}
	remaining := amount
	if outstanding, ok := opposite.Get(acct); ok && !outstanding.IsZero() {
		cancel := outstanding
		if remaining.Cmp(outstanding) < 0 {
			cancel = remaining
		}
		next, _ := outstanding.Sub(cancel)
		opposite.Set(acct, next)
		remaining, _ = remaining.Sub(cancel)
	}
	if !remaining.IsZero() {
		cur, _ := same.Get(acct)
		next, err := cur.Add(remaining)
		if err != nil {
			panic("matcher: gross amount overflow")
		}
		same.Set(acct, next)
	}
}

type ledgerEntry struct {
	acct   account.PrincipalID
	amount numeric.Amount
}

// sortDescending sorts entries by descending amount, stable on
// ascending account id for deterministic cross-client transfer
// generation.
func sortDescending(entries []ledgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		c := entries[i].amount.Cmp(entries[j].amount)
		if c != 0 {
			return c > 0
		}
		return entries[i].acct < entries[j].acct
	})
}

func collect(m *cleanup.DefaultMap[account.PrincipalID, numeric.Amount]) []ledgerEntry {
	var out []ledgerEntry
	m.Range(func(acct account.PrincipalID, amount numeric.Amount) bool {
		out = append(out, ledgerEntry{acct: acct, amount: amount})
		return true
	})
	sortDescending(out)
	return out
}

// Finalize decomposes every token's recorded gross deposits and
// withdrawals into concrete sender->receiver transfers via a
// descending two-pointer walk, and reports the outcome.
//
// A token balances iff both its deposit and withdrawal totals are
// exhausted together. Finalize returns the complete Transfers only if
// every token balances; otherwise it returns a *ledgererr.InvariantViolated
// naming every unmatched token's signed residual, and Transfers is nil.
func (m *TransferMatcher) Finalize() (*Transfers, error) {
	transfers := NewTransfers()
	unmatched := make(map[string]string)

	for t, b := range m.books {
		withdrawals := collect(b.withdrawals)
		deposits := collect(b.deposits)

		i, j := 0, 0
		var senderRemaining, receiverRemaining numeric.Amount
		if len(withdrawals) > 0 {
			senderRemaining = withdrawals[0].amount
		}
		if len(deposits) > 0 {
			receiverRemaining = deposits[0].amount
		}

		for i < len(withdrawals) && j < len(deposits) {
			xfer := senderRemaining
			if receiverRemaining.Cmp(xfer) < 0 {
				xfer = receiverRemaining
			}
			transfers.Add(withdrawals[i].acct, deposits[j].acct, t, xfer)

			senderRemaining, _ = senderRemaining.Sub(xfer)
			receiverRemaining, _ = receiverRemaining.Sub(xfer)

			if senderRemaining.IsZero() {
				i++
				if i < len(withdrawals) {
					senderRemaining = withdrawals[i].amount
				}
			}
			if receiverRemaining.IsZero() {
				j++
				if j < len(deposits) {
					receiverRemaining = deposits[j].amount
				}
			}
		}

		if i < len(withdrawals) || j < len(deposits) {
			residual := tokenResidual(withdrawals, deposits)
			unmatched[t.String()] = residual.Big().String()
		}
	}

	if len(unmatched) > 0 {
		return nil, &ledgererr.InvariantViolated{UnmatchedDeltas: unmatched}
	}
	return transfers, nil
}

// tokenResidual returns deposits_total - withdrawals_total as a signed
// Delta: positive means more was deposited than withdrawn for this
// token across the batch.
func tokenResidual(withdrawals, deposits []ledgerEntry) numeric.Delta {
	depositsTotal := numeric.ZeroAmount()
	for _, e := range deposits {
		depositsTotal, _ = depositsTotal.Add(e.amount)
	}
	withdrawalsTotal := numeric.ZeroAmount()
	for _, e := range withdrawals {
		withdrawalsTotal, _ = withdrawalsTotal.Add(e.amount)
	}
	return numeric.NewDelta(depositsTotal.Big()).Add(numeric.NewDelta(withdrawalsTotal.Big()).Neg())
}

// Package matcher implements the transfer matcher: it records gross
// per-account deposits and withdrawals per token during a batch, then
// decomposes each token's net deltas into concrete sender->receiver
// transfers, or reports the unmatched residual.
package matcher

import (
	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// Transfers is the nested mapping sender -> receiver -> token -> amount
// the matcher produces on success. Entries accumulate rather than
// overwrite, so the same (sender, receiver) pair visited more than once
// across different tokens, or the same token more than once, never
// loses a prior transfer.
type Transfers struct {
	bySender map[account.PrincipalID]map[account.PrincipalID]map[tokens.TokenId]numeric.Amount
}

// NewTransfers constructs an empty Transfers.
func NewTransfers() *Transfers {
	return &Transfers{bySender: make(map[account.PrincipalID]map[account.PrincipalID]map[tokens.TokenId]numeric.Amount)}
}

// Add records amount transferred from sender to receiver for t, adding
// into any existing entry.
func (tr *Transfers) Add(sender, receiver account.PrincipalID, t tokens.TokenId, amount numeric.Amount) {
	if amount.IsZero() {
		return
	}
	byReceiver, ok := tr.bySender[sender]
	if !ok {
		byReceiver = make(map[account.PrincipalID]map[tokens.TokenId]numeric.Amount)
		tr.bySender[sender] = byReceiver
	}
	byToken, ok := byReceiver[receiver]
	if !ok {
		byToken = make(map[tokens.TokenId]numeric.Amount)
		byReceiver[receiver] = byToken
	}
	cur := byToken[t]
	sum, err := cur.Add(amount)
	if err != nil {
		// Two gross legs summing past u128 range cannot happen for
		// amounts that individually fit u128 and were already checked
		// against real balances; treat as an invariant bug rather than
		// a reportable engine error.
		panic("matcher: transfer accumulation overflow")
	}
	byToken[t] = sum
}

// For returns the amount transferred from sender to receiver of t, zero if none.
func (tr *Transfers) For(sender, receiver account.PrincipalID, t tokens.TokenId) numeric.Amount {
	byReceiver, ok := tr.bySender[sender]
	if !ok {
		return numeric.ZeroAmount()
	}
	byToken, ok := byReceiver[receiver]
	if !ok {
		return numeric.ZeroAmount()
	}
	return byToken[t]
}

// Range calls fn for every recorded (sender, receiver, token, amount) leg.
func (tr *Transfers) Range(fn func(sender, receiver account.PrincipalID, t tokens.TokenId, amount numeric.Amount)) {
	for sender, byReceiver := range tr.bySender {
		for receiver, byToken := range byReceiver {
			for t, amount := range byToken {
				fn(sender, receiver, t, amount)
			}
		}
	}
}

package account

import (
	"encoding/hex"

	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/cleanup"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// Account is the per-principal record: key management, the replay
// nonce bitmap, and checked-arithmetic token balances.
type Account struct {
	Principal PrincipalID

	keysAdded   map[PublicKey]struct{}
	keysRemoved map[PublicKey]struct{}
	nonces      *bitmap.Bitmap
	balances    *cleanup.DefaultMap[tokens.TokenId, numeric.Amount]
}

// New constructs an empty Account for principal, created implicitly on
// first write per the lifecycle rule in the data model.
func New(principal PrincipalID) *Account {
	return &Account{
		Principal:   principal,
		keysAdded:   make(map[PublicKey]struct{}),
		keysRemoved: make(map[PublicKey]struct{}),
		nonces:      bitmap.New(),
		balances:    cleanup.NewDefaultMap[tokens.TokenId, numeric.Amount](),
	}
}

// ImplicitPublicKey reconstructs the public key this account's
// principal id was implicitly derived from, when that derivation is
// reversible. Only Ed25519 implicit ids (the raw hex-encoded key) are
// reversible; Secp256k1 and P256 use a one-way Keccak-256 tail, so for
// those curves presence is only checkable via HasPublicKey against a
// candidate key, never literally reconstructible for iteration.
func (a *Account) ImplicitPublicKey() (PublicKey, bool) {
	raw, err := hex.DecodeString(string(a.Principal))
	if err != nil || len(raw) != Ed25519KeySize {
		return PublicKey{}, false
	}
	pk, err := NewEd25519PublicKey(raw)
	if err != nil {
		return PublicKey{}, false
	}
	return pk, true
}

// isImplicit reports whether k is the specific key this account's
// principal id derives from.
func (a *Account) isImplicit(k PublicKey) bool {
	return k.ImplicitPrincipalID() == a.Principal
}

// AddPublicKey adds k as an authorized signer, returning true iff it
// was newly added. Adding the implicit key clears its removal instead
// of growing the added set.
func (a *Account) AddPublicKey(k PublicKey) bool {
	if a.isImplicit(k) {
		if _, removed := a.keysRemoved[k]; removed {
			delete(a.keysRemoved, k)
			return true
		}
		return false
	}
	if _, exists := a.keysAdded[k]; exists {
		return false
	}
	a.keysAdded[k] = struct{}{}
	return true
}

// RemovePublicKey revokes k, returning true iff it was present.
// Removing the implicit key records it in keys_removed; removing an
// explicitly added key deletes it from keys_added.
func (a *Account) RemovePublicKey(k PublicKey) bool {
	if a.isImplicit(k) {
		if _, removed := a.keysRemoved[k]; removed {
			return false
		}
		a.keysRemoved[k] = struct{}{}
		return true
	}
	if _, exists := a.keysAdded[k]; exists {
		delete(a.keysAdded, k)
		return true
	}
	return false
}

// HasPublicKey reports whether k currently authorizes this account:
// (implicit && !removed) || explicitly added.
func (a *Account) HasPublicKey(k PublicKey) bool {
	if a.isImplicit(k) {
		if _, removed := a.keysRemoved[k]; !removed {
			return true
		}
	}
	_, added := a.keysAdded[k]
	return added
}

// IterPublicKeys yields keys_added union the implicit key, if
// reconstructible and not removed, in that order.
func (a *Account) IterPublicKeys() []PublicKey {
	out := make([]PublicKey, 0, len(a.keysAdded)+1)
	for k := range a.keysAdded {
		out = append(out, k)
	}
	if implicit, ok := a.ImplicitPublicKey(); ok {
		if _, removed := a.keysRemoved[implicit]; !removed {
			out = append(out, implicit)
		}
	}
	return out
}

// AddedKeys returns the explicitly authorized non-implicit keys, for
// callers that need to enumerate raw state (e.g. a persistence layer).
func (a *Account) AddedKeys() []PublicKey {
	out := make([]PublicKey, 0, len(a.keysAdded))
	for k := range a.keysAdded {
		out = append(out, k)
	}
	return out
}

// RemovedKeys returns keys explicitly revoked (in practice, only ever
// the implicit key can appear here under the current add/remove rules).
func (a *Account) RemovedKeys() []PublicKey {
	out := make([]PublicKey, 0, len(a.keysRemoved))
	for k := range a.keysRemoved {
		out = append(out, k)
	}
	return out
}

// Nonces exposes the account's replay bitmap.
func (a *Account) Nonces() *bitmap.Bitmap {
	return a.nonces
}

// BalanceOf returns the account's balance of t, zero if never set.
func (a *Account) BalanceOf(t tokens.TokenId) numeric.Amount {
	v, ok := a.balances.Get(t)
	if !ok {
		return numeric.ZeroAmount()
	}
	return v
}

// Deposit credits amount of t, failing with ledgererr.ErrBalanceOverflow
// on u128 overflow.
func (a *Account) Deposit(t tokens.TokenId, amount numeric.Amount) error {
	next, err := a.BalanceOf(t).Add(amount)
	if err != nil {
		return ledgererr.ErrBalanceOverflow
	}
	a.balances.Set(t, next)
	return nil
}

// Withdraw debits amount of t, failing with ledgererr.ErrBalanceOverflow
// on underflow.
func (a *Account) Withdraw(t tokens.TokenId, amount numeric.Amount) error {
	next, err := a.BalanceOf(t).Sub(amount)
	if err != nil {
		return ledgererr.ErrBalanceOverflow
	}
	a.balances.Set(t, next)
	return nil
}

// Balances exposes the underlying default-cleanup balance map, e.g.
// for a persistence layer enumerating non-zero entries to encode.
func (a *Account) Balances() *cleanup.DefaultMap[tokens.TokenId, numeric.Amount] {
	return a.balances
}

package state

import (
	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

type principalKey struct {
	principal account.PrincipalID
	key       account.PublicKey
}

type principalToken struct {
	principal account.PrincipalID
	token     tokens.TokenId
}

// CachedState is a copy-on-write overlay buffering one batch's writes
// over an inner View. It is single-writer, single-reader: exactly one
// batch consumes it, then either commits it wholesale on success or
// drops it on failure.
//
// Deviation from a literal reading of the reference design: withdrawing
// against a principal the overlay has never touched, but that already
// exists in the inner store, auto-seeds the overlay from the inner
// account instead of failing AccountNotFound — AccountNotFound is
// reserved for principals absent from both the overlay and the inner
// store. This is recorded as a resolved open question in DESIGN.md.
type CachedState struct {
	inner View

	keysAdded   map[principalKey]struct{}
	keysRemoved map[principalKey]struct{}
	nonces      map[account.PrincipalID]*bitmap.Bitmap
	balances    map[principalToken]numeric.Amount
	touched     map[account.PrincipalID]struct{}
}

// NewCachedState wraps inner in a fresh overlay.
func NewCachedState(inner View) *CachedState {
	return &CachedState{
		inner:       inner,
		keysAdded:   make(map[principalKey]struct{}),
		keysRemoved: make(map[principalKey]struct{}),
		nonces:      make(map[account.PrincipalID]*bitmap.Bitmap),
		balances:    make(map[principalToken]numeric.Amount),
		touched:     make(map[account.PrincipalID]struct{}),
	}
}

func (c *CachedState) VerifyingContract() account.PrincipalID { return c.inner.VerifyingContract() }
func (c *CachedState) WrappedNativeToken() tokens.TokenId     { return c.inner.WrappedNativeToken() }
func (c *CachedState) Fee() numeric.Pips                      { return c.inner.Fee() }
func (c *CachedState) FeeCollector() account.PrincipalID      { return c.inner.FeeCollector() }

func (c *CachedState) AccountExists(principal account.PrincipalID) bool {
	if _, ok := c.touched[principal]; ok {
		return true
	}
	return c.inner.AccountExists(principal)
}

func (c *CachedState) HasPublicKey(principal account.PrincipalID, key account.PublicKey) bool {
	pk := principalKey{principal, key}
	if _, added := c.keysAdded[pk]; added {
		return true
	}
	_, removed := c.keysRemoved[pk]
	return c.inner.HasPublicKey(principal, key) && !removed
}

// IterPublicKeys returns the inner key set adjusted by this overlay's
// added/removed sets. Order is inner-keys-not-removed followed by
// overlay-added keys not already listed.
func (c *CachedState) IterPublicKeys(principal account.PrincipalID) []account.PublicKey {
	seen := make(map[account.PublicKey]struct{})
	out := make([]account.PublicKey, 0)

	for _, k := range c.inner.IterPublicKeys(principal) {
		if _, removed := c.keysRemoved[principalKey{principal, k}]; removed {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for pk := range c.keysAdded {
		if pk.principal != principal {
			continue
		}
		if _, ok := seen[pk.key]; ok {
			continue
		}
		seen[pk.key] = struct{}{}
		out = append(out, pk.key)
	}
	return out
}

func (c *CachedState) AddPublicKey(principal account.PrincipalID, key account.PublicKey) bool {
	c.touched[principal] = struct{}{}
	alreadyAuthorized := c.HasPublicKey(principal, key)

	pk := principalKey{principal, key}
	c.keysAdded[pk] = struct{}{}
	delete(c.keysRemoved, pk)
	return !alreadyAuthorized
}

func (c *CachedState) RemovePublicKey(principal account.PrincipalID, key account.PublicKey) bool {
	c.touched[principal] = struct{}{}
	alreadyAuthorized := c.HasPublicKey(principal, key)

	pk := principalKey{principal, key}
	c.keysRemoved[pk] = struct{}{}
	delete(c.keysAdded, pk)
	return alreadyAuthorized
}

func (c *CachedState) IsNonceUsed(principal account.PrincipalID, n bitmap.Nonce) bool {
	if bm, ok := c.nonces[principal]; ok && bm.Get(n) {
		return true
	}
	return c.inner.IsNonceUsed(principal, n)
}

func (c *CachedState) CommitNonce(principal account.PrincipalID, n bitmap.Nonce) bool {
	c.touched[principal] = struct{}{}
	if c.IsNonceUsed(principal, n) {
		return false
	}
	bm, ok := c.nonces[principal]
	if !ok {
		bm = bitmap.New()
		c.nonces[principal] = bm
	}
	bm.Set(n)
	return true
}

func (c *CachedState) BalanceOf(principal account.PrincipalID, t tokens.TokenId) numeric.Amount {
	if v, ok := c.balances[principalToken{principal, t}]; ok {
		return v
	}
	return c.inner.BalanceOf(principal, t)
}

func (c *CachedState) InternalDeposit(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) error {
	c.touched[principal] = struct{}{}
	next, err := c.BalanceOf(principal, t).Add(amount)
	if err != nil {
		return ledgererr.ErrBalanceOverflow
	}
	c.balances[principalToken{principal, t}] = next
	return nil
}

func (c *CachedState) InternalWithdraw(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) error {
	if !c.AccountExists(principal) {
		return ledgererr.ErrAccountNotFound
	}
	c.touched[principal] = struct{}{}
	next, err := c.BalanceOf(principal, t).Sub(amount)
	if err != nil {
		return ledgererr.ErrBalanceOverflow
	}
	c.balances[principalToken{principal, t}] = next
	return nil
}

func (c *CachedState) FtWithdraw(signer account.PrincipalID, t tokens.TokenId, amount numeric.Amount, storageDeposit numeric.Amount) error {
	return withdrawWithStorageDeposit(c, signer, t, amount, storageDeposit)
}

func (c *CachedState) NftWithdraw(signer account.PrincipalID, t tokens.TokenId, storageDeposit numeric.Amount) error {
	return withdrawWithStorageDeposit(c, signer, t, numeric.AmountFromUint64(1), storageDeposit)
}

func (c *CachedState) MtWithdraw(signer account.PrincipalID, tokenIDs []tokens.TokenId, amounts []numeric.Amount, storageDeposit numeric.Amount) error {
	if err := validateMtWithdraw(tokenIDs, amounts); err != nil {
		return err
	}
	for i, t := range tokenIDs {
		if err := c.InternalWithdraw(signer, t, amounts[i]); err != nil {
			return err
		}
	}
	return applyStorageDeposit(c, signer, storageDeposit)
}

func (c *CachedState) NativeWithdraw(signer account.PrincipalID, amount numeric.Amount) error {
	return c.InternalWithdraw(signer, c.WrappedNativeToken(), amount)
}

// Commit applies every buffered mutation to a BaseState, called by the
// host if and only if Engine.Finalize succeeds. The overlay is
// single-use; callers must discard it after committing.
func (c *CachedState) Commit(base *BaseState) {
	for pk := range c.keysAdded {
		base.AddPublicKey(pk.principal, pk.key)
	}
	for pk := range c.keysRemoved {
		base.RemovePublicKey(pk.principal, pk.key)
	}
	for principal, bm := range c.nonces {
		for word, w := range bm.Words() {
			for i, b := range w {
				for bit := 0; bit < 8; bit++ {
					if b&(1<<uint(bit)) == 0 {
						continue
					}
					var n bitmap.Nonce
					copy(n[:31], word[:])
					n[31] = byte(i*8 + bit)
					base.CommitNonce(principal, n)
				}
			}
		}
	}
	for pt, amount := range c.balances {
		cur := base.BalanceOf(pt.principal, pt.token)
		switch cur.Cmp(amount) {
		case -1:
			diff, _ := amount.Sub(cur)
			_ = base.InternalDeposit(pt.principal, pt.token, diff)
		case 1:
			diff, _ := cur.Sub(amount)
			_ = base.InternalWithdraw(pt.principal, pt.token, diff)
		}
	}
}

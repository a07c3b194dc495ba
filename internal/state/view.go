// Package state defines the read (StateView) and write (State)
// abstractions over the account book and global engine parameters, and
// the CachedState copy-on-write overlay a single batch writes through.
package state

import (
	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// View is the read side: pure reads, implementable over either the
// committed store or an overlay.
type View interface {
	VerifyingContract() account.PrincipalID
	WrappedNativeToken() tokens.TokenId
	Fee() numeric.Pips
	FeeCollector() account.PrincipalID

	HasPublicKey(principal account.PrincipalID, key account.PublicKey) bool
	IterPublicKeys(principal account.PrincipalID) []account.PublicKey
	IsNonceUsed(principal account.PrincipalID, n bitmap.Nonce) bool
	BalanceOf(principal account.PrincipalID, t tokens.TokenId) numeric.Amount

	// AccountExists reports whether principal has any record at all.
	// Not named in the reference data model directly, but required to
	// give withdrawals against a never-touched principal the
	// AccountNotFound error instead of silently treating an absent
	// account as a zero balance — see CachedState's doc comment.
	AccountExists(principal account.PrincipalID) bool
}

// State is the write side, extending View.
type State interface {
	View

	// AddPublicKey returns whether the key was newly added.
	AddPublicKey(principal account.PrincipalID, key account.PublicKey) bool
	// RemovePublicKey returns whether the key was present and removed.
	RemovePublicKey(principal account.PrincipalID, key account.PublicKey) bool
	// CommitNonce returns true iff the nonce was previously unused.
	CommitNonce(principal account.PrincipalID, n bitmap.Nonce) bool

	InternalDeposit(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) error
	InternalWithdraw(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) error

	// FtWithdraw, NftWithdraw, MtWithdraw, NativeWithdraw are balance
	// effects only: they subtract the asset amount from signer, and
	// optionally a storage_deposit amount of the wrapped-native token.
	FtWithdraw(signer account.PrincipalID, t tokens.TokenId, amount numeric.Amount, storageDeposit numeric.Amount) error
	NftWithdraw(signer account.PrincipalID, t tokens.TokenId, storageDeposit numeric.Amount) error
	MtWithdraw(signer account.PrincipalID, tokenIDs []tokens.TokenId, amounts []numeric.Amount, storageDeposit numeric.Amount) error
	NativeWithdraw(signer account.PrincipalID, amount numeric.Amount) error
}

// InternalAddDeltas is the default implementation shared by every State:
// it splits each signed delta into a deposit (positive) or withdrawal
// (negative, by absolute value), rejecting any zero-magnitude entry as
// an invalid intent.
func InternalAddDeltas(s State, principal account.PrincipalID, deltas map[tokens.TokenId]numeric.Delta) error {
	for t, d := range deltas {
		switch {
		case d.Sign() == 0:
			return ledgererr.ErrInvalidIntent
		case d.Sign() > 0:
			if err := s.InternalDeposit(principal, t, d.Abs()); err != nil {
				return err
			}
		default:
			if err := s.InternalWithdraw(principal, t, d.Abs()); err != nil {
				return err
			}
		}
	}
	return nil
}

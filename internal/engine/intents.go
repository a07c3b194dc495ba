package engine

import (
	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// Intent is one operation within a signed batch. Each concrete type
// below is a variant; Engine.executeIntent dispatches on the
// underlying type.
type Intent interface {
	isIntent()
}

// AddPublicKey authorizes Key as an additional signer for the intent's principal.
type AddPublicKey struct {
	Key account.PublicKey
}

// RemovePublicKey revokes Key's authorization for the intent's principal.
type RemovePublicKey struct {
	Key account.PublicKey
}

// InvalidateNonces commits a batch of nonces without any other effect,
// letting a principal burn a range of sequence numbers in one intent.
// Nonces already committed are silently skipped rather than failing
// the whole batch — see the matching note in DESIGN.md.
type InvalidateNonces struct {
	Nonces []bitmap.Nonce
}

// Transfer moves Deltas (signed, relative to the signing principal)
// between the signer and Receiver: a negative entry is paid by the
// signer and received by Receiver, a positive entry the reverse. No
// fee applies — the signer and receiver close the same leg directly.
type Transfer struct {
	Receiver account.PrincipalID
	Deltas   map[tokens.TokenId]numeric.Delta
}

// TokenDiff declares the signer's own net per-token balance change for
// a batch-wide atomic settlement: the sum of every TokenDiff's
// post-fee effect across a batch must net to zero per token, verified
// by the transfer matcher at Finalize. Referral, if set, is carried
// through to Inspector.OnTokenDiff for off-chain fee-sharing
// bookkeeping only. It has no balance effect; the protocol fee is
// always deposited to the configured fee collector.
type TokenDiff struct {
	Deltas   map[tokens.TokenId]numeric.Delta
	Referral *account.PrincipalID
}

// FtWithdraw exits Amount of a fungible token from the signer's
// balance, optionally spending StorageDeposit of the wrapped-native
// token to cover the bridge-side storage cost.
type FtWithdraw struct {
	Token          tokens.TokenId
	Amount         numeric.Amount
	StorageDeposit numeric.Amount
}

// NftWithdraw exits one non-fungible item from the signer's balance.
type NftWithdraw struct {
	Token          tokens.TokenId
	StorageDeposit numeric.Amount
}

// MtWithdraw exits a batch of multi-token sub-ids and amounts from the
// signer's balance in one intent.
type MtWithdraw struct {
	TokenIDs       []tokens.TokenId
	Amounts        []numeric.Amount
	StorageDeposit numeric.Amount
}

// NativeWithdraw exits Amount of the wrapped-native token from the signer's balance.
type NativeWithdraw struct {
	Amount numeric.Amount
}

func (AddPublicKey) isIntent()     {}
func (RemovePublicKey) isIntent()  {}
func (InvalidateNonces) isIntent() {}
func (Transfer) isIntent()         {}
func (TokenDiff) isIntent()        {}
func (FtWithdraw) isIntent()       {}
func (NftWithdraw) isIntent()      {}
func (MtWithdraw) isIntent()       {}
func (NativeWithdraw) isIntent()   {}

package state

import (
	"sync"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// Params holds the global engine parameters a BaseState carries
// alongside the account book.
type Params struct {
	VerifyingContract account.PrincipalID
	WrappedNative      tokens.TokenId
	Fee                numeric.Pips
	FeeCollector       account.PrincipalID
}

// BaseState is the committed, durable-backed account book. It
// implements State directly; a host wraps it in a CachedState overlay
// for the duration of one batch and writes the overlay back on success.
//
// BaseState itself is not safe for concurrent batches: the spec assumes
// a single host-provided atomic transaction at a time. The mutex here
// only protects the in-memory map against concurrent reads (e.g. RPC
// balance queries) racing the one writer.
type BaseState struct {
	mu       sync.RWMutex
	params   Params
	accounts map[account.PrincipalID]*account.Account
}

// NewBaseState constructs an empty BaseState with the given parameters.
func NewBaseState(params Params) *BaseState {
	return &BaseState{
		params:   params,
		accounts: make(map[account.PrincipalID]*account.Account),
	}
}

func (b *BaseState) account(principal account.PrincipalID) (*account.Account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accounts[principal]
	return a, ok
}

// getOrCreate returns the account for principal, creating it on first
// write per the lifecycle rule: accounts are created on first key add,
// first nonce commit, or first deposit.
func (b *BaseState) getOrCreate(principal account.PrincipalID) *account.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[principal]
	if !ok {
		a = account.New(principal)
		b.accounts[principal] = a
	}
	return a
}

// RangeAccounts calls fn for every account currently held in memory,
// for a persistence layer to snapshot. fn returning false stops iteration.
func (b *BaseState) RangeAccounts(fn func(account.PrincipalID, *account.Account) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for principal, a := range b.accounts {
		if !fn(principal, a) {
			return
		}
	}
}

// PutAccount installs a fully constructed account record directly,
// used by the persistence layer to rehydrate state from storage.
func (b *BaseState) PutAccount(a *account.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[a.Principal] = a
}

func (b *BaseState) VerifyingContract() account.PrincipalID { return b.params.VerifyingContract }
func (b *BaseState) WrappedNativeToken() tokens.TokenId     { return b.params.WrappedNative }
func (b *BaseState) Fee() numeric.Pips                      { return b.params.Fee }
func (b *BaseState) FeeCollector() account.PrincipalID      { return b.params.FeeCollector }

func (b *BaseState) HasPublicKey(principal account.PrincipalID, key account.PublicKey) bool {
	a, ok := b.account(principal)
	if !ok {
		return false
	}
	return a.HasPublicKey(key)
}

func (b *BaseState) IterPublicKeys(principal account.PrincipalID) []account.PublicKey {
	a, ok := b.account(principal)
	if !ok {
		return nil
	}
	return a.IterPublicKeys()
}

func (b *BaseState) IsNonceUsed(principal account.PrincipalID, n bitmap.Nonce) bool {
	a, ok := b.account(principal)
	if !ok {
		return false
	}
	return a.Nonces().Get(n)
}

func (b *BaseState) AccountExists(principal account.PrincipalID) bool {
	_, ok := b.account(principal)
	return ok
}

func (b *BaseState) BalanceOf(principal account.PrincipalID, t tokens.TokenId) numeric.Amount {
	a, ok := b.account(principal)
	if !ok {
		return numeric.ZeroAmount()
	}
	return a.BalanceOf(t)
}

func (b *BaseState) AddPublicKey(principal account.PrincipalID, key account.PublicKey) bool {
	return b.getOrCreate(principal).AddPublicKey(key)
}

func (b *BaseState) RemovePublicKey(principal account.PrincipalID, key account.PublicKey) bool {
	return b.getOrCreate(principal).RemovePublicKey(key)
}

func (b *BaseState) CommitNonce(principal account.PrincipalID, n bitmap.Nonce) bool {
	return b.getOrCreate(principal).Nonces().CommitNonce(n)
}

func (b *BaseState) InternalDeposit(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) error {
	return b.getOrCreate(principal).Deposit(t, amount)
}

func (b *BaseState) InternalWithdraw(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) error {
	a, ok := b.account(principal)
	if !ok {
		return ledgererr.ErrAccountNotFound
	}
	return a.Withdraw(t, amount)
}

func (b *BaseState) FtWithdraw(signer account.PrincipalID, t tokens.TokenId, amount numeric.Amount, storageDeposit numeric.Amount) error {
	return withdrawWithStorageDeposit(b, signer, t, amount, storageDeposit)
}

func (b *BaseState) NftWithdraw(signer account.PrincipalID, t tokens.TokenId, storageDeposit numeric.Amount) error {
	return withdrawWithStorageDeposit(b, signer, t, numeric.AmountFromUint64(1), storageDeposit)
}

func (b *BaseState) MtWithdraw(signer account.PrincipalID, tokenIDs []tokens.TokenId, amounts []numeric.Amount, storageDeposit numeric.Amount) error {
	if err := validateMtWithdraw(tokenIDs, amounts); err != nil {
		return err
	}
	for i, t := range tokenIDs {
		if err := b.InternalWithdraw(signer, t, amounts[i]); err != nil {
			return err
		}
	}
	return applyStorageDeposit(b, signer, storageDeposit)
}

func (b *BaseState) NativeWithdraw(signer account.PrincipalID, amount numeric.Amount) error {
	return b.InternalWithdraw(signer, b.WrappedNativeToken(), amount)
}

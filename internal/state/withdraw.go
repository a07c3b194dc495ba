package state

import (
	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// withdrawWithStorageDeposit subtracts amount of t from signer, then
// optionally subtracts storageDeposit of the wrapped-native token, used
// by FtWithdraw and NftWithdraw which share the same shape.
func withdrawWithStorageDeposit(s State, signer account.PrincipalID, t tokens.TokenId, amount, storageDeposit numeric.Amount) error {
	if err := s.InternalWithdraw(signer, t, amount); err != nil {
		return err
	}
	return applyStorageDeposit(s, signer, storageDeposit)
}

// applyStorageDeposit subtracts storageDeposit of the wrapped-native
// token from signer, a no-op when storageDeposit is zero.
func applyStorageDeposit(s State, signer account.PrincipalID, storageDeposit numeric.Amount) error {
	if storageDeposit.IsZero() {
		return nil
	}
	return s.InternalWithdraw(signer, s.WrappedNativeToken(), storageDeposit)
}

// validateMtWithdraw enforces |token_ids| == |amounts| > 0.
func validateMtWithdraw(tokenIDs []tokens.TokenId, amounts []numeric.Amount) error {
	if len(tokenIDs) == 0 || len(tokenIDs) != len(amounts) {
		return ledgererr.ErrInvalidIntent
	}
	return nil
}

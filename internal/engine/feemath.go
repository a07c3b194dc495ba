package engine

import (
	"math/big"

	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

var maxPipsBig = big.NewInt(int64(numeric.MaxPips))

// TokenFee returns the fee rate applied to a token-diff entry's
// token-in side: p for single-fungible, or for multi-token only when
// |delta| exceeds unit magnitude. Non-fungible items and unit-magnitude
// multi-tokens are exempt — an NFT swap is a barter with no divisible
// fee unit.
func TokenFee(t tokens.TokenId, absDelta *big.Int, p numeric.Pips) numeric.Pips {
	switch t.Kind {
	case tokens.KindSingleFungible:
		return p
	case tokens.KindMultiToken:
		if absDelta.Cmp(big.NewInt(1)) > 0 {
			return p
		}
		return numeric.ZeroPips
	default: // NonFungibleItem
		return numeric.ZeroPips
	}
}

func feeFactor(fee numeric.Pips) *big.Int {
	return big.NewInt(int64(numeric.MaxPips) - int64(fee))
}

// SupplyDelta returns the net supply effect of committing a token-diff
// entry of delta on t, with protocol fee p taken only on the
// token-in (negative) side:
//
//	delta < 0: ceil(delta * (MAX-fee) / MAX)   (fee shrinks the withdrawal's effect toward zero)
//	delta >= 0: delta unchanged
func SupplyDelta(t tokens.TokenId, delta *big.Int, p numeric.Pips) (*big.Int, error) {
	if delta.Sign() >= 0 {
		return new(big.Int).Set(delta), nil
	}
	fee := TokenFee(t, new(big.Int).Abs(delta), p)
	return numeric.CheckedMulDivCeil(delta, feeFactor(fee), maxPipsBig)
}

// ClosureSupplyDelta returns the raw token-diff amount a companion
// intent on t must declare so that its own SupplyDelta exactly offsets
// delta (which is itself the output of a prior SupplyDelta call):
//
//	-delta < 0 (delta > 0): floor_euclid(-delta * MAX / (MAX-fee))
//	otherwise: -delta
func ClosureSupplyDelta(t tokens.TokenId, delta *big.Int, p numeric.Pips) (*big.Int, error) {
	negDelta := new(big.Int).Neg(delta)
	if negDelta.Sign() >= 0 {
		return negDelta, nil
	}
	fee := TokenFee(t, new(big.Int).Abs(delta), p)
	return numeric.CheckedMulDivEuclid(negDelta, maxPipsBig, feeFactor(fee))
}

// ClosureDelta returns the companion delta a counterparty must commit
// on t to make the batch conserve t's supply, given an original
// declared delta under fee p.
func ClosureDelta(t tokens.TokenId, delta *big.Int, p numeric.Pips) (*big.Int, error) {
	sd, err := SupplyDelta(t, delta, p)
	if err != nil {
		return nil, err
	}
	return ClosureSupplyDelta(t, sd, p)
}

// ClosureDeltas applies ClosureDelta independently to a set of
// non-overlapping (token, delta) pairs.
func ClosureDeltas(deltas map[tokens.TokenId]*big.Int, p numeric.Pips) (map[tokens.TokenId]*big.Int, error) {
	out := make(map[tokens.TokenId]*big.Int, len(deltas))
	for t, d := range deltas {
		cd, err := ClosureDelta(t, d, p)
		if err != nil {
			return nil, err
		}
		out[t] = cd
	}
	return out, nil
}

// Package ledgerstore persists the account book a BaseState holds in
// memory to a database.DB, encoding each account record with
// ugorji/go/codec's canonical CBOR handle.
package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ugorji/go/codec"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/state"
	"github.com/basinledger/settled/internal/storage/database"
	"github.com/basinledger/settled/internal/tokens"
)

var cborHandle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

const keyPrefix = "acct/"

func accountKey(principal account.PrincipalID) []byte {
	return append([]byte(keyPrefix), []byte(principal)...)
}

type keyRecord struct {
	Curve uint8  `codec:"c"`
	Bytes []byte `codec:"b"`
}

func (r keyRecord) toPublicKey() (account.PublicKey, error) {
	switch account.Curve(r.Curve) {
	case account.CurveEd25519:
		return account.NewEd25519PublicKey(r.Bytes)
	case account.CurveSecp256k1:
		return account.NewSecp256k1PublicKey(r.Bytes)
	case account.CurveP256:
		return account.NewP256PublicKey(r.Bytes)
	default:
		return account.PublicKey{}, account.ErrUnknownCurve
	}
}

func fromPublicKey(k account.PublicKey) keyRecord {
	return keyRecord{Curve: uint8(k.Curve), Bytes: append([]byte(nil), k.RawBytes()...)}
}

type nonceWordRecord struct {
	Word []byte `codec:"w"`
	Bits []byte `codec:"v"`
}

type balanceRecord struct {
	Kind     uint8  `codec:"k"`
	Contract string `codec:"ct"`
	SubID    string `codec:"s"`
	Amount   []byte `codec:"a"`
}

type accountRecord struct {
	Principal string            `codec:"p"`
	Added     []keyRecord       `codec:"ak"`
	Removed   []keyRecord       `codec:"rk"`
	Nonces    []nonceWordRecord `codec:"n"`
	Balances  []balanceRecord   `codec:"bal"`
}

func encodeAccount(a *account.Account) ([]byte, error) {
	rec := accountRecord{Principal: string(a.Principal)}
	for _, k := range a.AddedKeys() {
		rec.Added = append(rec.Added, fromPublicKey(k))
	}
	for _, k := range a.RemovedKeys() {
		rec.Removed = append(rec.Removed, fromPublicKey(k))
	}
	for word, bits := range a.Nonces().Words() {
		rec.Nonces = append(rec.Nonces, nonceWordRecord{
			Word: append([]byte(nil), word[:]...),
			Bits: append([]byte(nil), bits[:]...),
		})
	}
	a.Balances().Range(func(t tokens.TokenId, amount numeric.Amount) bool {
		rec.Balances = append(rec.Balances, balanceRecord{
			Kind:     uint8(t.Kind),
			Contract: t.Contract,
			SubID:    t.SubID,
			Amount:   amount.Big().Bytes(),
		})
		return true
	})

	var buf []byte
	enc := codec.NewEncoderBytes(&buf, cborHandle)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeAccount(data []byte) (*account.Account, error) {
	var rec accountRecord
	dec := codec.NewDecoderBytes(data, cborHandle)
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}

	a := account.New(account.PrincipalID(rec.Principal))
	for _, kr := range rec.Added {
		k, err := kr.toPublicKey()
		if err != nil {
			return nil, err
		}
		a.AddPublicKey(k)
	}
	for _, kr := range rec.Removed {
		k, err := kr.toPublicKey()
		if err != nil {
			return nil, err
		}
		a.RemovePublicKey(k)
	}
	for _, nr := range rec.Nonces {
		var word bitmap.Word
		copy(word[:], nr.Word)
		for i, b := range nr.Bits {
			for bit := 0; bit < 8; bit++ {
				if b&(1<<uint(bit)) == 0 {
					continue
				}
				var n bitmap.Nonce
				copy(n[:31], word[:])
				n[31] = byte(i*8 + bit)
				a.Nonces().Set(n)
			}
		}
	}
	for _, br := range rec.Balances {
		t := tokens.TokenId{Kind: tokens.Kind(br.Kind), Contract: br.Contract, SubID: br.SubID}
		amount := numeric.AmountFromUint64(0)
		if len(br.Amount) > 0 {
			amount = numeric.NewAmount(bigFromBytes(br.Amount))
		}
		if err := a.Deposit(t, amount); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func bigFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// Save persists every in-memory account of base as a single batch write.
func Save(ctx context.Context, db database.DB, base *state.BaseState) error {
	var ops []database.BatchOperation
	var encodeErr error
	base.RangeAccounts(func(principal account.PrincipalID, a *account.Account) bool {
		data, err := encodeAccount(a)
		if err != nil {
			encodeErr = fmt.Errorf("ledgerstore: encode %s: %w", principal, err)
			return false
		}
		ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: accountKey(principal), Value: data})
		return true
	})
	if encodeErr != nil {
		return encodeErr
	}
	if len(ops) == 0 {
		return nil
	}
	return db.Batch(ctx, ops)
}

// Load rehydrates a BaseState from every account record currently
// stored under the account key prefix.
func Load(ctx context.Context, db database.DB, params state.Params) (*state.BaseState, error) {
	base := state.NewBaseState(params)

	iter, err := db.Iterator(ctx, []byte(keyPrefix), nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	for iter.Next() {
		a, err := decodeAccount(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("ledgerstore: decode %s: %w", iter.Key(), err)
		}
		base.PutAccount(a)
	}
	if err := iter.Error(); err != nil && !errors.Is(err, database.ErrKeyNotFound) {
		return nil, err
	}
	return base, nil
}

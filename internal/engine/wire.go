package engine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// WireEnvelope is the JSON form a submitted or simulated batch arrives
// in over RPC: text-encoded principals and token ids, hex-encoded
// binary fields, and a "kind"-tagged intent list.
type WireEnvelope struct {
	Signer            string       `json:"signer"`
	VerifyingContract string       `json:"verifying_contract"`
	Deadline          uint64       `json:"deadline"`
	Nonce             string       `json:"nonce"`
	Intents           []WireIntent `json:"intents"`
	PublicKey         string       `json:"public_key"`
	Signature         string       `json:"signature"`
	Body              string       `json:"body"`
}

// WireIntent is one "kind"-tagged intent entry. Only the fields its
// kind needs are populated; the rest are left zero.
type WireIntent struct {
	Kind string `json:"kind"`

	Key string `json:"key,omitempty"` // add_public_key, remove_public_key

	Nonces []string `json:"nonces,omitempty"` // invalidate_nonces

	Receiver string            `json:"receiver,omitempty"` // transfer
	Deltas   map[string]string `json:"deltas,omitempty"`   // transfer, token_diff
	Referral string            `json:"referral,omitempty"` // token_diff

	Token          string   `json:"token,omitempty"`           // ft_withdraw, nft_withdraw
	Amount         string   `json:"amount,omitempty"`          // ft_withdraw, native_withdraw
	StorageDeposit string   `json:"storage_deposit,omitempty"` // *_withdraw
	TokenIDs       []string `json:"token_ids,omitempty"`       // mt_withdraw
	Amounts        []string `json:"amounts,omitempty"`         // mt_withdraw
}

// DecodeEnvelope parses a WireEnvelope's JSON encoding into an Envelope
// ready for ExecuteSignedIntent.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var w WireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("engine: decode envelope: %w", err)
	}
	return w.Decode()
}

// Decode converts a WireEnvelope into an Envelope.
func (w WireEnvelope) Decode() (*Envelope, error) {
	nonce, err := decodeNonce(w.Nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	pubKey, err := account.ParsePublicKey(w.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("public_key: %w", err)
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	body, err := hex.DecodeString(w.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}

	intents := make([]Intent, 0, len(w.Intents))
	for i, wi := range w.Intents {
		intent, err := wi.decode()
		if err != nil {
			return nil, fmt.Errorf("intents[%d]: %w", i, err)
		}
		intents = append(intents, intent)
	}

	return &Envelope{
		Signer:            account.PrincipalID(w.Signer),
		VerifyingContract: account.PrincipalID(w.VerifyingContract),
		Deadline:          w.Deadline,
		Nonce:             nonce,
		Intents:           intents,
		PublicKey:         pubKey,
		Signature:         sig,
		Body:              body,
	}, nil
}

func decodeNonce(s string) (bitmap.Nonce, error) {
	var n bitmap.Nonce
	raw, err := hex.DecodeString(s)
	if err != nil {
		return n, err
	}
	if len(raw) != bitmap.NonceSize {
		return n, fmt.Errorf("nonce must be %d bytes, got %d", bitmap.NonceSize, len(raw))
	}
	copy(n[:], raw)
	return n, nil
}

func decodeDeltas(in map[string]string) (map[tokens.TokenId]numeric.Delta, error) {
	out := make(map[tokens.TokenId]numeric.Delta, len(in))
	for k, v := range in {
		t, err := tokens.ParseTokenId(k)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", k, err)
		}
		d, err := numeric.ParseDelta(v)
		if err != nil {
			return nil, fmt.Errorf("delta %q: %w", v, err)
		}
		out[t] = d
	}
	return out, nil
}

func (wi WireIntent) decode() (Intent, error) {
	switch wi.Kind {
	case "add_public_key":
		key, err := account.ParsePublicKey(wi.Key)
		if err != nil {
			return nil, err
		}
		return AddPublicKey{Key: key}, nil

	case "remove_public_key":
		key, err := account.ParsePublicKey(wi.Key)
		if err != nil {
			return nil, err
		}
		return RemovePublicKey{Key: key}, nil

	case "invalidate_nonces":
		nonces := make([]bitmap.Nonce, 0, len(wi.Nonces))
		for _, s := range wi.Nonces {
			n, err := decodeNonce(s)
			if err != nil {
				return nil, err
			}
			nonces = append(nonces, n)
		}
		return InvalidateNonces{Nonces: nonces}, nil

	case "transfer":
		deltas, err := decodeDeltas(wi.Deltas)
		if err != nil {
			return nil, err
		}
		return Transfer{Receiver: account.PrincipalID(wi.Receiver), Deltas: deltas}, nil

	case "token_diff":
		deltas, err := decodeDeltas(wi.Deltas)
		if err != nil {
			return nil, err
		}
		var referral *account.PrincipalID
		if wi.Referral != "" {
			r := account.PrincipalID(wi.Referral)
			referral = &r
		}
		return TokenDiff{Deltas: deltas, Referral: referral}, nil

	case "ft_withdraw":
		t, err := tokens.ParseTokenId(wi.Token)
		if err != nil {
			return nil, err
		}
		amount, err := numeric.ParseAmount(wi.Amount)
		if err != nil {
			return nil, err
		}
		deposit, err := parseOptionalAmount(wi.StorageDeposit)
		if err != nil {
			return nil, err
		}
		return FtWithdraw{Token: t, Amount: amount, StorageDeposit: deposit}, nil

	case "nft_withdraw":
		t, err := tokens.ParseTokenId(wi.Token)
		if err != nil {
			return nil, err
		}
		deposit, err := parseOptionalAmount(wi.StorageDeposit)
		if err != nil {
			return nil, err
		}
		return NftWithdraw{Token: t, StorageDeposit: deposit}, nil

	case "mt_withdraw":
		if len(wi.TokenIDs) != len(wi.Amounts) {
			return nil, fmt.Errorf("token_ids and amounts must be the same length")
		}
		tokenIDs := make([]tokens.TokenId, len(wi.TokenIDs))
		for i, s := range wi.TokenIDs {
			t, err := tokens.ParseTokenId(s)
			if err != nil {
				return nil, err
			}
			tokenIDs[i] = t
		}
		amounts := make([]numeric.Amount, len(wi.Amounts))
		for i, s := range wi.Amounts {
			a, err := numeric.ParseAmount(s)
			if err != nil {
				return nil, err
			}
			amounts[i] = a
		}
		deposit, err := parseOptionalAmount(wi.StorageDeposit)
		if err != nil {
			return nil, err
		}
		return MtWithdraw{TokenIDs: tokenIDs, Amounts: amounts, StorageDeposit: deposit}, nil

	case "native_withdraw":
		amount, err := numeric.ParseAmount(wi.Amount)
		if err != nil {
			return nil, err
		}
		return NativeWithdraw{Amount: amount}, nil

	default:
		return nil, fmt.Errorf("unknown intent kind %q", wi.Kind)
	}
}

func parseOptionalAmount(s string) (numeric.Amount, error) {
	if s == "" {
		return numeric.ZeroAmount(), nil
	}
	return numeric.ParseAmount(s)
}

// Package engine implements the intent-settlement pipeline: signature
// and replay verification, per-intent dispatch against a buffered
// state overlay, and the batch-wide supply-conservation check a
// TokenDiff settlement must pass before it is allowed to commit.
package engine

import (
	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/bitmap"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/matcher"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/payload"
	"github.com/basinledger/settled/internal/state"
	"github.com/basinledger/settled/internal/tokens"
)

// Envelope is one signed batch: a principal authorizing a list of
// intents under a replay nonce and a deadline, under the public key
// that produced Signature over Hash(Body).
type Envelope struct {
	Signer            account.PrincipalID
	VerifyingContract account.PrincipalID
	Deadline          uint64
	Nonce             bitmap.Nonce
	Intents           []Intent
	PublicKey         account.PublicKey
	Signature         []byte
	Body              []byte
}

// Inspector receives notifications as an Engine processes a batch. All
// methods are called synchronously and must not mutate engine state;
// implementations that don't need a given hook should embed
// NoopInspector.
type Inspector interface {
	OnDeadline(env *Envelope, now uint64, expired bool)
	OnIntentExecuted(principal account.PrincipalID, intent Intent, err error)
	OnTransfer(from, to account.PrincipalID, t tokens.TokenId, amount numeric.Amount)
	OnTokenDiff(principal account.PrincipalID, t tokens.TokenId, delta numeric.Delta, fee numeric.Amount, referral *account.PrincipalID)
}

// NoopInspector implements Inspector with no-ops; embed it to pick and
// choose which hooks to override.
type NoopInspector struct{}

func (NoopInspector) OnDeadline(*Envelope, uint64, bool)                  {}
func (NoopInspector) OnIntentExecuted(account.PrincipalID, Intent, error) {}
func (NoopInspector) OnTransfer(account.PrincipalID, account.PrincipalID, tokens.TokenId, numeric.Amount) {
}
func (NoopInspector) OnTokenDiff(account.PrincipalID, tokens.TokenId, numeric.Delta, numeric.Amount, *account.PrincipalID) {
}

// Engine dispatches signed batches against a State, accumulating every
// TokenDiff's post-fee effect into a TransferMatcher for the final
// batch-wide supply check.
type Engine struct {
	State     state.State
	Inspector Inspector
	deltas    *matcher.TransferMatcher
}

// New constructs an Engine over s, reporting to inspector (NoopInspector{} if nil).
func New(s state.State, inspector Inspector) *Engine {
	if inspector == nil {
		inspector = NoopInspector{}
	}
	return &Engine{State: s, Inspector: inspector, deltas: matcher.New()}
}

// ExecuteSignedIntent runs the full verification and dispatch pipeline
// for one envelope: signature verification over the domain-separated
// body hash, verifying-contract match, deadline, signer authorization, nonce
// commit, then each intent in order. now is the caller-supplied
// current time in unix seconds — the engine never reads a clock
// itself, keeping dispatch deterministic and replayable.
func (e *Engine) ExecuteSignedIntent(now uint64, env *Envelope) error {
	hash := payload.Hash(env.Body)
	if !payload.Verify(env.PublicKey, hash, env.Signature) {
		return ledgererr.ErrInvalidSignature
	}
	if env.VerifyingContract != e.State.VerifyingContract() {
		return ledgererr.ErrWrongVerifyingContract
	}
	expired := now > env.Deadline
	e.Inspector.OnDeadline(env, now, expired)
	if expired {
		return ledgererr.ErrDeadlineExpired
	}
	if !e.State.HasPublicKey(env.Signer, env.PublicKey) {
		return ledgererr.ErrPublicKeyNotExist
	}
	if !e.State.CommitNonce(env.Signer, env.Nonce) {
		return ledgererr.ErrNonceUsed
	}

	for _, intent := range env.Intents {
		err := e.executeIntent(env.Signer, intent)
		e.Inspector.OnIntentExecuted(env.Signer, intent, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExecuteSignedIntents runs ExecuteSignedIntent over envs in order,
// stopping at the first failure.
func (e *Engine) ExecuteSignedIntents(now uint64, envs []*Envelope) error {
	for _, env := range envs {
		if err := e.ExecuteSignedIntent(now, env); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) executeIntent(principal account.PrincipalID, intent Intent) error {
	switch v := intent.(type) {
	case AddPublicKey:
		if !e.State.AddPublicKey(principal, v.Key) {
			return ledgererr.ErrPublicKeyExists
		}
		return nil

	case RemovePublicKey:
		if !e.State.RemovePublicKey(principal, v.Key) {
			return ledgererr.ErrPublicKeyNotExist
		}
		return nil

	case InvalidateNonces:
		for _, n := range v.Nonces {
			e.State.CommitNonce(principal, n)
		}
		return nil

	case Transfer:
		if v.Receiver == principal || len(v.Deltas) == 0 {
			return ledgererr.ErrInvalidIntent
		}
		if err := state.InternalAddDeltas(e.State, principal, v.Deltas); err != nil {
			return err
		}
		receiverDeltas := negateDeltas(v.Deltas)
		if err := state.InternalAddDeltas(e.State, v.Receiver, receiverDeltas); err != nil {
			return err
		}
		for t, d := range v.Deltas {
			if d.Sign() < 0 {
				e.Inspector.OnTransfer(principal, v.Receiver, t, d.Abs())
			} else {
				e.Inspector.OnTransfer(v.Receiver, principal, t, d.Abs())
			}
		}
		return nil

	case TokenDiff:
		return e.executeTokenDiff(principal, v)

	case FtWithdraw:
		return e.State.FtWithdraw(principal, v.Token, v.Amount, v.StorageDeposit)

	case NftWithdraw:
		return e.State.NftWithdraw(principal, v.Token, v.StorageDeposit)

	case MtWithdraw:
		return e.State.MtWithdraw(principal, v.TokenIDs, v.Amounts, v.StorageDeposit)

	case NativeWithdraw:
		return e.State.NativeWithdraw(principal, v.Amount)

	default:
		return ledgererr.ErrInvalidIntent
	}
}

// executeTokenDiff applies a TokenDiff's fee-adjusted effect directly
// against the signer's balance and the fee recipient's, then records
// the post-fee remainder into the matcher so Finalize can verify the
// batch nets to zero per token.
func (e *Engine) executeTokenDiff(principal account.PrincipalID, td TokenDiff) error {
	if len(td.Deltas) == 0 {
		return ledgererr.ErrInvalidIntent
	}
	feeRecipient := e.State.FeeCollector()

	for t, delta := range td.Deltas {
		if delta.Sign() == 0 {
			return ledgererr.ErrInvalidIntent
		}

		if delta.Sign() < 0 {
			gross := delta.Abs()
			if err := e.State.InternalWithdraw(principal, t, gross); err != nil {
				return err
			}
			supplyDeltaBig, err := SupplyDelta(t, delta.Big(), e.State.Fee())
			if err != nil {
				return ledgererr.ErrIntegerOverflow
			}
			net := numeric.NewDelta(supplyDeltaBig).Abs()
			fee, err := gross.Sub(net)
			if err != nil {
				return ledgererr.ErrIntegerOverflow
			}
			if !fee.IsZero() {
				if err := e.State.InternalDeposit(feeRecipient, t, fee); err != nil {
					return err
				}
			}
			e.Inspector.OnTokenDiff(principal, t, delta, fee, td.Referral)
			e.deltas.RecordWithdrawal(t, principal, net)
			continue
		}

		gross := delta.Abs()
		if err := e.State.InternalDeposit(principal, t, gross); err != nil {
			return err
		}
		e.Inspector.OnTokenDiff(principal, t, delta, numeric.ZeroAmount(), td.Referral)
		e.deltas.RecordDeposit(t, principal, gross)
	}
	return nil
}

// Finalize closes the batch: every TokenDiff's post-fee remainder
// recorded so far must net to zero per token. On success it returns
// the concrete sender->receiver transfers the matcher decomposed the
// remainders into, for downstream event reporting; on failure the
// caller must discard the overlay this Engine was writing through.
func (e *Engine) Finalize() (*matcher.Transfers, error) {
	return e.deltas.Finalize()
}

func negateDeltas(in map[tokens.TokenId]numeric.Delta) map[tokens.TokenId]numeric.Delta {
	out := make(map[tokens.TokenId]numeric.Delta, len(in))
	for t, d := range in {
		out[t] = d.Neg()
	}
	return out
}

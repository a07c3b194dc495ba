// Package ledgererr defines the closed set of error kinds the engine
// can surface, each fatal to the enclosing batch. It has no
// dependencies on the rest of the engine so every layer (numeric,
// account, state, matcher, engine) can return these sentinels without
// import cycles.
package ledgererr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature: verify() returned no key, or key-type
	// mismatch with the envelope.
	ErrInvalidSignature = errors.New("ledger: invalid signature")
	// ErrWrongVerifyingContract: envelope's verifying-contract disagrees
	// with the state's.
	ErrWrongVerifyingContract = errors.New("ledger: wrong verifying contract")
	// ErrDeadlineExpired: envelope deadline is in the past.
	ErrDeadlineExpired = errors.New("ledger: deadline expired")
	// ErrPublicKeyNotExist: signer lacks the verified key, or an
	// explicit RemovePublicKey targets a missing key.
	ErrPublicKeyNotExist = errors.New("ledger: public key does not exist")
	// ErrPublicKeyExists: an explicit AddPublicKey targets an already-present key.
	ErrPublicKeyExists = errors.New("ledger: public key already exists")
	// ErrNonceUsed: replay of a previously committed nonce.
	ErrNonceUsed = errors.New("ledger: nonce already used")
	// ErrInvalidIntent: empty token set, zero amount, self-transfer, or
	// length-mismatched parallel arrays.
	ErrInvalidIntent = errors.New("ledger: invalid intent")
	// ErrBalanceOverflow: a checked add/sub saturated.
	ErrBalanceOverflow = errors.New("ledger: balance overflow")
	// ErrIntegerOverflow: closure math overflowed its widened path.
	ErrIntegerOverflow = errors.New("ledger: integer overflow")
	// ErrAccountNotFound: a withdrawal targets a principal with no record.
	ErrAccountNotFound = errors.New("ledger: account not found")
)

// InvariantViolated reports that the transfer matcher did not converge:
// at least one token's net delta across the batch was non-zero.
// UnmatchedDeltas maps token text form to its signed residual and may
// be nil if even the aggregation itself overflowed.
type InvariantViolated struct {
	UnmatchedDeltas map[string]string
}

func (e *InvariantViolated) Error() string {
	return fmt.Sprintf("ledger: invariant violated, unmatched deltas: %v", e.UnmatchedDeltas)
}

// Is lets errors.Is match any *InvariantViolated regardless of payload.
func (e *InvariantViolated) Is(target error) bool {
	_, ok := target.(*InvariantViolated)
	return ok
}

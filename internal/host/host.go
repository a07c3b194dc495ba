// Package host orchestrates one settlement engine against a durable
// account book: it buffers a batch's writes in a CachedState overlay,
// runs it through an engine.Engine, and either commits the overlay
// and persists it on success or discards it on the first error.
package host

import (
	"context"
	"sync"

	"github.com/basinledger/settled/internal/engine"
	"github.com/basinledger/settled/internal/matcher"
	"github.com/basinledger/settled/internal/state"
	"github.com/basinledger/settled/internal/storage/database"
	"github.com/basinledger/settled/internal/storage/ledgerstore"
)

// Host serializes batches against a single BaseState: the reference
// design assumes one host-provided atomic transaction at a time, so a
// mutex stands in for that external transaction boundary.
type Host struct {
	mu   sync.Mutex
	base *state.BaseState
	db   database.DB
}

// New constructs a Host over base, persisting committed batches to db.
// db may be nil, in which case Submit commits in memory only.
func New(base *state.BaseState, db database.DB) *Host {
	return &Host{base: base, db: db}
}

// Load rehydrates a Host's BaseState from db.
func Load(ctx context.Context, db database.DB, params state.Params) (*Host, error) {
	base, err := ledgerstore.Load(ctx, db, params)
	if err != nil {
		return nil, err
	}
	return New(base, db), nil
}

// Submit runs envs against the committed state under one CachedState
// overlay, and on success commits the overlay and persists it. now is
// the caller's current unix time, inspector may be nil.
func (h *Host) Submit(ctx context.Context, now uint64, envs []*engine.Envelope, inspector engine.Inspector) (*matcher.Transfers, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	overlay := state.NewCachedState(h.base)
	e := engine.New(overlay, inspector)

	if err := e.ExecuteSignedIntents(now, envs); err != nil {
		return nil, err
	}
	transfers, err := e.Finalize()
	if err != nil {
		return nil, err
	}

	overlay.Commit(h.base)

	if h.db != nil {
		if err := ledgerstore.Save(ctx, h.db, h.base); err != nil {
			return nil, err
		}
	}

	return transfers, nil
}

// Simulate runs envs the same way Submit does, but never commits the
// overlay back to the base state or persists anything: callers use it
// to preview a batch's outcome.
func (h *Host) Simulate(now uint64, envs []*engine.Envelope, inspector engine.Inspector) (*matcher.Transfers, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	overlay := state.NewCachedState(h.base)
	e := engine.New(overlay, inspector)

	if err := e.ExecuteSignedIntents(now, envs); err != nil {
		return nil, err
	}
	return e.Finalize()
}

// State exposes the underlying committed state for read-only queries
// (balances, key lookups) outside of a batch.
func (h *Host) State() *state.BaseState {
	return h.base
}

package rpc

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

// BalanceCache sits in front of BaseState.BalanceOf reads for the balance
// RPC method. Entries are invalidated wholesale on every successful
// submit, since a batch can move balances for accounts the cache never
// saw queried.
type BalanceCache struct {
	entries *lru.Cache[string, numeric.Amount]

	hits   uint64
	misses uint64
}

// NewBalanceCache builds a cache holding up to size recent balance reads.
func NewBalanceCache(size int) (*BalanceCache, error) {
	if size <= 0 {
		size = 1024
	}
	entries, err := lru.New[string, numeric.Amount](size)
	if err != nil {
		return nil, err
	}
	return &BalanceCache{entries: entries}, nil
}

func balanceCacheKey(principal account.PrincipalID, t tokens.TokenId) string {
	return fmt.Sprintf("%s|%s", principal, t.String())
}

// Get returns a cached balance for principal/t, if present.
func (c *BalanceCache) Get(principal account.PrincipalID, t tokens.TokenId) (numeric.Amount, bool) {
	amount, ok := c.entries.Get(balanceCacheKey(principal, t))
	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	return amount, ok
}

// Put records a freshly read balance.
func (c *BalanceCache) Put(principal account.PrincipalID, t tokens.TokenId, amount numeric.Amount) {
	c.entries.Add(balanceCacheKey(principal, t), amount)
}

// Invalidate drops every cached entry, called after a batch commits.
func (c *BalanceCache) Invalidate() {
	c.entries.Purge()
}

// Stats reports cache hit/miss counters since construction.
func (c *BalanceCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

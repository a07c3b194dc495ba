package rpc

import (
	"encoding/json"
	"time"

	"github.com/basinledger/settled/internal/account"
	"github.com/basinledger/settled/internal/engine"
	"github.com/basinledger/settled/internal/host"
	"github.com/basinledger/settled/internal/ledgererr"
	"github.com/basinledger/settled/internal/matcher"
	"github.com/basinledger/settled/internal/numeric"
	"github.com/basinledger/settled/internal/tokens"
)

func (s *Server) registerAllMethods(h *host.Host) {
	s.registry.Register("submit", MethodHandlerFunc(submitMethod(h, s.feed, s.balances)))
	s.registry.Register("simulate", MethodHandlerFunc(simulateMethod(h)))
	s.registry.Register("balance", MethodHandlerFunc(balanceMethod(h, s.balances)))
	s.registry.Register("account_info", MethodHandlerFunc(accountInfoMethod(h)))
	s.registry.Register("server_info", MethodHandlerFunc(serverInfoMethod(h)))
}

// batchParams is the shared request shape for submit and simulate: a
// batch of envelopes and the caller-supplied current time.
type batchParams struct {
	Now       uint64                `json:"now"`
	Envelopes []engine.WireEnvelope `json:"envelopes"`
}

// transferLeg is one decomposed sender->receiver transfer in a response.
type transferLeg struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

func decodeBatch(params json.RawMessage) (uint64, []*engine.Envelope, *RpcError) {
	var bp batchParams
	if err := json.Unmarshal(params, &bp); err != nil {
		return 0, nil, newErrorf(ErrInvalidParams, err)
	}
	now := bp.Now
	if now == 0 {
		now = uint64(time.Now().Unix())
	}
	envs := make([]*engine.Envelope, 0, len(bp.Envelopes))
	for _, we := range bp.Envelopes {
		env, err := we.Decode()
		if err != nil {
			return 0, nil, newError(ErrInvalidParams, err.Error())
		}
		envs = append(envs, env)
	}
	return now, envs, nil
}

func submitMethod(h *host.Host, feed *TransferFeed, balances *BalanceCache) func(*RpcContext, json.RawMessage) (interface{}, *RpcError) {
	return func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
		now, envs, rpcErr := decodeBatch(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		transfers, err := h.Submit(ctx.Context, now, envs, nil)
		if err != nil {
			return nil, engineError(err)
		}
		if balances != nil {
			balances.Invalidate()
		}
		result := transfersResult(transfers)
		if feed != nil {
			feed.Publish(legsOf(result))
		}
		return result, nil
	}
}

func simulateMethod(h *host.Host) func(*RpcContext, json.RawMessage) (interface{}, *RpcError) {
	return func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
		now, envs, rpcErr := decodeBatch(params)
		if rpcErr != nil {
			return nil, rpcErr
		}
		transfers, err := h.Simulate(now, envs, nil)
		if err != nil {
			return nil, engineError(err)
		}
		return transfersResult(transfers), nil
	}
}

func transfersResult(t *matcher.Transfers) map[string]interface{} {
	var legs []transferLeg
	if t != nil {
		t.Range(func(sender, receiver account.PrincipalID, tok tokens.TokenId, amount numeric.Amount) {
			legs = append(legs, transferLeg{
				From:   string(sender),
				To:     string(receiver),
				Token:  tok.String(),
				Amount: amount.String(),
			})
		})
	}
	return map[string]interface{}{"transfers": legs}
}

func engineError(err error) *RpcError {
	rpcErr := newError(ErrEngineRejected, err.Error())
	if iv, ok := err.(*ledgererr.InvariantViolated); ok {
		data, _ := json.Marshal(iv.UnmatchedDeltas)
		rpcErr.Data = string(data)
	}
	return rpcErr
}

type balanceParams struct {
	Account string `json:"account"`
	Token   string `json:"token"`
}

func balanceMethod(h *host.Host, balances *BalanceCache) func(*RpcContext, json.RawMessage) (interface{}, *RpcError) {
	return func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
		var bp balanceParams
		if err := json.Unmarshal(params, &bp); err != nil {
			return nil, newErrorf(ErrInvalidParams, err)
		}
		t, err := tokens.ParseTokenId(bp.Token)
		if err != nil {
			return nil, newErrorf(ErrInvalidParams, err)
		}
		principal := account.PrincipalID(bp.Account)

		var balance numeric.Amount
		if balances != nil {
			if cached, ok := balances.Get(principal, t); ok {
				balance = cached
			} else {
				balance = h.State().BalanceOf(principal, t)
				balances.Put(principal, t, balance)
			}
		} else {
			balance = h.State().BalanceOf(principal, t)
		}

		return map[string]interface{}{
			"account": bp.Account,
			"token":   t.String(),
			"balance": balance.String(),
		}, nil
	}
}

type accountInfoParams struct {
	Account string `json:"account"`
}

func accountInfoMethod(h *host.Host) func(*RpcContext, json.RawMessage) (interface{}, *RpcError) {
	return func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
		var ap accountInfoParams
		if err := json.Unmarshal(params, &ap); err != nil {
			return nil, newErrorf(ErrInvalidParams, err)
		}
		principal := account.PrincipalID(ap.Account)
		base := h.State()
		if !base.AccountExists(principal) {
			return nil, newError(ErrInvalidParams, "account not found")
		}
		keys := make([]string, 0)
		for _, k := range base.IterPublicKeys(principal) {
			keys = append(keys, k.String())
		}
		return map[string]interface{}{
			"account":     ap.Account,
			"public_keys": keys,
		}, nil
	}
}

func serverInfoMethod(h *host.Host) func(*RpcContext, json.RawMessage) (interface{}, *RpcError) {
	return func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
		base := h.State()
		return map[string]interface{}{
			"verifying_contract": string(base.VerifyingContract()),
			"fee_collector":      string(base.FeeCollector()),
			"wrapped_native":     base.WrappedNativeToken().String(),
		}, nil
	}
}

package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/basinledger/settled/internal/host"
)

// Server handles HTTP JSON-RPC 2.0 requests against a Host.
type Server struct {
	registry *MethodRegistry
	timeout  time.Duration
	feed     *TransferFeed
	balances *BalanceCache
}

// NewServer constructs a Server wired to host, with a per-request timeout.
// Successful submit calls publish their finalized legs on the returned
// server's TransferFeed, reachable via Feed(), and invalidate its
// balance cache.
func NewServer(h *host.Host, timeout time.Duration) *Server {
	balances, err := NewBalanceCache(4096)
	if err != nil {
		// size is a compile-time constant above lru's only failure mode
		// (a non-positive size), so this cannot happen.
		panic(err)
	}
	s := &Server{
		registry: NewMethodRegistry(),
		timeout:  timeout,
		feed:     NewTransferFeed(),
		balances: balances,
	}
	s.registerAllMethods(h)
	return s
}

// Feed returns the WebSocket feed finalized transfers are published on.
func (s *Server) Feed() *TransferFeed {
	return s.feed
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, newError(ErrInternal, "failed to read request body"), nil)
		return
	}
	defer r.Body.Close()

	var req JsonRpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, newError(ErrParseError, "invalid JSON"), nil)
		return
	}

	ctx, cancel := s.newRequestContext(r)
	defer cancel()

	result, rpcErr := s.executeMethod(req.Method, req.Params, ctx)

	resp := JsonRpcResponse{JsonRpc: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	s.writeResponse(w, resp)
}

func (s *Server) newRequestContext(r *http.Request) (*RpcContext, func()) {
	reqCtx := r.Context()
	cancel := func() {}
	if s.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(reqCtx, s.timeout)
	}
	return &RpcContext{Context: reqCtx, ClientIP: clientIP(r)}, cancel
}

func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, newError(ErrMethodNotFound, "method not found: "+method)
	}
	return handler.Handle(ctx, params)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp JsonRpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("rpc: failed to marshal response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, rpcErr *RpcError, id interface{}) {
	s.writeResponse(w, JsonRpcResponse{JsonRpc: "2.0", Error: rpcErr, ID: id})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

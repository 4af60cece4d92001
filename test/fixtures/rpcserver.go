// Package fixtures holds shared test helpers. Nothing here is used outside
// _test.go files.
package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Handler answers one JSON-RPC method. Returning a non-nil error makes the
// server reply with a JSON-RPC error object carrying its message.
type Handler func(params []json.RawMessage) (any, error)

// Result returns a Handler that always answers with v.
func Result(v any) Handler {
	return func([]json.RawMessage) (any, error) { return v, nil }
}

// RPCServer is an httptest JSON-RPC node that records calls per method.
type RPCServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// NewRPCServer starts a mock node. Unknown methods answer -32601.
func NewRPCServer(t *testing.T, handlers map[string]Handler) *RPCServer {
	t.Helper()
	s := &RPCServer{handlers: handlers, calls: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle installs or replaces the handler for method.
func (s *RPCServer) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Calls reports how many times method was invoked.
func (s *RPCServer) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *RPCServer) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case !ok:
		resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
	default:
		result, err := h(req.Params)
		if err != nil {
			resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
		} else {
			resp["result"] = result
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

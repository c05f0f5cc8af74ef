// Package explorer serves a JSON read side over a running sandbox
// chain: token metadata, holder balances, the journal, and the MiMC
// state root. The workshop CLI mounts it under `tokenlab serve` so
// attendees can poke at a live deployment with curl.
package explorer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/holiman/uint256"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/commitment"
	"github.com/tokenlab-xyz/go-tokenlab/journal"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

// Server is the HTTP read side for one deployed token.
type Server struct {
	chain   *chain.Chain
	token   chain.Address
	roots   *commitment.RootCache
	started time.Time
}

// New creates a server over a chain and the token deployed on it.
func New(c *chain.Chain, tokenAddr chain.Address) *Server {
	return &Server{
		chain:   c,
		token:   tokenAddr,
		roots:   commitment.NewRootCache(16),
		started: time.Now(),
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /token", s.handleToken)
	mux.HandleFunc("GET /balances", s.handleBalances)
	mux.HandleFunc("GET /balances/{address}", s.handleBalance)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /root", s.handleRoot)

	return mux
}

// state reads a detached copy of the ledger through the chain's view
// path, so it reflects only committed calls.
func (s *Server) state(r *http.Request) (*token.State, error) {
	v, err := s.chain.View(r.Context(), s.token, "state")
	if err != nil {
		return nil, err
	}
	st, ok := v.(*token.State)
	if !ok {
		return nil, fmt.Errorf("explorer: unexpected state view type %T", v)
	}
	return st, nil
}

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status    string   `json:"status"`
	Uptime    string   `json:"uptime"`
	Contracts []string `json:"contracts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	addrs, err := s.chain.Contracts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	hexes := make([]string, len(addrs))
	for i, a := range addrs {
		hexes[i] = a.Hex()
	}

	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.started).String(),
		Contracts: hexes,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// TokenResponse describes the deployed token.
type TokenResponse struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"total_supply"`
	Owner       string `json:"owner"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	st, err := s.state(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	owner, err := s.chain.View(r.Context(), s.token, "owner")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := TokenResponse{
		Address:     s.token.Hex(),
		Name:        st.Name,
		Symbol:      st.Symbol,
		Decimals:    st.Decimals,
		TotalSupply: st.Supply.Dec(),
		Owner:       owner.(chain.Address).Hex(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// BalanceEntry is one holder row.
type BalanceEntry struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// BalancesResponse lists every holder with a nonzero balance, in
// address order, plus the supply and the state root over them.
type BalancesResponse struct {
	Holders     []BalanceEntry `json:"holders"`
	TotalSupply string         `json:"total_supply"`
	StateRoot   string         `json:"state_root"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	st, err := s.state(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	holders := st.Holders()
	entries := make([]BalanceEntry, 0, len(holders))
	for _, addr := range holders {
		entries = append(entries, BalanceEntry{
			Address: addr.Hex(),
			Balance: st.Balances[addr].Dec(),
		})
	}

	resp := BalancesResponse{
		Holders:     entries,
		TotalSupply: st.Supply.Dec(),
		StateRoot:   s.roots.Root(st).Hex(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := chain.ParseAddress(r.PathValue("address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := s.chain.View(r.Context(), s.token, "balanceOf", addr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := BalanceEntry{Address: addr.Hex(), Balance: v.(*uint256.Int).Dec()}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// EventsResponse is a slice of journal events, oldest first.
type EventsResponse struct {
	Events []*journal.Event `json:"events"`
}

// handleEvents dumps the journal. Query parameters: stream restricts to
// one contract's stream (defaults to the token), stream=all lifts the
// restriction, and repeated type parameters select event types.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := journal.EventFilter{
		StreamID: s.token.Hex(),
		Types:    r.URL.Query()["type"],
	}
	switch stream := r.URL.Query().Get("stream"); stream {
	case "":
	case "all":
		filter.StreamID = ""
	default:
		filter.StreamID = stream
	}

	events, err := s.chain.Journal().ReadAll(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := EventsResponse{Events: events}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RootResponse carries the current state root and cache counters.
type RootResponse struct {
	StateRoot string `json:"state_root"`
	Holders   int    `json:"holders"`
	CacheHits int64  `json:"cache_hits"`
	CacheMiss int64  `json:"cache_misses"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	st, err := s.state(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	root := s.roots.Root(st)
	stats := s.roots.Stats()

	resp := RootResponse{
		StateRoot: root.Hex(),
		Holders:   len(st.Holders()),
		CacheHits: stats.Hits,
		CacheMiss: stats.Misses,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/alejandrodnm/optionsim/internal/application/engine"
	"github.com/alejandrodnm/optionsim/internal/application/pricing"
	"github.com/alejandrodnm/optionsim/internal/domain"
	"github.com/alejandrodnm/optionsim/internal/ports"
)

// Server exposes one engine over JSON REST. The engine stays the single
// owner of all state; this layer only translates requests and error kinds.
type Server struct {
	eng      *engine.Engine
	sim      *pricing.Simulator
	registry ports.AssetRegistry
	router   *mux.Router
}

// NewServer wires the routes over the given engine.
func NewServer(eng *engine.Engine, sim *pricing.Simulator, registry ports.AssetRegistry) *Server {
	s := &Server{
		eng:      eng,
		sim:      sim,
		registry: registry,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/balance", s.handleGetBalance).Methods("GET")
	api.HandleFunc("/assets", s.handleGetAssets).Methods("GET")
	api.HandleFunc("/prices/{asset}", s.handleGetPrice).Methods("GET")

	api.HandleFunc("/trades", s.handleOpenTrade).Methods("POST")
	api.HandleFunc("/trades/open", s.handleGetOpenTrades).Methods("GET")
	api.HandleFunc("/trades/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/trades/{id}/settle", s.handleSettle).Methods("POST")

	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/account/reset", s.handleReset).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api: server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api.Start: shutdown: %w", err)
		}
		slog.Info("api: server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api.Start: %w", err)
	}
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	account, err := s.eng.Balance(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, accountRecord{AccountID: account.ID, Balance: account.Balance, Currency: account.Currency})
}

func (s *Server) handleGetAssets(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	out := make([]assetRecord, len(list))
	for i, a := range list {
		out[i] = assetRecord{Name: a.Name, RIC: a.RIC, Active: a.Active}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["asset"]
	a, ok := s.registry.Lookup(name)
	if !ok {
		respondError(w, fmt.Errorf("%w: unknown asset %q", domain.ErrAssetUnavailable, name))
		return
	}
	tick, err := s.sim.Tick(r.Context(), a.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, tickRecord{Asset: tick.Asset, Price: tick.Price, Timestamp: tick.Timestamp})
}

func (s *Server) handleOpenTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: decode body: %v", domain.ErrInvalidParameter, err))
		return
	}

	opt, err := s.eng.OpenOption(r.Context(), req.Asset,
		domain.Direction(req.Direction), req.Stake,
		time.Duration(req.Duration)*time.Second)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, toOptionRecord(opt))
}

func (s *Server) handleGetOpenTrades(w http.ResponseWriter, r *http.Request) {
	positions, err := s.eng.Positions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]positionRecord, len(positions))
	for i, pos := range positions {
		out[i] = toPositionRecord(pos)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, fmt.Errorf("%w: limit %q", domain.ErrInvalidParameter, v))
			return
		}
		limit = n
	}
	history, err := s.eng.History(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, toOptionRecords(history))
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	opt, err := s.eng.Settle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, toOptionRecord(opt))
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.eng.Statistics(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, statsRecord{
		TradeCount: stats.TradeCount,
		OpenCount:  stats.OpenCount,
		WonCount:   stats.WonCount,
		LostCount:  stats.LostCount,
		WinRate:    stats.WinRate,
		GrossStake: stats.GrossStake,
		NetProfit:  stats.NetProfit,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: decode body: %v", domain.ErrInvalidParameter, err))
		return
	}
	if err := s.eng.Reset(r.Context(), req.InitialBalance); err != nil {
		respondError(w, err)
		return
	}
	s.handleGetBalance(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}

// respondError maps engine error kinds to HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrAssetUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

// Package api provides the HTTP REST API for the tickerdesk coordinator.
//
// It exposes the selection store, the chat session, and the sentiment cache
// to the dashboard frontend, plus a WebSocket stream of state changes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tickerdesk/tickerdesk/internal/chat"
	"github.com/tickerdesk/tickerdesk/internal/compose"
	"github.com/tickerdesk/tickerdesk/internal/config"
	"github.com/tickerdesk/tickerdesk/internal/news"
	"github.com/tickerdesk/tickerdesk/internal/selection"
	"github.com/tickerdesk/tickerdesk/internal/sentiment"
	"github.com/tickerdesk/tickerdesk/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	log    *slog.Logger

	store    *selection.Store
	session  *chat.Session
	composer *compose.Composer
	cache    *sentiment.Cache
	news     *news.Service
	wsHub    *WSHub
}

// NewServer wires the coordinator components and builds the router.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	feeds := make([]news.Feed, 0, len(cfg.News.Feeds))
	for _, f := range cfg.News.Feeds {
		feeds = append(feeds, news.Feed{Name: f.Name, URL: f.URL})
	}
	newsSvc := news.NewService(feeds, cfg.News.MaxArticles)

	// Remote sentiment backend when configured, local feed-derived metrics
	// otherwise.
	var fetcher sentiment.Fetcher = newsSvc
	if cfg.Backend.SentimentURL != "" {
		fetcher = sentiment.NewHTTPFetcher(cfg.Backend.SentimentURL, cfg.Backend.Timeout())
	}

	kv, err := sentiment.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open sentiment cache: %w", err)
	}

	store := selection.New()
	session := chat.NewSession(chat.NewClient(cfg.Backend.ChatURL, cfg.Backend.Timeout()), store)
	composer := compose.New(store, session)

	srv := &Server{
		cfg:      cfg,
		log:      logger,
		store:    store,
		session:  session,
		composer: composer,
		cache:    sentiment.New(kv, fetcher, cfg.Cache.TTL()),
		news:     newsSvc,
		wsHub:    NewWSHub(),
	}

	// Mirror session and selection changes onto the WebSocket stream so the
	// dashboard stays in sync without polling.
	session.Notify(func(event string, data any) {
		srv.wsHub.Broadcast(WSMessage{Type: "session_" + event, Data: data})
	})
	store.Subscribe(func(ev selection.Event) {
		srv.wsHub.Broadcast(WSMessage{Type: "selection_changed", Data: map[string]any{
			"single": store.Single(),
			"multi":  store.Multi(),
		}})
	})

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Selection
		r.Post("/selection/single", s.handleSelectSingle)
		r.Post("/selection/multi", s.handleSelectMulti)
		r.Post("/selection/sector", s.handleSelectSector)
		r.Get("/selection", s.handleGetSelection)
		r.Delete("/selection", s.handleClearSelection)

		// Chat session
		r.Get("/session", s.handleGetSession)
		r.Put("/session/draft", s.handleSetDraft)
		r.Post("/session/send", s.handleSend)

		// Sentiment and news
		r.Get("/stocks/tickers/{symbol}", s.handleTickerInfo)
		r.Get("/stocks/tickers/{symbol}/news", s.handleTickerNews)

		// WebSocket stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SelectRequest is the body for the selection endpoints.
type SelectRequest struct {
	Symbol string `json:"symbol"`
}

// SectorRequest is the body for POST /api/v1/selection/sector.
type SectorRequest struct {
	Sector string `json:"sector"`
}

// DraftRequest is the body for PUT /api/v1/session/draft.
type DraftRequest struct {
	Text string `json:"text"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":     "ok",
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleSelectSingle(w http.ResponseWriter, r *http.Request) {
	symbol, ok := decodeSymbol(w, r)
	if !ok {
		return
	}
	s.store.SetSingle(symbol)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.selectionState()})
}

func (s *Server) handleSelectMulti(w http.ResponseWriter, r *http.Request) {
	symbol, ok := decodeSymbol(w, r)
	if !ok {
		return
	}
	s.store.AddToMulti(symbol)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.selectionState()})
}

func (s *Server) handleSelectSector(w http.ResponseWriter, r *http.Request) {
	var req SectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Sector == "" {
		writeError(w, http.StatusBadRequest, "sector is required")
		return
	}

	s.composer.PickSector(req.Sector)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"draft": s.session.Draft()},
	})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.selectionState()})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.selectionState()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"messages": s.session.Messages(),
			"draft":    s.session.Draft(),
			"awaiting": s.session.Awaiting(),
		},
	})
}

func (s *Server) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.session.SetDraft(req.Text)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"draft": s.session.Draft()},
	})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	// The exchange must outlive the HTTP request if the client disconnects,
	// so it does not inherit the request context.
	ex, err := s.session.Submit(context.Background())
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBusy):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, chat.ErrEmptyDraft):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	<-ex.Done()
	if ex.Err() != nil {
		s.log.Warn("chat exchange failed", "error", ex.Err())
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"reply":    ex.Reply(),
			"fallback": ex.Err() != nil,
			"messages": s.session.Messages(),
		},
	})
}

func (s *Server) handleTickerInfo(w http.ResponseWriter, r *http.Request) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if !utils.ValidSymbol(symbol) {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := s.cache.Get(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
}

func (s *Server) handleTickerNews(w http.ResponseWriter, r *http.Request) {
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if !utils.ValidSymbol(symbol) {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	articles, err := s.news.Articles(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) selectionState() map[string]any {
	return map[string]any{
		"single": s.store.Single(),
		"multi":  s.store.Multi(),
	}
}

// decodeSymbol parses and validates the symbol from a selection request
// body, writing the error response itself on failure.
func decodeSymbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	symbol := utils.NormalizeSymbol(req.Symbol)
	if !utils.ValidSymbol(symbol) {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return "", false
	}
	return symbol, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

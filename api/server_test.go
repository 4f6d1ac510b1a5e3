package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tickerdesk/tickerdesk/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// testBackend serves the chat and sentiment endpoints the server talks to.
func testBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"ai-response": %q}`, "Here is what I know about "+req.Prompt)
	})
	mux.HandleFunc("GET /stocks/tickers/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"avg_sentiment": 0.25, "num_articles": 8}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testServer(t *testing.T) *Server {
	t.Helper()
	backend := testBackend(t)

	cfg := config.Default()
	cfg.Backend.ChatURL = backend.URL
	cfg.Backend.SentimentURL = backend.URL
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")
	cfg.News.Feeds = nil

	srv, err := NewServer(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.wsHub.Run()
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("health response not successful")
	}
}

// ════════════════════════════════════════════════════════════════════
// Selection endpoints
// ════════════════════════════════════════════════════════════════════

func TestSelectSingleComposesDraft(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/selection/single", `{"symbol":"aapl"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	want := "Can you tell me why $AAPL has been performing like this recently?"
	if got := srv.session.Draft(); got != want {
		t.Errorf("draft = %q, want %q", got, want)
	}
	// One-shot trigger: the single symbol is consumed.
	if srv.store.Single() != "" {
		t.Error("single selection not consumed")
	}
}

func TestSelectMultiComposesDraft(t *testing.T) {
	srv := testServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/selection/multi", `{"symbol":"AAPL"}`)
	doJSON(t, srv, http.MethodPost, "/api/v1/selection/multi", `{"symbol":"MSFT"}`)

	want := "Can you tell me more about $AAPL, $MSFT?"
	if got := srv.session.Draft(); got != want {
		t.Errorf("draft = %q, want %q", got, want)
	}
}

func TestSelectInvalidSymbol(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/selection/single", `{"symbol":"not a ticker"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("invalid symbol reported success")
	}
}

func TestSelectSector(t *testing.T) {
	srv := testServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/selection/multi", `{"symbol":"AAPL"}`)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/selection/sector", `{"sector":"Energy"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	want := "Can you tell me more about the current financial state of the Energy sector?"
	if got := srv.session.Draft(); got != want {
		t.Errorf("draft = %q, want %q", got, want)
	}
	if len(srv.store.Multi()) != 0 {
		t.Error("sector pick did not clear multi selection")
	}
}

func TestClearSelection(t *testing.T) {
	srv := testServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/selection/multi", `{"symbol":"AAPL"}`)
	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/selection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(srv.store.Multi()) != 0 || srv.store.Single() != "" {
		t.Error("selection not cleared")
	}
}

// ════════════════════════════════════════════════════════════════════
// Session endpoints
// ════════════════════════════════════════════════════════════════════

func TestSessionRoundTrip(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/session/draft", `{"text":"What moved the market today?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/session/send", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if data["fallback"] != false {
		t.Error("successful exchange reported fallback")
	}
	reply := data["reply"].(string)
	if !strings.Contains(reply, "What moved the market today?") {
		t.Errorf("reply = %q, want echo from test backend", reply)
	}

	msgs := srv.session.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want user+assistant", len(msgs))
	}
}

func TestSendEmptyDraft(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/session/send", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty draft", rec.Code)
	}
}

func TestSendClearsSelection(t *testing.T) {
	srv := testServer(t)

	doJSON(t, srv, http.MethodPost, "/api/v1/selection/multi", `{"symbol":"TSLA"}`)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/session/send", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(srv.store.Multi()) != 0 {
		t.Error("send did not clear the selection")
	}
}

func TestSendBusyConflict(t *testing.T) {
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"ai-response": "done"}`)
	}))
	defer backend.Close()

	cfg := config.Default()
	cfg.Backend.ChatURL = backend.URL
	cfg.Backend.SentimentURL = backend.URL
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")
	cfg.News.Feeds = nil

	srv, err := NewServer(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	doJSON(t, srv, http.MethodPut, "/api/v1/session/draft", `{"text":"first"}`)

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- doJSON(t, srv, http.MethodPost, "/api/v1/session/send", "")
	}()

	// Wait for the first send to take the gate.
	for !srv.session.Awaiting() {
		time.Sleep(time.Millisecond)
	}

	doJSON(t, srv, http.MethodPut, "/api/v1/session/draft", `{"text":"second"}`)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/session/send", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("concurrent send status = %d, want 409", rec.Code)
	}

	close(release)
	if rec := <-firstDone; rec.Code != http.StatusOK {
		t.Errorf("first send status = %d, want 200", rec.Code)
	}
}

func TestSendFallbackOnBackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer backend.Close()

	cfg := config.Default()
	cfg.Backend.ChatURL = backend.URL
	cfg.Backend.SentimentURL = backend.URL
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")
	cfg.News.Feeds = nil

	srv, err := NewServer(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	doJSON(t, srv, http.MethodPut, "/api/v1/session/draft", `{"text":"hello"}`)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/session/send", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if data["fallback"] != true {
		t.Error("failed exchange did not report fallback")
	}
	if data["reply"] != "I'm sorry, I don't understand that." {
		t.Errorf("reply = %q, want fixed fallback text", data["reply"])
	}
	// The failed exchange appends nothing beyond the user message.
	if msgs := srv.session.Messages(); len(msgs) != 1 {
		t.Errorf("got %d messages, want only the user message", len(msgs))
	}
}

// ════════════════════════════════════════════════════════════════════
// Sentiment endpoint
// ════════════════════════════════════════════════════════════════════

func TestTickerInfoCached(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/stocks/tickers/AAPL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if data["sentiment_score"] != 0.25 {
		t.Errorf("sentiment_score = %v, want 0.25", data["sentiment_score"])
	}
	if data["article_count"] != float64(8) {
		t.Errorf("article_count = %v, want 8", data["article_count"])
	}

	// Second request served from the durable cache.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/stocks/tickers/AAPL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second status = %d", rec.Code)
	}
}

func TestTickerInfoInvalidSymbol(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/stocks/tickers/123456789", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tickerdesk/tickerdesk/pkg/models"
)

// tickerInfoResponse mirrors the per-symbol news endpoint payload.
type tickerInfoResponse struct {
	AvgSentiment *float64 `json:"avg_sentiment"`
	NumArticles  *float64 `json:"num_articles"`
}

// Compile-time interface check.
var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher retrieves sentiment metrics from a remote per-symbol news
// endpoint: GET {base}/stocks/tickers/{symbol}.
type HTTPFetcher struct {
	baseURL string
	httpc   *http.Client
}

// NewHTTPFetcher creates a fetcher for the given base URL. A zero timeout
// defaults to 30 seconds.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and decodes the sentiment metrics for symbol.
func (f *HTTPFetcher) Fetch(ctx context.Context, symbol string) (*models.SentimentReport, error) {
	url := fmt.Sprintf("%s/stocks/tickers/%s", f.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create sentiment request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sentiment request for %s: HTTP %d", symbol, resp.StatusCode)
	}

	var parsed tickerInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode sentiment response for %s: %w", symbol, err)
	}
	if parsed.AvgSentiment == nil || parsed.NumArticles == nil {
		return nil, fmt.Errorf("sentiment response for %s missing fields", symbol)
	}

	return &models.SentimentReport{
		Symbol:         symbol,
		SentimentScore: *parsed.AvgSentiment,
		ArticleCount:   int(*parsed.NumArticles),
		FetchedAt:      time.Now(),
	}, nil
}

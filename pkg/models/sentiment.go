package models

import "time"

// SentimentReport summarizes news tone for a single symbol. It is the unit
// stored in the durable sentiment cache; once written it is treated as valid
// until the configured TTL (if any) elapses.
type SentimentReport struct {
	Symbol         string    `json:"symbol"`
	SentimentScore float64   `json:"sentiment_score"` // -1.0 (bearish) .. +1.0 (bullish)
	ArticleCount   int       `json:"article_count"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// NewsArticle is a scored headline returned by the per-ticker news endpoint.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	Score       float64   `json:"score"`
	PublishedAt time.Time `json:"published_at"`
}

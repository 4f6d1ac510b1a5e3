// Package news fetches per-symbol articles from RSS feeds and derives the
// sentiment metrics the dashboard displays. It doubles as the local backend
// when no remote sentiment service is configured.
package news

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/tickerdesk/tickerdesk/pkg/models"
)

// ErrAllFeedsFailed is returned when every configured feed errored.
var ErrAllFeedsFailed = errors.New("news: all feeds failed")

// Feed is one RSS source. A "{symbol}" placeholder in the URL is replaced
// with the requested ticker; feeds without the placeholder are fetched as-is
// and filtered by symbol mention.
type Feed struct {
	Name string
	URL  string
}

// Service aggregates articles across feeds and scores them.
type Service struct {
	feeds       []Feed
	maxArticles int
	parser      *gofeed.Parser
}

// NewService creates a news service over the given feeds. maxArticles <= 0
// means no cap.
func NewService(feeds []Feed, maxArticles int) *Service {
	return &Service{
		feeds:       feeds,
		maxArticles: maxArticles,
		parser:      gofeed.NewParser(),
	}
}

// Articles returns scored articles for symbol, newest first. Individual feed
// failures are skipped; only all feeds failing is an error.
func (s *Service) Articles(ctx context.Context, symbol string) ([]models.NewsArticle, error) {
	if len(s.feeds) == 0 {
		return nil, ErrAllFeedsFailed
	}

	var (
		mu       sync.Mutex
		articles []models.NewsArticle
		failures int
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, feed := range s.feeds {
		g.Go(func() error {
			items, err := s.fetchFeed(ctx, feed, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return nil // non-fatal, other feeds may succeed
			}
			articles = append(articles, items...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if failures == len(s.feeds) {
		return nil, ErrAllFeedsFailed
	}

	sortArticlesByDate(articles)
	if s.maxArticles > 0 && len(articles) > s.maxArticles {
		articles = articles[:s.maxArticles]
	}

	for i := range articles {
		scoreArticle(&articles[i])
	}
	return articles, nil
}

// Fetch derives the symbol's sentiment metrics from its current articles.
// It satisfies the sentiment fetcher contract, so the service can stand in
// for the remote backend.
func (s *Service) Fetch(ctx context.Context, symbol string) (*models.SentimentReport, error) {
	articles, err := s.Articles(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return &models.SentimentReport{
		Symbol:         symbol,
		SentimentScore: averageScore(articles),
		ArticleCount:   len(articles),
		FetchedAt:      time.Now(),
	}, nil
}

// fetchFeed parses one feed and returns its articles for symbol.
func (s *Service) fetchFeed(ctx context.Context, feed Feed, symbol string) ([]models.NewsArticle, error) {
	url := feed.URL
	targeted := strings.Contains(url, "{symbol}")
	if targeted {
		url = strings.ReplaceAll(url, "{symbol}", symbol)
	}

	parsed, err := s.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		a := models.NewsArticle{
			Title:   item.Title,
			URL:     item.Link,
			Source:  feed.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		// Untargeted feeds carry general market news, keep only items
		// that mention the symbol.
		if !targeted && !mentionsSymbol(a, symbol) {
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// cleanHTML strips markup from feed descriptions using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

func mentionsSymbol(a models.NewsArticle, symbol string) bool {
	text := strings.ToUpper(a.Title + " " + a.Summary)
	return strings.Contains(text, strings.ToUpper(symbol))
}

// sortArticlesByDate sorts newest first.
func sortArticlesByDate(articles []models.NewsArticle) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

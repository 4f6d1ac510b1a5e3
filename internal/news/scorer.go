package news

import (
	"math"
	"strings"

	"github.com/tickerdesk/tickerdesk/pkg/models"
)

// Keyword-based headline scorer. Deterministic and offline; the service
// averages these per-article scores into the symbol's sentiment metric.

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "rebound": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"beats estimates": 0.6, "tops forecast": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5, "raises guidance": 0.7,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"tumble": 0.6, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5, "layoffs": 0.6,
	"bankruptcy": 0.8, "fraud": 0.8, "lawsuit": 0.5, "investigation": 0.5,
	"recall": 0.5, "miss": 0.5, "misses estimates": 0.6, "warning": 0.5,
	"cuts guidance": 0.7, "concern": 0.3,
}

// ScoreHeadline returns a sentiment score for a single headline, from -1.0
// (very bearish) to +1.0 (very bullish), with a confidence estimate.
func ScoreHeadline(headline string) (score float64, confidence float64) {
	lower := strings.ToLower(headline)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}

	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1 // no signal
	}

	total := bullScore + bearScore
	if total == 0 {
		return 0, 0.1
	}

	score = (bullScore - bearScore) / total
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)

	return score, confidence
}

// scoreArticle scores title plus summary and stamps the article.
func scoreArticle(article *models.NewsArticle) {
	text := article.Title
	if article.Summary != "" {
		text += " " + article.Summary
	}
	article.Score, _ = ScoreHeadline(text)
}

// averageScore is the plain mean over scored articles.
func averageScore(articles []models.NewsArticle) float64 {
	if len(articles) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range articles {
		sum += a.Score
	}
	return sum / float64(len(articles))
}

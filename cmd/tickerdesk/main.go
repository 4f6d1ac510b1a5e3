// TickerDesk — selection-to-conversation coordinator for the stock dashboard.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/api"
	"github.com/tickerdesk/tickerdesk/internal/config"
	"github.com/tickerdesk/tickerdesk/internal/logging"
	"github.com/tickerdesk/tickerdesk/internal/news"
	"github.com/tickerdesk/tickerdesk/internal/sentiment"
	"github.com/tickerdesk/tickerdesk/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tickerdesk",
	Short: "TickerDesk — selection-to-conversation coordinator for the stock dashboard",
	Long: `TickerDesk bridges the dashboard's ticker selections and its AI chat:
single clicks and multi-select drops become canonical draft questions, sends
are serialized through one in-flight exchange, and per-ticker sentiment
metrics are served cache-first from a durable local store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sentimentCmd)
	rootCmd.AddCommand(newsCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TickerDesk %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		return srv.ListenAndServe(addr)
	},
}

// --- Sentiment Command ---

var sentimentCmd = &cobra.Command{
	Use:   "sentiment [symbol]",
	Short: "Show cached sentiment metrics for a ticker",
	Long: `Look up the sentiment metrics for a ticker, going through the same
cache-first path the API serves: a durable cache hit skips the backend
entirely, a miss fetches and fills the cache.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		if !utils.ValidSymbol(symbol) {
			return fmt.Errorf("invalid symbol: %q", args[0])
		}

		cache, err := buildSentimentCache()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		report, err := cache.Get(ctx, symbol)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", report.Symbol)
		fmt.Printf("  sentiment: %+.3f\n", report.SentimentScore)
		fmt.Printf("  articles:  %d\n", report.ArticleCount)
		fmt.Printf("  fetched:   %s\n", report.FetchedAt.Format(time.RFC3339))
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [symbol]",
	Short: "List scored news articles for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		if !utils.ValidSymbol(symbol) {
			return fmt.Errorf("invalid symbol: %q", args[0])
		}

		svc := newsService()

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		articles, err := svc.Articles(ctx, symbol)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Printf("no articles found for %s\n", symbol)
			return nil
		}

		for _, a := range articles {
			fmt.Printf("%+.2f  %s  [%s]\n", a.Score, a.Title, a.Source)
		}
		return nil
	},
}

// --- Helpers ---

func newsService() *news.Service {
	feeds := make([]news.Feed, 0, len(cfg.News.Feeds))
	for _, f := range cfg.News.Feeds {
		feeds = append(feeds, news.Feed{Name: f.Name, URL: f.URL})
	}
	return news.NewService(feeds, cfg.News.MaxArticles)
}

func buildSentimentCache() (*sentiment.Cache, error) {
	var fetcher sentiment.Fetcher = newsService()
	if cfg.Backend.SentimentURL != "" {
		fetcher = sentiment.NewHTTPFetcher(cfg.Backend.SentimentURL, cfg.Backend.Timeout())
	}

	store, err := sentiment.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	return sentiment.New(store, fetcher, cfg.Cache.TTL()), nil
}

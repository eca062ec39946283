package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-posts/app/api"
	"github.com/lysyi3m/rss-posts/app/cfg"
	"github.com/lysyi3m/rss-posts/app/database"
	"github.com/lysyi3m/rss-posts/app/feed"
	"github.com/lysyi3m/rss-posts/app/manifest"
	"github.com/lysyi3m/rss-posts/app/metrics"
	"github.com/lysyi3m/rss-posts/app/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	config, err := cfg.Load(os.Args[1:])
	if err != nil {
		return 1
	}
	if config == nil {
		return 0
	}

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RSS Posts", "version", config.Version, "posts_dir", config.PostsDir)

	configCache := feed.NewConfigCache(config.FeedsDir, feed.ConfigSettings{
		Enabled:  true,
		MaxItems: config.ItemsPerFeed,
		Timeout:  config.Timeout,
	})
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "feeds_dir", config.FeedsDir, "error", err)
		return 1
	}
	slog.Debug("Feed configurations loaded", "count", configCache.GetConfigCount())

	store := manifest.NewStore(config.GetManifestPath())
	m := metrics.New()

	var feedRepo database.FeedRepository
	var runRepo database.RunRepository
	if config.DBPath != "" {
		db, err := database.NewConnection(config.DBPath)
		if err != nil {
			slog.Warn("History database unavailable, continuing without it", "path", config.DBPath, "error", err)
		} else {
			defer db.Close()
			feedRepo = database.NewFeedRepository(db)
			runRepo = database.NewRunRepository(db)
		}
	}

	if config.Serve {
		return serve(config, store, configCache, m, feedRepo, runRepo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Per-feed timeouts are applied through the request context.
	httpClient := &http.Client{}
	fetcher := feed.NewFetcher(httpClient, feed.NewParser(), config.UserAgent)
	renderer := feed.NewRenderer(config.StylesHref, config.ScriptSrc, config.AdsSnippet)

	ingester := tasks.NewIngester(config, configCache, fetcher, feed.NewFilterer(),
		feed.NewContentExtractor(), renderer, store, m)
	if feedRepo != nil {
		ingester.WithHistory(feedRepo, runRepo)
	}

	report, err := ingester.Run(ctx)
	if err != nil {
		slog.Error("Run failed", "error", err)
	}

	fmt.Printf("Done. New posts added: %d\n", report.Added)
	fmt.Printf("Manifest at: %s (%d total)\n", store.Path(), report.Total)

	if err != nil {
		return 1
	}
	return 0
}

func serve(config *cfg.Cfg, store *manifest.Store, configCache *feed.ConfigCache, m *metrics.Metrics,
	feedRepo database.FeedRepository, runRepo database.RunRepository) int {
	handler := api.NewHandler(config.PostsDir, store, configCache, m, config.Version)
	if feedRepo != nil {
		handler.WithHistory(feedRepo, runRepo)
	}

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting preview server", "port", config.Port, "posts", handler.PostsMount())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return exitCode
}

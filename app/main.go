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

	"github.com/dmkorz/newsline/app/api"
	"github.com/dmkorz/newsline/app/cfg"
	"github.com/dmkorz/newsline/app/collector"
	"github.com/dmkorz/newsline/app/database"
	"github.com/dmkorz/newsline/app/feed"
	"github.com/dmkorz/newsline/app/llm"
	"github.com/dmkorz/newsline/app/news"
	"github.com/dmkorz/newsline/app/topics"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Newsline", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	topicConfig, err := topics.Load(appCfg.TopicsFile)
	if err != nil {
		slog.Error("Failed to load topic configuration", "path", appCfg.TopicsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Topic configuration loaded", "topics", len(topicConfig.Topics), "feeds", len(topicConfig.Feeds))

	articleRepo := database.NewArticleRepository(db)
	newsletterRepo := database.NewNewsletterRepository(db)
	questionRepo := database.NewQuestionRepository(db)

	httpClient := &http.Client{}
	requestTimeout := time.Duration(appCfg.RequestTimeout) * time.Second

	parser := feed.NewParser(httpClient, appCfg.UserAgent, requestTimeout)
	extractor := feed.NewExtractor(httpClient, appCfg.UserAgent, requestTimeout)
	llmClient := llm.NewClient(appCfg.OllamaURL, appCfg.OllamaModel)
	classifier := news.NewClassifier(topicConfig, llmClient, appCfg.HighConfidence)
	deduper := news.NewDeduper(articleRepo, appCfg.SimilarityThreshold,
		time.Duration(appCfg.DedupWindowHours)*time.Hour)

	newsCollector := collector.NewCollector(topicConfig, parser, extractor, classifier,
		deduper, llmClient, articleRepo, newsletterRepo, db)

	slog.Info("Starting collector", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.CollectInterval)
	newsCollector.Start()
	defer newsCollector.Stop()

	apiHandler := api.NewHandler(topicConfig, articleRepo, newsletterRepo, questionRepo, llmClient, newsCollector)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

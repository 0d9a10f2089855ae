package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./newsline.db" description:"Path to the SQLite database file"`

	// Application configuration
	TopicsFile      string `long:"topics-file" env:"TOPICS_FILE" default:"./configs/topics.yml" description:"Topic and feed configuration file"`
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of parallel feed fetch workers"`
	QueryWorkers    int    `long:"query-workers" env:"QUERY_WORKERS" default:"2" description:"Number of parallel workers for search query feeds"`
	MaxQueryFeeds   int    `long:"max-query-feeds" env:"MAX_QUERY_FEEDS" default:"10" description:"Maximum number of search query feeds per run"`
	CollectInterval int    `long:"collect-interval" env:"COLLECT_INTERVAL" default:"1800" description:"Collection run interval in seconds"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Ingestion tuning
	RequestTimeout      int     `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"15" description:"Network request timeout in seconds"`
	MaxArticleAgeHours  int     `long:"max-article-age" env:"MAX_ARTICLE_AGE_HOURS" default:"36" description:"Maximum article age in hours accepted at insert time"`
	MaxArticlesPerTopic int     `long:"max-articles-per-topic" env:"MAX_ARTICLES_PER_TOPIC" default:"40" description:"Retention cap per topic, oldest pruned first"`
	DedupWindowHours    int     `long:"dedup-window" env:"DEDUP_WINDOW_HOURS" default:"24" description:"Lookback window in hours for duplicate detection"`
	SimilarityThreshold float64 `long:"similarity-threshold" env:"SIMILARITY_THRESHOLD" default:"0.85" description:"Title similarity ratio above which an article is a duplicate"`
	HighConfidence      int     `long:"high-confidence" env:"HIGH_CONFIDENCE_THRESHOLD" default:"4" description:"Classifier score at which the LLM tie-break is skipped"`

	// LLM collaborator
	OllamaURL   string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434/api/generate" description:"Ollama generate endpoint"`
	OllamaModel string `long:"ollama-model" env:"OLLAMA_MODEL" default:"qwen2.5:7b" description:"Ollama model name"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Minsk)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		TopicsFile:          raw.TopicsFile,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		QueryWorkers:        raw.QueryWorkers,
		MaxQueryFeeds:       raw.MaxQueryFeeds,
		CollectInterval:     raw.CollectInterval,
		APIAccessKey:        raw.APIAccessKey,
		RequestTimeout:      raw.RequestTimeout,
		MaxArticleAgeHours:  raw.MaxArticleAgeHours,
		MaxArticlesPerTopic: raw.MaxArticlesPerTopic,
		DedupWindowHours:    raw.DedupWindowHours,
		SimilarityThreshold: raw.SimilarityThreshold,
		HighConfidence:      raw.HighConfidence,
		OllamaURL:           raw.OllamaURL,
		OllamaModel:         raw.OllamaModel,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

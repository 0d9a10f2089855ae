package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmkorz/newsline/app/cfg"
	"github.com/dmkorz/newsline/app/database"
	"github.com/dmkorz/newsline/app/feed"
	"github.com/dmkorz/newsline/app/topics"
)

// ErrRunInProgress is returned when a collection run is requested while
// another one is still active.
var ErrRunInProgress = fmt.Errorf("collection run already in progress")

// Collector owns the periodic ingestion cycle: fetch every configured feed,
// push each entry through the processing pipeline and record per-topic stats
// on the daily newsletter.
type Collector struct {
	config         *topics.Config
	fetcher        EntryFetcher
	extractor      ContentExtractor
	detector       TopicDetector
	deduper        DuplicateChecker
	analyzer       Summarizer
	articleRepo    database.ArticleRepository
	newsletterRepo database.NewsletterRepository
	locker         WriteLocker

	interval      time.Duration
	workerCount   int
	queryWorkers  int
	maxQueryFeeds int
	maxAge        time.Duration
	maxPerTopic   int

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewCollector(config *topics.Config, fetcher EntryFetcher, extractor ContentExtractor,
	detector TopicDetector, deduper DuplicateChecker, analyzer Summarizer,
	articleRepo database.ArticleRepository, newsletterRepo database.NewsletterRepository,
	locker WriteLocker) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Collector{
		config:         config,
		fetcher:        fetcher,
		extractor:      extractor,
		detector:       detector,
		deduper:        deduper,
		analyzer:       analyzer,
		articleRepo:    articleRepo,
		newsletterRepo: newsletterRepo,
		locker:         locker,
		interval:       time.Duration(c.CollectInterval) * time.Second,
		workerCount:    c.WorkerCount,
		queryWorkers:   c.QueryWorkers,
		maxQueryFeeds:  c.MaxQueryFeeds,
		maxAge:         time.Duration(c.MaxArticleAgeHours) * time.Hour,
		maxPerTopic:    c.MaxArticlesPerTopic,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start launches the periodic collection loop. The first run happens
// immediately.
func (c *Collector) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.runOnce()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.runOnce()
			}
		}
	}()
}

func (c *Collector) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *Collector) runOnce() {
	stats, err := c.Run(c.ctx)
	if err != nil {
		if err == ErrRunInProgress || c.ctx.Err() != nil {
			return
		}
		slog.Error("Collection run failed", "error", err)
		return
	}

	slog.Info("Collection run completed",
		"duration", stats.Duration.Round(time.Millisecond).String(),
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"pruned", stats.Pruned)
}

// RunStats aggregates the outcome of one collection run.
type RunStats struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Skipped    int
	Errors     int
	Pruned     int64
	PerTopic   map[string]database.TopicStats
	Duration   time.Duration
}

type sourceFeed struct {
	url    string
	source string
}

// Run executes one full collection cycle and returns its stats. Only one run
// may be active at a time; concurrent callers get ErrRunInProgress.
func (c *Collector) Run(ctx context.Context) (RunStats, error) {
	if !c.running.CompareAndSwap(false, true) {
		return RunStats{}, ErrRunInProgress
	}
	defer c.running.Store(false)

	started := time.Now()

	newsletterID, err := c.newsletterRepo.GetOrCreateForToday()
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to resolve today's newsletter: %w", err)
	}

	stats := RunStats{PerTopic: make(map[string]database.TopicStats)}
	var mu sync.Mutex

	record := func(outcome outcome, res *result) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case outcomeInserted:
			stats.Inserted++
			ts := stats.PerTopic[res.topic]
			ts.Total++
			if res.important {
				ts.Important++
			}
			stats.PerTopic[res.topic] = ts
		case outcomeDuplicate:
			stats.Duplicates++
		case outcomeSkipped:
			stats.Skipped++
		case outcomeError:
			stats.Errors++
		}
	}

	c.runPool(ctx, c.rssFeeds(), c.workerCount, &stats, &mu, record)
	c.runPool(ctx, c.queryFeeds(), c.queryWorkers, &stats, &mu, record)

	if err := c.prune(&stats); err != nil {
		slog.Warn("Retention pruning failed", "error", err)
	}

	for topic, ts := range stats.PerTopic {
		if err := c.newsletterRepo.UpsertStats(newsletterID, topic, ts.Total, ts.Important); err != nil {
			slog.Warn("Failed to record newsletter stats", "topic", topic, "error", err)
		}
	}

	stats.Duration = time.Since(started)
	return stats, nil
}

func (c *Collector) rssFeeds() []sourceFeed {
	feeds := make([]sourceFeed, 0, len(c.config.Feeds))
	for _, u := range c.config.Feeds {
		feeds = append(feeds, sourceFeed{url: u, source: feed.SourceRSS})
	}
	return feeds
}

func (c *Collector) queryFeeds() []sourceFeed {
	queries := c.config.Queries()
	if len(queries) > c.maxQueryFeeds {
		queries = queries[:c.maxQueryFeeds]
	}

	feeds := make([]sourceFeed, 0, len(queries))
	for _, q := range queries {
		feeds = append(feeds, sourceFeed{url: feed.BuildSearchFeedURL(q), source: feed.SourceGoogle})
	}
	return feeds
}

func (c *Collector) runPool(ctx context.Context, feeds []sourceFeed, workers int,
	stats *RunStats, mu *sync.Mutex, record func(outcome, *result)) {
	if len(feeds) == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(feeds) {
		workers = len(feeds)
	}

	jobs := make(chan sourceFeed)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				c.processFeed(ctx, f, stats, mu, record)
			}
		}()
	}

	for _, f := range feeds {
		select {
		case jobs <- f:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func (c *Collector) processFeed(ctx context.Context, f sourceFeed,
	stats *RunStats, mu *sync.Mutex, record func(outcome, *result)) {
	entries, err := c.fetcher.Fetch(ctx, f.url)
	if err != nil {
		slog.Warn("Failed to fetch feed", "url", f.url, "source", f.source, "error", err)
		mu.Lock()
		stats.Errors++
		mu.Unlock()
		return
	}

	mu.Lock()
	stats.Fetched += len(entries)
	mu.Unlock()

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, out, err := c.processEntry(ctx, entry, f.source)
		if err != nil {
			slog.Warn("Failed to process entry", "title", entry.Title, "error", err)
			record(outcomeError, nil)
			continue
		}
		record(out, res)
	}
}

func (c *Collector) prune(stats *RunStats) error {
	return c.locker.WithWriteLock(func() error {
		for topic := range stats.PerTopic {
			removed, err := c.articleRepo.PruneTopic(topic, c.maxPerTopic)
			if err != nil {
				return fmt.Errorf("failed to prune topic %s: %w", topic, err)
			}
			stats.Pruned += removed
		}
		return nil
	})
}

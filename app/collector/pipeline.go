package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmkorz/newsline/app/database"
	"github.com/dmkorz/newsline/app/feed"
	"github.com/dmkorz/newsline/app/llm"
	"github.com/dmkorz/newsline/app/news"
)

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeDuplicate
	outcomeSkipped
	outcomeError
)

type result struct {
	id        int64
	topic     string
	important bool
}

// Storage field caps, in runes.
const (
	maxTitleLength     = 500
	maxSummaryLength   = 1000
	maxFullTextLength  = 4000
	maxNormTitleLength = 200

	classifyExcerptLimit = 500
)

// processEntry runs one feed entry through the full pipeline: policy gates,
// duplicate checks, content extraction, classification, analysis and the
// final locked insert. Network calls never happen under the write lock.
func (c *Collector) processEntry(ctx context.Context, entry feed.Entry, source string) (*result, outcome, error) {
	if c.config.Blacklist.Blocked(entry.Link, entry.Title) {
		slog.Debug("Entry blacklisted", "title", entry.Title, "link", entry.Link)
		return nil, outcomeSkipped, nil
	}

	if entry.Published.Before(time.Now().UTC().Add(-c.maxAge)) {
		slog.Debug("Entry too old", "title", entry.Title, "published", entry.Published)
		return nil, outcomeSkipped, nil
	}

	fingerprint := news.Fingerprint(entry.Title, entry.Link)

	// Cheap gates first: fingerprint hit or a cross-topic duplicate means the
	// entry is dropped before any page fetch.
	duplicate := false
	err := c.locker.WithWriteLock(func() error {
		existing, err := c.articleRepo.GetByFingerprint(fingerprint)
		if err != nil {
			return fmt.Errorf("failed to check fingerprint: %w", err)
		}
		if existing != nil {
			duplicate = true
			return nil
		}

		dup, err := c.deduper.IsDuplicate(entry.Title, "", entry.Link)
		if err != nil {
			return fmt.Errorf("failed to check duplicates: %w", err)
		}
		duplicate = dup
		return nil
	})
	if err != nil {
		return nil, outcomeError, err
	}
	if duplicate {
		return nil, outcomeDuplicate, nil
	}

	content, extractErr := c.extractor.Extract(ctx, entry.Link)
	if extractErr != nil {
		slog.Debug("Content extraction failed, classifying by title", "link", entry.Link, "error", extractErr)
		content = ""
	}

	excerpt := entry.Title
	if content != "" {
		excerpt = truncateRunes(content, classifyExcerptLimit)
	}

	topic := c.detector.Detect(ctx, entry.Title, excerpt)
	if topic == "" {
		slog.Debug("No topic detected", "title", entry.Title)
		return nil, outcomeSkipped, nil
	}

	var analysis llm.Analysis
	if source == feed.SourceGoogle {
		// Aggregator titles carry the facts; their pages are redirects.
		analysis = llm.Analysis{Summary: entry.Title}
	} else {
		// Even with an empty body the model can judge importance from the title.
		analysis = c.analyzer.Analyze(ctx, entry.Title, content)
	}

	article := database.Article{
		Title:           truncateRunes(entry.Title, maxTitleLength),
		Summary:         truncateRunes(analysis.Summary, maxSummaryLength),
		FullText:        truncateRunes(content, maxFullTextLength),
		Link:            entry.Link,
		Topic:           topic,
		Published:       entry.Published.UTC(),
		Fingerprint:     fingerprint,
		Important:       analysis.Important,
		Source:          source,
		RealSource:      news.Host(entry.Link),
		NormalizedTitle: truncateRunes(news.NormalizeTitle(entry.Title), maxNormTitleLength),
		FetchedAt:       time.Now().UTC(),
	}

	var id int64
	err = c.locker.WithWriteLock(func() error {
		// Another worker may have stored a near-identical article while this
		// one was extracting and classifying; recheck within the topic before
		// committing.
		dup, err := c.deduper.IsDuplicate(entry.Title, topic, entry.Link)
		if err != nil {
			return fmt.Errorf("failed to recheck duplicates: %w", err)
		}
		if dup {
			duplicate = true
			return nil
		}

		id, err = c.articleRepo.Insert(article)
		if err != nil {
			if errors.Is(err, database.ErrDuplicateFingerprint) {
				duplicate = true
				return nil
			}
			return fmt.Errorf("failed to insert article: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, outcomeError, err
	}
	if duplicate {
		return nil, outcomeDuplicate, nil
	}

	slog.Info("Article stored", "id", id, "topic", topic, "important", analysis.Important, "source", source, "title", truncateRunes(entry.Title, 80))

	return &result{id: id, topic: topic, important: analysis.Important}, outcomeInserted, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

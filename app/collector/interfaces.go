package collector

import (
	"context"

	"github.com/dmkorz/newsline/app/feed"
	"github.com/dmkorz/newsline/app/llm"
)

type EntryFetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Entry, error)
}

type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

type TopicDetector interface {
	Detect(ctx context.Context, title, content string) string
}

type DuplicateChecker interface {
	IsDuplicate(title, topic, link string) (bool, error)
}

type Summarizer interface {
	Analyze(ctx context.Context, title, content string) llm.Analysis
}

// WriteLocker serializes the gate-read-then-insert sections of the pipeline.
type WriteLocker interface {
	WithWriteLock(fn func() error) error
}

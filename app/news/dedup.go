package news

import (
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dmkorz/newsline/app/database"
)

// RecentSource is the slice of the article store the dedup engine reads.
type RecentSource interface {
	FindRecent(topic string, since time.Time) ([]database.RecentArticle, error)
}

// Deduper decides whether an incoming article duplicates a recently stored
// one. Two signals: an exact match on the cleaned link prefix, and a title
// similarity ratio strictly above the configured threshold.
type Deduper struct {
	store     RecentSource
	threshold float64
	window    time.Duration
}

func NewDeduper(store RecentSource, threshold float64, window time.Duration) *Deduper {
	return &Deduper{
		store:     store,
		threshold: threshold,
		window:    window,
	}
}

// SimilarityRatio computes the longest-matching-blocks ratio of two strings
// in [0, 1], rune by rune.
func SimilarityRatio(a, b string) float64 {
	matcher := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return matcher.Ratio()
}

// IsDuplicate checks the incoming article against the lookback window. An
// empty topic widens the similarity scope to all topics, which is how it is
// called before classification. Ratio exactly at the threshold does not
// count as duplicate.
func (d *Deduper) IsDuplicate(title, topic, link string) (bool, error) {
	since := time.Now().UTC().Add(-d.window)

	// The exact-link check always spans all topics: syndicated copies of the
	// same URL can land under different classifications.
	all, err := d.store.FindRecent("", since)
	if err != nil {
		return false, err
	}

	cleanLink := CleanLink(link)
	if cleanLink != "" {
		for _, a := range all {
			if strings.HasPrefix(a.Link, cleanLink) {
				return true, nil
			}
		}
	}

	candidates := all
	if topic != "" {
		candidates, err = d.store.FindRecent(topic, since)
		if err != nil {
			return false, err
		}
	}

	normalized := NormalizeTitle(title)
	for _, a := range candidates {
		existing := a.NormalizedTitle
		if existing == "" {
			// legacy rows without a cached normalized title
			existing = NormalizeTitle(a.Title)
		}
		if SimilarityRatio(normalized, existing) > d.threshold {
			return true, nil
		}
	}

	return false, nil
}

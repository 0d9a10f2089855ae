package feed

import (
	"time"
)

// Entry is a single feed entry that passed basic intake checks: it has a
// title, a link with the query string stripped, and a resolvable publish
// timestamp.
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// Source categories an entry can originate from.
const (
	SourceRSS    = "rss"
	SourceGoogle = "google"
)

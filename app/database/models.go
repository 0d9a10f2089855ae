package database

import (
	"time"
)

type Article struct {
	ID              int64
	Title           string
	Summary         string
	FullText        string
	Link            string
	Topic           string
	Published       time.Time
	Fingerprint     string
	Important       bool
	Source          string // feed category: "rss" or "google"
	RealSource      string // resolved hostname of the article link
	NormalizedTitle string
	FetchedAt       time.Time
}

// RecentArticle is the slim projection the dedup engine works on.
type RecentArticle struct {
	Title           string
	NormalizedTitle string
	Link            string
}

type TopicStats struct {
	Total     int
	Important int
}

type Question struct {
	ID        int64
	ArticleID int64
	Question  string
	Answer    string
	CreatedAt time.Time
}

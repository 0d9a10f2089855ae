package database

import (
	"time"
)

type ArticleRepository interface {
	GetByFingerprint(fingerprint string) (*Article, error)
	GetByID(id int64) (*Article, error)

	// FindRecent returns slim rows published after since. An empty topic
	// widens the scope to all topics.
	FindRecent(topic string, since time.Time) ([]RecentArticle, error)
	ListByTopic(topic string, since time.Time, limit int) ([]Article, error)

	// Insert stores the article and returns its id. A fingerprint collision
	// yields ErrDuplicateFingerprint and no row.
	Insert(article Article) (int64, error)

	// PruneTopic deletes all but the keep most recently published articles.
	PruneTopic(topic string, keep int) (int64, error)

	LiveStats(topicIDs []string, window time.Duration) (map[string]TopicStats, error)
	GetArticleCount() (int, error)
}

type NewsletterRepository interface {
	// GetOrCreateForToday returns the id of today's newsletter, creating the
	// row if the calendar date has no newsletter yet.
	GetOrCreateForToday() (int64, error)

	UpsertStats(newsletterID int64, topic string, total, important int) error
	GetStats(newsletterID int64) (map[string]TopicStats, error)
}

type QuestionRepository interface {
	Insert(articleID int64, question, answer string) (int64, error)
	ListByArticle(articleID int64) ([]Question, error)
}

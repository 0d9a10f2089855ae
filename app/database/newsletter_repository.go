package database

import (
	"fmt"
	"time"
)

type SQLNewsletterRepository struct {
	db *DB
}

var _ NewsletterRepository = (*SQLNewsletterRepository)(nil)

func NewNewsletterRepository(db *DB) *SQLNewsletterRepository {
	return &SQLNewsletterRepository{db: db}
}

func (r *SQLNewsletterRepository) GetOrCreateForToday() (int64, error) {
	today := time.Now().UTC().Format("2006-01-02")

	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO newsletters (newsletter_date) VALUES (?)
	`, today)
	if err != nil {
		return 0, fmt.Errorf("failed to create newsletter: %w", err)
	}

	var id int64
	err = r.db.QueryRow(`
		SELECT id FROM newsletters WHERE newsletter_date = ?
	`, today).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get newsletter for today: %w", err)
	}

	return id, nil
}

func (r *SQLNewsletterRepository) UpsertStats(newsletterID int64, topic string, total, important int) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO newsletter_stats
			(newsletter_id, topic, total_articles, important_articles)
		VALUES (?, ?, ?, ?)
	`, newsletterID, topic, total, important)
	if err != nil {
		return fmt.Errorf("failed to upsert newsletter stats: %w", err)
	}

	return nil
}

func (r *SQLNewsletterRepository) GetStats(newsletterID int64) (map[string]TopicStats, error) {
	rows, err := r.db.Query(`
		SELECT topic, total_articles, important_articles
		FROM newsletter_stats
		WHERE newsletter_id = ?
	`, newsletterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get newsletter stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]TopicStats)
	for rows.Next() {
		var topic string
		var s TopicStats
		if err := rows.Scan(&topic, &s.Total, &s.Important); err != nil {
			return nil, fmt.Errorf("failed to scan newsletter stats row: %w", err)
		}
		stats[topic] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating newsletter stats rows: %w", err)
	}

	return stats, nil
}

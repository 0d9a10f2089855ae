package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateFingerprint is returned by Insert when an article with the same
// fingerprint is already stored. Callers treat it as a duplicate signal, not
// a failure.
var ErrDuplicateFingerprint = errors.New("article with this fingerprint already exists")

type SQLArticleRepository struct {
	db *DB
}

var _ ArticleRepository = (*SQLArticleRepository)(nil)

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

const articleColumns = `id, title, summary, full_text, link, topic, published,
	fingerprint, important, source, real_source, normalized_title, fetched_at`

func (r *SQLArticleRepository) scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	var important int
	err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.FullText, &a.Link, &a.Topic,
		&a.Published, &a.Fingerprint, &important, &a.Source, &a.RealSource,
		&a.NormalizedTitle, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article row: %w", err)
	}
	a.Important = important != 0
	return &a, nil
}

func (r *SQLArticleRepository) GetByFingerprint(fingerprint string) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE fingerprint = ?
	`, fingerprint)

	article, err := r.scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get article by fingerprint: %w", err)
	}
	return article, nil
}

func (r *SQLArticleRepository) GetByID(id int64) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = ?
	`, id)

	article, err := r.scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get article by id: %w", err)
	}
	return article, nil
}

func (r *SQLArticleRepository) FindRecent(topic string, since time.Time) ([]RecentArticle, error) {
	query := `
		SELECT title, normalized_title, link
		FROM articles
		WHERE published >= ?
	`
	args := []interface{}{since.UTC()}

	if topic != "" {
		query += ` AND topic = ?`
		args = append(args, topic)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent articles: %w", err)
	}
	defer rows.Close()

	var articles []RecentArticle
	for rows.Next() {
		var a RecentArticle
		if err := rows.Scan(&a.Title, &a.NormalizedTitle, &a.Link); err != nil {
			return nil, fmt.Errorf("failed to scan recent article row: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent article rows: %w", err)
	}

	return articles, nil
}

func (r *SQLArticleRepository) ListByTopic(topic string, since time.Time, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE topic = ? AND published >= ?
		ORDER BY published DESC
		LIMIT ?
	`, topic, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		var important int
		err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.FullText, &a.Link, &a.Topic,
			&a.Published, &a.Fingerprint, &important, &a.Source, &a.RealSource,
			&a.NormalizedTitle, &a.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		a.Important = important != 0
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *SQLArticleRepository) Insert(article Article) (int64, error) {
	important := 0
	if article.Important {
		important = 1
	}

	fetchedAt := article.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO articles (
			title, summary, full_text, link, topic, published,
			fingerprint, important, source, real_source, normalized_title, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.Title, article.Summary, article.FullText, article.Link, article.Topic,
		article.Published.UTC(), article.Fingerprint, important, article.Source,
		article.RealSource, article.NormalizedTitle, fetchedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return 0, ErrDuplicateFingerprint
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted article id: %w", err)
	}

	return id, nil
}

func (r *SQLArticleRepository) PruneTopic(topic string, keep int) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM articles
		WHERE topic = ? AND id NOT IN (
			SELECT id FROM articles WHERE topic = ? ORDER BY published DESC LIMIT ?
		)
	`, topic, topic, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune topic %s: %w", topic, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}

	return deleted, nil
}

// LiveStats computes per-topic totals for the window directly from article
// rows. Runs unlocked; stale reads are acceptable for labeling.
func (r *SQLArticleRepository) LiveStats(topicIDs []string, window time.Duration) (map[string]TopicStats, error) {
	since := time.Now().UTC().Add(-window)

	rows, err := r.db.Query(`
		SELECT topic, COUNT(*), SUM(important)
		FROM articles
		WHERE published >= ?
		GROUP BY topic
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query live stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]TopicStats, len(topicIDs))
	for _, id := range topicIDs {
		stats[id] = TopicStats{}
	}

	for rows.Next() {
		var topic string
		var s TopicStats
		if err := rows.Scan(&topic, &s.Total, &s.Important); err != nil {
			return nil, fmt.Errorf("failed to scan live stats row: %w", err)
		}
		stats[topic] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating live stats rows: %w", err)
	}

	return stats, nil
}

func (r *SQLArticleRepository) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

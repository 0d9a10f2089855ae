package database

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func seedArticle(t *testing.T, repo *SQLArticleRepository, topic, title string, published time.Time) int64 {
	t.Helper()

	id, err := repo.Insert(Article{
		Title:           title,
		Summary:         "пересказ",
		Link:            "https://example.by/" + topic + "/" + title,
		Topic:           topic,
		Published:       published,
		Fingerprint:     fmt.Sprintf("fp-%s-%s", topic, title),
		NormalizedTitle: title,
		Source:          "rss",
		RealSource:      "example.by",
		FetchedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to seed article %s/%s: %v", topic, title, err)
	}
	return id
}

func TestSQLArticleRepository_InsertAndGet(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	published := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	fetchedAt := time.Date(2026, 8, 30, 11, 30, 0, 0, time.UTC)

	id, err := repo.Insert(Article{
		Title:           "Нацбанк снизил ставку",
		Summary:         "Ставка рефинансирования снижена.",
		FullText:        "Полный текст новости.",
		Link:            "https://example.by/news/1",
		Topic:           "economy",
		Published:       published,
		Fingerprint:     "fp-economy-1",
		Important:       true,
		Source:          "rss",
		RealSource:      "example.by",
		NormalizedTitle: "нацбанк снизил ставку",
		FetchedAt:       fetchedAt,
	})
	if err != nil {
		t.Fatalf("Unexpected insert error: %v", err)
	}
	if id == 0 {
		t.Fatal("Insert should return a row id")
	}

	article, err := repo.GetByFingerprint("fp-economy-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if article == nil {
		t.Fatal("Expected the stored article")
	}

	if article.Title != "Нацбанк снизил ставку" || article.Topic != "economy" {
		t.Errorf("Unexpected article fields: %+v", article)
	}
	if !article.Important {
		t.Error("Important flag should round-trip")
	}
	if article.Published.Unix() != published.Unix() {
		t.Errorf("Published = %v, expected %v", article.Published, published)
	}
	if article.FetchedAt.Unix() != fetchedAt.Unix() {
		t.Errorf("FetchedAt = %v, expected the pipeline-supplied %v", article.FetchedAt, fetchedAt)
	}
}

func TestSQLArticleRepository_InsertDuplicateFingerprint(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	published := time.Now().UTC()
	seedArticle(t, repo, "news", "one", published)

	_, err := repo.Insert(Article{
		Title:       "другой заголовок",
		Link:        "https://other.by/news/1",
		Topic:       "news",
		Published:   published,
		Fingerprint: "fp-news-one",
	})
	if !errors.Is(err, ErrDuplicateFingerprint) {
		t.Errorf("Expected ErrDuplicateFingerprint, got %v", err)
	}

	count, err := repo.GetArticleCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Duplicate insert must not add a row, count = %d", count)
	}
}

func TestSQLArticleRepository_PruneTopic(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	now := time.Now().UTC()
	for i := 1; i <= 5; i++ {
		seedArticle(t, repo, "news", fmt.Sprintf("n%d", i), now.Add(-time.Duration(i)*time.Hour))
	}
	seedArticle(t, repo, "economy", "e1", now.Add(-10*time.Hour))
	seedArticle(t, repo, "economy", "e2", now.Add(-11*time.Hour))

	deleted, err := repo.PruneTopic("news", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", deleted)
	}

	remaining, err := repo.ListByTopic("news", now.Add(-48*time.Hour), 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("Expected 3 surviving articles, got %d", len(remaining))
	}

	// survivors must be the newest three, ordered newest first
	for i, expected := range []string{"n1", "n2", "n3"} {
		if remaining[i].Title != expected {
			t.Errorf("Survivor %d = %q, expected %q", i, remaining[i].Title, expected)
		}
	}

	other, err := repo.ListByTopic("economy", now.Add(-48*time.Hour), 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(other) != 2 {
		t.Errorf("Pruning one topic must not touch another, got %d economy rows", len(other))
	}
}

func TestSQLArticleRepository_PruneTopic_UnderCap(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	now := time.Now().UTC()
	seedArticle(t, repo, "news", "n1", now.Add(-1*time.Hour))
	seedArticle(t, repo, "news", "n2", now.Add(-2*time.Hour))

	deleted, err := repo.PruneTopic("news", 5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Nothing should be pruned under the cap, got %d deletions", deleted)
	}
}

func TestSQLArticleRepository_LiveStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	now := time.Now().UTC()
	seedArticle(t, repo, "politics", "p1", now.Add(-1*time.Hour))
	seedArticle(t, repo, "politics", "p2", now.Add(-2*time.Hour))
	seedArticle(t, repo, "politics", "old", now.Add(-72*time.Hour))

	if _, err := db.Exec(`UPDATE articles SET important = 1 WHERE title = 'p1'`); err != nil {
		t.Fatalf("Failed to mark article important: %v", err)
	}

	stats, err := repo.LiveStats([]string{"politics", "economy"}, 24*time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if s := stats["politics"]; s.Total != 2 || s.Important != 1 {
		t.Errorf("Unexpected politics stats: %+v", s)
	}
	if s, ok := stats["economy"]; !ok || s.Total != 0 {
		t.Errorf("Topics without rows must be zero-filled, got %+v (present=%v)", s, ok)
	}
}

package news

import (
	"testing"
	"time"

	"github.com/dmkorz/newsline/app/database"
)

type mockRecentSource struct {
	byTopic map[string][]database.RecentArticle
	calls   []string
}

func (m *mockRecentSource) FindRecent(topic string, since time.Time) ([]database.RecentArticle, error) {
	m.calls = append(m.calls, topic)
	return m.byTopic[topic], nil
}

func TestSimilarityRatio(t *testing.T) {
	if got := SimilarityRatio("абвгд", "абвгд"); got != 1.0 {
		t.Errorf("Identical strings should have ratio 1.0, got %f", got)
	}
	if got := SimilarityRatio("абвгд", "яюэыь"); got != 0.0 {
		t.Errorf("Disjoint strings should have ratio 0.0, got %f", got)
	}

	ratio := SimilarityRatio("лукашенко подписал указ о налогах", "лукашенко подписал указ о тарифах")
	if ratio <= 0.8 || ratio >= 1.0 {
		t.Errorf("Near-identical titles should score high but below 1.0, got %f", ratio)
	}
}

func TestDeduper_ExactLinkMatch(t *testing.T) {
	source := &mockRecentSource{byTopic: map[string][]database.RecentArticle{
		"": {{Title: "Совсем другой заголовок", NormalizedTitle: "совсем другой заголовок", Link: "https://example.by/news/1"}},
	}}
	deduper := NewDeduper(source, 0.85, 24*time.Hour)

	dup, err := deduper.IsDuplicate("Непохожий текст вообще", "politics", "https://example.by/news/1?utm_source=rss")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !dup {
		t.Error("Same link with tracking params should be detected as duplicate")
	}
}

func TestDeduper_SimilarTitleWithinTopic(t *testing.T) {
	source := &mockRecentSource{byTopic: map[string][]database.RecentArticle{
		"":        {},
		"economy": {{Title: "Нацбанк снизил ставку рефинансирования до минимума", NormalizedTitle: NormalizeTitle("Нацбанк снизил ставку рефинансирования до минимума"), Link: "https://a.by/1"}},
	}}
	deduper := NewDeduper(source, 0.85, 24*time.Hour)

	dup, err := deduper.IsDuplicate("Нацбанк снизил ставку рефинансирования до минимумов", "economy", "https://b.by/2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !dup {
		t.Error("Near-identical title within topic should be duplicate")
	}
}

func TestDeduper_DissimilarTitleNotDuplicate(t *testing.T) {
	source := &mockRecentSource{byTopic: map[string][]database.RecentArticle{
		"":        {},
		"economy": {{Title: "Нацбанк снизил ставку", NormalizedTitle: NormalizeTitle("Нацбанк снизил ставку"), Link: "https://a.by/1"}},
	}}
	deduper := NewDeduper(source, 0.85, 24*time.Hour)

	dup, err := deduper.IsDuplicate("В Минске открыли новую станцию метро", "economy", "https://b.by/2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dup {
		t.Error("Unrelated titles should not be duplicates")
	}
}

func TestDeduper_RatioAtThresholdNotDuplicate(t *testing.T) {
	// "abcd" vs "abcе": 3 matching runes of 4+4 gives ratio exactly 0.75
	source := &mockRecentSource{byTopic: map[string][]database.RecentArticle{
		"":     {},
		"news": {{Title: "abcd", NormalizedTitle: "abcd", Link: "https://a.by/1"}},
	}}
	deduper := NewDeduper(source, 0.75, 24*time.Hour)

	dup, err := deduper.IsDuplicate("abce", "news", "https://b.by/2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dup {
		t.Error("Ratio exactly at threshold must not count as duplicate")
	}
}

func TestDeduper_EmptyTopicScansAllTopics(t *testing.T) {
	source := &mockRecentSource{byTopic: map[string][]database.RecentArticle{
		"": {{Title: "Повышение тарифов на коммунальные услуги", NormalizedTitle: NormalizeTitle("Повышение тарифов на коммунальные услуги"), Link: "https://a.by/1"}},
	}}
	deduper := NewDeduper(source, 0.85, 24*time.Hour)

	dup, err := deduper.IsDuplicate("Повышение тарифов на коммунальные услуги", "", "https://b.by/2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !dup {
		t.Error("Empty topic should match against all recent articles")
	}

	for _, call := range source.calls {
		if call != "" {
			t.Errorf("Expected only all-topic queries, got query for topic %q", call)
		}
	}
}

func TestDeduper_LegacyRowsWithoutNormalizedTitle(t *testing.T) {
	source := &mockRecentSource{byTopic: map[string][]database.RecentArticle{
		"":     {},
		"news": {{Title: "Лукашенко подписал новый указ о ценах", NormalizedTitle: "", Link: "https://a.by/1"}},
	}}
	deduper := NewDeduper(source, 0.85, 24*time.Hour)

	dup, err := deduper.IsDuplicate("Лукашенко подписал новый указ о ценах!", "news", "https://b.by/2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !dup {
		t.Error("Rows without a cached normalized title should still match by recomputing it")
	}
}

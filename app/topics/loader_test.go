package topics

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const validConfig = `
topics:
  - id: politics
    title: Политика
    keywords: [указ, закон]
    queries: [указ президента]
  - id: economy
    title: Экономика
    entities: [нацбанк]
    queries: [указ президента, курс рубля]
feeds:
  - https://example.by/rss
negative:
  topic: politics
  terms: [сериал]
`

func TestLoad_ValidConfig(t *testing.T) {
	config, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(config.Topics) != 2 {
		t.Errorf("Expected 2 topics, got %d", len(config.Topics))
	}
	if config.Topics[0].ID != "politics" {
		t.Errorf("Topic order must follow the file, got %q first", config.Topics[0].ID)
	}
	if len(config.Feeds) != 1 {
		t.Errorf("Expected 1 feed, got %d", len(config.Feeds))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/topics.yml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"no topics", "topics: []\nfeeds: [https://example.by/rss]"},
		{"empty id", `
topics:
  - id: ""
    title: Политика
    keywords: [указ]
feeds: [https://example.by/rss]
`},
		{"missing title", `
topics:
  - id: politics
    keywords: [указ]
feeds: [https://example.by/rss]
`},
		{"no keywords or entities", `
topics:
  - id: politics
    title: Политика
feeds: [https://example.by/rss]
`},
		{"duplicate id", `
topics:
  - id: politics
    title: Политика
    keywords: [указ]
  - id: politics
    title: Ещё политика
    keywords: [закон]
feeds: [https://example.by/rss]
`},
		{"unknown negative topic", `
topics:
  - id: politics
    title: Политика
    keywords: [указ]
feeds: [https://example.by/rss]
negative:
  topic: showbiz
  terms: [сплетни]
`},
		{"no feeds", `
topics:
  - id: politics
    title: Политика
    keywords: [указ]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.config)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestConfig_Queries_DeduplicatesInOrder(t *testing.T) {
	config, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	queries := config.Queries()
	if len(queries) != 2 {
		t.Fatalf("Expected 2 deduplicated queries, got %d", len(queries))
	}
	if queries[0] != "указ президента" || queries[1] != "курс рубля" {
		t.Errorf("Queries should keep declaration order, got %v", queries)
	}
}

func TestConfig_ByID(t *testing.T) {
	config := &Config{Topics: []Topic{{ID: "politics", Title: "Политика"}}}

	if topic := config.ByID("politics"); topic == nil || topic.Title != "Политика" {
		t.Error("ByID should find the declared topic")
	}
	if config.ByID("unknown") != nil {
		t.Error("ByID should return nil for unknown id")
	}
}

func TestBlacklist_Blocked(t *testing.T) {
	blacklist := &Blacklist{
		Domains:  []string{"spam.example"},
		Keywords: []string{"гороскоп"},
	}

	tests := []struct {
		name    string
		link    string
		title   string
		blocked bool
	}{
		{"clean article", "https://example.by/news/1", "Обычная новость", false},
		{"blocked domain", "https://www.spam.example/article", "Обычная новость", true},
		{"keyword in title", "https://example.by/news/1", "Гороскоп на неделю", true},
		{"keyword in path", "https://example.by/гороскоп/44", "Обычная новость", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blacklist.Blocked(tt.link, tt.title); got != tt.blocked {
				t.Errorf("Blocked(%q, %q) = %v, expected %v", tt.link, tt.title, got, tt.blocked)
			}
		})
	}
}

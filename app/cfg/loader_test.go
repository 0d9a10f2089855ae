package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestSetAndGet(t *testing.T) {
	original := globalCfg
	defer func() { globalCfg = original }()

	c := &Cfg{
		DBPath:              "./test.db",
		TopicsFile:          "./topics.yml",
		Port:                "8080",
		WorkerCount:         5,
		QueryWorkers:        2,
		MaxQueryFeeds:       10,
		CollectInterval:     1800,
		APIAccessKey:        "test-key",
		RequestTimeout:      15,
		MaxArticleAgeHours:  36,
		MaxArticlesPerTopic: 40,
		DedupWindowHours:    24,
		SimilarityThreshold: 0.85,
		HighConfidence:      4,
		OllamaURL:           "http://localhost:11434/api/generate",
		OllamaModel:         "qwen2.5:7b",
		UserAgent:           "Test Agent",
		Timezone:            "UTC",
		Debug:               true,
		Version:             "test-version",
	}

	Set(c)

	got := Get()
	if got.DBPath != "./test.db" {
		t.Errorf("Expected db path './test.db', got '%s'", got.DBPath)
	}
	if got.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", got.WorkerCount)
	}
	if got.SimilarityThreshold != 0.85 {
		t.Errorf("Expected similarity threshold 0.85, got %f", got.SimilarityThreshold)
	}
	if got.HighConfidence != 4 {
		t.Errorf("Expected high confidence 4, got %d", got.HighConfidence)
	}
	if got.MaxArticlesPerTopic != 40 {
		t.Errorf("Expected retention cap 40, got %d", got.MaxArticlesPerTopic)
	}
	if !got.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("UTC should always be valid: %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dmkorz/newsline/app/database"
	"github.com/dmkorz/newsline/app/topics"
)

type stubNewsletterRepo struct {
	stats map[string]database.TopicStats
}

func (s *stubNewsletterRepo) GetOrCreateForToday() (int64, error) { return 7, nil }

func (s *stubNewsletterRepo) UpsertStats(newsletterID int64, topic string, total, important int) error {
	return nil
}

func (s *stubNewsletterRepo) GetStats(newsletterID int64) (map[string]database.TopicStats, error) {
	return s.stats, nil
}

func TestHandler_GetTodayStats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := &topics.Config{Topics: []topics.Topic{
		{ID: "politics", Title: "Политика"},
		{ID: "economy", Title: "Экономика"},
	}}
	newsletterRepo := &stubNewsletterRepo{stats: map[string]database.TopicStats{
		"politics": {Total: 3, Important: 1},
	}}

	h := NewHandler(config, nil, newsletterRepo, nil, nil, nil)

	r := gin.New()
	r.GET("/newsletters/today", h.GetTodayStats)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/newsletters/today", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Date      string `json:"date"`
		Total     int    `json:"total"`
		Important int    `json:"important"`
		Topics    []struct {
			ID        string `json:"id"`
			Total     int    `json:"total"`
			Important int    `json:"important"`
		} `json:"topics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if body.Total != 3 || body.Important != 1 {
		t.Errorf("Expected totals 3/1, got %d/%d", body.Total, body.Important)
	}
	if body.Date == "" {
		t.Error("Expected a newsletter date")
	}
	if len(body.Topics) != 2 {
		t.Fatalf("Expected all configured topics in the response, got %d", len(body.Topics))
	}
	if body.Topics[0].ID != "politics" || body.Topics[0].Total != 3 {
		t.Errorf("Unexpected first topic entry: %+v", body.Topics[0])
	}
	if body.Topics[1].ID != "economy" || body.Topics[1].Total != 0 {
		t.Errorf("Topics without recorded stats must be zero-filled, got %+v", body.Topics[1])
	}
}

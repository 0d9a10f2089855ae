package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmkorz/newsline/app/cfg"
	"github.com/dmkorz/newsline/app/collector"
	"github.com/dmkorz/newsline/app/database"
)

const (
	defaultStatsWindowHours = 24
	maxStatsWindowHours     = 168

	defaultArticleLimit = 50
	maxArticleLimit     = 200

	maxQuestionLength = 500
)

func (h *Handler) GetRoot(c *gin.Context) {
	endpoints := map[string]string{
		"health":     "/health",
		"stats":      "/stats?hours=<n>",
		"newsletter": "/newsletters/today",
		"topics":     "/topics",
		"articles":   "/topics/<id>/articles?hours=<n>&limit=<n>",
		"article":    "/articles/<id>",
		"ask":        "/articles/<id>/ask (POST)",
	}

	if cfg.Get().APIAccessKey != "" {
		endpoints["collect"] = "/api/collect (POST, requires X-API-Key header)"
	}

	c.JSON(http.StatusOK, gin.H{
		"service":   "Newsline",
		"version":   cfg.Get().Version,
		"endpoints": endpoints,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"topics":    len(h.config.Topics),
		"feeds":     len(h.config.Feeds),
	}

	if count, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	hours := queryInt(c, "hours", defaultStatsWindowHours, 1, maxStatsWindowHours)
	window := time.Duration(hours) * time.Hour

	stats, err := h.articleRepo.LiveStats(h.config.TopicIDs(), window)
	if err != nil {
		slog.Error("Database error", "operation", "live_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	topicStats := make([]map[string]interface{}, 0, len(h.config.Topics))
	total := 0
	important := 0
	for _, t := range h.config.Topics {
		ts := stats[t.ID]
		total += ts.Total
		important += ts.Important
		topicStats = append(topicStats, map[string]interface{}{
			"id":        t.ID,
			"title":     t.Title,
			"total":     ts.Total,
			"important": ts.Important,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"window_hours": hours,
		"total":        total,
		"important":    important,
		"topics":       topicStats,
	})
}

// GetTodayStats reports what the collection runs recorded for today's
// newsletter, as opposed to /stats which recomputes from article rows.
func (h *Handler) GetTodayStats(c *gin.Context) {
	newsletterID, err := h.newsletterRepo.GetOrCreateForToday()
	if err != nil {
		slog.Error("Database error", "operation", "get_newsletter", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stats, err := h.newsletterRepo.GetStats(newsletterID)
	if err != nil {
		slog.Error("Database error", "operation", "get_newsletter_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	topicStats := make([]map[string]interface{}, 0, len(h.config.Topics))
	total := 0
	important := 0
	for _, t := range h.config.Topics {
		ts := stats[t.ID]
		total += ts.Total
		important += ts.Important
		topicStats = append(topicStats, map[string]interface{}{
			"id":        t.ID,
			"title":     t.Title,
			"total":     ts.Total,
			"important": ts.Important,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      time.Now().UTC().Format("2006-01-02"),
		"total":     total,
		"important": important,
		"topics":    topicStats,
	})
}

func (h *Handler) ListTopics(c *gin.Context) {
	topicList := make([]map[string]interface{}, 0, len(h.config.Topics))
	for _, t := range h.config.Topics {
		topicList = append(topicList, map[string]interface{}{
			"id":      t.ID,
			"title":   t.Title,
			"queries": len(t.Queries),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topicList,
		"total":  len(topicList),
	})
}

func (h *Handler) ListTopicArticles(c *gin.Context) {
	id := c.Param("id")
	if h.config.ByID(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	hours := queryInt(c, "hours", defaultStatsWindowHours, 1, maxStatsWindowHours)
	limit := queryInt(c, "limit", defaultArticleLimit, 1, maxArticleLimit)
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	articles, err := h.articleRepo.ListByTopic(id, since, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_by_topic", "topic", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(articles))
	for _, a := range articles {
		items = append(items, articleSummary(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":        id,
		"window_hours": hours,
		"articles":     items,
		"total":        len(items),
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	article, err := h.articleRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	details := articleSummary(*article)
	details["full_text"] = article.FullText
	details["fingerprint"] = article.Fingerprint
	details["fetched_at"] = article.FetchedAt.Format(time.RFC3339)

	if questions, err := h.questionRepo.ListByArticle(id); err == nil {
		qa := make([]map[string]interface{}, 0, len(questions))
		for _, q := range questions {
			qa = append(qa, map[string]interface{}{
				"id":         q.ID,
				"question":   q.Question,
				"answer":     q.Answer,
				"created_at": q.CreatedAt.Format(time.RFC3339),
			})
		}
		details["questions"] = qa
	}

	c.JSON(http.StatusOK, details)
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *Handler) AskQuestion(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing question field"})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question must not be empty"})
		return
	}
	if runes := []rune(question); len(runes) > maxQuestionLength {
		question = string(runes[:maxQuestionLength])
	}

	article, err := h.articleRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	articleContext := article.FullText
	if articleContext == "" {
		articleContext = article.Summary
	}
	articleContext = article.Title + "\n\n" + articleContext

	answer, err := h.answerer.Answer(c.Request.Context(), articleContext, question)
	if err != nil {
		slog.Error("Question answering failed", "article_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to answer question"})
		return
	}

	if _, err := h.questionRepo.Insert(id, question, answer); err != nil {
		slog.Warn("Failed to store question", "article_id", id, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"article_id": id,
		"question":   question,
		"answer":     answer,
	})
}

func (h *Handler) TriggerCollect(c *gin.Context) {
	go func() {
		stats, err := h.runner.Run(context.Background())
		if err != nil {
			if err == collector.ErrRunInProgress {
				slog.Info("Manual collection skipped, run already in progress")
				return
			}
			slog.Error("Manual collection run failed", "error", err)
			return
		}
		slog.Info("Manual collection run completed", "inserted", stats.Inserted, "duplicates", stats.Duplicates)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Collection run started",
	})
}

func articleSummary(a database.Article) map[string]interface{} {
	return map[string]interface{}{
		"id":        a.ID,
		"title":     a.Title,
		"summary":   a.Summary,
		"link":      a.Link,
		"topic":     a.Topic,
		"published": a.Published.Format(time.RFC3339),
		"important": a.Important,
		"source":    a.Source,
		"origin":    a.RealSource,
	}
}

func queryInt(c *gin.Context, name string, fallback, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return 0, false
	}
	return value, true
}

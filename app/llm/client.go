package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to an Ollama-compatible /api/generate endpoint. The model is
// treated as an unreliable external service: every call carries its own
// timeout and degrades to a safe default instead of surfacing an error into
// the pipeline.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

const (
	validateTimeout = 40 * time.Second
	analyzeTimeout  = 120 * time.Second
	retryTimeout    = 60 * time.Second
	answerTimeout   = 120 * time.Second

	maxAnalyzeContent = 5000
	maxAnswerContext  = 4000
	minSummaryLength  = 100
	maxSummaryLength  = 1000
	titleFallbackCap  = 300
)

func NewClient(endpoint, model string) *Client {
	return &Client{
		endpoint: endpoint,
		model:    model,
		// per-call timeouts are set through the request context
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *Client) generate(ctx context.Context, prompt string, options map[string]interface{}, timeout time.Duration) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate payload: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	return parsed.Response, nil
}

// ValidateTopic asks whether the article belongs to the named topic. On any
// transport failure the classification is accepted: a flaky model must not
// suppress otherwise-scored articles.
func (c *Client) ValidateTopic(ctx context.Context, title, excerpt, topicName string) (bool, error) {
	prompt := fmt.Sprintf(`Определи, относится ли новость к теме "%s".
Ответь только одним словом: YES или NO.

Заголовок: %s
Текст: %s
`, topicName, title, truncateRunes(excerpt, 1500))

	raw, err := c.generate(ctx, prompt, map[string]interface{}{
		"temperature": 0,
		"num_predict": 5,
	}, validateTimeout)
	if err != nil {
		slog.Warn("Topic validation call failed, accepting by default", "topic", topicName, "error", err)
		return true, nil
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	return strings.Contains(answer, "yes"), nil
}

// Analysis is the summarize/judge result for one article.
type Analysis struct {
	Summary   string
	Important bool
}

// Analyze produces a summary and an importance flag. It never fails: a
// malformed response triggers one stricter retry, then the title stands in
// for the summary.
func (c *Client) Analyze(ctx context.Context, title, content string) Analysis {
	fallback := Analysis{Summary: truncateRunes(title, titleFallbackCap)}
	preview := truncateRunes(content, maxAnalyzeContent)

	prompt := fmt.Sprintf(`Ты — опытный новостной аналитик. Сделай краткий, но информативный пересказ новости и оцени её важность.

ЗАГОЛОВОК:
%s

СОДЕРЖАНИЕ:
%s

ТРЕБОВАНИЯ:
- Перескажи новость на русском языке, минимум 3 предложения.
- Обязательно укажи все цифры, суммы, даты, имена и названия организаций из текста.
- Пересказ не должен повторять заголовок.

КРИТЕРИИ ВАЖНОСТИ (important = 1):
- Указы президента, решения правительства, новые законы.
- Крупные экономические или политические кризисы, катастрофы, теракты.
- Значимые международные соглашения, санкции.
В остальных случаях important = 0.

ОТВЕТ ДОЛЖЕН БЫТЬ СТРОГО В JSON:
{"summary": "пересказ с фактами (минимум 3 предложения)", "important": 0 или 1}
`, title, preview)

	raw, err := c.generate(ctx, prompt, map[string]interface{}{
		"temperature":    0.15,
		"top_p":          0.9,
		"top_k":          20,
		"repeat_penalty": 1.15,
		"num_predict":    1500,
	}, analyzeTimeout)
	if err != nil {
		slog.Warn("Analyze call failed, falling back to title", "error", err)
		return fallback
	}

	analysis, ok := parseAnalysis(raw)
	if !ok || weakSummary(analysis.Summary, title) {
		return c.forceFacts(ctx, title, preview, fallback)
	}

	return analysis
}

// forceFacts is the stricter retry prompt used when the first analysis came
// back without usable JSON or with a throwaway summary.
func (c *Client) forceFacts(ctx context.Context, title, content string, fallback Analysis) Analysis {
	prompt := fmt.Sprintf(`Новость:
%s
%s

Напиши подробный пересказ (минимум 3-4 предложения) и обязательно укажи все числа, даты и суммы из текста.
Ответ должен быть ТОЛЬКО JSON: {"summary": "пересказ", "important": 0/1}
`, title, truncateRunes(content, 2000))

	raw, err := c.generate(ctx, prompt, map[string]interface{}{
		"temperature": 0.1,
		"num_predict": 1200,
	}, retryTimeout)
	if err != nil {
		slog.Warn("Strict analyze retry failed, falling back to title", "error", err)
		return fallback
	}

	analysis, ok := parseAnalysis(raw)
	if !ok {
		return fallback
	}

	analysis.Summary = truncateRunes(analysis.Summary, maxSummaryLength)
	if len([]rune(analysis.Summary)) < 50 {
		analysis.Summary = fallback.Summary
	}

	return analysis
}

// Answer responds to a free-form question over the article text.
func (c *Client) Answer(ctx context.Context, articleContext, question string) (string, error) {
	if len([]rune(strings.TrimSpace(articleContext))) < 50 {
		return "Недостаточно контекста для ответа. Попробуйте задать вопрос по другой новости.", nil
	}

	prompt := fmt.Sprintf(`Ты — аналитик, отвечающий на вопросы по тексту новости.
Контекст:
%s

Вопрос: %s

Требования:
- Отвечай только на русском.
- Используй цифры, даты и имена из контекста.
- Ответ точный, по существу, 3-5 предложений.
- Если ответа нет в контексте, так и скажи.
- Не придумывай факты, которых нет в контексте.

Ответ:
`, truncateRunes(articleContext, maxAnswerContext), question)

	raw, err := c.generate(ctx, prompt, map[string]interface{}{
		"temperature":    0.15,
		"top_p":          0.9,
		"top_k":          20,
		"repeat_penalty": 1.15,
		"num_predict":    900,
	}, answerTimeout)
	if err != nil {
		return "", fmt.Errorf("answer call failed: %w", err)
	}

	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "Не удалось получить ответ.", nil
	}

	return answer, nil
}

type analysisPayload struct {
	Summary   string      `json:"summary"`
	Important interface{} `json:"important"`
}

// parseAnalysis scrapes the first-brace-to-last-brace JSON object out of the
// model's free text. Code fences are tolerated.
func parseAnalysis(raw string) (Analysis, bool) {
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Analysis{}, false
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return Analysis{}, false
	}

	return Analysis{
		Summary:   strings.TrimSpace(payload.Summary),
		Important: importantFlag(payload.Important),
	}, true
}

func importantFlag(v interface{}) bool {
	switch value := v.(type) {
	case bool:
		return value
	case float64:
		return value == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(value))
		return s == "1" || s == "true"
	default:
		return false
	}
}

func weakSummary(summary, title string) bool {
	if len([]rune(summary)) < minSummaryLength {
		return true
	}
	return strings.EqualFold(summary, truncateRunes(title, minSummaryLength))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxContentLength caps extracted article text, in runes.
const maxContentLength = 4000

// DefaultBoilerplateRules strip trailing navigation and share blocks common
// on Russian-language news sites. Site- and locale-specific; replace the rule
// set when targeting other locales.
var DefaultBoilerplateRules = compileBoilerplateRules([]string{
	`Читайте также.*`,
	`Подписывайтесь.*`,
	`Источник.*`,
	`Если вы заметили ошибку.*`,
	`Поделиться.*`,
	`Комментарии.*`,
	`Другие новости.*`,
	`Реклама.*`,
})

func compileBoilerplateRules(patterns []string) []*regexp.Regexp {
	rules := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, regexp.MustCompile(`(?i)`+p))
	}
	return rules
}

// Extractor pulls readable plain text out of article pages. Best effort: any
// failure surfaces as an error the pipeline downgrades to an empty body.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	rules      []*regexp.Regexp
}

func NewExtractor(httpClient *http.Client, userAgent string, timeout time.Duration) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		rules:      DefaultBoilerplateRules,
	}
}

// WithBoilerplateRules replaces the boilerplate rule set.
func (e *Extractor) WithBoilerplateRules(rules []*regexp.Regexp) *Extractor {
	e.rules = rules
	return e
}

func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	data, err := e.fetchPage(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := e.Clean(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from %s", pageURL)
	}

	slog.Debug("Content extracted", "url", pageURL, "content_length", len(text))

	return text, nil
}

// Clean collapses whitespace, strips boilerplate blocks and caps the length.
func (e *Extractor) Clean(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	for _, rule := range e.rules {
		text = rule.ReplaceAllString(text, "")
	}

	if runes := []rune(text); len(runes) > maxContentLength {
		text = string(runes[:maxContentLength])
	}

	return strings.TrimSpace(text)
}

func (e *Extractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

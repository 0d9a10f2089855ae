package news

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dmkorz/newsline/app/topics"
)

const (
	entityWeight    = 3
	titleWeight     = 2
	bodyWeight      = 1
	negativePenalty = 2
	candidateFloor  = 2
	tieBreakDepth   = 2

	validatorExcerptLimit = 1200
)

// TopicValidator is the LLM collaborator consulted for borderline
// classifications. Failures are swallowed by the classifier.
type TopicValidator interface {
	ValidateTopic(ctx context.Context, title, excerpt, topicName string) (bool, error)
}

// Classifier scores an article against the configured topics using weighted
// entity and keyword signals, then resolves low-confidence results through
// the LLM tie-break.
type Classifier struct {
	config         *topics.Config
	validator      TopicValidator
	highConfidence int

	// whole-word patterns compiled once per keyword, parallel to
	// config.Topics[i].Keywords
	keywordPatterns [][]*regexp.Regexp
}

func NewClassifier(config *topics.Config, validator TopicValidator, highConfidence int) *Classifier {
	patterns := make([][]*regexp.Regexp, len(config.Topics))
	for i, t := range config.Topics {
		patterns[i] = make([]*regexp.Regexp, len(t.Keywords))
		for j, kw := range t.Keywords {
			patterns[i][j] = wholeWordPattern(kw)
		}
	}

	return &Classifier{
		config:          config,
		validator:       validator,
		highConfidence:  highConfidence,
		keywordPatterns: patterns,
	}
}

// wholeWordPattern builds a Unicode-aware word-boundary matcher. Go's \b is
// ASCII-only, which never matches around Cyrillic words, so the boundary is
// spelled out explicitly.
func wholeWordPattern(word string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(word))
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + quoted + `(?:[^\p{L}\p{N}_]|$)`)
}

type candidate struct {
	id    string
	score int
}

// Detect returns the topic id for the article, or "" when no topic gathers
// enough evidence. Once scoring produced at least one candidate a topic is
// always returned, even if the LLM confirms none of them.
func (c *Classifier) Detect(ctx context.Context, title, content string) string {
	text := strings.ToLower(title + " " + content)
	titleLower := strings.ToLower(title)

	if c.config.Region.Strict && c.wrongRegion(text) {
		slog.Debug("Region gate rejected article", "title", truncate(title, 60))
		return ""
	}

	scores := c.score(text, titleLower)

	candidates := make([]candidate, 0, len(scores))
	for i, t := range c.config.Topics {
		if scores[i] >= candidateFloor {
			candidates = append(candidates, candidate{id: t.ID, score: scores[i]})
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	// stable sort keeps declaration order on equal scores
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	top := candidates[0]
	if top.score >= c.highConfidence {
		slog.Debug("High-confidence classification", "topic", top.id, "score", top.score, "title", truncate(title, 60))
		return top.id
	}

	excerpt := content
	if runes := []rune(excerpt); len(runes) > validatorExcerptLimit {
		excerpt = string(runes[:validatorExcerptLimit])
	}

	depth := tieBreakDepth
	if len(candidates) < depth {
		depth = len(candidates)
	}
	for _, cand := range candidates[:depth] {
		topic := c.config.ByID(cand.id)
		ok, err := c.validator.ValidateTopic(ctx, title, excerpt, topic.Title)
		if err != nil {
			slog.Warn("Topic validation failed", "topic", cand.id, "error", err)
			continue
		}
		if ok {
			slog.Debug("LLM confirmed topic", "topic", cand.id, "title", truncate(title, 60))
			return cand.id
		}
	}

	slog.Debug("Falling back to top-scoring topic", "topic", top.id, "score", top.score, "title", truncate(title, 60))
	return top.id
}

func (c *Classifier) score(text, titleLower string) []int {
	scores := make([]int, len(c.config.Topics))

	for i, t := range c.config.Topics {
		for _, entity := range t.Entities {
			if strings.Contains(text, strings.ToLower(entity)) {
				scores[i] += entityWeight
			}
		}
	}

	for i, t := range c.config.Topics {
		if containsAny(text, t.Exclude) {
			continue
		}
		for j := range t.Keywords {
			pattern := c.keywordPatterns[i][j]
			// title match wins; a keyword never counts twice
			if pattern.MatchString(titleLower) {
				scores[i] += titleWeight
			} else if pattern.MatchString(text) {
				scores[i] += bodyWeight
			}
		}
	}

	if c.config.Negative.Topic != "" {
		for i, t := range c.config.Topics {
			if t.ID != c.config.Negative.Topic {
				continue
			}
			for _, term := range c.config.Negative.Terms {
				if strings.Contains(text, strings.ToLower(term)) {
					scores[i] -= negativePenalty
				}
			}
		}
	}

	return scores
}

func (c *Classifier) wrongRegion(text string) bool {
	if containsAny(text, c.config.Region.Home) {
		return false
	}
	return containsAny(text, c.config.Region.Other)
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

package api

import (
	"context"

	"github.com/dmkorz/newsline/app/collector"
	"github.com/dmkorz/newsline/app/database"
	"github.com/dmkorz/newsline/app/llm"
	"github.com/dmkorz/newsline/app/topics"
)

type CollectorRunner interface {
	Run(ctx context.Context) (collector.RunStats, error)
}

type QuestionAnswerer interface {
	Answer(ctx context.Context, articleContext, question string) (string, error)
}

var _ QuestionAnswerer = (*llm.Client)(nil)
var _ CollectorRunner = (*collector.Collector)(nil)

type Handler struct {
	config         *topics.Config
	articleRepo    database.ArticleRepository
	newsletterRepo database.NewsletterRepository
	questionRepo   database.QuestionRepository
	answerer       QuestionAnswerer
	runner         CollectorRunner
}

func NewHandler(config *topics.Config, articleRepo database.ArticleRepository,
	newsletterRepo database.NewsletterRepository, questionRepo database.QuestionRepository,
	answerer QuestionAnswerer, runner CollectorRunner) *Handler {
	return &Handler{
		config:         config,
		articleRepo:    articleRepo,
		newsletterRepo: newsletterRepo,
		questionRepo:   questionRepo,
		answerer:       answerer,
		runner:         runner,
	}
}

package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	TopicsFile      string
	Port            string
	WorkerCount     int
	QueryWorkers    int
	MaxQueryFeeds   int
	CollectInterval int
	APIAccessKey    string

	// Ingestion tuning
	RequestTimeout      int
	MaxArticleAgeHours  int
	MaxArticlesPerTopic int
	DedupWindowHours    int
	SimilarityThreshold float64
	HighConfidence      int

	// LLM collaborator
	OllamaURL   string
	OllamaModel string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

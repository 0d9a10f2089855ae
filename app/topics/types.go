package topics

// Config is the full topic/feed configuration. It is loaded once at startup
// and treated as read-only afterwards; the classifier relies on the declared
// topic order for tie-breaking.
type Config struct {
	Topics    []Topic   `yaml:"topics"`
	Feeds     []string  `yaml:"feeds"`
	Blacklist Blacklist `yaml:"blacklist"`
	Region    Region    `yaml:"region"`
	Negative  Negative  `yaml:"negative"`
}

type Topic struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Keywords []string `yaml:"keywords"`
	Exclude  []string `yaml:"exclude"`
	Entities []string `yaml:"entities"`
	Queries  []string `yaml:"queries"`
}

type Blacklist struct {
	Domains  []string `yaml:"domains"`
	Keywords []string `yaml:"keywords"`
}

// Region configures the optional strict-region gate: articles matching Other
// signals without any Home signal are rejected before scoring.
type Region struct {
	Strict bool     `yaml:"strict"`
	Home   []string `yaml:"home"`
	Other  []string `yaml:"other"`
}

// Negative names one topic penalized for each of its terms found in the text.
type Negative struct {
	Topic string   `yaml:"topic"`
	Terms []string `yaml:"terms"`
}

func (c *Config) ByID(id string) *Topic {
	for i := range c.Topics {
		if c.Topics[i].ID == id {
			return &c.Topics[i]
		}
	}
	return nil
}

func (c *Config) TopicIDs() []string {
	ids := make([]string, 0, len(c.Topics))
	for _, t := range c.Topics {
		ids = append(ids, t.ID)
	}
	return ids
}

// Queries collects the search queries of all topics, deduplicated in
// declaration order.
func (c *Config) Queries() []string {
	seen := make(map[string]struct{})
	var queries []string
	for _, t := range c.Topics {
		for _, q := range t.Queries {
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			queries = append(queries, q)
		}
	}
	return queries
}

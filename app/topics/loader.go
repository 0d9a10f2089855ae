package topics

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid topics config %s: %w", path, err)
	}

	slog.Debug("Topics configuration loaded",
		"topics", len(config.Topics),
		"feeds", len(config.Feeds),
		"queries", len(config.Queries()))

	return &config, nil
}

func validate(config *Config) error {
	if len(config.Topics) == 0 {
		return fmt.Errorf("no topics defined")
	}

	seen := make(map[string]struct{}, len(config.Topics))
	for _, t := range config.Topics {
		if t.ID == "" {
			return fmt.Errorf("topic with empty id")
		}
		if t.Title == "" {
			return fmt.Errorf("topic %s has no title", t.ID)
		}
		if len(t.Keywords) == 0 && len(t.Entities) == 0 {
			return fmt.Errorf("topic %s has neither keywords nor entities", t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate topic id %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	if config.Negative.Topic != "" {
		if config.ByID(config.Negative.Topic) == nil {
			return fmt.Errorf("negative.topic %s does not match any topic", config.Negative.Topic)
		}
	}

	if len(config.Feeds) == 0 {
		return fmt.Errorf("no feeds defined")
	}

	return nil
}

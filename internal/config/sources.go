package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one place candidates come from: either an HTML
// page scraped with a selector, or an RSS feed. Domain is the host that
// extracted links must belong to.
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	BaseURL  string `yaml:"base_url"`
	Selector string `yaml:"selector"`
	FeedURL  string `yaml:"feed_url"`
	Domain   string `yaml:"domain"`

	// ExternalLinks flips the domain lock: the page is an aggregator whose
	// article links intentionally point at other sites (the source label is
	// then scraped from the link's surrounding text).
	ExternalLinks bool `yaml:"external_links"`

	// OldestFirst reverses the scraped order for pages that list newest
	// entries at the top, so backlog items are published before they age out.
	OldestFirst bool `yaml:"oldest_first"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads the source descriptors from a YAML file.
func LoadSources(path string) ([]SourceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources config: %w", err)
	}
	defer f.Close()

	var file sourcesFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}

	for i, s := range file.Sources {
		if s.URL == "" && s.FeedURL == "" {
			return nil, fmt.Errorf("source %d (%s): needs url or feed_url", i, s.Name)
		}
	}

	return file.Sources, nil
}

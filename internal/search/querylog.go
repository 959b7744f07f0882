// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/edu-engine/pkg/types"
)

// QueryLog is the on-disk representation of a search and its results.
// Saved searches can be reloaded later without re-querying the providers.
// Implements: prd001-search R1.5, R4.4.
type QueryLog struct {
	Query   QueryParams     `yaml:"query"`
	Engine  string          `yaml:"engine"`
	Results []types.Article `yaml:"results"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Topic      string `yaml:"topic"`
	Site       string `yaml:"site,omitempty"`
	MaxResults int    `yaml:"max_results,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	ProviderErrors    []string  `yaml:"provider_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteQueryLog saves query parameters and results to a YAML file.
func WriteQueryLog(path string, query Query, engine string, out Output) error {
	ql := QueryLog{
		Query: QueryParams{
			Topic:      query.Topic,
			Site:       query.Site,
			MaxResults: query.MaxResults,
		},
		Engine:  engine,
		Results: out.Articles,
		Summary: QuerySummary{
			Total:             len(out.Articles),
			DuplicatesRemoved: out.DupsRemoved,
			ProviderErrors:    out.ProviderErrors,
			Timestamp:         time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(ql)
	if err != nil {
		return fmt.Errorf("marshaling query log: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryLog loads a previously saved search from a YAML file.
func ReadQueryLog(path string) (*QueryLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query log: %w", err)
	}
	var ql QueryLog
	if err := yaml.Unmarshal(data, &ql); err != nil {
		return nil, fmt.Errorf("parsing query log: %w", err)
	}
	return &ql, nil
}

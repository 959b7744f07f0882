// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edu-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Search the web for learning material",
	Long: `Search queries web search APIs (Google Custom Search, Bing Web Search) for
pages matching a topic. Results are deduplicated across providers and ranked
by relevance. Use --save to write the query and results to a YAML file for
later reuse.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" && len(args) > 0 {
		topic = strings.Join(args, " ")
	}

	site, _ := cmd.Flags().GetString("site")
	engine, _ := cmd.Flags().GetString("engine")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	cfg := serviceConfig()

	client := &http.Client{Timeout: cfg.Search.Timeout}
	providers, err := searchProviders(cfg.Search, engine, client)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		return fmt.Errorf("no search providers enabled for engine %q", engine)
	}

	query := search.Query{Topic: topic, Site: site, MaxResults: maxResults}
	out, err := search.Search(context.Background(), query, providers, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryLog(savePath, query, engine, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query log to %s\n", savePath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}

func init() {
	searchCmd.Flags().String("topic", "", "free-text topic to search for")
	searchCmd.Flags().String("site", "", "restrict results to a single domain")
	searchCmd.Flags().String("engine", "all", "search engine: google, bing, or all")
	searchCmd.Flags().Int("max-results", 0, "maximum results (0 = use default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the query and results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}

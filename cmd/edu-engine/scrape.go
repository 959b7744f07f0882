// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edu-engine/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Fetch a web page and extract its visible text",
	Long: `Scrape fetches a web page, strips markup, scripts, and styles, and prints
the visible text. Content is truncated to --max-chars characters (default
1000) so it stays digestible as model input.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := serviceConfig()
	if maxChars, _ := cmd.Flags().GetInt("max-chars"); maxChars > 0 {
		cfg.Scrape.MaxChars = maxChars
	}

	client := &http.Client{Timeout: cfg.Scrape.Timeout}
	page, err := scrape.Scrape(context.Background(), client, args[0], cfg.Scrape)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	if page.Title != "" {
		fmt.Printf("Title: %s\n\n", page.Title)
	}
	fmt.Println(page.Content)
	if page.Truncated {
		fmt.Fprintln(os.Stderr, "(content truncated)")
	}
	return nil
}

func init() {
	scrapeCmd.Flags().Int("max-chars", 0, "maximum characters of text to return (0 = use default)")
	scrapeCmd.Flags().Bool("json", false, "output the page as JSON")

	rootCmd.AddCommand(scrapeCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/edu-engine/internal/lesson"
	"github.com/pdiddy/edu-engine/internal/scrape"
	"github.com/pdiddy/edu-engine/internal/search"
	"github.com/pdiddy/edu-engine/internal/secrets"
	"github.com/pdiddy/edu-engine/internal/store"
	"github.com/pdiddy/edu-engine/pkg/types"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Generate and manage lessons (generate, retrieve, export)",
	Long: `Lesson manages generated lessons. Use subcommands to generate a new lesson
from web sources, query stored lessons, or export one to YAML or JSON.`,
}

// --- generate subcommand ---

var lessonGenerateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a lesson for a topic from web sources",
	Long: `Generate searches the web for the topic, scrapes the top sources, and asks
the model to produce a structured lesson with sections and a quiz. The lesson
is persisted to the lesson store and printed.`,
	RunE: runLessonGenerate,
}

func runLessonGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" && len(args) > 0 {
		topic = strings.Join(args, " ")
	}
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("topic required: pass it as an argument or with --topic")
	}

	difficulty, _ := cmd.Flags().GetString("difficulty")
	site, _ := cmd.Flags().GetString("site")

	cfg := serviceConfig()
	if err := credentials.Require(secrets.EnvOpenAIAPIKey); err != nil {
		return err
	}
	if maxSources, _ := cmd.Flags().GetInt("max-sources"); maxSources > 0 {
		cfg.Lesson.MaxSources = maxSources
	}
	if cfg.Lesson.MaxSources <= 0 {
		cfg.Lesson.MaxSources = 3
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	providers, err := searchProviders(cfg.Search, "all", client)
	if err != nil {
		return err
	}

	ctx := context.Background()
	query := search.Query{Topic: topic, Site: site, MaxResults: cfg.Lesson.MaxSources}
	out, err := search.Search(ctx, query, providers, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}
	if len(out.Articles) == 0 {
		return fmt.Errorf("no sources found for topic %q", topic)
	}

	var pages []types.Page
	for _, a := range out.Articles {
		page, err := scrape.Scrape(ctx, client, a.Link, cfg.Scrape)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: scraping %s failed: %v\n", a.Link, err)
			continue
		}
		pages = append(pages, *page)
	}

	backend, err := aiBackend(cfg.Lesson)
	if err != nil {
		return err
	}

	l, err := lesson.Generate(ctx, backend, lesson.Request{
		Topic:      topic,
		Difficulty: types.Difficulty(difficulty),
		Articles:   out.Articles,
		Pages:      pages,
	}, cfg.Lesson)
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Save(ctx, l); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved lesson %s\n", l.ID)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	}
	printLesson(l)
	return nil
}

// --- retrieve subcommand ---

var lessonRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query stored lessons with full-text search and filters",
	Long: `Retrieve searches stored lessons with FTS5 full-text search, structured
filters (topic, difficulty), or a combination of both. Use --id to fetch a
single lesson in full.`,
	RunE: runLessonRetrieve,
}

func runLessonRetrieve(cmd *cobra.Command, args []string) error {
	cfg := serviceConfig()
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// ID mode: fetch a single lesson in full.
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		l, err := st.Get(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(l)
		}
		printLesson(l)
		return nil
	}

	opts := lessonQueryOpts(cmd, args)
	lessons, err := st.Retrieve(ctx, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lessons)
	}

	if len(lessons) == 0 {
		fmt.Println("No lessons found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-24s  %-40s  %-12s  %s\n",
		"ID", "Topic", "Title", "Difficulty", "Created")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, l := range lessons {
		topic := l.Topic
		if len(topic) > 24 {
			topic = topic[:21] + "..."
		}
		title := l.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-12s  %-24s  %-40s  %-12s  %s\n",
			l.ID, topic, title, l.Difficulty, l.CreatedAt.Format("2006-01-02"))
	}

	fmt.Fprintf(os.Stdout, "\n%d lessons\n", len(lessons))
	return nil
}

func lessonQueryOpts(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	topic, _ := cmd.Flags().GetString("topic")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Topic:      topic,
		Difficulty: difficulty,
		MaxResults: limit,
	}
}

// --- export subcommand ---

var lessonExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a stored lesson to YAML or JSON",
	Long: `Export writes a stored lesson to a file or stdout in YAML or JSON,
suitable for handing to other tools or archiving.`,
	Args: cobra.ExactArgs(1),
	RunE: runLessonExport,
}

func runLessonExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	cfg := serviceConfig()
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := st.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	var exportFormat store.ExportFormat
	switch format {
	case "yaml", "":
		exportFormat = store.FormatYAML
	case "json":
		exportFormat = store.FormatJSON
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	if outputPath == "" {
		return store.Export(os.Stdout, l, exportFormat)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := store.Export(f, l, exportFormat); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported lesson %s to %s\n", l.ID, outputPath)
	return nil
}

// --- shared helpers ---

func printLesson(l *types.Lesson) {
	fmt.Printf("%s (%s)\n", l.Title, l.Difficulty)
	fmt.Printf("ID: %s  Topic: %s\n\n", l.ID, l.Topic)
	fmt.Println(l.Summary)

	for _, sec := range l.Sections {
		fmt.Printf("\n## %s\n%s\n", sec.Heading, sec.Body)
	}

	if len(l.Quiz) > 0 {
		fmt.Println("\nQuiz:")
		for i, q := range l.Quiz {
			fmt.Printf("%d. %s\n", i+1, q.Prompt)
			for j, c := range q.Choices {
				marker := " "
				if j == q.Answer {
					marker = "*"
				}
				fmt.Printf("   %s %s\n", marker, c)
			}
		}
	}

	if len(l.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range l.Sources {
			fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
		}
	}
}

func init() {
	// Generate flags.
	lessonGenerateCmd.Flags().String("topic", "", "topic to generate a lesson for")
	lessonGenerateCmd.Flags().String("difficulty", "", "target audience: beginner, intermediate, or advanced")
	lessonGenerateCmd.Flags().String("site", "", "restrict sources to a single domain")
	lessonGenerateCmd.Flags().Int("max-sources", 0, "number of sources to scrape (0 = use default)")
	lessonGenerateCmd.Flags().Bool("json", false, "output the lesson as JSON")

	// Retrieve flags.
	lessonRetrieveCmd.Flags().String("query", "", "full-text search query")
	lessonRetrieveCmd.Flags().String("id", "", "fetch a single lesson by ID")
	lessonRetrieveCmd.Flags().String("topic", "", "filter by topic")
	lessonRetrieveCmd.Flags().String("difficulty", "", "filter by difficulty")
	lessonRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	lessonRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	lessonExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	lessonExportCmd.Flags().String("output", "", "output file (default stdout)")

	// Wire subcommands.
	lessonCmd.AddCommand(lessonGenerateCmd)
	lessonCmd.AddCommand(lessonRetrieveCmd)
	lessonCmd.AddCommand(lessonExportCmd)

	rootCmd.AddCommand(lessonCmd)
}

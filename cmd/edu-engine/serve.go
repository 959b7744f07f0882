// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/edu-engine/internal/cache"
	"github.com/pdiddy/edu-engine/internal/httpapi"
	"github.com/pdiddy/edu-engine/internal/secrets"
	"github.com/pdiddy/edu-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the edu-engine HTTP API",
	Long: `Serve runs the HTTP API exposing search, scrape, and lesson endpoints.
The server validates its API credentials at startup and fails fast when any
are missing. It shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		viper.Set("server.address", addr)
	}

	cfg := serviceConfig()

	// Fail fast on missing credentials for everything the API exposes.
	required := []string{secrets.EnvOpenAIAPIKey}
	if cfg.Search.EnableGoogle {
		required = append(required, secrets.EnvGoogleAPIKey, secrets.EnvGoogleCX)
	}
	if cfg.Search.EnableBing {
		required = append(required, secrets.EnvBingAPIKey)
	}
	if err := credentials.Require(required...); err != nil {
		return err
	}
	if !cfg.Search.EnableGoogle && !cfg.Search.EnableBing {
		return fmt.Errorf("no search providers enabled: enable google or bing in the configuration")
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	providers, err := searchProviders(cfg.Search, "all", client)
	if err != nil {
		return err
	}

	backend, err := aiBackend(cfg.Lesson)
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	caches, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer caches.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := httpapi.NewServer(cfg, providers, backend, st, caches, os.Stderr)
	return server.Start(ctx)
}

func init() {
	serveCmd.Flags().String("address", "", "listen address (default from config, 0.0.0.0:8000)")

	rootCmd.AddCommand(serveCmd)
}

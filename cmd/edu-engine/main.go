// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the edu-engine CLI.
// Implements: prd001-search, prd002-scrape, prd003-lesson,
//             prd004-lesson-store, prd006-http-api (CLI surface).
// See docs/ARCHITECTURE § Service Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/edu-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// credentials holds API keys resolved from the environment and .secrets/.
var credentials secrets.Credentials

// rootCmd is the base command for the edu-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "edu-engine",
	Short: "Backend for AI-driven dynamic education",
	Long: `edu-engine is the backend for an AI-driven education assistant. It searches
the web for learning material, scrapes and cleans source pages, and generates
structured lessons with a language model.

Each operation is a subcommand: search, scrape, and lesson. The serve command
runs all of them as an HTTP API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		credentials = secrets.Resolve(loaded)
		if len(loaded) > 0 {
			keys := make([]string, 0, len(loaded))
			for k := range loaded {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./edu-engine.yaml or ~/.config/edu-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("edu-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "edu-engine"))
		}
	}

	viper.SetEnvPrefix("EDU_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

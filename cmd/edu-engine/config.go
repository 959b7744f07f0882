// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/edu-engine/internal/lesson"
	"github.com/pdiddy/edu-engine/internal/search"
	"github.com/pdiddy/edu-engine/pkg/types"
)

func init() {
	viper.SetDefault("server.address", "0.0.0.0:8000")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.enable_google", true)
	viper.SetDefault("search.enable_bing", true)
	viper.SetDefault("search.timeout", "15s")
	viper.SetDefault("search.user_agent", "edu-engine/"+version)

	viper.SetDefault("scrape.max_chars", 1000)
	viper.SetDefault("scrape.timeout", "20s")

	viper.SetDefault("lesson.model", "gpt-4o-mini")
	viper.SetDefault("lesson.max_retries", 3)
	viper.SetDefault("lesson.requests_per_minute", 20)
	viper.SetDefault("lesson.max_sources", 3)
	viper.SetDefault("lesson.timeout", "60s")

	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("store.max_results", 20)

	viper.SetDefault("cache.driver", "off")
	viper.SetDefault("cache.search_ttl", "15m")
	viper.SetDefault("cache.scrape_ttl", "24h")
	viper.SetDefault("cache.lesson_ttl", "24h")
	viper.SetDefault("cache.redis_db", 0)
}

// serviceConfig assembles the full configuration from viper and the resolved
// credentials. Flags and environment variables override file values.
func serviceConfig() types.ServiceConfig {
	dataDir := viper.GetString("store.data_dir")

	return types.ServiceConfig{
		Server: types.ServerConfig{
			Address:         viper.GetString("server.address"),
			ReadTimeout:     viper.GetDuration("server.read_timeout"),
			WriteTimeout:    viper.GetDuration("server.write_timeout"),
			ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			MaxResults:         viper.GetInt("search.max_results"),
			EnableGoogle:       viper.GetBool("search.enable_google"),
			EnableBing:         viper.GetBool("search.enable_bing"),
			GoogleAPIKey:       credentials.GoogleAPIKey,
			GoogleCX:           credentials.GoogleCX,
			BingAPIKey:         credentials.BingAPIKey,
			InterProviderDelay: viper.GetDuration("search.inter_provider_delay"),
		},
		Scrape: types.ScrapeConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout: viper.GetDuration("scrape.timeout"),
			},
			MaxChars:     viper.GetInt("scrape.max_chars"),
			MaxBodyBytes: viper.GetInt64("scrape.max_body_bytes"),
		},
		Lesson: types.LessonConfig{
			AIConfig: types.AIConfig{
				Model:             viper.GetString("lesson.model"),
				APIKey:            credentials.OpenAIAPIKey,
				MaxRetries:        viper.GetInt("lesson.max_retries"),
				RequestsPerMinute: viper.GetInt("lesson.requests_per_minute"),
			},
			MaxSources: viper.GetInt("lesson.max_sources"),
			Timeout:    viper.GetDuration("lesson.timeout"),
		},
		Store: types.StoreConfig{
			DataDir:    dataDir,
			MaxResults: viper.GetInt("store.max_results"),
		},
		Cache: types.CacheConfig{
			Driver:        types.CacheDriver(viper.GetString("cache.driver")),
			DataDir:       dataDir,
			RedisAddress:  viper.GetString("cache.redis_address"),
			RedisPassword: viper.GetString("cache.redis_password"),
			RedisDB:       viper.GetInt("cache.redis_db"),
			SearchTTL:     viper.GetDuration("cache.search_ttl"),
			ScrapeTTL:     viper.GetDuration("cache.scrape_ttl"),
			LessonTTL:     viper.GetDuration("cache.lesson_ttl"),
		},
	}
}

// searchProviders returns the enabled providers, honoring an engine override
// ("google", "bing", or "all").
func searchProviders(cfg types.SearchConfig, engine string, client *http.Client) ([]search.Provider, error) {
	if engine != "all" && engine != "google" && engine != "bing" {
		return nil, fmt.Errorf("unknown engine %q: use google, bing, or all", engine)
	}

	var providers []search.Provider
	if cfg.EnableGoogle && (engine == "all" || engine == "google") {
		providers = append(providers, &search.GoogleProvider{Client: client})
	}
	if cfg.EnableBing && (engine == "all" || engine == "bing") {
		providers = append(providers, &search.BingProvider{Client: client})
	}
	return providers, nil
}

// aiBackend builds the lesson generation backend from configuration.
func aiBackend(cfg types.LessonConfig) (lesson.AIBackend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return lesson.NewOpenAIBackend(cfg.APIKey, cfg.Model, timeout, cfg.RequestsPerMinute)
}

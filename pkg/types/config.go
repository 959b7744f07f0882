package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// outbound network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "edu-engine/0.1"). Per prd001-search R5.3.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search aggregation component.
// Per prd001-search R1.4, R2.3, R5.1-R5.5.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of articles to return (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableGoogle controls whether the Google Custom Search provider is used.
	EnableGoogle bool `json:"enable_google" yaml:"enable_google"`

	// EnableBing controls whether the Bing Web Search provider is used.
	EnableBing bool `json:"enable_bing" yaml:"enable_bing"`

	// GoogleAPIKey authenticates requests to the Custom Search JSON API.
	GoogleAPIKey string `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty"`

	// GoogleCX is the Programmable Search Engine identifier.
	GoogleCX string `json:"google_cx,omitempty" yaml:"google_cx,omitempty"`

	// BingAPIKey authenticates requests to the Bing Web Search v7 API.
	BingAPIKey string `json:"bing_api_key,omitempty" yaml:"bing_api_key,omitempty"`

	// InterProviderDelay is the delay between requests to different providers.
	InterProviderDelay time.Duration `json:"inter_provider_delay" yaml:"inter_provider_delay"`
}

// ScrapeConfig holds settings for the page scraping component.
// Per prd002-scrape R5.1-R5.3.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxChars is the maximum number of characters of extracted text to
	// return (default 1000).
	MaxChars int `json:"max_chars" yaml:"max_chars"`

	// MaxBodyBytes caps how much of the response body is read (default 2 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerMinute caps the request rate to the AI API (default 20).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// LessonConfig holds settings for the lesson generation component.
// Per prd003-lesson R5.1-R5.4.
type LessonConfig struct {
	AIConfig `yaml:",inline"`

	// MaxSources is the number of top search results to scrape and feed to
	// the model (default 3).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// Timeout is the per-request timeout for AI API calls.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig holds settings for the lesson store.
// Per prd004-lesson-store R1.2, R2.3.
type StoreConfig struct {
	// DataDir is the base directory for persisted data (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// CacheDriver identifies the response cache implementation.
// Per prd005-cache R1.1.
type CacheDriver string

const (
	CacheOff    CacheDriver = "off"
	CacheSQLite CacheDriver = "sqlite"
	CacheRedis  CacheDriver = "redis"
)

// CacheConfig holds settings for the response cache.
// Per prd005-cache R1.1-R1.4.
type CacheConfig struct {
	// Driver selects the cache implementation: off, sqlite, or redis.
	Driver CacheDriver `json:"driver" yaml:"driver"`

	// DataDir is where the sqlite driver keeps its database (shared with the store).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// RedisAddress is the host:port of the redis server.
	RedisAddress string `json:"redis_address,omitempty" yaml:"redis_address,omitempty"`

	// RedisPassword authenticates to redis, if required.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`

	// RedisDB selects the redis logical database.
	RedisDB int `json:"redis_db" yaml:"redis_db"`

	// SearchTTL is how long cached search responses stay valid (default 15m).
	SearchTTL time.Duration `json:"search_ttl" yaml:"search_ttl"`

	// ScrapeTTL is how long cached pages stay valid (default 24h).
	ScrapeTTL time.Duration `json:"scrape_ttl" yaml:"scrape_ttl"`

	// LessonTTL is how long cached lesson responses stay valid (default 24h).
	LessonTTL time.Duration `json:"lesson_ttl" yaml:"lesson_ttl"`
}

// ServerConfig holds settings for the HTTP API server.
// Per prd006-http-api R1.1-R1.3.
type ServerConfig struct {
	// Address is the listen address (default "0.0.0.0:8000").
	Address string `json:"address" yaml:"address"`

	// ReadTimeout bounds request reads.
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown after a termination signal.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ServiceConfig groups all component configurations for the service.
type ServiceConfig struct {
	Server ServerConfig `json:"server" yaml:"server"`
	Search SearchConfig `json:"search" yaml:"search"`
	Scrape ScrapeConfig `json:"scrape" yaml:"scrape"`
	Lesson LessonConfig `json:"lesson" yaml:"lesson"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
}

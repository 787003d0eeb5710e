package model

import (
	"strings"
	"time"
)

// DefaultUserAgent is the browser-like identity sent with every fetch
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// DefaultCandidateModels is the Gemini fallback order, newest first
var DefaultCandidateModels = []string{
	"gemini-3-flash-preview",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"gemini-pro",
	"gemini-2.0-flash-exp",
	"gemini-1.5-pro-latest",
}

// providerModels are the candidates used when llm.models is left empty
var providerModels = map[string][]string{
	"gemini":    DefaultCandidateModels,
	"google":    DefaultCandidateModels,
	"openai":    {"gpt-4o-mini", "gpt-4o"},
	"anthropic": {"claude-3-5-haiku-20241022", "claude-3-5-sonnet-20241022"},
	"claude":    {"claude-3-5-haiku-20241022", "claude-3-5-sonnet-20241022"},
	"ollama":    {"llama3.2", "llama3.1"},
}

// DefaultModels returns the default candidate list for provider, or nil if
// the provider is unknown
func DefaultModels(provider string) []string {
	models, ok := providerModels[strings.ToLower(provider)]
	if !ok {
		return nil
	}
	return append([]string(nil), models...)
}

// Config holds the complete sourcebrief configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Events      EventsConfig      `yaml:"events" mapstructure:"events"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls source fetching
type HTTPConfig struct {
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent       string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxContentChars int           `yaml:"max_content_chars" mapstructure:"max_content_chars"`
	RespectRobots   bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy       string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy      string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// ExtractConfig selects how page text is pulled out of HTML
type ExtractConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // "text" or "readability"
}

// ConcurrencyConfig bounds the fetch fan-out
type ConcurrencyConfig struct {
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"` // 0 = one goroutine per URL
}

// CacheConfig controls caching of fetched page text
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend  string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir      string        `yaml:"dir" mapstructure:"dir"`
	RedisURL string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
}

// LLMConfig configures the generation backend and its candidate models
type LLMConfig struct {
	Provider  string   `yaml:"provider" mapstructure:"provider"` // gemini, openai, anthropic, ollama
	Models    []string `yaml:"models" mapstructure:"models"` // empty = provider defaults
	APIKey    string   `yaml:"-" mapstructure:"api_key"`
	BaseURL   string   `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int      `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int      `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StoreConfig selects where briefs are persisted
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory or postgres
	PostgresURL string `yaml:"postgres_url,omitempty" mapstructure:"postgres_url"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string  `yaml:"addr" mapstructure:"addr"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// EventsConfig configures brief.created notifications
type EventsConfig struct {
	Brokers []string `yaml:"brokers,omitempty" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:         10 * time.Second,
			UserAgent:       DefaultUserAgent,
			MaxBodyBytes:    5_000_000,
			MaxContentChars: 6000,
		},
		Extract: ExtractConfig{
			Mode: "text",
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 0,
		},
		Cache: CacheConfig{
			Enabled: false,
			Backend: "memory",
			TTL:     15 * time.Minute,
			Dir:     ".sourcebrief-cache",
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Models:   []string{},
			Timeout:  60,
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Events: EventsConfig{
			Topic: "research-briefs.created",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

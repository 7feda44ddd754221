// Package config loads the analyzer configuration from a JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/discovery"
	"github.com/jonathan/competitor-analyzer/internal/llm"
)

// Config holds every runtime setting. All fields are optional; empty values fall back to
// defaults after MergeWithDefaults.
type Config struct {
	// Search credentials. SerpAPI wins when both are set; neither means catalog-only discovery.
	SerpAPIKey      string `json:"serpapi_key,omitempty"`
	GoogleCSEAPIKey string `json:"google_cse_api_key,omitempty"`
	GoogleCSECX     string `json:"google_cse_cx,omitempty"`

	// LLM
	LLMProvider     string `json:"llm_provider,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`
	Model           string `json:"model,omitempty"` // overrides the standard-tier model

	// Discovery
	SearchTimeout   Duration `json:"search_timeout,omitempty"`
	SearchRPS       float64  `json:"search_rps,omitempty"`
	DiscoveryPolicy string   `json:"discovery_policy,omitempty"`
	CatalogPath     string   `json:"catalog_path,omitempty"`

	// Content extraction
	UseBrowser  bool   `json:"use_browser,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // enables the page cache

	// Server
	Port int `json:"port,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// Duration is a time.Duration that reads as a Go duration string ("10s") in JSON.
type Duration time.Duration

// UnmarshalJSON accepts "10s" style strings or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds")
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Defaults for fields left unset.
const (
	DefaultPort      = 8080
	DefaultSearchRPS = 1.0
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLMProvider:     string(llm.ProviderGemini),
		SearchTimeout:   Duration(discovery.DefaultQueryTimeout),
		SearchRPS:       DefaultSearchRPS,
		DiscoveryPolicy: string(discovery.AcceptPartial),
		Port:            DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave fields empty.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SerpAPIKey:      os.Getenv("SERPAPI_KEY"),
		GoogleCSEAPIKey: os.Getenv("GOOGLE_CSE_API_KEY"),
		GoogleCSECX:     os.Getenv("GOOGLE_CSE_CX"),
		LLMProvider:     os.Getenv("LLM_PROVIDER"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:           os.Getenv("LLM_MODEL"),
		DiscoveryPolicy: os.Getenv("DISCOVERY_POLICY"),
		CatalogPath:     os.Getenv("CATALOG_PATH"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}

	if v := os.Getenv("SEARCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_TIMEOUT: %v", err)
		}
		cfg.SearchTimeout = Duration(d)
	}
	if v := os.Getenv("SEARCH_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_RPS: %v", err)
		}
		cfg.SearchRPS = rps
	}
	if v := os.Getenv("USE_BROWSER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid USE_BROWSER: %v", err)
		}
		cfg.UseBrowser = b
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// Load reads the optional config file and overlays it on the environment. File values win
// over environment values, and defaults fill whatever is left.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}

	cfg := env
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged := fileCfg.MergeWithDefaults(*env)
		merged.UseBrowser = fileCfg.UseBrowser || env.UseBrowser
		merged.Verbose = fileCfg.Verbose
		cfg = &merged
	}

	final := cfg.MergeWithDefaults(Defaults())
	if err := final.Validate(); err != nil {
		return nil, err
	}
	return &final, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if _, err := discovery.ParseAcceptPolicy(c.DiscoveryPolicy); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := llm.ParseProvider(c.LLMProvider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.SearchTimeout < 0 {
		return fmt.Errorf("config error: 'search_timeout' must be non-negative")
	}
	if c.SearchRPS < 0 {
		return fmt.Errorf("config error: 'search_rps' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if (c.GoogleCSEAPIKey == "") != (c.GoogleCSECX == "") {
		return fmt.Errorf("config error: 'google_cse_api_key' and 'google_cse_cx' must be set together")
	}
	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.CatalogPath)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bool fields cannot distinguish unset from false and are left alone.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.SerpAPIKey, defaults.SerpAPIKey)
	mergeString(&result.GoogleCSEAPIKey, defaults.GoogleCSEAPIKey)
	mergeString(&result.GoogleCSECX, defaults.GoogleCSECX)
	mergeString(&result.LLMProvider, defaults.LLMProvider)
	mergeString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	mergeString(&result.AnthropicAPIKey, defaults.AnthropicAPIKey)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.DiscoveryPolicy, defaults.DiscoveryPolicy)
	mergeString(&result.CatalogPath, defaults.CatalogPath)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)

	if result.SearchTimeout == 0 {
		result.SearchTimeout = defaults.SearchTimeout
	}
	if result.SearchRPS == 0 {
		result.SearchRPS = defaults.SearchRPS
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

func mergeString(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}

// Provider returns the configured LLM provider; Validate has already checked it.
func (c *Config) Provider() llm.Provider {
	p, _ := llm.ParseProvider(c.LLMProvider)
	return p
}

// LLMAPIKey returns the key for the configured provider.
func (c *Config) LLMAPIKey() string {
	if c.Provider() == llm.ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// Policy returns the parsed discovery policy; Validate has already checked it.
func (c *Config) Policy() discovery.AcceptPolicy {
	p, _ := discovery.ParseAcceptPolicy(c.DiscoveryPolicy)
	return p
}

// HasSearchCredential reports whether any search provider is configured.
func (c *Config) HasSearchCredential() bool {
	return c.SerpAPIKey != "" || (c.GoogleCSEAPIKey != "" && c.GoogleCSECX != "")
}

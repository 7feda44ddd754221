package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/competitor-analyzer/internal/discovery"
	"github.com/jonathan/competitor-analyzer/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SERPAPI_KEY", "GOOGLE_CSE_API_KEY", "GOOGLE_CSE_CX", "LLM_PROVIDER", "GEMINI_API_KEY",
	"ANTHROPIC_API_KEY", "LLM_MODEL", "DISCOVERY_POLICY", "CATALOG_PATH", "DATABASE_URL",
	"SEARCH_TIMEOUT", "SEARCH_RPS", "USE_BROWSER", "PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"serpapi_key": "serp",
		"llm_provider": "anthropic",
		"search_timeout": "5s",
		"discovery_policy": "strict",
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "serp", cfg.SerpAPIKey)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, Duration(5*time.Second), cfg.SearchTimeout)
	assert.Equal(t, "strict", cfg.DiscoveryPolicy)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_NumericTimeout(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"search_timeout": 2.5}`))
	require.NoError(t, err)
	assert.Equal(t, Duration(2500*time.Millisecond), cfg.SearchTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")

	_, err = LoadConfig(writeConfig(t, `{"search_timeout": "soon"}`))
	assert.Error(t, err)

	_, err = LoadConfig("/nonexistent/path/config.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPAPI_KEY", "serp")
	t.Setenv("SEARCH_TIMEOUT", "3s")
	t.Setenv("SEARCH_RPS", "0.5")
	t.Setenv("USE_BROWSER", "true")
	t.Setenv("PORT", "9000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "serp", cfg.SerpAPIKey)
	assert.Equal(t, Duration(3*time.Second), cfg.SearchTimeout)
	assert.Equal(t, 0.5, cfg.SearchRPS)
	assert.True(t, cfg.UseBrowser)
	assert.Equal(t, 9000, cfg.Port)
}

func TestFromEnv_Invalid(t *testing.T) {
	for _, key := range []string{"SEARCH_TIMEOUT", "SEARCH_RPS", "USE_BROWSER", "PORT"} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "not-a-value")
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPAPI_KEY", "from-env")
	t.Setenv("GEMINI_API_KEY", "gemini-env")

	cfg, err := Load(writeConfig(t, `{"serpapi_key": "from-file"}`))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SerpAPIKey)
	assert.Equal(t, "gemini-env", cfg.GeminiAPIKey)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, Duration(discovery.DefaultQueryTimeout), cfg.SearchTimeout)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.Provider())
	assert.Equal(t, discovery.AcceptPartial, cfg.Policy())
	assert.Equal(t, DefaultSearchRPS, cfg.SearchRPS)
	assert.False(t, cfg.HasSearchCredential())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Defaults()},
		{name: "bad policy", cfg: Config{DiscoveryPolicy: "sometimes"}, wantErr: "discovery policy"},
		{name: "bad provider", cfg: Config{LLMProvider: "openai"}, wantErr: "LLM provider"},
		{name: "negative rps", cfg: Config{SearchRPS: -1}, wantErr: "search_rps"},
		{name: "bad port", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "cse key without cx", cfg: Config{GoogleCSEAPIKey: "k"}, wantErr: "google_cse_cx"},
		{name: "missing catalog", cfg: Config{CatalogPath: "/nonexistent/catalog.json"}, wantErr: "catalog file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{SerpAPIKey: "mine", Port: 9999}
	defaults := Config{SerpAPIKey: "default", GeminiAPIKey: "gk", Port: 8080, SearchRPS: 2}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "mine", merged.SerpAPIKey)
	assert.Equal(t, "gk", merged.GeminiAPIKey)
	assert.Equal(t, 9999, merged.Port)
	assert.Equal(t, 2.0, merged.SearchRPS)
	assert.Equal(t, "mine", cfg.SerpAPIKey, "original should be unchanged")
}

func TestLLMAPIKey(t *testing.T) {
	cfg := Config{GeminiAPIKey: "g", AnthropicAPIKey: "a"}
	assert.Equal(t, "g", cfg.LLMAPIKey())

	cfg.LLMProvider = "anthropic"
	assert.Equal(t, "a", cfg.LLMAPIKey())
}

func TestHasSearchCredential(t *testing.T) {
	assert.True(t, (&Config{SerpAPIKey: "k"}).HasSearchCredential())
	assert.True(t, (&Config{GoogleCSEAPIKey: "k", GoogleCSECX: "cx"}).HasSearchCredential())
	assert.False(t, (&Config{GoogleCSEAPIKey: "k"}).HasSearchCredential())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTempFile(t, "config.json", `{"sources_file": "sources.json"}`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, DefaultMaxConcurrentFetches, cfg.MaxConcurrentFetches)
	assert.Equal(t, DefaultAdapterTimeout, cfg.AdapterTimeoutSeconds)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTLSeconds)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing sources_file", `{"sources_file": "", "max_concurrent_fetches": -5}`},
		{"negative worker bound", `{"sources_file": "sources.json", "max_concurrent_fetches": -5}`},
		{"malformed database url", `{"sources_file": "sources.json", "database_url": "not a uri"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "config.json", tt.body)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, "config.json", `{not json`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{SourcesFile: "sources.json"}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())

	bad := &Config{SourcesFile: "sources.json", MaxConcurrentFetches: 500}
	assert.Error(t, bad.Validate())

	missing := &Config{}
	missing.ApplyDefaults()
	assert.Error(t, missing.Validate(), "sources_file is required")
}

func TestLoadSources_Valid(t *testing.T) {
	path := writeTempFile(t, "sources.json", `[
		{"name": "boardapi", "kind": "api", "enabled": true,
		 "url": "https://api.example.com", "api_key_env": "BOARDAPI_KEY",
		 "quota": {"ceiling": 100, "window_hours": 24}},
		{"name": "jobsfeed", "kind": "feed", "enabled": true,
		 "url": "https://example.com/jobs.rss", "rate_per_second": 0.5}
	]`)

	specs, err := LoadSources(path)

	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "boardapi", specs[0].Name)
	assert.Equal(t, 100, specs[0].Quota.Ceiling)
	assert.Equal(t, 0.5, specs[1].RatePerSecond)
}

func TestLoadSources_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown kind", `[{"name": "x", "kind": "carrier-pigeon", "url": "https://x.dev"}]`},
		{"missing url", `[{"name": "x", "kind": "api"}]`},
		{"bad name", `[{"name": "Has Spaces", "kind": "api", "url": "https://x.dev"}]`},
		{"unknown field", `[{"name": "x", "kind": "api", "url": "https://x.dev", "shady": true}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "sources.json", tt.body)

			_, err := LoadSources(path)

			require.Error(t, err)
			var srcErr *SourcesError
			assert.ErrorAs(t, err, &srcErr)
		})
	}
}

func TestLoadSources_DuplicateNames(t *testing.T) {
	path := writeTempFile(t, "sources.json", `[
		{"name": "dup", "kind": "api", "url": "https://a.dev"},
		{"name": "dup", "kind": "feed", "url": "https://b.dev"}
	]`)

	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestSourceConfig_APIKey(t *testing.T) {
	t.Setenv("TEST_SOURCE_KEY", "secret123")

	withEnv := &SourceConfig{APIKeyEnv: "TEST_SOURCE_KEY"}
	assert.Equal(t, "secret123", withEnv.APIKey())

	without := &SourceConfig{}
	assert.Equal(t, "", without.APIKey())
}

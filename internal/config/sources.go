package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// QuotaConfig holds one source's request budget. Zero fields fall back to the
// quota manager's defaults.
type QuotaConfig struct {
	Ceiling          int `json:"ceiling,omitempty"`
	WindowHours      int `json:"window_hours,omitempty"`
	FailureThreshold int `json:"failure_threshold,omitempty"`
	CooldownMinutes  int `json:"cooldown_minutes,omitempty"`
}

// ScrapeConfig holds the source-specific scraping rules for scraper sources.
type ScrapeConfig struct {
	LinkSelector string `json:"link_selector,omitempty"`
	Company      string `json:"company,omitempty"`
	UseBrowser   bool   `json:"use_browser,omitempty"`
}

// SourceConfig describes one external posting source. File order is the
// source priority order used for intra-batch dedup tie-breaks.
type SourceConfig struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // api | feed | scraper
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`

	// APIKeyEnv names the environment variable holding this source's key, so
	// credentials never live in the registry file itself.
	APIKeyEnv string `json:"api_key_env,omitempty"`

	// RatePerSecond paces outbound requests to the source. Zero disables pacing.
	RatePerSecond float64 `json:"rate_per_second,omitempty"`

	Quota  QuotaConfig  `json:"quota,omitempty"`
	Scrape ScrapeConfig `json:"scrape,omitempty"`
}

// APIKey resolves the source's credential from the environment.
func (s *SourceConfig) APIKey() string {
	if s.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.APIKeyEnv)
}

// LoadSources reads the per-source registry file, validating it against the
// embedded JSON Schema before decoding. Schema violations are fatal: a
// misconfigured source registry must never reach the ingestion path.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	if err := validateSourcesDocument(data); err != nil {
		return nil, err
	}

	var specs []SourceConfig
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse sources JSON: %w", err)
	}

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, &SourcesError{Message: fmt.Sprintf("duplicate source name %q", spec.Name)}
		}
		seen[spec.Name] = true
	}

	return specs, nil
}

// validateSourcesDocument checks the raw document against sourcesSchema.
func validateSourcesDocument(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(sourcesSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return &SourcesError{Message: "schema validation could not run", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	for i, desc := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(desc.String())
	}
	return &SourcesError{Message: sb.String()}
}

// Package config loads process configuration. The config is read once at
// startup and treated as immutable for the life of the process.
package config

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// EnvConfigPath names the environment variable pointing at the JSON
// config file.
const EnvConfigPath = "HOMEWORK_HERO_CONFIG_PATH"

// Config is the process configuration document.
type Config struct {
	// ReferenceData is the directory holding the registry files
	// (source_datasets.json, themes.json, models.json).
	ReferenceData string `json:"reference_data"`
	// SourceDatasets is the directory holding dataset JSON files.
	SourceDatasets string `json:"source_datasets"`
	// ResponsesDatastore roots the AI-response cache layer.
	ResponsesDatastore string `json:"responses_datastore"`
	// WorksheetsDatastore roots the rendered-PDF cache layer.
	WorksheetsDatastore string `json:"worksheets_datastore"`
	// PromptPath is the system prompt template file.
	PromptPath string `json:"prompt_path"`
	// ThemesDir holds {theme}.txt context files.
	ThemesDir string `json:"themes_dir"`

	ListenAddr    string `json:"listen_addr,omitempty"`
	PostgresURL   string `json:"postgres_url,omitempty"`
	OllamaHost    string `json:"ollama_host,omitempty"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
	LinkBaseURL   string `json:"link_base_url,omitempty"`
}

// Load reads the config file at path; an empty path falls back to the
// EnvConfigPath environment variable.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return nil, fmt.Errorf("no config path given and %s is not set", EnvConfigPath)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that the required paths are present.
func (c *Config) Validate() error {
	required := map[string]string{
		"reference_data":       c.ReferenceData,
		"source_datasets":      c.SourceDatasets,
		"responses_datastore":  c.ResponsesDatastore,
		"worksheets_datastore": c.WorksheetsDatastore,
		"prompt_path":          c.PromptPath,
		"themes_dir":           c.ThemesDir,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	return nil
}

// Package config holds all propgen configuration: defaults, an
// optional YAML file, and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all propgen configuration.
type Config struct {
	// Branding applied to every generated document
	Brand BrandConfig `yaml:"brand"`

	// Generative-text service
	LLM LLMConfig `yaml:"llm"`

	// Diagram rendering fallback chain
	Render RenderConfig `yaml:"render"`

	// External editor session
	Editor EditorConfig `yaml:"editor"`

	// Source document extraction
	Extract ExtractConfig `yaml:"extract"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BrandConfig locates the assets stamped on generated documents.
type BrandConfig struct {
	CompanyLogoPath string `yaml:"company_logo_path"`
	ProfilePath     string `yaml:"profile_path"`
}

// LLMConfig configures the generative-text client.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RenderConfig configures the rendering strategies.
type RenderConfig struct {
	KrokiURL        string `yaml:"kroki_url"`
	StrategyTimeout string `yaml:"strategy_timeout"`
	ChromeBin       string `yaml:"chrome_bin"`
}

// EditorConfig configures the external diagram editor bridge.
type EditorConfig struct {
	DownloadDir   string `yaml:"download_dir"`
	Headless      bool   `yaml:"headless"`
	Cooldown      string `yaml:"cooldown"`
	ExportTimeout string `yaml:"export_timeout"`
	PollInterval  string `yaml:"poll_interval"`
}

// ExtractConfig configures source-document extraction.
type ExtractConfig struct {
	PageLimit int `yaml:"page_limit"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Brand: BrandConfig{
			ProfilePath: "assets/company_profile.yaml",
		},
		LLM: LLMConfig{
			Model: "gemini-2.5-flash",
		},
		Render: RenderConfig{
			KrokiURL:        "https://kroki.io",
			StrategyTimeout: "25s",
		},
		Editor: EditorConfig{
			DownloadDir:   "downloads",
			Headless:      true,
			Cooldown:      "3s",
			ExportTimeout: "20s",
			PollInterval:  "300ms",
		},
		Extract: ExtractConfig{
			PageLimit: 15,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file is absent, then applies environment overrides. A .env
// file in the working directory is honoured first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate checks the settings no component can run without.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("GENAI_API_KEY is required")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("KROKI_URL"); v != "" {
		c.Render.KrokiURL = v
	}
	if v := os.Getenv("PROPGEN_DOWNLOAD_DIR"); v != "" {
		c.Editor.DownloadDir = v
	}
	if v := os.Getenv("PROPGEN_CHROME_BIN"); v != "" {
		c.Render.ChromeBin = v
	}
}

// Duration parses a config duration string, returning fallback on any
// problem so a bad value degrades instead of halting startup.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

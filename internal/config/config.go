// Package config loads the mitsumori YAML configuration, overlaid with .env and environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvDatabasePath   = "MITSUMORI_DB_PATH"
	EnvMatchThreshold = "MITSUMORI_MATCH_THRESHOLD"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vision    VisionConfig    `yaml:"vision"`
	Matching  MatchingConfig  `yaml:"matching"`
	Quotation QuotationConfig `yaml:"quotation"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the database and keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// GeminiConfig holds Generative Language API access settings.
type GeminiConfig struct {
	APIKey         string `yaml:"api_key,omitempty"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (g GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // gemini, onnx or mock
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// VisionConfig selects the furniture detector.
type VisionConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// MatchingConfig tunes catalog matching.
type MatchingConfig struct {
	// Threshold is the cosine score a match must strictly exceed. Nil means 0.50.
	Threshold   *float64 `yaml:"threshold"`
	Concurrency int      `yaml:"concurrency"`
}

// ThresholdOrDefault returns the configured threshold or 0.50.
func (m MatchingConfig) ThresholdOrDefault() float64 {
	if m.Threshold != nil {
		return *m.Threshold
	}
	return DefaultThreshold
}

// QuotationConfig holds quotation defaults.
type QuotationConfig struct {
	CustomerName string   `yaml:"customer_name"`
	TaxRate      *float64 `yaml:"tax_rate"`
	DiscountRate float64  `yaml:"discount_rate"`
	Validity     string   `yaml:"validity"`
	IDPrefix     string   `yaml:"id_prefix"`
	Terms        []string `yaml:"terms,omitempty"`
}

// CatalogConfig holds catalog import settings.
type CatalogConfig struct {
	ImportDirectories []string `yaml:"import_directories"`
	Extensions        []string `yaml:"extensions"`
}

// Load reads the config file at path, applies defaults, expands paths, then overlays
// a .env file from the config directory and the process environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	for i := range cfg.Catalog.ImportDirectories {
		cfg.Catalog.ImportDirectories[i] = expandPath(cfg.Catalog.ImportDirectories[i], configDir)
	}

	if err := loadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
// It is used when no config file exists.
func Default() (*Config, error) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv(EnvMatchThreshold); v != "" {
		th, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMatchThreshold, v, err)
		}
		cfg.Matching.Threshold = &th
	}
	return nil
}

// Validate rejects settings the pipeline cannot work with.
func (c *Config) Validate() error {
	if th := c.Matching.ThresholdOrDefault(); math.IsNaN(th) || th < -1 || th > 1 {
		return fmt.Errorf("matching.threshold must be within [-1, 1], got %v", th)
	}
	if c.Quotation.TaxRate != nil && (*c.Quotation.TaxRate < 0 || math.IsNaN(*c.Quotation.TaxRate)) {
		return fmt.Errorf("quotation.tax_rate must be non-negative, got %v", *c.Quotation.TaxRate)
	}
	if c.Quotation.DiscountRate < 0 || math.IsNaN(c.Quotation.DiscountRate) {
		return fmt.Errorf("quotation.discount_rate must be non-negative, got %v", c.Quotation.DiscountRate)
	}
	switch c.Embedding.Provider {
	case "gemini", "onnx", "mock":
	default:
		return fmt.Errorf("embedding.provider must be gemini, onnx or mock, got %q", c.Embedding.Provider)
	}
	switch c.Vision.Provider {
	case "gemini", "none":
	default:
		return fmt.Errorf("vision.provider must be gemini or none, got %q", c.Vision.Provider)
	}
	return nil
}

// Save writes the config to path. The API key is never written back.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Gemini.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}

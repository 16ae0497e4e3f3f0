package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/sleigh-balancer/internal/balancer"
	"github.com/eugenenazirov/sleigh-balancer/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultSearchTimeout  = 10 * time.Second
	defaultCacheSize      = 256
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	Weights              []int
	MaxItems             int
	SearchTimeout        time.Duration
	Exhaustive           bool
	CacheSize            int
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
// Pointer fields distinguish an absent key from an explicit zero.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	Weights              []int         `yaml:"weights"`
	Search               yamlSearch    `yaml:"search"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlSearch represents the search section in YAML.
type yamlSearch struct {
	MaxItems   *int   `yaml:"max_items"`
	Timeout    string `yaml:"timeout"`
	Exhaustive *bool  `yaml:"exhaustive"`
	CacheSize  *int   `yaml:"cache_size"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	WeightsStr     *string
	MaxItems       *int
	SearchTimeout  *time.Duration
	Exhaustive     *bool
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment variables are the lowest explicit source
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             "info",
		Weights:              storage.DefaultWeights(),
		MaxItems:             balancer.DefaultMaxItems,
		SearchTimeout:        defaultSearchTimeout,
		CacheSize:            defaultCacheSize,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         30 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if len(yamlCfg.Weights) > 0 {
		cfg.Weights = yamlCfg.Weights
	}

	if yamlCfg.Search.MaxItems != nil {
		cfg.MaxItems = *yamlCfg.Search.MaxItems
	}
	if yamlCfg.Search.Exhaustive != nil {
		cfg.Exhaustive = *yamlCfg.Search.Exhaustive
	}
	if yamlCfg.Search.CacheSize != nil {
		cfg.CacheSize = *yamlCfg.Search.CacheSize
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"search.timeout", yamlCfg.Search.Timeout, &cfg.SearchTimeout},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
// Malformed values are ignored and the previous setting is kept.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rawWeights := strings.TrimSpace(os.Getenv("WEIGHTS")); rawWeights != "" {
		weights, err := parseWeights(rawWeights)
		if err == nil {
			cfg.Weights = weights
		}
	}

	if maxItems := strings.TrimSpace(os.Getenv("MAX_ITEMS")); maxItems != "" {
		if value, err := strconv.Atoi(maxItems); err == nil && value >= 0 {
			cfg.MaxItems = value
		}
	}

	if timeout := strings.TrimSpace(os.Getenv("SEARCH_TIMEOUT")); timeout != "" {
		if value, err := time.ParseDuration(timeout); err == nil && value >= 0 {
			cfg.SearchTimeout = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.WeightsStr != nil && *overrides.WeightsStr != "" {
		weights, err := parseWeights(*overrides.WeightsStr)
		if err != nil {
			return fmt.Errorf("parse weights: %w", err)
		}
		cfg.Weights = weights
	}

	if overrides.MaxItems != nil {
		cfg.MaxItems = *overrides.MaxItems
	}

	if overrides.SearchTimeout != nil {
		cfg.SearchTimeout = *overrides.SearchTimeout
	}

	if overrides.Exhaustive != nil {
		cfg.Exhaustive = *overrides.Exhaustive
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxItems < 0 {
		return fmt.Errorf("MAX_ITEMS must be >= 0")
	}
	if cfg.SearchTimeout < 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be >= 0")
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache size must be >= 0")
	}
	if len(cfg.Weights) == 0 {
		return fmt.Errorf("weights cannot be empty")
	}
	for _, w := range cfg.Weights {
		if w <= 0 {
			return fmt.Errorf("weight must be positive, got %d", w)
		}
	}
	if cfg.MaxItems > 0 && len(cfg.Weights) > cfg.MaxItems {
		return fmt.Errorf("%d weights exceed MAX_ITEMS %d", len(cfg.Weights), cfg.MaxItems)
	}
	return nil
}

// parseWeights parses a comma-separated string of item weights into a slice of integers.
// It validates that all values are positive integers; duplicates are kept.
func parseWeights(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	weights := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		if value <= 0 {
			return nil, fmt.Errorf("weight must be positive, got %d", value)
		}
		weights = append(weights, value)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weights provided")
	}
	return weights, nil
}

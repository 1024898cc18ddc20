// Package config provides configuration management for query parsing and binding
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/validation"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration shared by the parser and the binder
type Config struct {
	// Parser Configuration
	MaxDepth                               int  `json:"max_depth" yaml:"max_depth"`                                                     // Maximum grammar recursion depth; 0 selects DefaultMaxDepth
	EnableCaseInsensitiveBuiltinIdentifier bool `json:"case_insensitive_builtin_identifier" yaml:"case_insensitive_builtin_identifier"` // Match keywords like "and"/"any"/"desc" ignoring case
	UseSemicolonDelimiter                  bool `json:"use_semicolon_delimiter" yaml:"use_semicolon_delimiter"`                         // Treat ';' as a list delimiter token

	// Binder Configuration
	EnableCaseInsensitiveProperties bool `json:"case_insensitive_properties" yaml:"case_insensitive_properties"` // Resolve property names ignoring case
	SuggestionLimit                 int  `json:"suggestion_limit" yaml:"suggestion_limit"`                       // Max "did you mean" candidates on unresolved names

	// Caching Configuration
	ParseCacheSize int `json:"parse_cache_size" yaml:"parse_cache_size"` // Number of parsed expressions kept (0 = disabled)

	// Debugging Configuration
	LogLevel          string `json:"log_level" yaml:"log_level"`                   // zerolog level name
	MetricsCollection bool   `json:"metrics_collection" yaml:"metrics_collection"` // Enable parse/bind metrics collection
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultMaxDepth        = 800
	DefaultSuggestionLimit = 3
	DefaultParseCacheSize  = 0
	DefaultLogLevel        = "disabled"
)

var validLogLevels = map[string]bool{
	"trace":    true,
	"debug":    true,
	"info":     true,
	"warn":     true,
	"error":    true,
	"fatal":    true,
	"panic":    true,
	"disabled": true,
}

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		MaxDepth:                               DefaultMaxDepth,
		EnableCaseInsensitiveBuiltinIdentifier: false,
		UseSemicolonDelimiter:                  false,

		EnableCaseInsensitiveProperties: false,
		SuggestionLimit:                 DefaultSuggestionLimit,

		ParseCacheSize: DefaultParseCacheSize,

		LogLevel:          DefaultLogLevel,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if err := validation.ValidateAll(
		validation.NewNonNegativeValidator(int64(c.MaxDepth), op, "MaxDepth"),
		validation.NewNonNegativeValidator(int64(c.SuggestionLimit), op, "SuggestionLimit"),
		validation.NewNonNegativeValidator(int64(c.ParseCacheSize), op, "ParseCacheSize"),
	); err != nil {
		return err
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("LogLevel %q is not a known level", c.LogLevel)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.MaxDepth == 0 {
		c.MaxDepth = defaults.MaxDepth
	}
	if c.SuggestionLimit == 0 {
		c.SuggestionLimit = defaults.SuggestionLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}

	// Note: Boolean fields are intentionally not set to defaults here.
	// ParseCacheSize keeps its zero value because zero means disabled.

	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("ODATAQ_MAX_DEPTH"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxDepth = parsed
		}
	}

	if val := os.Getenv("ODATAQ_CASE_INSENSITIVE_BUILTIN_IDENTIFIER"); val != "" {
		if parsed, err := common.ToBool(val); err == nil {
			config.EnableCaseInsensitiveBuiltinIdentifier = parsed
		}
	}

	if val := os.Getenv("ODATAQ_USE_SEMICOLON_DELIMITER"); val != "" {
		if parsed, err := common.ToBool(val); err == nil {
			config.UseSemicolonDelimiter = parsed
		}
	}

	if val := os.Getenv("ODATAQ_CASE_INSENSITIVE_PROPERTIES"); val != "" {
		if parsed, err := common.ToBool(val); err == nil {
			config.EnableCaseInsensitiveProperties = parsed
		}
	}

	if val := os.Getenv("ODATAQ_SUGGESTION_LIMIT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.SuggestionLimit = parsed
		}
	}

	if val := os.Getenv("ODATAQ_PARSE_CACHE_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParseCacheSize = parsed
		}
	}

	if val := os.Getenv("ODATAQ_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("ODATAQ_METRICS_COLLECTION"); val != "" {
		if parsed, err := common.ToBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}

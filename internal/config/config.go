// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/curriculum"
	"github.com/jonathan/graduation-audit/internal/fetch"
	"github.com/jonathan/graduation-audit/internal/rules"
)

// Default values for settings not provided by file or environment.
const (
	DefaultPort        = 8080
	DefaultMaxUploadMB = 10
)

// Config represents the configuration that can be loaded from a JSON file and the environment.
// Zero values mean "not set" and are filled from defaults.
type Config struct {
	// Curriculum source
	BaseURL   string `json:"base_url,omitempty" validate:"omitempty,url"` // Curriculum information system root
	ProgramID int    `json:"program_id,omitempty" validate:"gte=0"`       // Program whose curriculum is audited

	// Transport
	TimeoutSeconds     int `json:"timeout_seconds,omitempty" validate:"gte=0,lte=300"` // Per-request timeout
	MaxRetries         int `json:"max_retries,omitempty" validate:"gte=0,lte=10"`      // Retries after a transient failure
	RetryBackoffMillis int `json:"retry_backoff_ms,omitempty" validate:"gte=0"`        // Initial backoff, doubled per retry

	// Graduation rules
	MinGPA      float64 `json:"min_gpa,omitempty" validate:"gte=0,lte=4"`
	MinTermECTS float64 `json:"min_term_ects,omitempty" validate:"gte=0"`

	// Server
	Port        int `json:"port,omitempty" validate:"gte=0,lte=65535"`
	MaxUploadMB int `json:"max_upload_mb,omitempty" validate:"gte=0,lte=100"`

	Verbose bool `json:"verbose,omitempty"` // Debug logging
}

// Default returns the built-in configuration.
func Default() Config {
	fetchDefaults := fetch.DefaultOptions()
	return Config{
		BaseURL:            curriculum.DefaultBaseURL,
		ProgramID:          curriculum.DefaultProgramID,
		TimeoutSeconds:     int(fetchDefaults.Timeout / time.Second),
		MaxRetries:         fetchDefaults.MaxRetries,
		RetryBackoffMillis: int(fetchDefaults.RetryBackoff / time.Millisecond),
		MinGPA:             rules.DefaultMinGPA,
		MinTermECTS:        rules.DefaultMinTermECTS,
		Port:               DefaultPort,
		MaxUploadMB:        DefaultMaxUploadMB,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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

// FromEnv reads configuration from environment variables. Unset or unparsable
// variables leave the field at its zero value.
func FromEnv() Config {
	return Config{
		BaseURL:            getEnvString("CURRICULUM_BASE_URL", ""),
		ProgramID:          getEnvInt("CURRICULUM_PROGRAM_ID", 0),
		TimeoutSeconds:     getEnvInt("FETCH_TIMEOUT_SECONDS", 0),
		MaxRetries:         getEnvInt("FETCH_MAX_RETRIES", 0),
		RetryBackoffMillis: getEnvInt("FETCH_RETRY_BACKOFF_MS", 0),
		MinGPA:             getEnvFloat("MIN_GPA", 0),
		MinTermECTS:        getEnvFloat("MIN_TERM_ECTS", 0),
		Port:               getEnvInt("PORT", 0),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 0),
		Verbose:            getEnvBool("VERBOSE", false),
	}
}

// Load resolves the effective configuration: environment over file over defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	fileCfg := Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		fileCfg = *loaded
	}

	envCfg := FromEnv()
	merged := envCfg.MergeWithDefaults(fileCfg)
	merged = merged.MergeWithDefaults(Default())
	merged.Verbose = envCfg.Verbose || fileCfg.Verbose

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, formatValidationError(fe))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "url":
		return e.Field() + " must be a valid URL"
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "lte":
		return e.Field() + " must be at most " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}

	// Int fields: use default if zero
	if result.ProgramID == 0 {
		result.ProgramID = defaults.ProgramID
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.RetryBackoffMillis == 0 {
		result.RetryBackoffMillis = defaults.RetryBackoffMillis
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxUploadMB == 0 {
		result.MaxUploadMB = defaults.MaxUploadMB
	}

	// Float fields
	if result.MinGPA == 0 {
		result.MinGPA = defaults.MinGPA
	}
	if result.MinTermECTS == 0 {
		result.MinTermECTS = defaults.MinTermECTS
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// FetcherConfig builds the curriculum fetcher settings.
func (c *Config) FetcherConfig(logger *zap.Logger) curriculum.FetcherConfig {
	opts := fetch.DefaultOptions()
	opts.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	opts.MaxRetries = c.MaxRetries
	opts.RetryBackoff = time.Duration(c.RetryBackoffMillis) * time.Millisecond

	return curriculum.FetcherConfig{
		BaseURL:   c.BaseURL,
		ProgramID: c.ProgramID,
		Fetch:     opts,
		Logger:    logger,
	}
}

// Checker builds a rule checker with the configured thresholds.
func (c *Config) Checker(logger *zap.Logger) *rules.Checker {
	checker := rules.NewChecker(logger)
	if c.MinGPA > 0 {
		checker.MinGPA = c.MinGPA
	}
	if c.MinTermECTS > 0 {
		checker.MinTermECTS = c.MinTermECTS
	}
	return checker
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as a float with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

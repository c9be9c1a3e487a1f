// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout caps how long a single streamed request may run
	// before it is resolved as a failure.
	defaultRequestTimeout = 120 * time.Second
	// defaultChartPath is where the comparison chart is written when the
	// config does not say otherwise.
	defaultChartPath = "benchmark_results.png"
	// defaultResultsDir is where raw result tables are exported as JSON.
	defaultResultsDir = "enginemarkData/results"
)

// Engine identifies one benchmark target: a display name and the full URL of
// its OpenAI-compatible chat-completions endpoint.
type Engine struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config represents the top-level application configuration.
type Config struct {
	EngineA Engine `json:"engineA"`
	EngineB Engine `json:"engineB"`

	Model             string         `json:"model"`
	ConcurrencyLevels []int          `json:"concurrencyLevels"`
	RequestsPerLevel  int            `json:"requestsPerLevel"`
	WarmupRequests    int            `json:"warmupRequests"`
	GenerationConfig  map[string]any `json:"generationConfig,omitempty"`
	Prompts           []string       `json:"prompts"`

	TimeoutSeconds int    `json:"timeout,omitempty"`
	LogFile        string `json:"logFile,omitempty"`
	ChartPath      string `json:"chartPath,omitempty"`
	ResultsDir     string `json:"resultsDir,omitempty"`
	Progress       bool   `json:"progress"`
	Debug          bool   `json:"debug"`

	ConfigPath string `json:"-"`
}

// RequestTimeout returns the per-request timeout, falling back to the default
// if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "enginemark.log"
}

// ChartFilePath returns where the comparison chart should be written.
func (c Config) ChartFilePath() string {
	if path := c.ChartPath; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultChartPath
}

// ResultsDirPath returns the directory for exported JSON result tables.
func (c Config) ResultsDirPath() string {
	if dir := c.ResultsDir; strings.TrimSpace(dir) != "" {
		return dir
	}
	return defaultResultsDir
}

// Validate checks the benchmark parameters. Violations here are configuration
// errors and abort the run before any traffic is sent.
func (c Config) Validate() error {
	if strings.TrimSpace(c.EngineA.URL) == "" || strings.TrimSpace(c.EngineB.URL) == "" {
		return errors.New("config must set both engineA.url and engineB.url")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("config must set a model")
	}
	if len(c.ConcurrencyLevels) == 0 {
		return errors.New("config must list at least one concurrency level")
	}
	if c.RequestsPerLevel <= 0 {
		return fmt.Errorf("requestsPerLevel must be positive, got %d", c.RequestsPerLevel)
	}
	if c.WarmupRequests < 0 {
		return fmt.Errorf("warmupRequests must be non-negative, got %d", c.WarmupRequests)
	}
	for _, level := range c.ConcurrencyLevels {
		if level <= 0 {
			return fmt.Errorf("concurrency levels must be positive, got %d", level)
		}
		if level > c.RequestsPerLevel {
			return fmt.Errorf("concurrency level %d exceeds requestsPerLevel %d", level, c.RequestsPerLevel)
		}
	}
	if len(c.Prompts) == 0 {
		return errors.New("config must provide a non-empty prompt corpus")
	}
	return nil
}

// Load reads, schema-checks, and decodes the configuration at path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	if err := ValidateSchema(data); err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("could not parse config file %q: %w", path, err)
	}
	config.ConfigPath = path

	return config, nil
}

// Package config handles resolving configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bcdh/teicompleter/internal/content"
	"github.com/bcdh/teicompleter/internal/transform"
)

// Environment variables overriding file settings.
const (
	EnvLogLevel = "TEICOMPLETER_LOG_LEVEL"
	EnvAddress  = "TEICOMPLETER_ADDRESS"
)

// Log levels.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var logLevels = []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

// Config is the application configuration.
type Config struct {
	LogLevel          string                    `yaml:"log_level"`
	DevMode           bool                      `yaml:"dev_mode"`
	Address           string                    `yaml:"address"`
	ScriptTimeout     time.Duration             `yaml:"script_timeout"`
	CacheSize         int                       `yaml:"cache_size"`
	DescriptionFormat content.DescriptionFormat `yaml:"description_format"`
	Transformations   []Transformation          `yaml:"transformations"`
}

// Transformation configures a named response transformation. At most one of
// Script and Mapping may be set; with neither, responses must already be in
// the canonical format.
type Transformation struct {
	Name    string             `yaml:"name"`
	Script  string             `yaml:"script,omitempty"`
	Mapping *transform.Mapping `yaml:"mapping,omitempty"`
}

// Default returns a version of the config with all default values populated.
func Default() *Config {
	return &Config{
		LogLevel:          LevelInfo,
		Address:           "localhost:9997",
		ScriptTimeout:     transform.DefaultTimeout,
		CacheSize:         transform.DefaultCacheSize,
		DescriptionFormat: content.DescriptionRaw,
	}
}

// Sample returns the default configuration with an example transformation for
// compact signature documents.
func Sample() *Config {
	cfg := Default()
	mapping := transform.DefaultMapping
	cfg.Transformations = []Transformation{{Name: "sgns", Mapping: &mapping}}
	return cfg
}

// Load loads a YAML configuration file from a path, merges it over defaults,
// applies environment overrides (including those from a .env file in the
// working directory) and validates the result. Relative script paths are
// resolved against the directory of the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}

	_ = godotenv.Load()
	applyEnv(cfg)

	dir := filepath.Dir(path)
	for i, t := range cfg.Transformations {
		if t.Script != "" && !filepath.IsAbs(t.Script) {
			cfg.Transformations[i].Script = filepath.Join(dir, t.Script)
		}
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if lvl := strings.TrimSpace(os.Getenv(EnvLogLevel)); lvl != "" {
		cfg.LogLevel = strings.ToUpper(lvl)
	}
	if addr, ok := os.LookupEnv(EnvAddress); ok {
		cfg.Address = strings.TrimSpace(addr)
	}
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel))
	}
	if c.ScriptTimeout <= 0 {
		errs = append(errs, errors.New("script_timeout must be positive"))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, errors.New("cache_size must be positive"))
	}
	if !slices.Contains(content.DescriptionFormats, c.DescriptionFormat) {
		errs = append(errs, fmt.Errorf("description_format must be one of %v, got %q", content.DescriptionFormats, c.DescriptionFormat))
	}
	seen := map[string]bool{}
	for i, t := range c.Transformations {
		switch {
		case t.Name == "":
			errs = append(errs, fmt.Errorf("transformations[%d]: name is required", i))
		case seen[t.Name]:
			errs = append(errs, fmt.Errorf("transformations[%d]: duplicate name %q", i, t.Name))
		}
		seen[t.Name] = true
		if t.Script != "" && t.Mapping != nil {
			errs = append(errs, fmt.Errorf("transformations[%d]: script and mapping are mutually exclusive", i))
		}
		if t.Script != "" {
			if ext := strings.ToLower(filepath.Ext(t.Script)); ext != ".cel" && ext != ".go" {
				errs = append(errs, fmt.Errorf("transformations[%d]: script must be a .cel or .go file, got %q", i, t.Script))
			}
		}
		if t.Mapping != nil && (t.Mapping.List == "" || t.Mapping.Value == "") {
			errs = append(errs, fmt.Errorf("transformations[%d]: mapping requires list and value", i))
		}
	}
	return errors.Join(errs...)
}

// Transformation looks up a configured transformation by name.
func (c *Config) Transformation(name string) (transform.Transformation, bool) {
	for _, t := range c.Transformations {
		if t.Name == name {
			return t.toTransform(), true
		}
	}
	return transform.Transformation{}, false
}

// TransformationList returns all configured transformations in file order.
func (c *Config) TransformationList() []transform.Transformation {
	out := make([]transform.Transformation, len(c.Transformations))
	for i, t := range c.Transformations {
		out[i] = t.toTransform()
	}
	return out
}

// Scripts returns the paths of all configured scripts.
func (c *Config) Scripts() []string {
	var out []string
	for _, t := range c.Transformations {
		if t.Script != "" {
			out = append(out, t.Script)
		}
	}
	return out
}

func (t Transformation) toTransform() transform.Transformation {
	out := transform.Transformation{Name: t.Name, Script: t.Script}
	if t.Mapping != nil {
		mapping := *t.Mapping
		if mapping.Description == "" {
			mapping.Description = transform.DefaultMapping.Description
		}
		out.Mapping = &mapping
	}
	return out
}

// Write saves cfg as YAML at path, readable only by the owner.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd // owner rwx access
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil { //nolint:mnd // owner rw access
		return fmt.Errorf("failed to write config file to %s: %w", path, err)
	}
	return nil
}

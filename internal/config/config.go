// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pgpt.
//
// Configuration file locations (in order of precedence):
//   - PGPT_* environment variables (a .env file in the working directory is read first)
//   - ~/.pgpt/config.toml
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultServerURL is the address a local PrivateGPT instance listens on.
const DefaultServerURL = "http://localhost:8001"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pgpt configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Search  SearchConfig  `toml:"search" json:"search"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Export  ExportConfig  `toml:"export" json:"export"`
}

// ServerConfig describes how to reach the PrivateGPT instance.
type ServerConfig struct {
	// URL is the base address. A URL persisted by the UI takes precedence.
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds non-streaming requests.
	TimeoutSecs int `toml:"timeout" json:"timeout"`
	// StreamTimeoutSecs bounds a whole streamed completion. 0 disables it.
	StreamTimeoutSecs int `toml:"stream_timeout" json:"stream_timeout"`
	// RequestsPerSecond limits outbound requests. 0 disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light". A stored preference wins over it.
	Theme string `toml:"theme" json:"theme"`
	// Layout is "auto", "compact" or "wide".
	Layout string `toml:"layout" json:"layout"`
	// Markdown renders assistant output through glamour when true.
	Markdown bool `toml:"markdown" json:"markdown"`
	// Surface is the initial surface: "chat" or "playground".
	Surface string `toml:"surface" json:"surface"`
}

// SearchConfig configures the "search" mode.
type SearchConfig struct {
	// Limit is the number of chunks requested.
	Limit int `toml:"limit" json:"limit"`
}

// StorageConfig locates the local state database.
type StorageConfig struct {
	// Path of the SQLite file. Empty means ~/.pgpt/state.db.
	Path string `toml:"path" json:"path"`
}

// LoggingConfig controls the file logger.
type LoggingConfig struct {
	// Path of the log file. Empty means ~/.pgpt/logs/pgpt.log.
	Path  string `toml:"path" json:"path"`
	Level string `toml:"level" json:"level"`
}

// ExportConfig controls transcript export.
type ExportConfig struct {
	Dir    string `toml:"dir" json:"dir"`
	Format string `toml:"format" json:"format"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               DefaultServerURL,
			TimeoutSecs:       30,
			StreamTimeoutSecs: 600,
		},
		UI: UIConfig{
			Theme:    "auto",
			Layout:   "auto",
			Markdown: true,
			Surface:  "chat",
		},
		Search: SearchConfig{
			Limit: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Export: ExportConfig{
			Dir:    ".",
			Format: "md",
		},
	}
}

// Timeout returns the request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// StreamTimeout returns the streaming timeout as a duration.
func (s ServerConfig) StreamTimeout() time.Duration {
	return time.Duration(s.StreamTimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pgpt configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pgpt"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath resolves the storage path, defaulting under ConfigDir.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// LogPath resolves the log file path, defaulting under ConfigDir.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "pgpt.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.pgpt/config.toml if present, applies env overrides and
// validates. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return loadFinish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return loadFinish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return loadFinish(cfg)
}

func loadFinish(cfg *Config) (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ~/.pgpt/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# pgpt configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.URL != "" {
		if err := ValidateURL(c.Server.URL); err != nil {
			errs = append(errs, ValidationError{Field: "server.url", Message: err.Error()})
		}
	}
	if c.Server.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "server.timeout", Message: "must not be negative"})
	}
	if c.Server.StreamTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "server.stream_timeout", Message: "must not be negative"})
	}
	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "server.requests_per_second", Message: "must not be negative"})
	}

	checkEnum := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return
			}
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid value '%s', must be one of: %s", value, strings.Join(allowed, ", ")),
		})
	}
	checkEnum("ui.theme", c.UI.Theme, "auto", "dark", "light")
	checkEnum("ui.layout", c.UI.Layout, "auto", "compact", "wide")
	checkEnum("ui.surface", c.UI.Surface, "chat", "playground")
	checkEnum("logging.level", c.Logging.Level, "debug", "info", "warn", "error")
	checkEnum("export.format", c.Export.Format, "md", "json", "yaml")

	if c.Search.Limit < 1 || c.Search.Limit > 50 {
		errs = append(errs, ValidationError{
			Field:   "search.limit",
			Message: fmt.Sprintf("must be between 1 and 50, got %d", c.Search.Limit),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.Layout == "" {
		c.UI.Layout = d.UI.Layout
	}
	if c.UI.Surface == "" {
		c.UI.Surface = d.UI.Surface
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = d.Search.Limit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
	if c.Export.Format == "" {
		c.Export.Format = d.Export.Format
	}
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	c.UI.Layout = strings.ToLower(c.UI.Layout)
	c.UI.Surface = strings.ToLower(c.UI.Surface)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Export.Format = strings.ToLower(c.Export.Format)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - PGPT_URL: server.url
//   - PGPT_TIMEOUT: server.timeout (seconds)
//   - PGPT_THEME: ui.theme
//   - PGPT_LAYOUT: ui.layout
//   - PGPT_LOG_LEVEL: logging.level
//   - PGPT_DB: storage.path
//   - PGPT_SEARCH_LIMIT: search.limit
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PGPT_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("PGPT_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("PGPT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("PGPT_LAYOUT"); v != "" {
		c.UI.Layout = v
	}
	if v := os.Getenv("PGPT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PGPT_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("PGPT_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.Limit = n
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using its TOML path (e.g. "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using its TOML path. String input is
// converted to the field's kind.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key: %q (want section.field)", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, tag string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == tag {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(b)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, sorted.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the configuration. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns an indented JSON rendering for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration, loading it on first access.
// Load failures fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

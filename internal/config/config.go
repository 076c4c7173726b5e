// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"

	"github.com/jeranaias/rigchat/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RIGCHAT_"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Endpoint is the Ollama API base URL used at startup.
	Endpoint string `toml:"endpoint" json:"endpoint" env:"ENDPOINT"`

	// Model is selected after the first discovery when the server offers it.
	Model string `toml:"model" json:"model" env:"MODEL"`

	// RequestTimeout bounds each discovery and chat request. Zero means none.
	RequestTimeout Duration `toml:"request_timeout" json:"request_timeout" env:"REQUEST_TIMEOUT"`

	// StrictModelSelection rejects selecting a model the server did not list.
	StrictModelSelection bool `toml:"strict_model_selection" json:"strict_model_selection" env:"STRICT_MODEL_SELECTION"`

	// DiscardStaleDiscovery ignores model lists from superseded endpoints.
	DiscardStaleDiscovery bool `toml:"discard_stale_discovery" json:"discard_stale_discovery" env:"DISCARD_STALE_DISCOVERY"`

	Log LogConfig `toml:"log" json:"log" envPrefix:"LOG_"`
	UI  UIConfig  `toml:"ui" json:"ui" envPrefix:"UI_"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" env:"LEVEL"`
	// File receives logs while the TUI owns the terminal. Empty means
	// rigchat.log in the config directory.
	File string `toml:"file" json:"file" env:"FILE"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Plain forces the line-mode REPL even on a terminal.
	Plain bool `toml:"plain" json:"plain" env:"PLAIN"`
	// Markdown renders assistant replies with glamour.
	Markdown bool `toml:"markdown" json:"markdown" env:"MARKDOWN"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme" env:"THEME"`
}

// Duration is a time.Duration written as a string ("30s") in config files
// and environment variables.
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:               "1",
		Endpoint:              "http://localhost:11434",
		RequestTimeout:        0,
		StrictModelSelection:  true,
		DiscardStaleDiscovery: true,
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Plain:    false,
			Markdown: true,
			Theme:    "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read, or the TOML path
// when neither file exists.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// LogPath returns the configured log file, defaulting into ConfigDir.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rigchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. A .env file in
// the working directory and RIGCHAT_* variables are applied last.
func Load() (*Config, error) {
	path, err := ActivePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies overrides, defaults and validation.
func (c *Config) finish() error {
	if err := LoadDotEnv(); err != nil {
		return err
	}
	if err := c.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes the configuration as TOML.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# rigchat configuration file\n")
	buf.WriteString("# Environment variables (RIGCHAT_*) override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON atomically writes the configuration as JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
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

var (
	validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validThemes = map[string]bool{"auto": true, "dark": true, "light": true}
)

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	// The endpoint is used as given, like one typed into the UI. A bad URL
	// shows up as a failed discovery, not as a config error.
	if c.Endpoint == "" {
		result = multierror.Append(result, ValidationError{Field: "endpoint", Message: "must not be empty"})
	}

	if c.RequestTimeout < 0 {
		result = multierror.Append(result, ValidationError{Field: "request_timeout", Message: "must not be negative"})
	}

	if !validLevels[strings.ToLower(c.Log.Level)] {
		result = multierror.Append(result, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if !validThemes[strings.ToLower(c.UI.Theme)] {
		result = multierror.Append(result, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	return result.ErrorOrNil()
}

// SetDefaults sets default values for empty string fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Endpoint == "" {
		c.Endpoint = defaults.Endpoint
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// ApplyEnvOverrides applies RIGCHAT_* environment variables.
//
// Supported environment variables:
//   - RIGCHAT_ENDPOINT, RIGCHAT_MODEL, RIGCHAT_REQUEST_TIMEOUT
//   - RIGCHAT_STRICT_MODEL_SELECTION, RIGCHAT_DISCARD_STALE_DISCOVERY
//   - RIGCHAT_LOG_LEVEL, RIGCHAT_LOG_FILE
//   - RIGCHAT_UI_PLAIN, RIGCHAT_UI_MARKDOWN, RIGCHAT_UI_THEME
func (c *Config) ApplyEnvOverrides() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// ErrUnknownKey is returned by Get and Set for keys not in Keys().
var ErrUnknownKey = errors.New("unknown config key")

// Keys returns every configuration key in dot notation, sorted.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := tomlName(f)
		if name == "" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, prefix+name+".", keys)
			continue
		}
		*keys = append(*keys, prefix+name)
	}
}

// Get returns the value at key (e.g. "log.level") formatted as it
// would appear in the config file.
func (c *Config) Get(key string) (string, error) {
	field, err := c.lookup(key)
	if err != nil {
		return "", err
	}
	if m, ok := field.Interface().(interface{ MarshalText() ([]byte, error) }); ok {
		text, err := m.MarshalText()
		return string(text), err
	}
	return fmt.Sprint(field.Interface()), nil
}

// Set parses value into the field at key. The result is not validated.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	if u, ok := field.Addr().Interface().(interface{ UnmarshalText([]byte) error }); ok {
		if err := u.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: unsupported type %s", key, field.Type())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	v := reflect.ValueOf(c).Elem()
	parts := strings.Split(key, ".")
	for i, part := range parts {
		idx := fieldByTOMLName(v.Type(), part)
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		v = v.Field(idx)
		if last := i == len(parts)-1; last == (v.Kind() == reflect.Struct) {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}
	return v, nil
}

func fieldByTOMLName(t reflect.Type, name string) int {
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return i
		}
	}
	return -1
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// =============================================================================
// CLONE AND STRING
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

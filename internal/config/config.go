// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/storage"
	"github.com/jeranaias/deskshell/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DESKSHELL"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete deskshell configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Shell   ShellConfig   `toml:"shell" json:"shell"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
	UI      UIConfig      `toml:"ui" json:"ui"`

	// Aliases are defined for every session at startup, before the user's
	// saved aliases are restored.
	Aliases map[string]string `toml:"aliases" json:"aliases" ignored:"true"`
}

// ShellConfig controls the terminal session.
type ShellConfig struct {
	Prompt     string `toml:"prompt" json:"prompt"`
	HistoryCap int    `toml:"history_cap" json:"history_cap" split_words:"true"`
	Scrollback int    `toml:"scrollback" json:"scrollback"`
	Echo       bool   `toml:"echo" json:"echo"`
	Locale     string `toml:"locale" json:"locale"`

	// LocaleDir holds extra YAML locale files
	LocaleDir string `toml:"locale_dir" json:"locale_dir" split_words:"true"`
}

// StorageConfig selects where history and aliases are persisted.
type StorageConfig struct {
	// Backend is one of file, bolt, sqlite, memory
	Backend string `toml:"backend" json:"backend"`

	// Path is the data directory (file) or database file (bolt, sqlite).
	// Empty means a default under ConfigDir.
	Path string `toml:"path" json:"path"`

	// Key identifies the user whose state is loaded
	Key string `toml:"key" json:"key"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `toml:"level" json:"level"`
	Development bool   `toml:"development" json:"development"`

	// File receives logs; empty means ConfigDir/deskshell.log
	File string `toml:"file" json:"file"`
}

// UIConfig controls the display.
type UIConfig struct {
	Theme string `toml:"theme" json:"theme"`

	// Plain forces the line-mode interface
	Plain bool `toml:"plain" json:"plain"`
}

// Themes lists the accepted UI themes.
var Themes = []string{"dark", "light", "retro"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validBackends = []string{storage.BackendFile, storage.BackendBolt, storage.BackendSQLite, storage.BackendMemory}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Shell: ShellConfig{
			Prompt:     "guest@deskshell:~$ ",
			HistoryCap: 500,
			Scrollback: 1000,
			Echo:       true,
			Locale:     "en",
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Key:     storage.DefaultKey,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Aliases: map[string]string{},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the deskshell configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".deskshell"), nil
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

// DefaultLogPath returns the log file used while the full-screen interface
// is active.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "deskshell.log"), nil
}

// ResolvedPath returns Path, or the backend's default location under
// ConfigDir when Path is empty.
func (s StorageConfig) ResolvedPath() (string, error) {
	if s.Path != "" || s.Backend == storage.BackendMemory {
		return s.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	switch s.Backend {
	case storage.BackendBolt:
		return filepath.Join(dir, "deskshell.db"), nil
	case storage.BackendSQLite:
		return filepath.Join(dir, "deskshell.sqlite"), nil
	default:
		return filepath.Join(dir, "data"), nil
	}
}

// StoreConfig converts the section into a storage.Config.
func (s StorageConfig) StoreConfig() (storage.Config, error) {
	path, err := s.ResolvedPath()
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{Backend: s.Backend, Path: path}, nil
}

// ensureSecurePermissions tightens config files to owner read/write.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. Environment
// overrides are applied last.
//
// A file that fails to decode is reported alongside the defaults, so callers
// can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
		break
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file with full
// validation. Files ending in .json are read as JSON, anything else as TOML.
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

// finish applies environment overrides and defaults, then validates.
func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return err
	}
	if err := fillDefaults(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Shell
	if cfg.Shell.Prompt == "" {
		cfg.Shell.Prompt = defaults.Shell.Prompt
	}
	if cfg.Shell.HistoryCap == 0 {
		cfg.Shell.HistoryCap = defaults.Shell.HistoryCap
	}
	if cfg.Shell.Locale == "" {
		cfg.Shell.Locale = defaults.Shell.Locale
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = defaults.Storage.Key
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
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

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# deskshell configuration file")
	fmt.Fprintln(&buf, "# Generated by deskshell - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

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

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Shell
	if c.Shell.HistoryCap < 1 || c.Shell.HistoryCap > 100000 {
		add("shell.history_cap", "must be between 1 and 100000, got %d", c.Shell.HistoryCap)
	}
	if c.Shell.Scrollback < 0 {
		add("shell.scrollback", "must not be negative, got %d", c.Shell.Scrollback)
	}
	if _, err := language.Parse(c.Shell.Locale); err != nil {
		add("shell.locale", "invalid language tag '%s'", c.Shell.Locale)
	}

	// Storage
	if !oneOf(c.Storage.Backend, validBackends) {
		add("storage.backend", "invalid backend '%s', must be one of: %s", c.Storage.Backend, strings.Join(validBackends, ", "))
	}

	// Log
	if !oneOf(strings.ToLower(c.Log.Level), validLogLevels) {
		add("log.level", "invalid level '%s', must be one of: %s", c.Log.Level, strings.Join(validLogLevels, ", "))
	}

	// UI
	if !oneOf(strings.ToLower(c.UI.Theme), Themes) {
		add("ui.theme", "invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(Themes, ", "))
	}

	// Aliases
	probe := commands.NewAliasTable()
	for token, expansion := range c.Aliases {
		if err := probe.Define(token, expansion); err != nil {
			add("aliases."+token, "%v", err)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(v string, valid []string) bool {
	for _, s := range valid {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DESKSHELL_* environment variables. Variables are
// named after the section and key, for example:
//   - DESKSHELL_SHELL_PROMPT
//   - DESKSHELL_SHELL_HISTORY_CAP
//   - DESKSHELL_STORAGE_BACKEND
//   - DESKSHELL_LOG_LEVEL
//   - DESKSHELL_UI_PLAIN
//
// Unset variables leave the current value alone. Aliases cannot be set from
// the environment.
func (c *Config) ApplyEnvOverrides() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Aliases != nil {
		clone.Aliases = make(map[string]string, len(c.Aliases))
		for k, v := range c.Aliases {
			clone.Aliases[k] = v
		}
	}
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

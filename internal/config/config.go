// Package config handles configuration loading and parsing for hookgate.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/patterns"
)

//go:embed config.toml
var defaultConfig []byte

//go:embed skill-rules.json
var defaultRules []byte

// DefaultHistoryLimit is the number of prompts kept per session.
const DefaultHistoryLimit = 50

// Config holds the compiled patterns and settings from configuration.
type Config struct {
	// CommandPatterns are dangerous shell command rules, in priority order
	CommandPatterns []patterns.Pattern
	// PathPatterns are sensitive file path rules, in priority order
	PathPatterns []patterns.Pattern
	// PromptPatterns are blocked prompt rules used by --validate
	PromptPatterns []patterns.Pattern
	// RulesPath is the skill rule source, resolved against the config dir
	RulesPath string
	// HistoryLimit bounds the per-session prompt history
	HistoryLimit int
	// AuditMaxBytes triggers audit log rotation; zero disables it
	AuditMaxBytes int64
}

// Env holds settings read from HOOKGATE_* environment variables.
type Env struct {
	ConfigDir  string `env:"HOOKGATE_CONFIG"`
	Profile    string `env:"HOOKGATE_PROFILE"`
	RulesPath  string `env:"HOOKGATE_RULES"`
	StateDir   string `env:"HOOKGATE_STATE_DIR"`
	AuditLog   string `env:"HOOKGATE_AUDIT_LOG"`
	// ProjectDir is the agent's project root, exported by Claude Code
	ProjectDir string `env:"CLAUDE_PROJECT_DIR"`
}

type rawRule struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
	Exclude string `toml:"exclude"`
	Reason  string `toml:"reason"`
}

type rawConfig struct {
	Deny struct {
		Command []rawRule `toml:"command"`
		Path    []rawRule `toml:"path"`
	} `toml:"deny"`
	Prompt struct {
		Block []rawRule `toml:"block"`
	} `toml:"prompt"`
	Skills struct {
		Rules string `toml:"rules"`
	} `toml:"skills"`
	Session struct {
		HistoryLimit int `toml:"history_limit"`
	} `toml:"session"`
	Audit struct {
		MaxBytes int64 `toml:"max_bytes"`
	} `toml:"audit"`
}

var (
	// globalConfig is the loaded configuration
	globalConfig *Config
	// configInitialized tracks whether config has been loaded
	configInitialized bool
	// initErr records why the user config was not used, if it wasn't
	initErr error
	// profile selects config.<profile>.toml instead of config.toml
	profile string
	// configPath is the file the active config was read from
	configPath string
)

// LoadEnv reads HOOKGATE_* environment variables.
func LoadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// GetConfigDir returns the config directory path.
// Uses HOOKGATE_CONFIG env var if set, otherwise ~/.config/hookgate
func GetConfigDir() (string, error) {
	if e, err := LoadEnv(); err == nil && e.ConfigDir != "" {
		return e.ConfigDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// GetStateDir returns the directory for session state.
// Uses HOOKGATE_STATE_DIR env var if set, otherwise ~/.local/state/hookgate
func GetStateDir() (string, error) {
	if e, err := LoadEnv(); err == nil && e.StateDir != "" {
		return e.StateDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGStateSubdir, constants.AppName), nil
}

// ProjectRulesPath returns the project's skill rule file
// ($CLAUDE_PROJECT_DIR/.claude/skills/skill-rules.json) when it exists.
func ProjectRulesPath() string {
	e, err := LoadEnv()
	if err != nil || e.ProjectDir == "" {
		return ""
	}
	path := filepath.Join(e.ProjectDir, constants.ProjectRulesDir, constants.RulesFileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}

// ResolveRulesPath picks the skill rule source: override (--rules or
// HOOKGATE_RULES) first, then the project's rule file, then [skills] rules.
func ResolveRulesPath(override string, cfg *Config) string {
	if override != "" {
		return override
	}
	if path := ProjectRulesPath(); path != "" {
		return path
	}
	if cfg == nil {
		return ""
	}
	return cfg.RulesPath
}

// SetProfile selects a named profile. Must be called before Init.
func SetProfile(name string) {
	profile = name
}

// GetProfile returns the selected profile name.
func GetProfile() string {
	return profile
}

// configFileName returns the file name for the active profile.
func configFileName() string {
	if profile == "" {
		return constants.ConfigFileName
	}
	return "config." + profile + ".toml"
}

// EnsureConfigFiles creates the config directory and writes default config file if it doesn't exist.
func EnsureConfigFiles(configDir string) error {
	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(configDir, constants.ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, defaultConfig, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", constants.ConfigFileName, err)
		}
	}

	return nil
}

// compileRules compiles a config section into ordered patterns.
func compileRules(section string, rules []rawRule) ([]patterns.Pattern, error) {
	result := make([]patterns.Pattern, 0, len(rules))
	for i, r := range rules {
		if r.Pattern == "" {
			logger.Debug("skipping rule without pattern", "section", section, "index", i)
			continue
		}
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", section, i)
		}
		p, err := patterns.Compile(r.Pattern, r.Exclude, name, r.Reason)
		if err != nil {
			return nil, fmt.Errorf("%s rule %q: %w", section, name, err)
		}
		result = append(result, p)
	}
	return result, nil
}

// LoadConfig loads the config from TOML data and returns a Config.
// Relative paths are resolved against dir.
func LoadConfig(data []byte, dir string) (*Config, error) {
	var raw rawConfig
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg := &Config{
		HistoryLimit:  raw.Session.HistoryLimit,
		AuditMaxBytes: raw.Audit.MaxBytes,
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}

	var err error
	if cfg.CommandPatterns, err = compileRules("deny.command", raw.Deny.Command); err != nil {
		return nil, err
	}
	if cfg.PathPatterns, err = compileRules("deny.path", raw.Deny.Path); err != nil {
		return nil, err
	}
	if cfg.PromptPatterns, err = compileRules("prompt.block", raw.Prompt.Block); err != nil {
		return nil, err
	}

	cfg.RulesPath = raw.Skills.Rules
	if cfg.RulesPath == "" {
		cfg.RulesPath = constants.RulesFileName
	}
	if !filepath.IsAbs(cfg.RulesPath) && dir != "" {
		cfg.RulesPath = filepath.Join(dir, cfg.RulesPath)
	}

	return cfg, nil
}

// loadEmbeddedDefaults loads patterns from the embedded default config file.
func loadEmbeddedDefaults(dir string) *Config {
	cfg, err := LoadConfig(defaultConfig, dir)
	if err != nil {
		// Only reachable with a broken embedded config.toml.
		logger.Error("embedded default config is invalid", "error", err)
		return &Config{HistoryLimit: DefaultHistoryLimit}
	}
	return cfg
}

// fallback installs the embedded defaults and records why.
func fallback(dir string, err error) error {
	globalConfig = loadEmbeddedDefaults(dir)
	configPath = ""
	configInitialized = true
	initErr = err
	return err
}

// Init loads configuration from files, creating defaults if necessary.
// If loading fails, it falls back to embedded defaults so the built-in
// policy always applies.
func Init() error {
	if configInitialized {
		return nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		logger.Warn("failed to get config dir, using embedded defaults", "error", err)
		return fallback("", err)
	}

	if err := EnsureConfigFiles(configDir); err != nil {
		logger.Warn("failed to ensure config files, using embedded defaults", "error", err)
		return fallback(configDir, err)
	}

	path := filepath.Join(configDir, configFileName())
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && profile != "" {
		logger.Warn("profile config not found, using default config", "profile", profile, "path", path)
		path = filepath.Join(configDir, constants.ConfigFileName)
		data, err = os.ReadFile(path)
	}
	if err != nil {
		logger.Warn("failed to read config file, using embedded defaults", "path", path, "error", err)
		return fallback(configDir, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err))
	}

	cfg, err := LoadConfig(data, configDir)
	if err != nil {
		logger.Warn("failed to parse config, using embedded defaults", "path", path, "error", err)
		return fallback(configDir, fmt.Errorf("failed to load config: %w", err))
	}

	globalConfig = cfg
	configPath = path
	configInitialized = true
	initErr = nil
	logger.Debug("config loaded successfully",
		"path", path,
		"commands", len(cfg.CommandPatterns),
		"paths", len(cfg.PathPatterns),
		"prompts", len(cfg.PromptPatterns))
	return nil
}

// Get returns the current configuration.
// If Init has not been called, it initializes with defaults.
func Get() *Config {
	if !configInitialized {
		Init()
	}
	return globalConfig
}

// InitError returns the error that caused a fallback to embedded defaults, if any.
func InitError() error {
	return initErr
}

// GetConfigPath returns the path the active config was read from.
// Empty when running on embedded defaults.
func GetConfigPath() string {
	return configPath
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	configInitialized = false
	globalConfig = nil
	initErr = nil
	profile = ""
	configPath = ""
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}

// GetDefaultRules returns the embedded starter skill rule source.
func GetDefaultRules() []byte {
	return defaultRules
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete worknote configuration.
type Config struct {
	HuggingFace HuggingFaceConfig `toml:"huggingface"`
	Anthropic   AnthropicConfig   `toml:"anthropic"`
	Chat        ChatConfig        `toml:"chat"`
	Weather     WeatherConfig     `toml:"weather"`
	HTTP        HTTPConfig        `toml:"http"`
	Logging     LoggingConfig     `toml:"logging"`
	Storage     StorageConfig     `toml:"storage"`
	UI          UIConfig          `toml:"ui"`
}

// HuggingFaceConfig configures the HuggingFace router (OpenAI-compatible).
type HuggingFaceConfig struct {
	// Token is the HuggingFace access token sent as a Bearer credential.
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url"`
}

// AnthropicConfig configures the Anthropic Messages API.
type AnthropicConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	// Version is sent as the anthropic-version header.
	Version     string  `toml:"version"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	// SystemPrompt is sent with talk requests; empty omits it.
	SystemPrompt string `toml:"system_prompt"`
}

// ChatConfig configures the token-budget chat session.
type ChatConfig struct {
	// DefaultModel is a short name (deepseek, qwen, llama), display name or id.
	DefaultModel string `toml:"default_model"`
	// MaxTokens is the max_tokens sent with every chat request.
	MaxTokens int `toml:"max_tokens"`
	// ExpectedOutputTokens is the reply size assumed by the token analysis.
	ExpectedOutputTokens int    `toml:"expected_output_tokens"`
	UserName             string `toml:"user_name"`
}

// WeatherConfig configures the weather demo.
type WeatherConfig struct {
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
	// Concurrency bounds parallel city lookups.
	Concurrency int `toml:"concurrency"`
}

// HTTPConfig configures the shared HTTP transport and retry policy.
type HTTPConfig struct {
	TimeoutSecs        int     `toml:"timeout_secs"`
	ConnectTimeoutSecs int     `toml:"connect_timeout_secs"`
	SocketTimeoutSecs  int     `toml:"socket_timeout_secs"`
	MaxRetries         int     `toml:"max_retries"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	Burst              int     `toml:"burst"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// File receives log output. Empty means <data_dir>/worknote.log.
	File string `toml:"file"`
	// Format is console or json.
	Format string `toml:"format"`
}

// StorageConfig configures local state.
type StorageConfig struct {
	// DataDir holds the settings database, logs and REPL history.
	// Empty means the config directory.
	DataDir string `toml:"data_dir"`
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	// MarkdownStyle is a glamour style name or "auto".
	MarkdownStyle string `toml:"markdown_style"`
	ShowForecast  bool   `toml:"show_forecast"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HuggingFace: HuggingFaceConfig{
			BaseURL: "https://router.huggingface.co/v1",
		},
		Anthropic: AnthropicConfig{
			BaseURL:     "https://api.anthropic.com",
			Version:     "2023-06-01",
			Model:       model.DefaultClaudeModel,
			MaxTokens:   1024,
			Temperature: 1.0,
		},
		Chat: ChatConfig{
			DefaultModel:         model.DefaultAiModel.Key(),
			MaxTokens:            1000,
			ExpectedOutputTokens: 1024,
		},
		Weather: WeatherConfig{
			Model:       model.DefaultClaudeModel,
			MaxTokens:   500,
			Concurrency: 3,
		},
		HTTP: HTTPConfig{
			TimeoutSecs:        120,
			ConnectTimeoutSecs: 30,
			SocketTimeoutSecs:  120,
			MaxRetries:         3,
			RequestsPerSecond:  2,
			Burst:              2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			MarkdownStyle: "auto",
			ShowForecast:  true,
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// ChatModel resolves Chat.DefaultModel. Invalid names fall back to the default.
func (c *Config) ChatModel() model.AiModel {
	m, err := model.ParseAiModel(c.Chat.DefaultModel)
	if err != nil {
		return model.DefaultAiModel
	}
	return m
}

// Timeout returns the whole-request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSecs) * time.Second
}

// ConnectTimeout returns the dial timeout.
func (h HTTPConfig) ConnectTimeout() time.Duration {
	return time.Duration(h.ConnectTimeoutSecs) * time.Second
}

// SocketTimeout returns the response-header timeout.
func (h HTTPConfig) SocketTimeout() time.Duration {
	return time.Duration(h.SocketTimeoutSecs) * time.Second
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return expandHome(c.Storage.DataDir)
	}
	return ConfigDir()
}

// LogFile returns the resolved log file path.
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "worknote.log"), nil
}

// SettingsPath returns the settings database path.
func (c *Config) SettingsPath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.db"), nil
}

func expandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
	}
	return p, nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the worknote configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".worknote"), nil
}

// DefaultPath returns the path of the default config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config at path, or the default path when path is empty.
// A missing file is not an error: defaults apply. Dotenv files and
// environment overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath is Load for a file that must exist.
func LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	return Load(path)
}

// LoadTOML decodes the TOML file at path over cfg.
// Unknown keys are rejected so typos surface instead of being ignored.
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
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// SetDefaults fills zero values left by a partial file.
func (c *Config) SetDefaults() {
	d := Default()

	if c.HuggingFace.BaseURL == "" {
		c.HuggingFace.BaseURL = d.HuggingFace.BaseURL
	}
	if c.Anthropic.BaseURL == "" {
		c.Anthropic.BaseURL = d.Anthropic.BaseURL
	}
	if c.Anthropic.Version == "" {
		c.Anthropic.Version = d.Anthropic.Version
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = d.Anthropic.Model
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = d.Anthropic.MaxTokens
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = d.Chat.DefaultModel
	}
	if c.Chat.MaxTokens == 0 {
		c.Chat.MaxTokens = d.Chat.MaxTokens
	}
	if c.Chat.ExpectedOutputTokens == 0 {
		c.Chat.ExpectedOutputTokens = d.Chat.ExpectedOutputTokens
	}
	if c.Weather.Model == "" {
		c.Weather.Model = d.Weather.Model
	}
	if c.Weather.MaxTokens == 0 {
		c.Weather.MaxTokens = d.Weather.MaxTokens
	}
	if c.Weather.Concurrency == 0 {
		c.Weather.Concurrency = d.Weather.Concurrency
	}
	if c.HTTP.TimeoutSecs == 0 {
		c.HTTP.TimeoutSecs = d.HTTP.TimeoutSecs
	}
	if c.HTTP.ConnectTimeoutSecs == 0 {
		c.HTTP.ConnectTimeoutSecs = d.HTTP.ConnectTimeoutSecs
	}
	if c.HTTP.SocketTimeoutSecs == 0 {
		c.HTTP.SocketTimeoutSecs = d.HTTP.SocketTimeoutSecs
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = d.HTTP.Burst
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.UI.MarkdownStyle == "" {
		c.UI.MarkdownStyle = d.UI.MarkdownStyle
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to path with 0600 permissions, since the file may
// hold API keys.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# worknote configuration file\n")
	buf.WriteString("# API keys may also come from HF_TOKEN and ANTHROPIC_API_KEY.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidationErrors when any
// field is invalid.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for field, raw := range map[string]string{
		"huggingface.base_url": c.HuggingFace.BaseURL,
		"anthropic.base_url":   c.Anthropic.BaseURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			add(field, "invalid URL %q", raw)
		}
	}

	if _, err := model.ParseAiModel(c.Chat.DefaultModel); err != nil {
		add("chat.default_model", "%v", err)
	}
	if c.Chat.MaxTokens < 1 {
		add("chat.max_tokens", "must be positive, got %d", c.Chat.MaxTokens)
	}
	if c.Chat.ExpectedOutputTokens < 0 {
		add("chat.expected_output_tokens", "must not be negative, got %d", c.Chat.ExpectedOutputTokens)
	}
	if c.Anthropic.MaxTokens < 1 {
		add("anthropic.max_tokens", "must be positive, got %d", c.Anthropic.MaxTokens)
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		add("anthropic.temperature", "must be within [0, 1], got %v", c.Anthropic.Temperature)
	}
	if c.Weather.MaxTokens < 1 {
		add("weather.max_tokens", "must be positive, got %d", c.Weather.MaxTokens)
	}
	if c.Weather.Concurrency < 1 || c.Weather.Concurrency > 16 {
		add("weather.concurrency", "must be within [1, 16], got %d", c.Weather.Concurrency)
	}
	if c.HTTP.TimeoutSecs < 1 {
		add("http.timeout_secs", "must be positive, got %d", c.HTTP.TimeoutSecs)
	}
	if c.HTTP.ConnectTimeoutSecs < 1 {
		add("http.connect_timeout_secs", "must be positive, got %d", c.HTTP.ConnectTimeoutSecs)
	}
	if c.HTTP.MaxRetries < 0 {
		add("http.max_retries", "must not be negative, got %d", c.HTTP.MaxRetries)
	}
	if c.HTTP.RequestsPerSecond < 0 {
		add("http.requests_per_second", "must not be negative, got %v", c.HTTP.RequestsPerSecond)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		add("logging.format", "must be console or json; got %q", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - HF_TOKEN, HUGGINGFACE_API_KEY: huggingface.token (HF_TOKEN wins)
//   - ANTHROPIC_API_KEY: anthropic.api_key
//   - WORKNOTE_MODEL: chat.default_model
//   - WORKNOTE_LOG_LEVEL: logging.level
//   - WORKNOTE_DATA_DIR: storage.data_dir
//   - WORKNOTE_RPS: http.requests_per_second
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("HUGGINGFACE_API_KEY"); key != "" {
		c.HuggingFace.Token = key
	}
	if key := os.Getenv("HF_TOKEN"); key != "" {
		c.HuggingFace.Token = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Anthropic.APIKey = key
	}
	if m := os.Getenv("WORKNOTE_MODEL"); m != "" {
		c.Chat.DefaultModel = m
	}
	if level := os.Getenv("WORKNOTE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("WORKNOTE_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if rps := os.Getenv("WORKNOTE_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			c.HTTP.RequestsPerSecond = v
		}
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Redacted returns a copy with secrets replaced, safe to print or log.
func (c *Config) Redacted() *Config {
	out := *c
	out.HuggingFace.Token = redact(c.HuggingFace.Token)
	out.Anthropic.APIKey = redact(c.Anthropic.APIKey)
	return &out
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}

// String renders the redacted config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

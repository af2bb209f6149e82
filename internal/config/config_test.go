// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

// isolate points HOME at a temp dir and clears every override variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range []string{
		"HF_TOKEN", "HUGGINGFACE_API_KEY", "ANTHROPIC_API_KEY",
		"WORKNOTE_MODEL", "WORKNOTE_LOG_LEVEL", "WORKNOTE_DATA_DIR", "WORKNOTE_RPS",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.DeepSeek, cfg.ChatModel())
	assert.Equal(t, 1000, cfg.Chat.MaxTokens)
	assert.Equal(t, 120*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 30*time.Second, cfg.HTTP.ConnectTimeout())
	assert.Equal(t, 120*time.Second, cfg.HTTP.SocketTimeout())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Anthropic.BaseURL, cfg.Anthropic.BaseURL)
	assert.Empty(t, cfg.HuggingFace.Token)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[chat]
default_model = "qwen"
user_name = "Ivan"

[logging]
level = "debug"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.Qwen, cfg.ChatModel())
	assert.Equal(t, "Ivan", cfg.Chat.UserName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1000, cfg.Chat.MaxTokens)
	assert.Equal(t, "2023-06-01", cfg.Anthropic.Version)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\ndefault_modle = \"qwen\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.default_modle")
}

func TestLoad_InvalidValues(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[chat]
default_model = "gpt-9"

[logging]
level = "loud"
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"chat.default_model", "logging.level"}, fields)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("HUGGINGFACE_API_KEY", "hf_legacy")
	t.Setenv("HF_TOKEN", "hf_token")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("WORKNOTE_MODEL", "llama")
	t.Setenv("WORKNOTE_RPS", "5.5")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "hf_token", cfg.HuggingFace.Token)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)
	assert.Equal(t, model.Llama, cfg.ChatModel())
	assert.InDelta(t, 5.5, cfg.HTTP.RequestsPerSecond, 1e-9)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WORKNOTE_TEST_A=from_file\nWORKNOTE_TEST_B=from_file\n"), 0o600))

	t.Setenv("WORKNOTE_TEST_A", "from_env")
	t.Setenv("WORKNOTE_TEST_B", "")
	os.Unsetenv("WORKNOTE_TEST_B")

	require.NoError(t, loadDotEnvFiles(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from_env", os.Getenv("WORKNOTE_TEST_A"))
	assert.Equal(t, "from_file", os.Getenv("WORKNOTE_TEST_B"))
}

func TestSave_RoundTripAndPermissions(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "nested", "config.toml")

	cfg := Default()
	cfg.Chat.UserName = "Анна"
	cfg.Anthropic.APIKey = "sk-ant-secret"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := Default()
	require.NoError(t, LoadTOML(loaded, path))
	assert.Equal(t, "Анна", loaded.Chat.UserName)
	assert.Equal(t, "sk-ant-secret", loaded.Anthropic.APIKey)
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.HuggingFace.Token = "hf_very_secret"
	cfg.Anthropic.APIKey = "sk-ant-very-secret"

	out := cfg.String()
	assert.NotContains(t, out, "very_secret")
	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "hf_very_secret", cfg.HuggingFace.Token, "original must be untouched")
}

func TestPaths_RespectDataDir(t *testing.T) {
	home := isolate(t)

	cfg := Default()
	dir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".worknote"), dir)

	cfg.Storage.DataDir = "~/data"
	logFile, err := cfg.LogFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "worknote.log"), logFile)

	db, err := cfg.SettingsPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "settings.db"), db)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\nuser_name = \"first\"\n"), 0o600))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte("[chat]\nuser_name = \"second\"\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "second", cfg.Chat.UserName)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
	require.NoError(t, w.Close())
}

func TestLoadFromPath_RequiresFile(t *testing.T) {
	home := isolate(t)
	_, err := LoadFromPath(filepath.Join(home, "missing.toml"))
	require.Error(t, err)

	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\ndefault_model = \"qwen\"\n"), 0o600))
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen", cfg.Chat.DefaultModel)
}

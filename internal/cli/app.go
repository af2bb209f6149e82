// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/config"
	"github.com/macdroidapps/WorknoteChallenge/internal/logging"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/storage"
)

// app carries what every command needs: the loaded config, a logger and
// the standard streams.
type app struct {
	// flags
	configPath string
	verbose    bool
	modelName  string

	cfg    *config.Config
	logger *zap.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	settings *storage.Settings
}

func newApp() *app {
	return &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: zap.NewNop(),
	}
}

// init loads config and builds the logger. The TUI logs to the file only;
// line-mode commands also log warnings to stderr in verbose mode.
func (a *app) init(interactiveUI bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if file, err := cfg.LogFile(); err == nil {
		opts.File = file
	}
	if a.verbose {
		opts.Level = "debug"
		opts.Stderr = !interactiveUI
	}
	logger, err := logging.New(opts)
	if err != nil {
		return &CommandError{Command: "logging", Reason: "cannot initialise logger", Err: err}
	}
	a.logger = logger
	return nil
}

// close releases resources opened during the command.
func (a *app) close() {
	if a.settings != nil {
		a.settings.Close()
		a.settings = nil
	}
	_ = a.logger.Sync()
}

// chatModel resolves --model, falling back to the configured default.
func (a *app) chatModel() (model.AiModel, error) {
	if a.modelName == "" {
		return a.cfg.ChatModel(), nil
	}
	m, err := model.ParseAiModel(a.modelName)
	if err != nil {
		return m, usageErrorf("%v (choose one of: deepseek, qwen, llama)", err)
	}
	return m, nil
}

// hfClient builds the HuggingFace router client from config.
func (a *app) hfClient(command string) (*cloud.HFClient, error) {
	hf := a.cfg.HuggingFace
	if hf.Token == "" {
		return nil, errMissingKey(command, "HuggingFace", "HF_TOKEN")
	}
	c := cloud.NewHFClient(hf.Token).
		WithHTTPOptions(cloud.HTTPOptionsFromConfig(a.cfg.HTTP)).
		WithLogger(a.logger)
	if hf.BaseURL != "" {
		c = c.WithBaseURL(hf.BaseURL)
	}
	return c, nil
}

// claudeClient builds the Anthropic client from config.
func (a *app) claudeClient(command string) (*cloud.ClaudeClient, error) {
	ac := a.cfg.Anthropic
	if ac.APIKey == "" {
		return nil, errMissingKey(command, "Anthropic", "ANTHROPIC_API_KEY")
	}
	c := cloud.NewClaudeClient(ac.APIKey).
		WithVersion(ac.Version).
		WithModel(ac.Model).
		WithMaxTokens(ac.MaxTokens).
		WithTemperature(ac.Temperature).
		WithHTTPOptions(cloud.HTTPOptionsFromConfig(a.cfg.HTTP)).
		WithLogger(a.logger)
	if ac.BaseURL != "" {
		c = c.WithBaseURL(ac.BaseURL)
	}
	return c, nil
}

// openSettings opens the settings store once per command.
func (a *app) openSettings() (*storage.Settings, error) {
	if a.settings != nil {
		return a.settings, nil
	}
	path, err := a.cfg.SettingsPath()
	if err != nil {
		return nil, err
	}
	s, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	a.settings = s.WithLogger(a.logger)
	return a.settings, nil
}

// userName returns the saved login, or the configured name.
func (a *app) userName(ctx context.Context) string {
	if s, err := a.openSettings(); err == nil {
		if login, err := s.UserLogin(ctx); err == nil {
			return login
		}
	}
	return a.cfg.Chat.UserName
}

// sessionConfig returns the session settings shared by chat, ask and the TUI.
func (a *app) sessionConfig(ctx context.Context, m model.AiModel) session.Config {
	return session.Config{
		Model:                m,
		MaxTokens:            a.cfg.Chat.MaxTokens,
		ExpectedOutputTokens: a.cfg.Chat.ExpectedOutputTokens,
		UserName:             a.userName(ctx),
		Logger:               a.logger.Named("session"),
	}
}

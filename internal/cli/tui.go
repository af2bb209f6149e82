// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen chat interface.
//
// Command: tui (also the default when no command is given)
// Short:   Start the interactive chat interface
//
// Keys:
//   Enter        Send the message
//   Tab, Ctrl+N  Switch to the next model
//   Ctrl+T       Toggle the test case panel (1-5 send a case)
//   Ctrl+L       Clear the conversation
//   F1           Toggle help
//   Ctrl+C       Quit

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/config"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/chat"
)

func newTUICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Start the interactive chat interface",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"tui": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
}

// runTUI runs the bubbletea chat screen until the user quits.
func (a *app) runTUI(ctx context.Context) error {
	if err := RequiresTTY(); err != nil {
		return err
	}
	m, err := a.chatModel()
	if err != nil {
		return err
	}
	client, err := a.hfClient("tui")
	if err != nil {
		return err
	}

	screen := chat.New(ctx, client, a.sessionConfig(ctx, m), chat.Options{
		MarkdownStyle: a.cfg.UI.MarkdownStyle,
		ShowForecast:  a.cfg.UI.ShowForecast,
	})
	defer screen.Close()

	a.logger.Info("starting tui",
		zap.String("session", screen.Session().ID()),
		zap.String("model", m.Key()))

	p := tea.NewProgram(screen, tea.WithAltScreen(), tea.WithContext(ctx))
	if w := a.watchConfig(ctx, p); w != nil {
		defer w.Close()
	}

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// watchConfig forwards [ui] changes in the config file to the running
// screen. A missing config directory disables watching and returns nil.
func (a *app) watchConfig(ctx context.Context, p *tea.Program) *config.Watcher {
	path, err := a.resolvedConfigPath()
	if err != nil {
		return nil
	}
	w, err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			a.logger.Warn("config reload failed", zap.Error(err))
			p.Send(chat.SettingsMsg{Err: err})
			return
		}
		a.logger.Info("config reloaded", zap.String("path", path))
		p.Send(chat.SettingsMsg{
			MarkdownStyle: cfg.UI.MarkdownStyle,
			ShowForecast:  cfg.UI.ShowForecast,
		})
	})
	if err != nil {
		a.logger.Debug("config watch disabled", zap.Error(err))
		return nil
	}
	return w
}

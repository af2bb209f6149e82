// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line of the chat screen.
type StatusBar struct {
	Model        model.AiModel
	Stats        session.Stats
	LastResponse *session.Response
	Loading      bool
	// Spinner is the rendered spinner frame shown while Loading.
	Spinner string
	Width   int
	theme   *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// View renders the bar. Narrow terminals drop the last reply metrics.
func (s *StatusBar) View() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	modelStyle := lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)

	parts := []string{modelStyle.Render(s.Model.DisplayName())}

	if s.Loading {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Purple).Render(s.Spinner+" waiting"))
	}

	if s.Stats.Empty() {
		parts = append(parts, "no messages")
	} else {
		parts = append(parts,
			"sent "+tokens.FormatCount(s.Stats.Messages),
			"in "+s.Stats.FormatInput()+" out "+s.Stats.FormatOutput(),
			s.Stats.FormatCost())
	}

	if s.LastResponse != nil && s.Width >= 80 {
		r := s.LastResponse
		parts = append(parts, "last "+tokens.FormatResponseTime(r.Elapsed)+
			" "+tokens.FormatCount(r.TotalTokens)+" tok "+tokens.FormatCost(r.Cost))
	}

	style := s.theme.StatusBar
	if s.Width > 0 {
		style = style.Width(s.Width).MaxWidth(s.Width)
	}
	return style.Render(strings.Join(parts, sep))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
)

// =============================================================================
// TOKEN PANEL
// =============================================================================

// TokenPanel shows the analysis of the message being typed.
type TokenPanel struct {
	Analysis     *tokens.Analysis
	ShowForecast bool
	Width        int
	theme        *styles.Theme
}

// NewTokenPanel creates a token panel.
func NewTokenPanel(theme *styles.Theme) *TokenPanel {
	return &TokenPanel{ShowForecast: true, Width: 80, theme: theme}
}

// Visible reports whether there is an analysis to show.
func (p *TokenPanel) Visible() bool {
	return p.Analysis != nil
}

// View renders the panel, or "" when there is no analysis.
func (p *TokenPanel) View() string {
	if p.Analysis == nil {
		return ""
	}
	a := *p.Analysis
	t := p.theme

	usage := lipgloss.NewStyle().Foreground(styles.UsageColor(a.UsageLevel))
	pct := tokens.Percent(a.EstimatedInputTokens, a.MaxInputTokens)

	lines := []string{
		t.PanelTitle.Render("Token analysis") + "  " + usage.Render(a.UsageLevel.String()),
		fmt.Sprintf("%s %s / %s %s",
			t.PanelLabel.Render("input"),
			usage.Render(tokens.FormatCount(a.EstimatedInputTokens)),
			tokens.FormatCount(a.MaxInputTokens),
			RenderBar(pct, p.barWidth(), styles.UsageColor(a.UsageLevel))),
		fmt.Sprintf("%s %s   %s %s / %s   %s %s",
			t.PanelLabel.Render("output"), tokens.FormatCount(a.EstimatedOutputTokens),
			t.PanelLabel.Render("total"), tokens.FormatCount(a.EstimatedTotalTokens),
			tokens.FormatCount(a.MaxTotalTokens),
			t.PanelLabel.Render("cost"), tokens.FormatCost(a.EstimatedCost)),
	}

	if p.ShowForecast {
		f := tokens.NewForecast(a)
		status := lipgloss.NewStyle().Foreground(styles.StatusColor(f.Status))
		lines = append(lines, fmt.Sprintf("%s %s (%s)   %s %s   %s %s",
			t.PanelLabel.Render("time"), tokens.FormatResponseTime(f.ResponseTime), f.Speed,
			t.PanelLabel.Render("quality"), f.Quality,
			t.PanelLabel.Render("limit"), status.Render(f.Status.String())))
	}

	if a.HasWarning() {
		lines = append(lines, t.Warning.Render(styles.StatusIndicators.Warning+" "+a.Warning))
	}

	panel := t.Panel
	if p.Width > 4 {
		panel = panel.Width(p.Width - 2)
	}
	return panel.Render(strings.Join(lines, "\n"))
}

func (p *TokenPanel) barWidth() int {
	switch {
	case p.Width >= 100:
		return 30
	case p.Width >= 60:
		return 20
	default:
		return 10
	}
}

// RenderBar renders a [####----] usage bar for pct in [0, 100].
func RenderBar(pct float64, width int, color lipgloss.TerminalColor) string {
	if width <= 0 {
		return ""
	}
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Overlay)
	return "[" + filledStyle.Render(strings.Repeat("#", filled)) +
		emptyStyle.Render(strings.Repeat("-", width-filled)) + "]"
}

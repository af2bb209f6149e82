// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macdroidapps/WorknoteChallenge/internal/benchmark"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
	"github.com/macdroidapps/WorknoteChallenge/internal/util"
)

// TestPanel lists the built-in test cases with their estimate for the
// current model. Number keys 1-5 send a case.
type TestPanel struct {
	Model model.AiModel
	Width int
	theme *styles.Theme
}

// NewTestPanel creates a test panel.
func NewTestPanel(theme *styles.Theme) *TestPanel {
	return &TestPanel{Width: 80, theme: theme}
}

// Case returns the test case bound to key ("1".."5").
func (p *TestPanel) Case(key string) (benchmark.TestCase, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return benchmark.TestCase{}, false
	}
	return benchmark.Lookup(key)
}

// View renders the panel.
func (p *TestPanel) View() string {
	t := p.theme
	limits := p.Model.Limits()

	lines := []string{t.PanelTitle.Render("Test cases") + "  " + t.Muted.Render("press 1-5 to send")}
	for i, tc := range benchmark.All() {
		est := tc.EstimatedTokens()
		color := styles.UsageColor(tokens.Usage(est, limits.MaxInputTokens))
		count := lipgloss.NewStyle().Foreground(color).Render("~" + tokens.FormatCount(est))
		lines = append(lines, fmt.Sprintf("%d  %s %s  %s",
			i+1, util.PadWidth(tc.DisplayName, 22), count, t.Muted.Render(tc.Description)))
	}

	panel := t.Panel
	if p.Width > 4 {
		panel = panel.Width(p.Width - 2)
	}
	return panel.Render(strings.Join(lines, "\n"))
}

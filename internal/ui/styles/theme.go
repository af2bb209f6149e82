// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat screen.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	UserLabel      lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantBody  lipgloss.Style
	Metrics        lipgloss.Style

	Panel      lipgloss.Style
	PanelTitle lipgloss.Style
	PanelLabel lipgloss.Style
	Warning    lipgloss.Style
	Error      lipgloss.Style

	InputBorder lipgloss.Style
	StatusBar   lipgloss.Style
	Help        lipgloss.Style
	Muted       lipgloss.Style
}

// NewTheme detects the terminal and builds the theme.
func NewTheme() *Theme {
	return newTheme(termenv.ColorProfile(), termenv.HasDarkBackground())
}

func newTheme(profile termenv.Profile, dark bool) *Theme {
	t := &Theme{IsDark: dark, ColorProfile: profile}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.AssistantBody = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder)
	t.Metrics = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.PanelTitle = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)
	t.PanelLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Warning = lipgloss.NewStyle().
		Foreground(Amber)
	t.Error = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan)
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
	return t
}

// MarkdownStyle maps the [ui] markdown_style setting to a glamour style.
// "auto" picks dark or light from the terminal background.
func MarkdownStyle(setting string) string {
	switch s := strings.ToLower(setting); s {
	case "dark", "light", "notty", "ascii", "dracula", "pink":
		return s
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/components"
)

const welcomeText = "Type a message and press Enter.\n" +
	"Tab switches the model, Ctrl+T shows the token test cases."

// View renders the screen.
func (m Model) View() string {
	parts := []string{m.renderHeader(), m.vp.View()}
	parts = append(parts, m.panels()...)
	parts = append(parts, m.renderInput(), m.statusBar.View(), m.renderHelp())
	if t := m.toasts.Toasts(); len(t) > 0 {
		parts = append(parts, components.RenderToastStack(t, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// panels returns the optional panels between the viewport and the input.
func (m Model) panels() []string {
	var out []string
	if m.st.ShowTestPanel {
		out = append(out, m.testPanel.View())
	}
	if m.tokenPanel.Visible() {
		out = append(out, m.tokenPanel.View())
	}
	return out
}

func (m Model) renderHeader() string {
	t := m.theme
	meta := m.st.Model.DisplayName() + " · " + tokens.FormatCount(m.st.Model.Limits().MaxInputTokens) + " ctx"
	if m.st.UserName != "" {
		meta += " · " + m.st.UserName
	}
	line := t.HeaderTitle.Render(m.title) + "  " + t.HeaderMeta.Render(meta)
	return t.Header.Width(m.width).MaxWidth(m.width).Render(line)
}

func (m Model) renderInput() string {
	style := m.theme.InputBorder
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(m.input.View())
}

func (m Model) renderHelp() string {
	m.help.Width = m.width
	return m.theme.Help.Render(m.help.View(m.keys))
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout gives the viewport whatever height the other parts leave.
func (m *Model) layout() {
	fixed := []string{m.renderHeader(), m.renderInput(), m.statusBar.View(), m.renderHelp()}
	fixed = append(fixed, m.panels()...)
	if t := m.toasts.Toasts(); len(t) > 0 {
		fixed = append(fixed, components.RenderToastStack(t, m.width))
	}

	used := 0
	for _, s := range fixed {
		used += lipgloss.Height(s)
	}
	m.vp.Height = max(m.height-used, 1)
	m.vp.Width = m.width
}

// refreshMessages re-renders the history into the viewport and scrolls to
// the newest entry. Entries whose source is unchanged come from the cache.
func (m *Model) refreshMessages() {
	msgs := m.st.Messages
	if len(msgs) == 0 {
		m.rendered = nil
		m.vp.SetContent(m.theme.Muted.Render(welcomeText))
		m.vp.GotoTop()
		return
	}

	var md components.MarkdownRenderer
	if r := m.markdown(); r != nil {
		md = r
	}

	cache := make([]renderedMessage, len(msgs))
	blocks := make([]string, len(msgs))
	for i, msg := range msgs {
		if i < len(m.rendered) && m.rendered[i].src == msg {
			cache[i] = m.rendered[i]
		} else {
			cache[i] = renderedMessage{
				src: msg,
				out: components.RenderMessage(m.theme, msg, m.st.UserName, md, m.width),
			}
		}
		blocks[i] = cache[i].out
	}
	m.rendered = cache

	m.vp.SetContent(strings.Join(blocks, "\n\n"))
	m.vp.GotoBottom()
}

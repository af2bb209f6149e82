// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/components"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
)

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateChangedMsg:
		cmd := m.applyState()
		return m, tea.Batch(cmd, m.bridge.waitForChange())

	case effectMsg:
		m.handleEffect(msg.effect)
		m.layout()
		return m, m.bridge.waitForEffect()

	case SettingsMsg:
		m.applySettings(msg)
		return m, nil

	case components.ToastTickMsg:
		before := m.toasts.Len()
		if m.toasts.Tick(); m.toasts.Len() != before {
			m.layout()
		}
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.st.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.Spinner = m.spinner.View()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.input.Width = max(msg.Width-6, 10)
	m.vp.Width = msg.Width

	// Replies are re-wrapped for the new width.
	m.md = nil
	m.rendered = nil

	m.syncComponents()
	m.refreshMessages()
	m.layout()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.bridge.close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.toasts.Len() > 0 {
			m.toasts.Dismiss()
		} else {
			m.showHelp = false
			m.help.ShowAll = false
		}
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit(m.input.Value())

	case key.Matches(msg, m.keys.CycleModel):
		return m.dispatch(session.EventSelectModel{Model: m.st.Model.Next()})

	case key.Matches(msg, m.keys.TestPanel):
		return m.dispatch(session.EventToggleTestPanel{})

	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		m.lastWarning = ""
		return m.dispatch(session.EventClearChat{})

	case key.Matches(msg, m.keys.PageUp):
		m.vp.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.vp.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.RunCase) && m.st.ShowTestPanel && m.input.Value() == "":
		tc, ok := m.testPanel.Case(msg.String())
		if !ok {
			return m, nil
		}
		m.logger.Debug("sending test case", zap.String("case", tc.Key))
		return m.dispatch(session.EventSendTestCase{Message: tc.Message})
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.sess.UpdateCurrentMessage(after)
		m.applyState()
	}
	return m, cmd
}

// submit sends text. Blank input is ignored; a reply still in flight is
// cancelled by the session.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if m.st.Loading {
		m.logger.Debug("superseding in-flight request")
	}
	m.input.Reset()
	return m.dispatch(session.EventSend{Text: text})
}

// dispatch applies ev to the session and refreshes the view from the
// resulting snapshot.
func (m Model) dispatch(ev session.Event) (tea.Model, tea.Cmd) {
	m.sess.Dispatch(m.ctx, ev)
	return m, m.applyState()
}

func (m *Model) handleEffect(e session.Effect) {
	switch e.Kind {
	case session.EffectShowError:
		m.toasts.AddError(e.Message)
	case session.EffectTokenWarning:
		if e.Message != m.lastWarning {
			m.toasts.AddWarning(e.Message)
			m.lastWarning = e.Message
		}
	}
}

func (m *Model) applySettings(msg SettingsMsg) {
	if msg.Err != nil {
		m.toasts.AddError("Config reload failed: " + msg.Err.Error())
		m.layout()
		return
	}
	m.tokenPanel.ShowForecast = msg.ShowForecast
	if style := styles.MarkdownStyle(msg.MarkdownStyle); style != m.mdStyle {
		m.mdStyle = style
		m.md = nil
		m.rendered = nil
		m.refreshMessages()
	}
	m.toasts.AddStatus("Settings reloaded")
	m.layout()
}

// applyState pulls the latest snapshot. Snapshots older than the applied
// one are ignored. It returns the spinner command when loading starts.
func (m *Model) applyState() tea.Cmd {
	st := m.sess.State()
	if st.Version < m.st.Version {
		return nil
	}
	wasLoading := m.st.Loading
	historyChanged := !slices.Equal(st.Messages, m.st.Messages)
	m.st = st

	m.syncComponents()
	if historyChanged {
		m.refreshMessages()
	}
	m.layout()

	if st.Loading && !wasLoading {
		return m.spinner.Tick
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive chat screen of the worknote TUI.

The screen is a Bubble Tea model driving a session.Session. Session
callbacks run on arbitrary goroutines, so they are bridged into the program
through channels: OnChange wakes a listener command that re-reads the
session snapshot, and OnEffect queues one-shot effects that become toasts.

# Layout

From top to bottom:

  - header with the selected model and user name
  - message viewport (assistant replies rendered with glamour)
  - test-case panel (ctrl+t)
  - token panel with the live analysis of the draft
  - input line
  - status bar with session totals and the last reply
  - key help and toasts

# Usage

	m := chat.New(ctx, sender, cfg, chat.Options{MarkdownStyle: "auto"})
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat

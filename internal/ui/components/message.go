// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
)

// MarkdownRenderer renders assistant replies.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

// RenderMessage renders one conversation entry. Assistant content goes
// through md when it is non-nil; user content is shown as typed.
func RenderMessage(theme *styles.Theme, msg model.Message, userName string, md MarkdownRenderer, width int) string {
	if msg.IsUser() {
		label := userName
		if label == "" {
			label = msg.Role.DisplayName()
		}
		bubble := theme.UserBubble
		if width > 4 {
			bubble = bubble.Width(width - 2)
		}
		return theme.UserLabel.Render(label) + "\n" + bubble.Render(msg.Content)
	}

	body := msg.Content
	if md != nil {
		if out, err := md.Render(msg.Content); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	return theme.AssistantLabel.Render(msg.Role.DisplayName()) + "\n" + theme.AssistantBody.Render(body)
}

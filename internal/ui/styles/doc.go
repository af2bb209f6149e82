// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the worknote TUI.

# Colors (colors.go)

All colors are Lip Gloss AdaptiveColor values, so the palette follows the
terminal's light or dark background:

  - Cyan - brand and user messages
  - Purple - assistant messages
  - Emerald, Amber, Orange, Rose - usage levels from low to critical

UsageColor and StatusColor map token analysis results onto the palette.

# Theme (theme.go)

Theme bundles the lipgloss styles of the chat screen. MarkdownStyle resolves
the configured glamour style, detecting the background for "auto".
*/
package styles

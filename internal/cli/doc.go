// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the worknote command tree.
//
// Commands are built with cobra. The root command starts the full-screen
// chat interface; the others work line by line and can be scripted.
//
// # Commands
//
//   - tui: full-screen chat (default)
//   - chat: line-mode chat with the HuggingFace router
//   - talk: line-mode chat with Claude
//   - ask: one question, optional JSON output
//   - analyze: token analysis without sending
//   - testcases: the built-in token test cases, optionally sent as a benchmark
//   - weather: city weather through Claude as structured JSON
//   - login, device: saved user name and device id
//   - config, version
//
// Exit codes follow ExitCodeFor: usage errors exit 2, configuration errors
// and missing API keys 3, rejected credentials 4, API failures 5 and
// interrupts 130.
package cli

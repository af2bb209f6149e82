// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package weather asks Claude for the weather in a city and parses the
// structured reply.
//
// The model is instructed to answer with a bare JSON object
// {"city": "...", "temperature": 12}. Replies wrapped in Markdown code fences
// are tolerated.
package weather

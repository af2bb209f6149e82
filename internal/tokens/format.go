// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import (
	"math"
	"strconv"
)

// ============================================================================
// DISPLAY FORMATTING
// ============================================================================

// FormatCount renders a token count compactly: 999, 2K, 1M.
// Thousands and millions are truncated, never rounded.
func FormatCount(n int) string {
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 1_000_000:
		return strconv.Itoa(n/1000) + "K"
	default:
		return strconv.Itoa(n/1_000_000) + "M"
	}
}

// FormatCost renders a cost for display.
//
// Sub-cent costs get four decimals and a "¢" suffix, costs below one get two
// decimals and "¢", anything larger is shown as "$" with two decimals.
func FormatCost(cost float64) string {
	switch {
	case cost < 0.01:
		return formatDecimal(cost, 4) + "¢"
	case cost < 1.0:
		return formatDecimal(cost, 2) + "¢"
	default:
		return "$" + formatDecimal(cost, 2)
	}
}

// formatDecimal rounds half to even at the given precision and renders
// without grouping separators.
func formatDecimal(v float64, decimals int) string {
	m := math.Pow10(decimals)
	rounded := math.RoundToEven(v*m) / m
	return strconv.FormatFloat(rounded, 'f', decimals, 64)
}

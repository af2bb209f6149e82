// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import (
	"fmt"
	"strings"
)

// ============================================================================
// TOKEN ESTIMATION
// ============================================================================

const (
	// cyrillicFirst and cyrillicLast bound the basic Cyrillic block.
	cyrillicFirst = 0x0400
	cyrillicLast  = 0x04FF

	// MessageOverhead is the per-message cost of role, content and separators.
	MessageOverhead = 4

	// DefaultExpectedOutputTokens is the assumed reply size before a call completes.
	DefaultExpectedOutputTokens = 1024
)

// Estimate approximates the number of tokens in text.
//
// Latin and other characters cost one token per four characters, Cyrillic one
// token per two and a half. Any non-empty text costs at least one token.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	var latin, cyrillic int
	for _, r := range text {
		if r >= cyrillicFirst && r <= cyrillicLast {
			cyrillic++
		} else {
			latin++
		}
	}

	// Multiply first: cyrillic/2.5 must truncate exactly like cyrillic*10/25.
	n := latin/4 + (cyrillic*10)/25
	if n < 1 {
		return 1
	}
	return n
}

// EstimateMessages sums Estimate over messages and adds MessageOverhead per message.
func EstimateMessages(messages []string) int {
	total := 0
	for _, m := range messages {
		total += Estimate(m)
	}
	return total + len(messages)*MessageOverhead
}

// WithinLimit reports whether text fits in maxTokens.
func WithinLimit(text string, maxTokens int) bool {
	return Estimate(text) <= maxTokens
}

// EstimateCost returns the price of a request given per-token rates.
func EstimateCost(inputTokens, outputTokens int, costPerInput, costPerOutput float64) float64 {
	return float64(inputTokens)*costPerInput + float64(outputTokens)*costPerOutput
}

// ============================================================================
// USAGE LEVEL
// ============================================================================

// UsageLevel classifies how close a request is to a model's input ceiling.
// Ordered: UsageLow < UsageMedium < UsageHigh < UsageCritical.
type UsageLevel int

const (
	// UsageLow is below 50% of the ceiling.
	UsageLow UsageLevel = iota
	// UsageMedium is 50% up to 75%.
	UsageMedium
	// UsageHigh is 75% up to 90%.
	UsageHigh
	// UsageCritical is 90% and above.
	UsageCritical
)

// String returns the upper-case name of the level.
func (l UsageLevel) String() string {
	switch l {
	case UsageLow:
		return "LOW"
	case UsageMedium:
		return "MEDIUM"
	case UsageHigh:
		return "HIGH"
	case UsageCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the level by name for JSON and YAML output.
func (l UsageLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level written by MarshalText. Names are
// case-insensitive.
func (l *UsageLevel) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "LOW":
		*l = UsageLow
	case "MEDIUM":
		*l = UsageMedium
	case "HIGH":
		*l = UsageHigh
	case "CRITICAL":
		*l = UsageCritical
	default:
		return fmt.Errorf("unknown usage level %q", string(text))
	}
	return nil
}

// Percent returns current as a percentage of max.
// A non-positive max counts as fully used.
func Percent(current, max int) float64 {
	if max <= 0 {
		return 100
	}
	return float64(current) / float64(max) * 100
}

// Usage returns the usage level of current against max.
func Usage(current, max int) UsageLevel {
	pct := Percent(current, max)
	switch {
	case pct < 50:
		return UsageLow
	case pct < 75:
		return UsageMedium
	case pct < 90:
		return UsageHigh
	default:
		return UsageCritical
	}
}

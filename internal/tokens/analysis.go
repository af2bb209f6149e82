// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import "fmt"

// ============================================================================
// LIMITS
// ============================================================================

// Limits holds a model's token ceilings and per-token prices.
type Limits struct {
	MaxInputTokens  int     `json:"max_input_tokens" yaml:"max_input_tokens"`
	MaxOutputTokens int     `json:"max_output_tokens" yaml:"max_output_tokens"`
	MaxTotalTokens  int     `json:"max_total_tokens" yaml:"max_total_tokens"`
	CostPerInput    float64 `json:"cost_per_input_token" yaml:"cost_per_input_token"`
	CostPerOutput   float64 `json:"cost_per_output_token" yaml:"cost_per_output_token"`
}

// Cost prices a request against these limits.
func (l Limits) Cost(inputTokens, outputTokens int) float64 {
	return EstimateCost(inputTokens, outputTokens, l.CostPerInput, l.CostPerOutput)
}

// ============================================================================
// ANALYSIS
// ============================================================================

// Analysis is a forecast for one prospective request. It is a value: a new
// one is computed whenever the input changes.
type Analysis struct {
	EstimatedInputTokens  int        `json:"estimated_input_tokens" yaml:"estimated_input_tokens"`
	EstimatedOutputTokens int        `json:"estimated_output_tokens" yaml:"estimated_output_tokens"`
	EstimatedTotalTokens  int        `json:"estimated_total_tokens" yaml:"estimated_total_tokens"`
	MaxInputTokens        int        `json:"max_input_tokens" yaml:"max_input_tokens"`
	MaxOutputTokens       int        `json:"max_output_tokens" yaml:"max_output_tokens"`
	MaxTotalTokens        int        `json:"max_total_tokens" yaml:"max_total_tokens"`
	UsageLevel            UsageLevel `json:"usage_level" yaml:"usage_level"`
	WithinLimits          bool       `json:"within_limits" yaml:"within_limits"`
	EstimatedCost         float64    `json:"estimated_cost" yaml:"estimated_cost"`
	Warning               string     `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// HasWarning reports whether the analysis carries a warning.
func (a Analysis) HasWarning() bool {
	return a.Warning != ""
}

// UsagePercent returns input usage as a truncated percentage.
func (a Analysis) UsagePercent() int {
	return int(Percent(a.EstimatedInputTokens, a.MaxInputTokens))
}

type analyzeOptions struct {
	expectedOutput int
}

// AnalyzeOption customizes Analyze.
type AnalyzeOption func(*analyzeOptions)

// WithExpectedOutput overrides the assumed reply size.
func WithExpectedOutput(n int) AnalyzeOption {
	return func(o *analyzeOptions) {
		o.expectedOutput = n
	}
}

// Analyze forecasts a request made of history followed by input.
//
// history holds the contents of earlier messages and must not include input.
// Warnings are checked in order: input ceiling, total ceiling, critical usage,
// high usage. The first match wins.
func Analyze(input string, history []string, limits Limits, opts ...AnalyzeOption) Analysis {
	o := analyzeOptions{expectedOutput: DefaultExpectedOutputTokens}
	for _, opt := range opts {
		opt(&o)
	}

	messages := make([]string, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, input)

	in := EstimateMessages(messages)
	out := o.expectedOutput
	total := in + out
	level := Usage(in, limits.MaxInputTokens)

	a := Analysis{
		EstimatedInputTokens:  in,
		EstimatedOutputTokens: out,
		EstimatedTotalTokens:  total,
		MaxInputTokens:        limits.MaxInputTokens,
		MaxOutputTokens:       limits.MaxOutputTokens,
		MaxTotalTokens:        limits.MaxTotalTokens,
		UsageLevel:            level,
		WithinLimits:          in <= limits.MaxInputTokens && total <= limits.MaxTotalTokens,
		EstimatedCost:         limits.Cost(in, out),
	}

	switch {
	case in > limits.MaxInputTokens:
		a.Warning = fmt.Sprintf("input token limit exceeded: %d > %d", in, limits.MaxInputTokens)
	case total > limits.MaxTotalTokens:
		a.Warning = fmt.Sprintf("total token limit exceeded: %d > %d", total, limits.MaxTotalTokens)
	case level == UsageCritical:
		a.Warning = fmt.Sprintf("critical limit usage: %d%%", a.UsagePercent())
	case level == UsageHigh:
		a.Warning = fmt.Sprintf("high limit usage: %d%%", a.UsagePercent())
	}

	return a
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import (
	"strconv"
	"time"
)

// ============================================================================
// BEHAVIOUR FORECAST
// ============================================================================

// Response time model: fixed latency plus per-token processing and generation.
const (
	baseLatency        = 200 * time.Millisecond
	inputPerToken      = 500 * time.Microsecond
	generationPerToken = 8 * time.Millisecond
)

// Speed buckets a predicted response time.
type Speed int

const (
	SpeedFast Speed = iota
	SpeedNormal
	SpeedSlow
	SpeedVerySlow
)

// String returns the speed label.
func (s Speed) String() string {
	switch s {
	case SpeedFast:
		return "fast"
	case SpeedNormal:
		return "normal"
	case SpeedSlow:
		return "slow"
	default:
		return "very slow"
	}
}

// Quality predicts how useful a reply will be given the amount of context.
type Quality int

const (
	QualityMinimal Quality = iota
	QualityBasic
	QualityGood
	QualityExcellent
	QualityExcessive
)

// String returns the quality label.
func (q Quality) String() string {
	switch q {
	case QualityMinimal:
		return "minimal"
	case QualityBasic:
		return "basic"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	default:
		return "excessive"
	}
}

// Description explains the quality prediction in one line.
func (q Quality) Description() string {
	switch q {
	case QualityMinimal:
		return "very short request, shallow answer"
	case QualityBasic:
		return "little context, generic answer"
	case QualityGood:
		return "enough context, solid answer"
	case QualityExcellent:
		return "rich context, detailed answer"
	default:
		return "too much context, may be truncated"
	}
}

// LimitStatus predicts how the request will be processed.
type LimitStatus int

const (
	StatusOK LimitStatus = iota
	StatusHigh
	StatusCritical
	StatusExceeded
)

// String returns the status label.
func (s LimitStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusHigh:
		return "high"
	case StatusCritical:
		return "critical"
	default:
		return "exceeded"
	}
}

// Description explains the status in one line.
func (s LimitStatus) Description() string {
	switch s {
	case StatusOK:
		return "will be processed in full"
	case StatusHigh:
		return "heavy load, may be slower"
	case StatusCritical:
		return "close to the limit, problems possible"
	default:
		return "limit exceeded, will be rejected"
	}
}

// Forecast is the human-facing prediction derived from an Analysis.
type Forecast struct {
	ResponseTime time.Duration
	Speed        Speed
	Quality      Quality
	Status       LimitStatus
	// Progress is input usage in [0, 1].
	Progress float64
}

// ProgressPercent returns Progress as a truncated percentage.
func (f Forecast) ProgressPercent() int {
	return int(f.Progress * 100)
}

// NewForecast derives a forecast from a.
func NewForecast(a Analysis) Forecast {
	rt := EstimateResponseTime(a.EstimatedInputTokens, a.EstimatedOutputTokens)
	return Forecast{
		ResponseTime: rt,
		Speed:        speedOf(rt),
		Quality:      qualityOf(a.EstimatedInputTokens),
		Status:       statusOf(a),
		Progress:     progressOf(a.EstimatedInputTokens, a.MaxInputTokens),
	}
}

// EstimateResponseTime predicts latency in whole milliseconds.
func EstimateResponseTime(inputTokens, outputTokens int) time.Duration {
	d := baseLatency +
		time.Duration(inputTokens)*inputPerToken +
		time.Duration(outputTokens)*generationPerToken
	return d.Truncate(time.Millisecond)
}

// FormatResponseTime renders 850ms, 2.5s or 12s.
func FormatResponseTime(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms < 1000:
		return strconv.FormatInt(ms, 10) + "ms"
	case ms < 10000:
		return strconv.FormatFloat(float64(ms)/1000, 'f', 1, 64) + "s"
	default:
		return strconv.FormatInt(ms/1000, 10) + "s"
	}
}

func speedOf(d time.Duration) Speed {
	switch {
	case d < 2*time.Second:
		return SpeedFast
	case d < 5*time.Second:
		return SpeedNormal
	case d < 10*time.Second:
		return SpeedSlow
	default:
		return SpeedVerySlow
	}
}

func qualityOf(inputTokens int) Quality {
	switch {
	case inputTokens < 10:
		return QualityMinimal
	case inputTokens < 50:
		return QualityBasic
	case inputTokens < 200:
		return QualityGood
	case inputTokens < 1000:
		return QualityExcellent
	default:
		return QualityExcessive
	}
}

func statusOf(a Analysis) LimitStatus {
	max := float64(a.MaxInputTokens)
	in := float64(a.EstimatedInputTokens)
	switch {
	case !a.WithinLimits:
		return StatusExceeded
	case in > max*0.9:
		return StatusCritical
	case in > max*0.7:
		return StatusHigh
	default:
		return StatusOK
	}
}

func progressOf(current, max int) float64 {
	if max <= 0 {
		return 1
	}
	p := float64(current) / float64(max)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

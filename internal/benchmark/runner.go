// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// ErrNoSender is returned when a live run is requested without a sender.
var ErrNoSender = errors.New("live run requires a sender")

// =============================================================================
// RESULT TYPES
// =============================================================================

// CaseStatus indicates the outcome of a test case.
type CaseStatus string

const (
	CaseStatusAnalyzed CaseStatus = "analyzed"
	CaseStatusPassed   CaseStatus = "passed"
	CaseStatusFailed   CaseStatus = "failed"
)

// CaseResult holds the outcome of one test case.
type CaseResult struct {
	Case     TestCase        `json:"-" yaml:"-"`
	Name     string          `json:"name" yaml:"name"`
	Analysis tokens.Analysis `json:"analysis" yaml:"analysis"`
	Forecast tokens.Forecast `json:"forecast" yaml:"forecast"`
	Status   CaseStatus      `json:"status" yaml:"status"`
	// Actual is set when the case was sent and a reply arrived.
	Actual *session.Response `json:"actual,omitempty" yaml:"actual,omitempty"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Deviation returns how far the input estimate was from the reported prompt
// tokens, in percent of the actual value. ok is false without usage data.
func (r CaseResult) Deviation() (pct float64, ok bool) {
	if r.Actual == nil || r.Actual.InputTokens == 0 {
		return 0, false
	}
	actual := float64(r.Actual.InputTokens)
	return (float64(r.Analysis.EstimatedInputTokens) - actual) / actual * 100, true
}

// Result contains the outcome of a run against one model.
type Result struct {
	Model     model.AiModel `json:"model" yaml:"model"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Cases     []CaseResult  `json:"cases" yaml:"cases"`
	Passed    int           `json:"passed" yaml:"passed"`
	Failed    int           `json:"failed" yaml:"failed"`
	// Exceeded counts cases whose analysis is over the model's limits.
	Exceeded  int     `json:"exceeded" yaml:"exceeded"`
	TotalCost float64 `json:"total_cost" yaml:"total_cost"`
	// AvgDeviation is the mean absolute estimate deviation over cases with usage.
	AvgDeviation float64 `json:"avg_deviation" yaml:"avg_deviation"`
}

// =============================================================================
// RUNNER
// =============================================================================

// RunOptions configures a run.
type RunOptions struct {
	// Send delivers every case through a fresh session.
	Send bool
	// Cases overrides the default case list.
	Cases []TestCase
	// OnCaseDone is called after each case, in order.
	OnCaseDone func(CaseResult)
}

// Runner analyses and optionally sends the test cases.
type Runner struct {
	sender session.Sender
	logger *zap.Logger
}

// NewRunner creates a runner. sender may be nil for analysis-only runs.
func NewRunner(sender session.Sender) *Runner {
	return &Runner{sender: sender, logger: zap.NewNop()}
}

// WithLogger sets the logger.
func (r *Runner) WithLogger(logger *zap.Logger) *Runner {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Run executes every case against m. Individual send failures are recorded
// in the result; only a cancelled context or a missing sender fail the run.
func (r *Runner) Run(ctx context.Context, m model.AiModel, opts RunOptions) (*Result, error) {
	if opts.Send && r.sender == nil {
		return nil, ErrNoSender
	}
	cases := opts.Cases
	if len(cases) == 0 {
		cases = All()
	}

	result := &Result{
		Model:     m,
		StartTime: time.Now(),
		Cases:     make([]CaseResult, 0, len(cases)),
	}

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cr := r.analyzeCase(m, tc)
		if opts.Send {
			r.sendCase(ctx, m, &cr)
		}
		result.Cases = append(result.Cases, cr)
		if opts.OnCaseDone != nil {
			opts.OnCaseDone(cr)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.computeAggregates()
	return result, nil
}

func (r *Runner) analyzeCase(m model.AiModel, tc TestCase) CaseResult {
	a := tokens.Analyze(tc.Message, nil, m.Limits())
	return CaseResult{
		Case:     tc,
		Name:     tc.Key,
		Analysis: a,
		Forecast: tokens.NewForecast(a),
		Status:   CaseStatusAnalyzed,
	}
}

// sendCase sends the case through a fresh session so earlier cases do not
// inflate its prompt.
func (r *Runner) sendCase(ctx context.Context, m model.AiModel, cr *CaseResult) {
	var (
		mu      sync.Mutex
		sendErr error
	)
	s := session.New(r.sender, session.Config{
		Model:  m,
		Logger: r.logger,
		OnEffect: func(e session.Effect) {
			if e.Kind == session.EffectShowError {
				mu.Lock()
				sendErr = e.Err
				mu.Unlock()
			}
		},
	})
	defer s.Close()

	select {
	case <-s.Send(ctx, cr.Case.Message):
	case <-ctx.Done():
	}

	mu.Lock()
	err := sendErr
	mu.Unlock()

	st := s.State()
	switch {
	case err != nil:
		cr.Status = CaseStatusFailed
		cr.Error = err.Error()
	case st.LastResponse == nil:
		cr.Status = CaseStatusFailed
		cr.Error = "no response"
		if ctx.Err() != nil {
			cr.Error = ctx.Err().Error()
		}
	default:
		cr.Status = CaseStatusPassed
		cr.Actual = st.LastResponse
	}

	r.logger.Debug("test case sent",
		zap.String("case", cr.Case.Key),
		zap.String("status", string(cr.Status)))
}

// computeAggregates calculates aggregate metrics from individual cases.
func (r *Result) computeAggregates() {
	var devSum float64
	var devCount int
	for _, c := range r.Cases {
		switch c.Status {
		case CaseStatusPassed:
			r.Passed++
		case CaseStatusFailed:
			r.Failed++
		}
		if !c.Analysis.WithinLimits {
			r.Exceeded++
		}
		if c.Actual != nil {
			r.TotalCost += c.Actual.Cost
		}
		if d, ok := c.Deviation(); ok {
			if d < 0 {
				d = -d
			}
			devSum += d
			devCount++
		}
	}
	if devCount > 0 {
		r.AvgDeviation = devSum / float64(devCount)
	}
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatDeviation formats an estimate deviation for display.
func FormatDeviation(pct float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

// FormatDuration formats duration for display.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "N/A"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

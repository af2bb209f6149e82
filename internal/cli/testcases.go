// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// testcases.go - Canned prompts of increasing size.
//
// Command: testcases
// Short:   Analyse (or send) the built-in token test prompts
//
// Examples:
//   worknote testcases                  Analyse all cases for the default model
//   worknote testcases -m llama --send  Send every case and compare estimates
//   worknote testcases --case 1 --case long -o json

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/benchmark"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/util"
)

func newTestCasesCommand(a *app) *cobra.Command {
	var (
		send   bool
		names  []string
		output string
	)
	cmd := &cobra.Command{
		Use:     "testcases",
		Aliases: []string{"test", "bench"},
		Short:   "Analyse (or send) the built-in token test prompts",
		Long: `Run the five built-in prompts (short to extremely long) through the token
estimator for the selected model. With --send each prompt is also sent and
the estimate is compared with the token usage the API reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.chatModel()
			if err != nil {
				return err
			}

			var cases []benchmark.TestCase
			for _, n := range names {
				tc, ok := benchmark.Lookup(n)
				if !ok {
					return usageErrorf("unknown test case %q", n)
				}
				cases = append(cases, tc)
			}
			if len(cases) == 0 {
				cases = benchmark.All()
			}

			var runner *benchmark.Runner
			if send {
				client, err := a.hfClient("testcases")
				if err != nil {
					return err
				}
				runner = benchmark.NewRunner(client)
			} else {
				runner = benchmark.NewRunner(nil)
			}
			runner = runner.WithLogger(a.logger.Named("benchmark"))

			opts := benchmark.RunOptions{Send: send, Cases: cases}
			if send {
				bar := progressbar.NewOptions(len(cases),
					progressbar.OptionSetWriter(a.errOut),
					progressbar.OptionSetDescription("Sending test cases"),
					progressbar.OptionSetWidth(30),
					progressbar.OptionThrottle(65*time.Millisecond),
					progressbar.OptionShowCount(),
					progressbar.OptionSetVisibility(IsStdoutTTY()),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprintln(a.errOut)
					}),
				)
				opts.OnCaseDone = func(benchmark.CaseResult) { _ = bar.Add(1) }
			}

			result, err := runner.Run(cmd.Context(), m, opts)
			if err != nil {
				return err
			}
			return writeReport(a.out, output, result, func(w io.Writer) {
				writeBenchmark(w, result, send)
			})
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "send each prompt and compare with actual usage")
	cmd.Flags().StringArrayVar(&names, "case", nil, "case to run (1-5 or name); repeatable")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

// caseColumnWidth fits the longest case display name.
const caseColumnWidth = 22

// writeBenchmark prints the case table.
func writeBenchmark(w io.Writer, r *benchmark.Result, sent bool) {
	fmt.Fprintln(w, RenderConditional(TitleStyle, "Token test cases · "+r.Model.DisplayName()))
	limits := r.Model.Limits()
	fmt.Fprintf(w, "%s %s in / %s out / %s total\n", RenderLabel("Limits"),
		tokens.FormatCount(limits.MaxInputTokens),
		tokens.FormatCount(limits.MaxOutputTokens),
		tokens.FormatCount(limits.MaxTotalTokens))
	fmt.Fprintln(w, RenderSeparator())

	header := fmt.Sprintf("%s %8s %6s %-9s %8s", util.PadWidth("Case", caseColumnWidth), "Estimate", "Usage", "Level", "Cost")
	if sent {
		header += fmt.Sprintf(" %8s %8s %7s", "Actual", "Time", "Dev")
	}
	fmt.Fprintln(w, RenderConditional(DimStyle, header))

	for _, c := range r.Cases {
		a := c.Analysis
		level := UsageColor(a.UsageLevel).Sprintf("%-9s", a.UsageLevel)
		line := fmt.Sprintf("%s %8s %5d%% %s %8s",
			util.PadWidth(c.Case.DisplayName, caseColumnWidth),
			tokens.FormatCount(a.EstimatedInputTokens),
			a.UsagePercent(),
			level,
			tokens.FormatCost(a.EstimatedCost))
		if sent {
			switch {
			case c.Actual != nil:
				line += fmt.Sprintf(" %8s %8s %7s",
					tokens.FormatCount(c.Actual.InputTokens),
					tokens.FormatResponseTime(c.Actual.Elapsed),
					benchmark.FormatDeviation(c.Deviation()))
			default:
				line += " " + RenderConditional(ErrorStyle, "failed: "+preview(c.Error, 40))
			}
		}
		fmt.Fprintln(w, line)
		if a.HasWarning() {
			fmt.Fprintln(w, "  "+RenderConditional(WarningStyle, a.Warning))
		}
	}

	fmt.Fprintln(w, RenderSeparator())
	fmt.Fprintf(w, "%s %d\n", RenderLabel("Over the limit"), r.Exceeded)
	if sent {
		fmt.Fprintf(w, "%s %d passed, %d failed\n", RenderLabel("Sent"), r.Passed, r.Failed)
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Total cost"), tokens.FormatCost(r.TotalCost))
		fmt.Fprintf(w, "%s %.1f%%\n", RenderLabel("Avg deviation"), r.AvgDeviation)
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Duration"), benchmark.FormatDuration(r.Duration))
	}
}

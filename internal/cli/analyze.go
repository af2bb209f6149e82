// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// analyze.go - Offline token analysis.
//
// Command: analyze [text]
// Short:   Estimate tokens, cost and limits without sending anything
//
// Examples:
//   worknote analyze "Привет, как дела?"
//   cat prompt.txt | worknote analyze -m llama
//   worknote analyze --history chat.txt --output yaml "And now?"

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// analysisReport is the structured output of analyze.
type analysisReport struct {
	Model        string          `json:"model" yaml:"model"`
	Characters   int             `json:"characters" yaml:"characters"`
	History      int             `json:"history_messages" yaml:"history_messages"`
	Analysis     tokens.Analysis `json:"analysis" yaml:"analysis"`
	ResponseTime string          `json:"response_time" yaml:"response_time"`
	Speed        string          `json:"speed" yaml:"speed"`
	Quality      string          `json:"quality" yaml:"quality"`
	Status       string          `json:"status" yaml:"status"`
	Progress     int             `json:"progress_percent" yaml:"progress_percent"`
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		expectedOutput int
		historyFile    string
		output         string
	)
	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Estimate tokens, cost and limits without sending anything",
		Long: `Estimate the token count of a prompt (and optional history) for a model and
report usage level, cost, expected response time and limit warnings.

Text is read from stdin when no argument or "-" is given. A history file
holds one message per paragraph (blank-line separated).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.chatModel()
			if err != nil {
				return err
			}

			var text string
			if len(args) == 0 {
				args = []string{"-"}
			}
			if text, err = readPrompt(a.in, args); err != nil {
				return err
			}
			text = strings.TrimRight(text, "\n")

			var history []string
			if historyFile != "" {
				if history, err = readHistoryFile(historyFile); err != nil {
					return err
				}
			}

			if expectedOutput <= 0 {
				expectedOutput = a.cfg.Chat.ExpectedOutputTokens
			}
			analysis := tokens.Analyze(text, history, m.Limits(), tokens.WithExpectedOutput(expectedOutput))
			f := tokens.NewForecast(analysis)
			report := analysisReport{
				Model:        m.Key(),
				Characters:   len([]rune(text)),
				History:      len(history),
				Analysis:     analysis,
				ResponseTime: tokens.FormatResponseTime(f.ResponseTime),
				Speed:        f.Speed.String(),
				Quality:      f.Quality.String(),
				Status:       f.Status.String(),
				Progress:     f.ProgressPercent(),
			}
			return writeReport(a.out, output, report, func(w io.Writer) {
				fmt.Fprintln(w, RenderConditional(TitleStyle, "Token analysis · "+m.DisplayName()))
				fmt.Fprintf(w, "%s %d chars, %d history messages\n", RenderLabel("Input"), report.Characters, report.History)
				writeAnalysis(w, analysis, true)
			})
		},
	}
	cmd.Flags().IntVar(&expectedOutput, "expected-output", 0, "expected reply tokens (default from config)")
	cmd.Flags().StringVar(&historyFile, "history", "", "file with earlier messages, one per paragraph")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

// readHistoryFile splits a file into messages on blank lines.
func readHistoryFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(normalized, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// writeReport renders v as json, yaml or, for text, through textFn.
func writeReport(w io.Writer, format string, v any, textFn func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "", "text":
		textFn(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return usageErrorf("unknown output format %q (text, json or yaml)", format)
	}
}

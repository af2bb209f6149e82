// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question.
//
// Command: ask <prompt>
// Short:   Send a single prompt and print the reply
//
// Examples:
//   worknote ask "Что такое горутина?"
//   echo "Explain channels" | worknote ask -
//   worknote ask -m qwen --json "Hello"

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// askResult is the --json output of ask.
type askResult struct {
	Model        string          `json:"model"`
	Reply        string          `json:"reply"`
	Analysis     tokens.Analysis `json:"analysis"`
	ResponseTime string          `json:"response_time"`
	ElapsedMs    int64           `json:"elapsed_ms"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	TotalTokens  int             `json:"total_tokens"`
	Cost         float64         `json:"cost"`
}

func newAskCommand(a *app) *cobra.Command {
	var jsonOut, quiet bool
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a single prompt and print the reply",
		Long: `Send one prompt to the HuggingFace router and print the reply followed by
the response time, token usage and cost. Use "-" to read the prompt from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(a.in, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(prompt) == "" {
				return usageErrorf("prompt is empty")
			}

			m, err := a.chatModel()
			if err != nil {
				return err
			}
			client, err := a.hfClient("ask")
			if err != nil {
				return err
			}

			var sendErr error
			cfg := a.sessionConfig(cmd.Context(), m)
			cfg.OnEffect = func(e session.Effect) {
				if e.Kind == session.EffectShowError {
					sendErr = e.Err
				}
			}
			sess := session.New(client, cfg)
			defer sess.Close()

			analysis := sess.UpdateCurrentMessage(prompt)
			if !jsonOut && !quiet {
				writeAnalysis(a.errOut, analysis, a.cfg.UI.ShowForecast)
			}

			<-sess.Send(cmd.Context(), prompt)
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if sendErr != nil {
				return &CommandError{Command: "ask", Reason: "request failed", Err: sendErr}
			}

			st := sess.State()
			last, ok := st.Messages.Last()
			if !ok || last.IsUser() || st.LastResponse == nil {
				return &CommandError{Command: "ask", Reason: "no reply received"}
			}

			if jsonOut {
				r := st.LastResponse
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(askResult{
					Model:        m.Key(),
					Reply:        last.Content,
					Analysis:     analysis,
					ResponseTime: tokens.FormatResponseTime(r.Elapsed),
					ElapsedMs:    r.Elapsed.Milliseconds(),
					InputTokens:  r.InputTokens,
					OutputTokens: r.OutputTokens,
					TotalTokens:  r.TotalTokens,
					Cost:         r.Cost,
				})
			}

			fmt.Fprintln(a.out, renderMarkdown(last.Content, a.cfg.UI.MarkdownStyle))
			if !quiet {
				writeResponseMetrics(a.errOut, st.LastResponse)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the reply and metrics as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the reply")
	return cmd
}

// readPrompt joins args, or reads stdin when the only arg is "-".
func readPrompt(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(io.LimitReader(in, 4<<20))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", errors.New("no prompt given")
	}
	return strings.Join(args, " "), nil
}


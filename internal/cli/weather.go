// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// weather.go - Structured weather answers from Claude.
//
// Command: weather [city...]
// Short:   Ask Claude for the weather as structured JSON
//
// Examples:
//   worknote weather Москва Казань Сочи   Concurrent lookups
//   worknote weather                      Interactive conversation

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/weather"
)

func newWeatherCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "weather [city...]",
		Short: "Ask Claude for the weather as structured JSON",
		Long: `Ask Claude for the current temperature in one or more cities. Replies are
constrained to {"city": ..., "temperature": ...} and parsed.

With cities the lookups run concurrently ([weather] concurrency). Without
cities an interactive conversation starts; follow-up questions see the
earlier answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.claudeClient("weather")
			if err != nil {
				return err
			}
			wc := a.cfg.Weather
			client := weather.NewClient(api).
				WithModel(wc.Model).
				WithMaxTokens(wc.MaxTokens).
				WithConcurrency(wc.Concurrency).
				WithLogger(a.logger.Named("weather"))

			if len(args) == 0 {
				return runWeatherREPL(cmd.Context(), a, client)
			}

			results, err := client.Lookup(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeReport(a.out, output, weatherRows(results), func(w io.Writer) {
				for _, r := range results {
					if r.Err != nil {
						fmt.Fprintf(w, "%s %s\n", RenderLabel(r.City), RenderConditional(ErrorStyle, r.Err.Error()))
						continue
					}
					fmt.Fprintf(w, "%s %s\n", RenderLabel(r.City), RenderConditional(ValueStyle, r.Report.String()))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

// weatherRow is the structured output of a lookup.
type weatherRow struct {
	Query       string   `json:"query" yaml:"query"`
	City        string   `json:"city,omitempty" yaml:"city,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func weatherRows(results []weather.LookupResult) []weatherRow {
	rows := make([]weatherRow, len(results))
	for i, r := range results {
		rows[i] = weatherRow{Query: r.City}
		if r.Err != nil {
			rows[i].Error = r.Err.Error()
			continue
		}
		t := r.Report.Temperature
		rows[i].City = r.Report.City
		rows[i].Temperature = &t
	}
	return rows
}

func runWeatherREPL(ctx context.Context, a *app, client *weather.Client) error {
	dataDir, _ := a.cfg.DataDir()
	reader := newLineReader(a.in, dataDir, "weather")
	defer reader.Close()

	conv := client.NewConversation()
	fmt.Fprintln(a.out, RenderConditional(TitleStyle, "worknote weather"))
	fmt.Fprintln(a.out, RenderConditional(DimStyle, "Ask about any city. /quit or Ctrl+D to exit."))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadLine("weather> ")
		if errors.Is(err, errAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/q", "/exit":
			return nil
		}

		report, err := conv.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(a.out, RenderConditional(ErrorStyle, "Error: "+err.Error()))
			continue
		}
		fmt.Fprintln(a.out, RenderConditional(AssistantStyle, report.String()))
	}
}

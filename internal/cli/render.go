// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Human-readable output for analyses, replies and statistics.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
	"github.com/macdroidapps/WorknoteChallenge/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
)

// renderMarkdown renders content for the terminal. Piped output and render
// failures get the raw text.
func renderMarkdown(content, style string) string {
	if !IsStdoutTTY() {
		return content
	}
	markdownOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(styles.MarkdownStyle(style)),
			glamour.WithWordWrap(GetTerminalWidth()-4),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

// userLanguage reads the locale from LC_ALL / LANG.
func userLanguage() language.Tag {
	for _, env := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		v := os.Getenv(env)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		v, _, _ = strings.Cut(v, ".")
		if tag, err := language.Parse(v); err == nil {
			return tag
		}
	}
	return language.English
}

// numberPrinter groups digits the way the user's locale does.
func numberPrinter() *message.Printer {
	return message.NewPrinter(userLanguage())
}

// =============================================================================
// ANALYSIS
// =============================================================================

// writeAnalysis prints the pre-send analysis and forecast.
func writeAnalysis(w io.Writer, a tokens.Analysis, showForecast bool) {
	usage := UsageColor(a.UsageLevel)
	pct := tokens.Percent(a.EstimatedInputTokens, a.MaxInputTokens)

	fmt.Fprintf(w, "%s %s / %s %s\n",
		RenderLabel("Input tokens"),
		usage.Sprint(tokens.FormatCount(a.EstimatedInputTokens)),
		tokens.FormatCount(a.MaxInputTokens),
		usage.Sprintf("%s %.0f%%", ProgressBar(pct, 20), pct))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Expected output"), tokens.FormatCount(a.EstimatedOutputTokens))
	fmt.Fprintf(w, "%s %s / %s\n", RenderLabel("Total"),
		tokens.FormatCount(a.EstimatedTotalTokens), tokens.FormatCount(a.MaxTotalTokens))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Estimated cost"), tokens.FormatCost(a.EstimatedCost))

	if showForecast {
		f := tokens.NewForecast(a)
		fmt.Fprintf(w, "%s %s (%s)\n", RenderLabel("Response time"),
			tokens.FormatResponseTime(f.ResponseTime), f.Speed)
		fmt.Fprintf(w, "%s %s: %s\n", RenderLabel("Context quality"), f.Quality, f.Quality.Description())
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Limit status"),
			StatusColor(f.Status).Sprintf("%s: %s", f.Status, f.Status.Description()))
	}

	if a.HasWarning() {
		fmt.Fprintln(w, RenderConditional(WarningStyle, "⚠ "+a.Warning))
	}
}

// =============================================================================
// RESPONSE METRICS
// =============================================================================

// writeResponseMetrics prints the metrics line after a reply.
func writeResponseMetrics(w io.Writer, r *session.Response) {
	if r == nil {
		return
	}
	line := fmt.Sprintf("⏱ %s · in %s · out %s · total %s · %s",
		tokens.FormatResponseTime(r.Elapsed),
		tokens.FormatCount(r.InputTokens),
		tokens.FormatCount(r.OutputTokens),
		tokens.FormatCount(r.TotalTokens),
		tokens.FormatCost(r.Cost))
	fmt.Fprintln(w, RenderConditional(DimStyle, line))
}

// =============================================================================
// SESSION STATISTICS
// =============================================================================

// writeStats prints session statistics.
func writeStats(w io.Writer, st session.Stats) {
	fmt.Fprintln(w, RenderConditional(SectionStyle, "Session statistics"))
	if st.Empty() {
		fmt.Fprintln(w, RenderConditional(DimStyle, "No messages yet."))
		return
	}
	p := numberPrinter()
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Messages sent"), p.Sprintf("%d", st.Messages))
	fmt.Fprintf(w, "%s %s (%s)\n", RenderLabel("Input tokens"), st.FormatInput(), p.Sprintf("%d", st.InputTokens))
	fmt.Fprintf(w, "%s %s (%s)\n", RenderLabel("Output tokens"), st.FormatOutput(), p.Sprintf("%d", st.OutputTokens))
	fmt.Fprintf(w, "%s %s (%s)\n", RenderLabel("Total tokens"), st.FormatTotal(), p.Sprintf("%d", st.TotalTokens))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Total cost"), st.FormatCost())
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Average cost"), st.FormatAverageCost())
}

// preview shortens a message for one-line listings.
func preview(s string, width int) string {
	return util.TruncateWidth(util.OneLine(s), width)
}

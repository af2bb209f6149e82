// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   worknote chat                 Chat with the default model
//   worknote chat -m llama        Chat with Llama 3.2
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /model [name]       Show or switch model
//   /clear, /c          Clear conversation history
//   /stats, /s          Show session statistics
//   /test [case]        List test cases or send one (1-5 or name)
//   /panel              Toggle the test case panel
//   /name <login>       Set and save your name
//   /history            Show the conversation
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/benchmark"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/session"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start a line-mode chat with a HuggingFace router model.

Every line is analysed before it is sent: estimated tokens, cost, expected
response time and a warning when the model's input limit is close.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.chatModel()
			if err != nil {
				return err
			}
			client, err := a.hfClient("chat")
			if err != nil {
				return err
			}
			r := newChatREPL(a, "chat", fmt.Sprintf("worknote chat · %s", m.DisplayName()))
			sess := session.New(client, r.sessionConfig(cmd.Context(), m))
			defer sess.Close()
			return r.run(cmd.Context(), sess)
		},
	}
}

// =============================================================================
// REPL
// =============================================================================

// chatREPL drives a session from line input.
type chatREPL struct {
	a      *app
	name   string
	title  string
	out    io.Writer
	reader LineReader

	mu      sync.Mutex
	lastErr string
}

func newChatREPL(a *app, name, title string) *chatREPL {
	return &chatREPL{a: a, name: name, title: title, out: a.out}
}

// sessionConfig wires session effects into the REPL.
func (r *chatREPL) sessionConfig(ctx context.Context, m model.AiModel) session.Config {
	cfg := r.a.sessionConfig(ctx, m)
	cfg.OnEffect = r.onEffect
	return cfg
}

// onEffect records errors for display after the reply wait. Warnings are
// already part of the printed analysis.
func (r *chatREPL) onEffect(e session.Effect) {
	if e.Kind != session.EffectShowError {
		return
	}
	r.mu.Lock()
	r.lastErr = e.Message
	r.mu.Unlock()
}

func (r *chatREPL) takeError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := r.lastErr
	r.lastErr = ""
	return msg
}

// run reads lines until /quit, EOF or ctx ends.
func (r *chatREPL) run(ctx context.Context, sess *session.Session) error {
	dataDir, _ := r.a.cfg.DataDir()
	r.reader = newLineReader(r.a.in, dataDir, r.name)
	defer r.reader.Close()

	r.printWelcome(sess)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := r.reader.ReadLine(r.prompt(sess))
		if errors.Is(err, errAborted) {
			fmt.Fprintln(r.out, RenderConditional(DimStyle, "Use /quit or Ctrl+D to exit."))
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			r.printSummary(sess)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.handleCommand(ctx, sess, line)
			if err != nil {
				fmt.Fprintln(r.out, RenderConditional(ErrorStyle, err.Error()))
			}
			if quit {
				r.printSummary(sess)
				return nil
			}
			continue
		}

		if err := r.send(ctx, sess, line); err != nil {
			return err
		}
	}
}

func (r *chatREPL) prompt(sess *session.Session) string {
	st := sess.State()
	name := st.UserName
	if name == "" {
		name = "you"
	}
	return fmt.Sprintf("%s [%s]> ", name, st.Model.Key())
}

// send analyses text, sends it and prints the reply with its metrics.
func (r *chatREPL) send(ctx context.Context, sess *session.Session, text string) error {
	analysis := sess.UpdateCurrentMessage(text)
	writeAnalysis(r.out, analysis, r.a.cfg.UI.ShowForecast)
	if !analysis.WithinLimits {
		r.a.logger.Warn("sending a message above the input limit",
			zap.Int("estimated_input", analysis.EstimatedInputTokens),
			zap.Int("max_input", analysis.MaxInputTokens))
	}

	fmt.Fprintln(r.out, RenderConditional(DimStyle, "…"))
	done := sess.Send(ctx, text)
	select {
	case <-done:
	case <-ctx.Done():
		<-done
		return ctx.Err()
	}

	if msg := r.takeError(); msg != "" {
		fmt.Fprintln(r.out, RenderConditional(ErrorStyle, "Error: "+msg))
		return nil
	}

	st := sess.State()
	last, ok := st.Messages.Last()
	if !ok || last.IsUser() {
		return nil
	}
	fmt.Fprintln(r.out, RenderConditional(AssistantStyle, st.Model.DisplayName()+":"))
	fmt.Fprintln(r.out, renderMarkdown(last.Content, r.a.cfg.UI.MarkdownStyle))
	writeResponseMetrics(r.out, st.LastResponse)
	fmt.Fprintln(r.out)
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand runs a slash command. It reports whether the REPL should exit.
func (r *chatREPL) handleCommand(ctx context.Context, sess *session.Session, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h", "/?":
		r.printHelp()

	case "/clear", "/c":
		sess.Clear()
		fmt.Fprintln(r.out, RenderConditional(SuccessStyle, "Conversation cleared."))

	case "/stats", "/s":
		writeStats(r.out, sess.Stats())

	case "/model", "/m":
		if len(args) == 0 {
			st := sess.State()
			fmt.Fprintf(r.out, "Model: %s (%s)\n", st.Model.DisplayName(), st.Model.ID())
			for _, m := range model.AllAiModels() {
				l := m.Limits()
				fmt.Fprintf(r.out, "  %-9s %s · input %s\n", m.Key(), m.DisplayName(), FormatTokensShort(l.MaxInputTokens))
			}
			return false, nil
		}
		m, err := model.ParseAiModel(args[0])
		if err != nil {
			return false, err
		}
		if err := sess.SelectModel(m); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Switched to %s.\n", m.DisplayName())

	case "/test", "/t":
		if len(args) == 0 {
			r.printTestCases(sess)
			return false, nil
		}
		tc, ok := benchmark.Lookup(args[0])
		if !ok {
			return false, usageErrorf("unknown test case %q", args[0])
		}
		fmt.Fprintf(r.out, "%s (%d chars)\n", RenderConditional(TitleStyle, tc.DisplayName), len([]rune(tc.Message)))
		return false, r.send(ctx, sess, tc.Message)

	case "/panel", "/p":
		if sess.ToggleTestPanel() {
			r.printTestCases(sess)
		} else {
			fmt.Fprintln(r.out, "Test panel hidden.")
		}

	case "/name":
		if len(args) == 0 {
			return false, usageErrorf("usage: /name <login>")
		}
		name := strings.Join(args, " ")
		sess.SetUserName(name)
		if s, err := r.a.openSettings(); err == nil {
			if err := s.SaveUserLogin(ctx, name); err != nil {
				return false, err
			}
		}
		fmt.Fprintf(r.out, "Hello, %s.\n", name)

	case "/history":
		st := sess.State()
		if st.Messages.Len() == 0 {
			fmt.Fprintln(r.out, RenderConditional(DimStyle, "No messages yet."))
		}
		for i, m := range st.Messages {
			fmt.Fprintf(r.out, "%3d %-9s %s\n", i+1, m.Role.DisplayName(), preview(m.Content, GetTerminalWidth()-16))
		}

	default:
		return false, usageErrorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

func (r *chatREPL) printWelcome(sess *session.Session) {
	fmt.Fprintln(r.out, RenderConditional(TitleStyle, r.title))
	st := sess.State()
	if st.UserName != "" {
		fmt.Fprintf(r.out, "Hello, %s. ", st.UserName)
	}
	fmt.Fprintln(r.out, RenderConditional(DimStyle, "Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printHelp() {
	help := [][2]string{
		{"/model [name]", "show or switch model (deepseek, qwen, llama)"},
		{"/clear", "clear the conversation and totals"},
		{"/stats", "show session statistics"},
		{"/test [case]", "list test cases or send one (1-5 or name)"},
		{"/panel", "toggle the test case panel"},
		{"/name <login>", "set and save your name"},
		{"/history", "show the conversation"},
		{"/quit", "exit"},
	}
	for _, h := range help {
		fmt.Fprintf(r.out, "  %s %s\n", RenderConditional(PromptStyle, fmt.Sprintf("%-15s", h[0])), h[1])
	}
}

func (r *chatREPL) printTestCases(sess *session.Session) {
	st := sess.State()
	limits := st.Model.Limits()
	fmt.Fprintf(r.out, "%s\n", RenderConditional(SectionStyle, "Token test cases · "+st.Model.DisplayName()))
	for i, tc := range benchmark.All() {
		est := tc.EstimatedTokens()
		fmt.Fprintf(r.out, "  %d. %-14s ~%s tokens  %s\n", i+1, tc.DisplayName,
			FormatTokensShort(est), RenderConditional(DimStyle, tc.Description))
		if est > limits.MaxInputTokens {
			fmt.Fprintln(r.out, RenderConditional(WarningStyle, "     exceeds the input limit"))
		}
	}
}

func (r *chatREPL) printSummary(sess *session.Session) {
	if st := sess.Stats(); !st.Empty() {
		fmt.Fprintln(r.out)
		writeStats(r.out, st)
	}
}

// FormatTokensShort formats a token count for compact listings.
func FormatTokensShort(n int) string {
	return numberPrinter().Sprintf("%d", n)
}

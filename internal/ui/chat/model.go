// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/components"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
)

// inputLimit caps the draft length in runes.
const inputLimit = 32000

// renderedMessage is one cached history entry.
type renderedMessage struct {
	src model.Message
	out string
}

// Options configure the chat screen.
type Options struct {
	// Title is shown in the header (default "worknote").
	Title string
	// MarkdownStyle is the glamour style for replies; "auto" detects.
	MarkdownStyle string
	// ShowForecast adds the behaviour forecast to the token panel.
	ShowForecast bool
	Theme        *styles.Theme
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx    context.Context
	sess   *session.Session
	bridge *bridge
	logger *zap.Logger

	// st is the last session snapshot applied to the view.
	st session.State

	title   string
	theme   *styles.Theme
	keys    KeyMap
	help    help.Model
	input   textinput.Model
	vp      viewport.Model
	spinner spinner.Model

	toasts     *components.ToastManager
	tokenPanel *components.TokenPanel
	statusBar  *components.StatusBar
	testPanel  *components.TestPanel

	mdStyle string
	md      *glamour.TermRenderer
	// rendered caches the rendered history entries for the current width.
	rendered []renderedMessage

	width, height int
	showHelp      bool
	lastWarning   string
}

// New creates the chat screen and the session behind it. The session uses
// sender and cfg; the OnChange and OnEffect hooks in cfg are still called.
func New(ctx context.Context, sender session.Sender, cfg session.Config, opts Options) Model {
	b := newBridge()
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userChange, userEffect := cfg.OnChange, cfg.OnEffect
	cfg.OnChange = func(st session.State) {
		if userChange != nil {
			userChange(st)
		}
		b.onChange(st)
	}
	cfg.OnEffect = func(e session.Effect) {
		if userEffect != nil {
			userEffect(e)
		}
		b.onEffect(e)
	}

	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	title := opts.Title
	if title == "" {
		title = "worknote"
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = inputLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := Model{
		ctx:        ctx,
		sess:       session.New(sender, cfg),
		bridge:     b,
		logger:     logger,
		title:      title,
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		input:      ti,
		vp:         viewport.New(80, 20),
		spinner:    sp,
		toasts:     components.NewToastManager(),
		tokenPanel: components.NewTokenPanel(theme),
		statusBar:  components.NewStatusBar(theme),
		testPanel:  components.NewTestPanel(theme),
		mdStyle:    styles.MarkdownStyle(opts.MarkdownStyle),
		width:      80,
		height:     24,
	}
	m.tokenPanel.ShowForecast = opts.ShowForecast
	m.st = m.sess.State()
	m.syncComponents()
	m.refreshMessages()
	m.layout()
	return m
}

// Session returns the session driven by the screen.
func (m Model) Session() *session.Session { return m.sess }

// Close stops the listener commands and closes the session.
func (m Model) Close() {
	m.bridge.close()
	m.sess.Close()
}

// Init starts the session listeners, the cursor blink and the toast ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.bridge.waitForChange(),
		m.bridge.waitForEffect(),
		components.ToastTickCmd(),
	)
}

// syncComponents copies the snapshot into the child components.
func (m *Model) syncComponents() {
	m.tokenPanel.Analysis = m.st.Analysis
	m.tokenPanel.Width = m.width
	m.statusBar.Model = m.st.Model
	m.statusBar.Stats = m.st.Stats()
	m.statusBar.LastResponse = m.st.LastResponse
	m.statusBar.Loading = m.st.Loading
	m.statusBar.Spinner = m.spinner.View()
	m.statusBar.Width = m.width
	m.testPanel.Model = m.st.Model
	m.testPanel.Width = m.width

	if m.st.Analysis == nil || !m.st.Analysis.HasWarning() {
		m.lastWarning = ""
	}
}

// markdown returns the renderer for the current width, building it lazily.
func (m *Model) markdown() *glamour.TermRenderer {
	if m.md != nil {
		return m.md
	}
	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.mdStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	m.md = r
	return r
}

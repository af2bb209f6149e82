// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macdroidapps/WorknoteChallenge/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// stateChangedMsg reports that the session has a newer snapshot.
type stateChangedMsg struct{}

// effectMsg carries one session effect.
type effectMsg struct {
	effect session.Effect
}

// SettingsMsg applies reloaded display settings. A non-nil Err reports a
// failed reload and leaves the settings unchanged.
type SettingsMsg struct {
	MarkdownStyle string
	ShowForecast  bool
	Err           error
}

// =============================================================================
// BRIDGE
// =============================================================================

// effectBuffer is the number of effects queued before OnEffect blocks.
const effectBuffer = 16

// bridge forwards session callbacks into the Bubble Tea program.
// Change notifications coalesce; effects are delivered in order.
type bridge struct {
	changes chan struct{}
	effects chan session.Effect
	done    chan struct{}
	once    sync.Once
}

func newBridge() *bridge {
	return &bridge{
		changes: make(chan struct{}, 1),
		effects: make(chan session.Effect, effectBuffer),
		done:    make(chan struct{}),
	}
}

func (b *bridge) onChange(session.State) {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

func (b *bridge) onEffect(e session.Effect) {
	select {
	case b.effects <- e:
	case <-b.done:
	}
}

// waitForChange returns a command that blocks until the next change.
func (b *bridge) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.changes:
			return stateChangedMsg{}
		case <-b.done:
			return nil
		}
	}
}

// waitForEffect returns a command that blocks until the next effect.
func (b *bridge) waitForEffect() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-b.effects:
			return effectMsg{effect: e}
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) close() {
	b.once.Do(func() { close(b.done) })
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is a user intent dispatched to a session.
type Event interface {
	isEvent()
}

// EventSend sends a message.
type EventSend struct{ Text string }

// EventUpdateCurrentMessage records the pending input and analyses it.
type EventUpdateCurrentMessage struct{ Text string }

// EventSetUserName sets the local user's display name.
type EventSetUserName struct{ Name string }

// EventSelectModel selects the model for later sends.
type EventSelectModel struct{ Model model.AiModel }

// EventClearChat clears the conversation.
type EventClearChat struct{}

// EventToggleTestPanel shows or hides the token test panel.
type EventToggleTestPanel struct{}

// EventSendTestCase sends the message of a canned test case.
type EventSendTestCase struct{ Message string }

func (EventSend) isEvent()                 {}
func (EventUpdateCurrentMessage) isEvent() {}
func (EventSetUserName) isEvent()          {}
func (EventSelectModel) isEvent()          {}
func (EventClearChat) isEvent()            {}
func (EventToggleTestPanel) isEvent()      {}
func (EventSendTestCase) isEvent()         {}

// Dispatch applies ev. For sends the returned channel closes when the
// result has been applied or discarded; for every other event it is
// already closed.
func (s *Session) Dispatch(ctx context.Context, ev Event) <-chan struct{} {
	switch e := ev.(type) {
	case EventSend:
		return s.Send(ctx, e.Text)
	case EventSendTestCase:
		return s.Send(ctx, e.Message)
	case EventUpdateCurrentMessage:
		s.UpdateCurrentMessage(e.Text)
	case EventSetUserName:
		s.SetUserName(e.Name)
	case EventSelectModel:
		if err := s.SelectModel(e.Model); err != nil {
			s.emit(Effect{Kind: EffectShowError, Message: err.Error(), Err: err})
		}
	case EventClearChat:
		s.Clear()
	case EventToggleTestPanel:
		s.ToggleTestPanel()
	default:
		err := fmt.Errorf("unknown event %T", ev)
		s.emit(Effect{Kind: EffectShowError, Message: err.Error(), Err: err})
	}
	return closedChan()
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// =============================================================================
// EFFECTS
// =============================================================================

// EffectKind classifies an Effect.
type EffectKind int

const (
	// EffectShowError reports a failed request.
	EffectShowError EffectKind = iota
	// EffectTokenWarning reports a token analysis warning.
	EffectTokenWarning
)

// String returns the effect kind name.
func (k EffectKind) String() string {
	switch k {
	case EffectShowError:
		return "error"
	case EffectTokenWarning:
		return "token_warning"
	default:
		return "unknown"
	}
}

// Effect is a one-shot notification for the presentation layer.
type Effect struct {
	Kind    EffectKind
	Message string
	// Err is set for EffectShowError.
	Err error
}

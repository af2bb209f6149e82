// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "github.com/macdroidapps/WorknoteChallenge/internal/tokens"

// =============================================================================
// HISTORY
// =============================================================================

// History is an ordered, append-only list of messages.
//
// Append never writes into a backing array that another History value may
// share, so snapshots handed out earlier stay intact.
type History []Message

// Append returns a history with msgs added at the end.
func (h History) Append(msgs ...Message) History {
	out := make(History, len(h), len(h)+len(msgs))
	copy(out, h)
	return append(out, msgs...)
}

// Len returns the number of messages.
func (h History) Len() int {
	return len(h)
}

// Last returns the most recent message.
func (h History) Last() (Message, bool) {
	if len(h) == 0 {
		return Message{}, false
	}
	return h[len(h)-1], true
}

// Contents returns the message bodies in order, as consumed by tokens.Analyze.
func (h History) Contents() []string {
	out := make([]string, len(h))
	for i, m := range h {
		out[i] = m.Content
	}
	return out
}

// Clone returns an independent copy.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// EstimateTokens returns the overhead-inclusive estimate for the whole history.
func (h History) EstimateTokens() int {
	return tokens.EstimateMessages(h.Contents())
}

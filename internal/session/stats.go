// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// Stats summarises a session for display.
type Stats struct {
	// Messages counts user messages.
	Messages     int
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	TotalCost    float64
	// AverageCost is TotalCost per user message, 0 without messages.
	AverageCost float64
}

// Stats returns the statistics of the current session.
func (s *Session) Stats() Stats {
	return s.State().Stats()
}

// Stats computes the statistics of the snapshot.
func (st State) Stats() Stats {
	var users int
	for _, m := range st.Messages {
		if m.Role == model.RoleUser {
			users++
		}
	}
	stats := Stats{
		Messages:     users,
		InputTokens:  st.Totals.InputTokens,
		OutputTokens: st.Totals.OutputTokens,
		TotalTokens:  st.Totals.InputTokens + st.Totals.OutputTokens,
		TotalCost:    st.Totals.Cost,
	}
	if users > 0 {
		stats.AverageCost = st.Totals.Cost / float64(users)
	}
	return stats
}

// Empty reports whether no message was sent yet.
func (s Stats) Empty() bool { return s.Messages == 0 }

// FormatInput renders the input token total.
func (s Stats) FormatInput() string { return tokens.FormatCount(s.InputTokens) }

// FormatOutput renders the output token total.
func (s Stats) FormatOutput() string { return tokens.FormatCount(s.OutputTokens) }

// FormatTotal renders the combined token total.
func (s Stats) FormatTotal() string { return tokens.FormatCount(s.TotalTokens) }

// FormatCost renders the total cost.
func (s Stats) FormatCost() string { return tokens.FormatCost(s.TotalCost) }

// FormatAverageCost renders the average cost per message.
func (s Stats) FormatAverageCost() string { return tokens.FormatCost(s.AverageCost) }

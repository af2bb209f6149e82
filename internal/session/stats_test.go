// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

func TestStats(t *testing.T) {
	st := State{
		Messages: model.History{
			model.NewUserMessage("a"),
			model.NewAssistantMessage("b"),
			model.NewUserMessage("c"),
			model.NewAssistantMessage("d"),
		},
		Totals: Totals{InputTokens: 1500, OutputTokens: 250, Cost: 3},
	}

	stats := st.Stats()
	assert.Equal(t, 2, stats.Messages)
	assert.Equal(t, 1750, stats.TotalTokens)
	assert.InDelta(t, 1.5, stats.AverageCost, 1e-12)
	assert.Equal(t, "1K", stats.FormatInput())
	assert.Equal(t, "250", stats.FormatOutput())
	assert.Equal(t, "1K", stats.FormatTotal())
	assert.Equal(t, "$3.00", stats.FormatCost())
	assert.Equal(t, "$1.50", stats.FormatAverageCost())
	assert.False(t, stats.Empty())
}

func TestStats_NoMessages(t *testing.T) {
	stats := State{}.Stats()
	assert.True(t, stats.Empty())
	assert.Zero(t, stats.AverageCost)
}

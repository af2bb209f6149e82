// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package weather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeMessenger answers with reply(req) and records every request.
type fakeMessenger struct {
	mu       sync.Mutex
	requests []cloud.ClaudeRequest
	reply    func(req cloud.ClaudeRequest) (string, error)
}

func (f *fakeMessenger) CreateMessage(ctx context.Context, req cloud.ClaudeRequest) (*cloud.ClaudeResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	text, err := f.reply(req)
	if err != nil {
		return nil, err
	}
	resp := &cloud.ClaudeResponse{Role: "assistant"}
	if text != "" {
		resp.Content = []cloud.ContentBlock{{Type: "text", Text: text}}
	}
	return resp, nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Report
	}{
		{"plain", `{"city": "Москва", "temperature": -3}`, Report{City: "Москва", Temperature: -3}},
		{"padded", "\n  {\"city\": \"Paris\", \"temperature\": 12.5}  \n", Report{City: "Paris", Temperature: 12.5}},
		{"json fence", "```json\n{\"city\": \"Oslo\", \"temperature\": 1}\n```", Report{City: "Oslo", Temperature: 1}},
		{"bare fence", "```\n{\"city\": \"Rome\", \"temperature\": 20}\n```", Report{City: "Rome", Temperature: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"Сейчас в Москве около нуля",
		`{"temperature": 4}`,
		`{"city": "Kazan", "temperature": "warm"}`,
	} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidReport, "input %q", in)
	}
}

func TestReportString(t *testing.T) {
	assert.Equal(t, "Москва: +5°C", Report{City: "Москва", Temperature: 5}.String())
	assert.Equal(t, "Oslo: -2.5°C", Report{City: "Oslo", Temperature: -2.5}.String())
	assert.Equal(t, "Quito: 0°C", Report{City: "Quito", Temperature: 0}.String())
}

func TestAskSendsSystemPromptAndDefaults(t *testing.T) {
	fake := &fakeMessenger{reply: func(cloud.ClaudeRequest) (string, error) {
		return `{"city": "Тверь", "temperature": 7}`, nil
	}}
	c := NewClient(fake)

	got, err := c.Ask(context.Background(), "погода в Твери")
	require.NoError(t, err)
	assert.Equal(t, Report{City: "Тверь", Temperature: 7}, got)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, model.ClaudeSonnet45, req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, SystemPrompt, req.System)
	assert.Equal(t, []cloud.ChatMessage{cloud.NewUserMessage("погода в Твери")}, req.Messages)
}

func TestAskEmptyResponse(t *testing.T) {
	fake := &fakeMessenger{reply: func(cloud.ClaudeRequest) (string, error) { return "", nil }}
	_, err := NewClient(fake).Ask(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClientOptions(t *testing.T) {
	fake := &fakeMessenger{reply: func(cloud.ClaudeRequest) (string, error) {
		return `{"city": "A", "temperature": 1}`, nil
	}}
	c := NewClient(fake).WithModel("haiku").WithMaxTokens(64).WithMaxTokens(0)
	_, err := c.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, model.ClaudeHaiku45, fake.requests[0].Model)
	assert.Equal(t, 64, fake.requests[0].MaxTokens)
}

func TestConversationKeepsHistory(t *testing.T) {
	answers := []string{
		`{"city": "Москва", "temperature": 2}`,
		"```json\n{\"city\": \"Казань\", \"temperature\": -1}\n```",
	}
	var n int
	fake := &fakeMessenger{reply: func(cloud.ClaudeRequest) (string, error) {
		a := answers[n]
		n++
		return a, nil
	}}
	cv := NewClient(fake).NewConversation()

	_, err := cv.Ask(context.Background(), "Москва?")
	require.NoError(t, err)
	r, err := cv.Ask(context.Background(), "А в Казани?")
	require.NoError(t, err)
	assert.Equal(t, "Казань", r.City)

	second := fake.requests[1].Messages
	want := []cloud.ChatMessage{
		cloud.NewUserMessage("Москва?"),
		cloud.NewAssistantMessage(answers[0]),
		cloud.NewUserMessage("А в Казани?"),
	}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("second request messages (-want +got):\n%s", diff)
	}

	turns := cv.Turns()
	require.Len(t, turns, 4)
	assert.Nil(t, turns[0].Report)
	require.NotNil(t, turns[3].Report)
	assert.Equal(t, Report{City: "Казань", Temperature: -1}, *turns[3].Report)
}

func TestConversationFailureKeepsQuestion(t *testing.T) {
	boom := errors.New("boom")
	fake := &fakeMessenger{reply: func(cloud.ClaudeRequest) (string, error) { return "", boom }}
	cv := NewClient(fake).NewConversation()

	_, err := cv.Ask(context.Background(), "Самара?")
	assert.ErrorIs(t, err, boom)

	turns := cv.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleUser, turns[0].Role)
}

func TestLookupBoundedAndOrdered(t *testing.T) {
	var inFlight, peak atomic.Int32
	fake := &fakeMessenger{reply: func(req cloud.ClaudeRequest) (string, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)

		q := req.Messages[0].Content
		if strings.Contains(q, "Нигде") {
			return "не знаю", nil
		}
		city := strings.TrimSuffix(strings.TrimPrefix(q, "Какая сейчас погода в городе "), "?")
		return `{"city": "` + city + `", "temperature": 10}`, nil
	}}

	cities := []string{"Москва", "Нигде", "Пермь", "Сочи", "Омск"}
	results, err := NewClient(fake).WithConcurrency(2).Lookup(context.Background(), cities)
	require.NoError(t, err)
	require.Len(t, results, len(cities))

	for i, r := range results {
		assert.Equal(t, cities[i], r.City)
		if cities[i] == "Нигде" {
			assert.ErrorIs(t, r.Err, ErrInvalidReport)
			assert.Nil(t, r.Report)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, cities[i], r.Report.City)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLookupCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeMessenger{reply: func(cloud.ClaudeRequest) (string, error) {
		return `{"city": "A", "temperature": 1}`, nil
	}}
	_, err := NewClient(fake).Lookup(ctx, []string{"A", "B"})
	assert.ErrorIs(t, err, context.Canceled)
}

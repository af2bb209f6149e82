// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns a chat conversation and its token accounting.
//
// A Session holds the message history, the selected model, the live token
// analysis of the pending input, the metrics of the last response and the
// running session totals. At most one send is in flight: a new Send (or a
// Clear) supersedes the previous one, whose result is then discarded.
//
// # Key Types
//
//   - Session: the conversation state machine
//   - Sender: the remote chat endpoint (cloud.HFClient, cloud.ClaudeSender)
//   - State: an immutable snapshot delivered to Config.OnChange
//   - Effect: one-shot notifications (errors, token warnings)
//
// # Usage
//
//	s := session.New(hfClient, session.Config{
//	    OnChange: func(st session.State) { ... },
//	    OnEffect: func(e session.Effect) { ... },
//	})
//	defer s.Close()
//	<-s.Send(ctx, "Привет")
package session

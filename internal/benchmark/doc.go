// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package benchmark provides canned prompts for exercising token limits.
//
// Five test cases grow from a one-line question to a prompt large enough to
// push the small-context model past its input limit. Each case can be
// analysed offline or sent through a fresh chat session to compare the
// estimate with the provider's actual usage.
//
// # Key Types
//
//   - TestCase: a canned prompt with its nominal size
//   - Runner: analyses and optionally sends every case
//   - Result: per-case outcomes plus aggregates
//
// # Usage
//
//	runner := benchmark.NewRunner(sender)
//	result, err := runner.Run(ctx, model.Llama, benchmark.RunOptions{Send: true})
package benchmark

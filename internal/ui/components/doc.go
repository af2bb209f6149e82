// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the worknote chat screen.

  - ToastManager (toast.go) - auto-dismissing error and warning toasts
  - TokenPanel (token_panel.go) - live analysis and forecast of the draft message
  - StatusBar (statusbar.go) - model, session totals and last reply metrics
  - TestPanel (testpanel.go) - the five built-in token test cases
  - RenderMessage (message.go) - one conversation entry

Components are plain structs with a View method; they hold no Bubble Tea
state of their own and are driven by the chat model.
*/
package components

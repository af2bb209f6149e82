// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/session"
)

func newTalkCommand(a *app) *cobra.Command {
	var claudeModel string
	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Chat with Claude through the same token-budget session",
		Long: `Start a line-mode chat with Claude (Anthropic Messages API).

Pre-send analysis uses the limits of the model selected with --model
(or /model), while requests go to the Claude model given by --claude-model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.chatModel()
			if err != nil {
				return err
			}
			client, err := a.claudeClient("talk")
			if err != nil {
				return err
			}
			if claudeModel != "" {
				client = client.WithModel(claudeModel)
			}

			r := newChatREPL(a, "talk", fmt.Sprintf("worknote talk · %s", client.Model()))
			cfg := r.sessionConfig(cmd.Context(), m)
			cfg.ModelID = client.Model()
			cfg.SystemPrompt = a.cfg.Anthropic.SystemPrompt
			cfg.MaxTokens = a.cfg.Anthropic.MaxTokens

			sess := session.New(client.AsSender(""), cfg)
			defer sess.Close()
			return r.run(cmd.Context(), sess)
		},
	}
	cmd.Flags().StringVar(&claudeModel, "claude-model", "", "Claude model (sonnet, sonnet-4, haiku or a full id)")
	return cmd
}

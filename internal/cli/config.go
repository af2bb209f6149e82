// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command.
//
// Command: config [subcommand]
// Short:   View and create the configuration file
//
// Subcommands:
//   show (default)      Display the effective configuration, secrets redacted
//   init                Write a default config file
//   path                Show the configuration file path
//
// Examples:
//   worknote config
//   worknote config init --force
//   worknote -c ./dev.toml config show

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	show := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration (secrets redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, RenderConditional(DimStyle, "# "+path))
			fmt.Fprint(a.out, a.cfg.String())
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, RenderConditional(DimStyle, "# huggingface token: "+cloud.NewHFClient(a.cfg.HuggingFace.Token).APIKeyMasked()))
			fmt.Fprintln(a.out, RenderConditional(DimStyle, "# anthropic key: "+cloud.NewClaudeClient(a.cfg.Anthropic.APIKey).APIKeyMasked()))
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &CommandError{Command: "config init", Reason: path + " already exists (use --force to overwrite)"}
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s Wrote %s\n", RenderConditional(SuccessStyle, "✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	path := &cobra.Command{
		Use:         "path",
		Short:       "Show the configuration file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, p)
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and create the configuration file",
		Args:  cobra.NoArgs,
		RunE:  show.RunE,
	}
	cmd.AddCommand(show, initCmd, path)
	return cmd
}

// resolvedConfigPath returns --config or the default path.
func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

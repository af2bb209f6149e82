// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "worknote",
		Short: "Token-budget aware chat client for HuggingFace and Claude",
		Long: `worknote estimates how many tokens a prompt will cost before it is sent,
warns when a model's input limit is close, and reports real usage and cost
after each reply.

Run without arguments to start the interactive chat interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Commands that must work with a broken config skip loading.
			if cmd.Annotations["skipConfig"] == "true" {
				return nil
			}
			return a.init(cmd.Annotations["tui"] == "true")
		},
		Annotations: map[string]string{"tui": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.worknote/config.toml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVarP(&a.modelName, "model", "m", "", "chat model: deepseek, qwen or llama")

	root.AddCommand(
		newTUICommand(a),
		newChatCommand(a),
		newAskCommand(a),
		newAnalyzeCommand(a),
		newTestCasesCommand(a),
		newWeatherCommand(a),
		newTalkCommand(a),
		newLoginCommand(a),
		newDeviceCommand(a),
		newConfigCommand(a),
		newDoctorCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	if err := a.execute(ctx, newRootCommand(a)); err != nil {
		fmt.Fprintln(os.Stderr, RenderConditional(ErrorStyle, "Error:"), err)
		return ExitCodeFor(err)
	}
	return ExitSuccess
}

// execute runs root and releases the app's resources afterwards. Cobra skips
// post-run hooks when a command fails, so cleanup lives here.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}

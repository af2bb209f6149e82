// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/device"
	"github.com/macdroidapps/WorknoteChallenge/internal/storage"
)

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [name]",
		Short: "Save your name, or show the saved one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.openSettings()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				login, err := settings.UserLogin(cmd.Context())
				if err != nil {
					if storage.IsNotFound(err) {
						fmt.Fprintln(a.out, "Not logged in.")
						return nil
					}
					return err
				}
				fmt.Fprintln(a.out, login)
				return nil
			}

			login := strings.TrimSpace(args[0])
			if err := settings.SaveUserLogin(cmd.Context(), login); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s Saved login %q\n", RenderConditional(SuccessStyle, "✓"), login)
			return nil
		},
	}
}

// deviceInfo is the structured output of device.
type deviceInfo struct {
	DeviceID   string          `json:"device_id" yaml:"device_id"`
	AppVersion string          `json:"app_version" yaml:"app_version"`
	Formatted  string          `json:"formatted_id" yaml:"formatted_id"`
	Platform   device.Platform `json:"platform" yaml:"platform"`
}

func newDeviceCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Show the device id, app version and platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.openSettings()
			if err != nil {
				return err
			}
			p := device.NewProvider(settings).
				WithVersion(Version).
				WithLogger(a.logger.Named("device"))
			id, err := p.DeviceID(cmd.Context())
			if err != nil {
				return err
			}
			formatted, err := p.FormattedDeviceID(cmd.Context())
			if err != nil {
				return err
			}
			info := deviceInfo{
				DeviceID:   id,
				AppVersion: p.AppVersion(),
				Formatted:  formatted,
				Platform:   device.CurrentPlatform(),
			}
			return writeReport(a.out, output, info, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", RenderLabel("Device ID"), info.DeviceID)
				fmt.Fprintf(w, "%s %s\n", RenderLabel("App version"), info.AppVersion)
				fmt.Fprintf(w, "%s %s\n", RenderLabel("Formatted ID"), info.Formatted)
				fmt.Fprintf(w, "%s %s\n", RenderLabel("Platform"), info.Platform)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

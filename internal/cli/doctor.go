// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Health checks for configuration, credentials and storage.
//
// Command: doctor
// Short:   Run health checks and diagnostics
// Aliases: diag
//
// Examples:
//   worknote doctor              Run all health checks
//   worknote doctor -o json      Results as JSON
//
// Health Checks Performed:
//   1. Config Valid       - The config file parses and validates
//   2. HuggingFace Token  - A router token is configured
//   3. Anthropic Key      - A Claude key is configured (optional)
//   4. Data Directory     - The data directory is writable
//   5. Settings Store     - The settings database opens
//   6. Terminal           - Interactive terminal and colour support

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/config"
	"github.com/macdroidapps/WorknoteChallenge/internal/storage"
	"github.com/macdroidapps/WorknoteChallenge/internal/util"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the lower-case status name.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Symbol returns the styled marker for the status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return RenderConditional(SuccessStyle, "[OK]")
	case CheckWarn:
		return RenderConditional(WarningStyle, "[!!]")
	default:
		return RenderConditional(ErrorStyle, "[FAIL]")
	}
}

// HealthCheck is a single health check result.
type HealthCheck struct {
	Name    string      `json:"name" yaml:"name"`
	Status  CheckStatus `json:"status" yaml:"status"`
	Message string      `json:"message" yaml:"message"`
	Fix     string      `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// Render returns the check as one or two lines.
func (c HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + RenderConditional(DimStyle, "   -> "+c.Fix)
	}
	return result
}

// doctorReport is the structured output of doctor.
type doctorReport struct {
	Checks  []HealthCheck `json:"checks" yaml:"checks"`
	Passed  int           `json:"passed" yaml:"passed"`
	Warned  int           `json:"warned" yaml:"warned"`
	Failed  int           `json:"failed" yaml:"failed"`
	Healthy bool          `json:"healthy" yaml:"healthy"`
}

func newDoctorReport(checks []HealthCheck) doctorReport {
	r := doctorReport{Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case CheckPass:
			r.Passed++
		case CheckWarn:
			r.Warned++
		case CheckFail:
			r.Failed++
		}
	}
	r.Healthy = r.Failed == 0
	return r
}

// =============================================================================
// COMMAND
// =============================================================================

func newDoctorCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag"},
		Short:   "Run health checks and diagnostics",
		Args:    cobra.NoArgs,
		// Loads the config itself so a broken file is reported, not fatal.
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			report := newDoctorReport(a.runChecks(cmd.Context()))
			if err := writeReport(a.out, output, report, func(w io.Writer) {
				writeDoctor(w, report)
			}); err != nil {
				return err
			}
			if !report.Healthy {
				return &CommandError{Command: "doctor", Reason: fmt.Sprintf("%d health check(s) failed", report.Failed)}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func writeDoctor(w io.Writer, r doctorReport) {
	fmt.Fprintln(w, RenderConditional(TitleStyle, "worknote doctor"))
	fmt.Fprintln(w, RenderSeparator(41))
	for _, c := range r.Checks {
		fmt.Fprintln(w, c.Render())
	}
	fmt.Fprintln(w, RenderSeparator(41))

	parts := []string{fmt.Sprintf("%d passed", r.Passed)}
	if r.Warned > 0 {
		parts = append(parts, RenderConditional(WarningStyle, fmt.Sprintf("%d warning", r.Warned)))
	}
	if r.Failed > 0 {
		parts = append(parts, RenderConditional(ErrorStyle, fmt.Sprintf("%d failed", r.Failed)))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// runChecks runs every health check in order.
func (a *app) runChecks(ctx context.Context) []HealthCheck {
	cfg, configCheck := a.checkConfigValid()
	return []HealthCheck{
		configCheck,
		checkHuggingFaceToken(cfg),
		checkAnthropicKey(cfg),
		checkDataDirWritable(cfg),
		checkSettingsStore(ctx, cfg),
		checkTerminal(),
	}
}

// checkConfigValid loads the config. The returned config is usable even
// when the check fails: it falls back to defaults plus environment.
func (a *app) checkConfigValid() (*config.Config, HealthCheck) {
	check := HealthCheck{Name: "Config Valid"}

	path, err := a.resolvedConfigPath()
	if err != nil {
		check.Status = CheckWarn
		check.Message = "Could not determine config path"
		return fallbackConfig(), check
	}

	cfg, err := config.Load(path)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %v", err)
		check.Fix = "Run: worknote config init --force"
		return fallbackConfig(), check
	}

	check.Status = CheckPass
	if _, err := os.Stat(path); err != nil {
		check.Message = "Config valid (using defaults)"
	} else {
		check.Message = "Config valid: " + path
	}
	return cfg, check
}

func fallbackConfig() *config.Config {
	cfg := config.Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	return cfg
}

func checkHuggingFaceToken(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "HuggingFace Token"}
	if cfg.HuggingFace.Token == "" {
		check.Status = CheckFail
		check.Message = "HuggingFace token not set (needed by chat, ask and tui)"
		check.Fix = "export HF_TOKEN=hf_..."
		return check
	}
	check.Status = CheckPass
	check.Message = "HuggingFace token configured " + cloud.NewHFClient(cfg.HuggingFace.Token).APIKeyMasked()
	return check
}

func checkAnthropicKey(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Anthropic Key"}
	if cfg.Anthropic.APIKey == "" {
		check.Status = CheckWarn
		check.Message = "Anthropic key not set (talk and weather unavailable)"
		check.Fix = "export ANTHROPIC_API_KEY=sk-ant-..."
		return check
	}
	check.Status = CheckPass
	check.Message = "Anthropic key configured " + cloud.NewClaudeClient(cfg.Anthropic.APIKey).APIKeyMasked()
	return check
}

func checkDataDirWritable(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Data Directory"}

	dir, err := cfg.DataDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine data directory: %v", err)
		return check
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not create data directory: %v", err)
		check.Fix = "mkdir -p " + dir
		return check
	}

	probe := filepath.Join(dir, ".write_test")
	if err := util.AtomicWriteFile(probe, []byte("ok"), 0o600); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Data directory not writable: %v", err)
		check.Fix = "chmod 700 " + dir
		return check
	}
	_ = os.Remove(probe)

	check.Status = CheckPass
	check.Message = "Data directory writable: " + dir
	return check
}

func checkSettingsStore(ctx context.Context, cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Settings Store"}

	path, err := cfg.SettingsPath()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine settings path: %v", err)
		return check
	}
	s, err := storage.Open(path)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Settings store unavailable: %v", err)
		check.Fix = "Remove " + path + " to recreate it"
		return check
	}
	defer s.Close()

	keys, err := s.Keys(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Settings store unreadable: %v", err)
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("Settings store ok (%d keys)", len(keys))
	return check
}

func checkTerminal() HealthCheck {
	check := HealthCheck{Name: "Terminal"}
	if !IsTTY() || !IsStdoutTTY() {
		check.Status = CheckWarn
		check.Message = "Not an interactive terminal (tui unavailable)"
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("Interactive terminal, %d columns, colours %v", GetTerminalWidth(), ColorsEnabled())
	return check
}

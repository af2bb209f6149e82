// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvFiles returns the dotenv files consulted by LoadDotEnv, in order.
// The working directory comes first so a project-local key wins.
func DotEnvFiles() []string {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	return files
}

// LoadDotEnv loads every existing file from DotEnvFiles into the process
// environment. Variables already set are never overwritten.
func LoadDotEnv() error {
	return loadDotEnvFiles(DotEnvFiles()...)
}

func loadDotEnvFiles(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", f, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load dotenv: %w", err)
	}
	return nil
}

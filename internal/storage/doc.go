// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local key-value settings for worknote.
//
// Settings live in a single SQLite database (pure Go driver, no cgo) under
// the data directory, ~/.worknote/settings.db by default.
//
// # Usage
//
//	settings, err := storage.Open(cfg.SettingsPath())
//	if err != nil {
//		return err
//	}
//	defer settings.Close()
//
//	err = settings.SaveUserLogin(ctx, "alice")
//	login, err := settings.UserLogin(ctx)
//
// Missing keys are reported with ErrNotFound.
package storage

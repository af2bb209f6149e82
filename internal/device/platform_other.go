// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix && !windows

package device

// MachineID is not available on this platform.
func MachineID() (string, error) {
	return "", ErrNoMachineID
}

func fillKernel(*Platform) {}

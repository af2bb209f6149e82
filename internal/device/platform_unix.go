// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build unix

package device

import (
	"golang.org/x/sys/unix"
)

// MachineID returns the systemd/dbus machine id.
func MachineID() (string, error) {
	return readMachineIDFile(machineIDFiles)
}

func fillKernel(p *Platform) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return
	}
	p.Kernel = unix.ByteSliceToString(u.Sysname[:])
	p.Release = unix.ByteSliceToString(u.Release[:])
	p.Machine = unix.ByteSliceToString(u.Machine[:])
}

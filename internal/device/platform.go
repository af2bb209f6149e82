// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package device

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// ErrNoMachineID is returned when the platform exposes no machine id.
var ErrNoMachineID = errors.New("machine id not available")

// Platform describes the host.
type Platform struct {
	OS       string `json:"os" yaml:"os"`
	Arch     string `json:"arch" yaml:"arch"`
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Kernel   string `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Release  string `json:"release,omitempty" yaml:"release,omitempty"`
	Machine  string `json:"machine,omitempty" yaml:"machine,omitempty"`
}

// CurrentPlatform describes the running host.
func CurrentPlatform() Platform {
	p := Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
	p.Hostname, _ = os.Hostname()
	fillKernel(&p)
	return p
}

// String renders e.g. "linux/amd64 (Linux 6.8.0, x86_64)".
func (p Platform) String() string {
	s := p.OS + "/" + p.Arch
	var details []string
	if p.Kernel != "" {
		k := p.Kernel
		if p.Release != "" {
			k += " " + p.Release
		}
		details = append(details, k)
	}
	if p.Machine != "" {
		details = append(details, p.Machine)
	}
	if len(details) > 0 {
		s += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
	}
	return s
}

// machineIDFiles are checked in order on Unix systems.
var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

func readMachineIDFile(paths []string) (string, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return "", ErrNoMachineID
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package device identifies the installation: a stable device id, the
// application version and a description of the host platform.
package device

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/storage"
)

// DefaultAppVersion is reported when no build version is available.
const DefaultAppVersion = "1.0.0"

// Version is set at build time:
//
//	go build -ldflags "-X github.com/macdroidapps/WorknoteChallenge/internal/device.Version=1.2.0"
var Version = ""

// namespace for ids derived from a machine id.
var deviceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://worknote.app/device"))

// Store persists the device id. *storage.Settings implements it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// =============================================================================
// PROVIDER
// =============================================================================

// Provider resolves and caches the device identity.
type Provider struct {
	store     Store
	machineID func() (string, error)
	version   string
	logger    *zap.Logger

	mu sync.Mutex
	id string
}

// NewProvider creates a provider backed by store. A nil store keeps the id
// in memory only.
func NewProvider(store Store) *Provider {
	return &Provider{
		store:     store,
		machineID: MachineID,
		version:   Version,
		logger:    zap.NewNop(),
	}
}

// WithVersion overrides the reported application version.
func (p *Provider) WithVersion(v string) *Provider {
	if v != "" {
		p.version = v
	}
	return p
}

// WithLogger sets the logger.
func (p *Provider) WithLogger(logger *zap.Logger) *Provider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// DeviceID returns the device id. Resolution order: the stored id, an id
// derived from the platform machine id, a random UUID. A freshly resolved
// id is persisted.
func (p *Provider) DeviceID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" {
		return p.id, nil
	}

	if p.store != nil {
		stored, err := p.store.Get(ctx, storage.KeyDeviceID)
		switch {
		case err == nil && strings.TrimSpace(stored) != "":
			p.id = stored
			return p.id, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return "", err
		}
	}

	id := p.deriveID()
	if p.store != nil {
		if err := p.store.Set(ctx, storage.KeyDeviceID, id); err != nil {
			return "", err
		}
	}
	p.id = id
	p.logger.Info("device id created", zap.String("device_id", id))
	return id, nil
}

func (p *Provider) deriveID() string {
	if p.machineID != nil {
		mid, err := p.machineID()
		if err == nil && mid != "" {
			return uuid.NewSHA1(deviceNamespace, []byte(mid)).String()
		}
		p.logger.Debug("machine id unavailable", zap.Error(err))
	}
	return uuid.New().String()
}

// AppVersion returns the application version.
func (p *Provider) AppVersion() string {
	if p.version != "" {
		return p.version
	}
	return buildVersion()
}

// FormattedDeviceID returns "<device id>_<app version>".
func (p *Provider) FormattedDeviceID(ctx context.Context) (string, error) {
	id, err := p.DeviceID(ctx)
	if err != nil {
		return "", err
	}
	return id + "_" + p.AppVersion(), nil
}

// buildVersion reads the module version from the binary, falling back to
// DefaultAppVersion for development builds.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return DefaultAppVersion
	}
	v := strings.TrimPrefix(info.Main.Version, "v")
	if v == "" || v == "(devel)" {
		return DefaultAppVersion
	}
	return v
}

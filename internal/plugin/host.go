// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
)

var tracer = otel.Tracer("parley/plugin")

// Host runs one plugin session: it initializes engines, loads the
// configured plugins in order, dispatches hooks while running, and
// tears everything down exactly once.
//
// Dispatch walks hold the read lock; Start and Shutdown hold the
// write lock, so no hook interleaves with loading or teardown.
type Host struct {
	pluginsDir string
	info       hook.HostInfo
	engines    *engine.Set
	registry   *Registry

	mu    sync.RWMutex
	state State
}

// NewHost creates a host over the given engine set. Relative plugin
// filenames resolve inside pluginsDir.
// Panics if engines is nil.
func NewHost(pluginsDir string, info hook.HostInfo, engines *engine.Set) *Host {
	if engines == nil {
		panic("plugin: engines cannot be nil")
	}
	return &Host{
		pluginsDir: pluginsDir,
		info:       info,
		engines:    engines,
		registry:   NewRegistry(),
	}
}

// State reports the current lifecycle state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Info returns the host identity passed to plugin init hooks.
func (h *Host) Info() hook.HostInfo { return h.info }

// Plugins returns the loaded plugins in load order.
func (h *Host) Plugins() []*Plugin {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.All()
}

// Engines exposes the engine set, for listings and diagnostics.
func (h *Host) Engines() *engine.Set { return h.engines }

// Start brings the session up: every engine gets its one Init chance
// (failures disable the engine, never the session), then the files
// load in the order given, then the whole batch receives init with
// the host identity. No plugin sees init before the last one loads.
func (h *Host) Start(ctx context.Context, filenames []string) error {
	ctx, span := tracer.Start(ctx, "Host.Start",
		trace.WithAttributes(attribute.Int("plugins.requested", len(filenames))))
	defer span.End()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateUninitialized {
		err := oops.In("plugin").With("state", h.state.String()).Wrap(ErrAlreadyStarted)
		span.RecordError(err)
		return err
	}

	h.engines.Init(ctx)
	h.state = StateEnginesReady

	for _, name := range filenames {
		h.load(ctx, name)
	}
	h.state = StatePluginsLoaded

	for _, p := range h.registry.All() {
		h.invokeNotify(ctx, p, hook.Init, h.info.Name, h.info.Version, h.info.Status)
	}
	h.state = StateRunning

	slog.Info("plugin host running",
		"plugins", h.registry.Len(),
		"engines", len(h.engines.Engines()))
	return nil
}

// load resolves and loads one plugin file. Failures never propagate:
// an extension no enabled engine claims is skipped quietly, a create
// failure is logged and skipped.
func (h *Host) load(ctx context.Context, name string) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.pluginsDir, name)
	}

	eng, err := h.engines.ForExtension(filepath.Ext(path))
	if err != nil {
		slog.Debug("skipping plugin file",
			"path", path,
			"reason", err)
		return
	}

	inst, err := eng.Create(ctx, path)
	if err != nil {
		slog.Warn("failed to load plugin",
			"path", path,
			"engine", eng.Name(),
			"error", err)
		return
	}

	p := newPlugin(path, eng.Name(), inst)
	h.registry.Add(p)
	PluginsLoaded.WithLabelValues(p.Engine).Inc()
	slog.Info("loaded plugin",
		"plugin", p.Name,
		"engine", p.Engine,
		"id", p.ID.String())
}

// Shutdown tears the session down: the onShutdown notification walks
// the registry, every instance closes in load order, and only then
// does each engine shut down, so an engine never outlives its
// instances in reverse. Shutdown is idempotent; after it returns the
// host is Terminated and dispatch is a permanent no-op.
func (h *Host) Shutdown(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Host.Shutdown")
	defer span.End()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateTerminated {
		return nil
	}

	running := h.state == StateRunning
	h.state = StateShuttingDown

	if running {
		for _, p := range h.registry.All() {
			h.invokeNotify(ctx, p, hook.OnShutdown)
		}
	}

	var errs []error
	for _, p := range h.registry.Drain() {
		if err := p.inst.Close(ctx); err != nil {
			errs = append(errs, oops.In("plugin").With("plugin", p.Name).With("operation", "close").Wrap(err))
			slog.Warn("failed to close plugin",
				"plugin", p.Name,
				"engine", p.Engine,
				"error", err)
		}
		PluginsLoaded.WithLabelValues(p.Engine).Dec()
	}

	if err := h.engines.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	h.state = StateTerminated
	slog.Info("plugin host terminated")

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

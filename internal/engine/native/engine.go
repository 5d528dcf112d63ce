// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package native loads compiled plugin modules (.so on Linux, .dylib
// on macOS) built with -buildmode=plugin. Exported functions carrying
// the Go-style hook names become bindings; transform hooks return
// *string, where nil keeps the message.
//
// The Go runtime cannot unload a loaded module, so destroying a
// native plugin only fences further dispatch. The module itself stays
// mapped until the process exits.
package native

import (
	"context"
	"plugin"
	"sync"

	"github.com/samber/oops"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/internal/engine/gobind"
	"github.com/parley-chat/parley/pkg/hook"
)

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*instance)(nil)
)

// lookuper resolves exported symbols from an opened module.
type lookuper interface {
	Lookup(name string) (plugin.Symbol, error)
}

type openFunc func(path string) (lookuper, error)

func defaultOpen(path string) (lookuper, error) {
	return plugin.Open(path)
}

// Engine runs native plugin modules.
type Engine struct {
	open openFunc
}

// New returns the native-module engine.
func New() *Engine { return &Engine{open: defaultOpen} }

// newWithOpen injects the module opener.
func newWithOpen(open openFunc) *Engine { return &Engine{open: open} }

// Name implements engine.Engine.
func (e *Engine) Name() string { return "native" }

// Extensions implements engine.Engine.
func (e *Engine) Extensions() []string { return []string{".so", ".dylib"} }

// Init implements engine.Engine.
func (e *Engine) Init(context.Context) error { return nil }

// Create opens the module and resolves every hook binding up front,
// the same contract the Go-source engine applies: a missing symbol is
// unbound, a wrong signature fails the load.
func (e *Engine) Create(_ context.Context, path string) (engine.Instance, error) {
	mod, err := e.open(path)
	if err != nil {
		return nil, oops.In("native").With("path", path).Hint("failed to open module").Wrap(err)
	}

	table := gobind.NewTable()
	for _, spec := range hook.Specs() {
		sym, err := mod.Lookup(spec.GoName)
		if err != nil {
			continue
		}
		if err := table.Bind(spec, sym); err != nil {
			return nil, oops.In("native").With("path", path).With("hook", spec.GoName).Wrap(err)
		}
	}

	return &instance{path: path, table: table}, nil
}

// Shutdown implements engine.Engine.
func (e *Engine) Shutdown(context.Context) error { return nil }

type instance struct {
	path string

	mu     sync.Mutex
	table  *gobind.Table
	closed bool
}

func (i *instance) Notify(_ context.Context, h hook.Hook, args ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return oops.In("native").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}
	i.table.Notify(h, args)
	return nil
}

func (i *instance) Transform(_ context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", false, oops.In("native").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}
	out, ok := i.table.Transform(h, message, args)
	return out, ok, nil
}

func (i *instance) Close(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.closed = true
	i.table = nil
	return nil
}

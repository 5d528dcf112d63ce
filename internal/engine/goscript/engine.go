// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package goscript runs Go source plugins through the yaegi
// interpreter. A plugin is a single main-package file whose exported
// functions carry the Go-style hook names (Init, OnStart, ...);
// transform hooks return *string, where nil keeps the message.
package goscript

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/samber/oops"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/internal/engine/gobind"
	"github.com/parley-chat/parley/pkg/hook"
)

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*instance)(nil)
)

// Engine runs .go plugins.
type Engine struct{}

// New returns the Go-source engine.
func New() *Engine { return &Engine{} }

// Name implements engine.Engine.
func (e *Engine) Name() string { return "go" }

// Extensions implements engine.Engine.
func (e *Engine) Extensions() []string { return []string{".go"} }

// Init implements engine.Engine.
func (e *Engine) Init(context.Context) error { return nil }

// hostExports is the parley package importable from plugin code.
var hostExports = interp.Exports{
	"parley/parley": {
		"Log": reflect.ValueOf(hostLog),
	},
}

func hostLog(level, msg string) {
	lv := slog.LevelInfo
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	}
	slog.Log(context.Background(), lv, msg, "source", "plugin", "engine", "go")
}

// Create interprets the file and resolves every hook binding up
// front. A hook symbol with the wrong signature fails the load; a
// missing symbol is simply not bound.
func (e *Engine) Create(_ context.Context, path string) (engine.Instance, error) {
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("go").With("path", path).Hint("failed to read plugin file").Wrap(err)
	}

	it := interp.New(interp.Options{})
	if err := it.Use(stdlib.Symbols); err != nil {
		return nil, oops.In("go").With("path", path).Hint("failed to load interpreter stdlib").Wrap(err)
	}
	if err := it.Use(hostExports); err != nil {
		return nil, oops.In("go").With("path", path).Hint("failed to load host exports").Wrap(err)
	}

	if _, err := it.Eval(string(src)); err != nil {
		return nil, oops.In("go").With("path", path).Hint("plugin top level failed").Wrap(err)
	}

	table := gobind.NewTable()
	for _, spec := range hook.Specs() {
		v, err := it.Eval("main." + spec.GoName)
		if err != nil {
			// Symbol not defined: the hook stays unbound.
			continue
		}
		if err := table.Bind(spec, v.Interface()); err != nil {
			return nil, oops.In("go").With("path", path).With("hook", spec.GoName).Wrap(err)
		}
	}

	return &instance{path: path, table: table}, nil
}

// Shutdown implements engine.Engine.
func (e *Engine) Shutdown(context.Context) error { return nil }

// instance dispatches to bindings resolved at load time. The
// interpreter is not goroutine safe, so calls are serialized.
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
		return oops.In("go").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}
	i.table.Notify(h, args)
	return nil
}

func (i *instance) Transform(_ context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", false, oops.In("go").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
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

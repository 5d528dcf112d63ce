// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package starlark embeds the Starlark interpreter as a plugin engine
// for Python-dialect plugins. Hook functions are plain top-level defs
// named after the hook table.
//
// Globals freeze once the top level finishes, so hook functions cannot
// mutate module state between calls. Plugins that accumulate state
// across hooks belong in one of the other script engines.
package starlark

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
)

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*instance)(nil)
)

// fileOptions loosens the Starlark dialect toward Python: top-level
// control flow, while loops, set literals, recursion, and global
// reassignment are all on.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Engine runs .py and .star plugins.
type Engine struct{}

// New returns the Starlark engine.
func New() *Engine { return &Engine{} }

// Name implements engine.Engine.
func (e *Engine) Name() string { return "starlark" }

// Extensions implements engine.Engine.
func (e *Engine) Extensions() []string { return []string{".py", ".star"} }

// Init implements engine.Engine.
func (e *Engine) Init(context.Context) error { return nil }

// Create executes the file's top level and keeps the resulting
// globals for hook dispatch.
func (e *Engine) Create(_ context.Context, path string) (engine.Instance, error) {
	thread := newThread(path)
	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, nil, predeclared())
	if err != nil {
		return nil, oops.In("starlark").With("path", path).Hint("plugin top level failed").Wrap(err)
	}
	return &instance{path: path, thread: thread, globals: globals}, nil
}

// Shutdown implements engine.Engine.
func (e *Engine) Shutdown(context.Context) error { return nil }

func newThread(path string) *starlark.Thread {
	return &starlark.Thread{
		Name: path,
		Print: func(_ *starlark.Thread, msg string) {
			slog.Info(msg, "source", "plugin", "engine", "starlark", "path", path)
		},
	}
}

// predeclared builds the parley.* module visible to plugin code.
func predeclared() starlark.StringDict {
	mod := &starlarkstruct.Module{
		Name: "parley",
		Members: starlark.StringDict{
			"log": starlark.NewBuiltin("log", hostLog),
		},
	}
	return starlark.StringDict{"parley": mod}
}

// hostLog implements parley.log(level, message).
func hostLog(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var level, msg string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "level", &level, "message", &msg); err != nil {
		return nil, err
	}

	lv := slog.LevelInfo
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	}
	slog.Log(context.Background(), lv, msg, "source", "plugin", "engine", "starlark")
	return starlark.None, nil
}

// instance is one loaded Starlark plugin. Threads are single use per
// goroutine, so the mutex serializes calls.
type instance struct {
	path string

	mu      sync.Mutex
	thread  *starlark.Thread
	globals starlark.StringDict
	closed  bool
}

// binding resolves the callable for a hook, or nil if the plugin does
// not implement it. A same-named global that is not callable is
// ignored.
func (i *instance) binding(h hook.Hook) starlark.Callable {
	v, ok := i.globals[string(h)]
	if !ok {
		return nil
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil
	}
	return fn
}

func (i *instance) Notify(_ context.Context, h hook.Hook, args ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return oops.In("starlark").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}

	fn := i.binding(h)
	if fn == nil {
		return nil
	}

	if _, err := starlark.Call(i.thread, fn, tuple(args...), nil); err != nil {
		return oops.In("starlark").With("path", i.path).With("hook", string(h)).Wrap(err)
	}
	return nil
}

func (i *instance) Transform(_ context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", false, oops.In("starlark").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}

	fn := i.binding(h)
	if fn == nil {
		return "", false, nil
	}

	ret, err := starlark.Call(i.thread, fn, tuple(append(args, message)...), nil)
	if err != nil {
		return "", false, oops.In("starlark").With("path", i.path).With("hook", string(h)).Wrap(err)
	}

	switch v := ret.(type) {
	case starlark.NoneType:
		return "", false, nil
	case starlark.String:
		return string(v), true, nil
	default:
		slog.Warn("plugin returned non-string from transform hook",
			"engine", "starlark",
			"path", i.path,
			"hook", string(h),
			"type", ret.Type())
		return "", false, nil
	}
}

func (i *instance) Close(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.closed = true
	i.globals = nil
	return nil
}

func tuple(args ...string) starlark.Tuple {
	out := make(starlark.Tuple, len(args))
	for n, a := range args {
		out[n] = starlark.String(a)
	}
	return out
}

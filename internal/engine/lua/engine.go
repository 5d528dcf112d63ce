// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package lua embeds a sandboxed Lua runtime as a plugin engine.
//
// Each plugin owns one persistent Lua state: top-level code runs once
// at load time and the hook functions it defines stay resident until
// the plugin is destroyed. States never share globals.
package lua

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
)

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*instance)(nil)
)

// Engine runs .lua plugins.
type Engine struct {
	factory *stateFactory
}

// New returns the Lua engine.
func New() *Engine {
	return &Engine{factory: newStateFactory()}
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return "lua" }

// Extensions implements engine.Engine.
func (e *Engine) Extensions() []string { return []string{".lua"} }

// Init implements engine.Engine. The interpreter is compiled in, so
// there is nothing that can fail here.
func (e *Engine) Init(context.Context) error { return nil }

// Create reads the file at path and runs its top level in a fresh
// sandboxed state.
func (e *Engine) Create(ctx context.Context, path string) (engine.Instance, error) {
	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("lua").With("path", path).Hint("failed to read plugin file").Wrap(err)
	}

	state, err := e.factory.newState()
	if err != nil {
		return nil, oops.In("lua").With("path", path).Hint("failed to create state").Wrap(err)
	}

	state.SetContext(ctx)
	if err := state.DoString(string(code)); err != nil {
		state.Close()
		return nil, oops.In("lua").With("path", path).Hint("plugin top level failed").Wrap(err)
	}

	return &instance{path: path, state: state}, nil
}

// Shutdown implements engine.Engine. Instances own their states, so
// the engine itself holds nothing to release.
func (e *Engine) Shutdown(context.Context) error { return nil }

// instance is one loaded Lua plugin. The Lua state is single threaded;
// the mutex serializes every entry into it.
type instance struct {
	path string

	mu     sync.Mutex
	state  *lua.LState
	closed bool
}

func (i *instance) Notify(ctx context.Context, h hook.Hook, args ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return oops.In("lua").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}

	fn := i.state.GetGlobal(string(h))
	if fn.Type() != lua.LTFunction {
		return nil
	}

	i.state.SetContext(ctx)
	if err := i.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, luaArgs(args...)...); err != nil {
		return oops.In("lua").With("path", i.path).With("hook", string(h)).Wrap(err)
	}
	return nil
}

func (i *instance) Transform(ctx context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return "", false, oops.In("lua").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}

	fn := i.state.GetGlobal(string(h))
	if fn.Type() != lua.LTFunction {
		return "", false, nil
	}

	i.state.SetContext(ctx)
	callArgs := luaArgs(append(args, message)...)
	if err := i.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, callArgs...); err != nil {
		return "", false, oops.In("lua").With("path", i.path).With("hook", string(h)).Wrap(err)
	}

	ret := i.state.Get(-1)
	i.state.Pop(1)

	switch ret.Type() {
	case lua.LTNil:
		return "", false, nil
	case lua.LTString:
		return lua.LVAsString(ret), true, nil
	default:
		slog.Warn("plugin returned non-string from transform hook",
			"engine", "lua",
			"path", i.path,
			"hook", string(h),
			"type", ret.Type().String())
		return "", false, nil
	}
}

func (i *instance) Close(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.state.Close()
	return nil
}

func luaArgs(args ...string) []lua.LValue {
	out := make([]lua.LValue, len(args))
	for n, a := range args {
		out[n] = lua.LString(a)
	}
	return out
}

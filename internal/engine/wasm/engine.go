// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package wasm hosts WebAssembly plugins through Extism. Exported
// guest functions named after the hook table become bindings; a guest
// without a given export simply skips that hook.
//
// Calls cross the sandbox as JSON: {"args": [...]} for notifications,
// plus a "message" field for transforms. A transform keeps the
// message by returning no output, so an empty-string replacement is
// not expressible from a wasm guest.
package wasm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	extism "github.com/extism/go-sdk"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
)

var tracer = otel.Tracer("parley/wasm")

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*instance)(nil)
)

// module is the slice of extism.Plugin the instance relies on.
type module interface {
	FunctionExists(name string) bool
	Call(name string, data []byte) (uint32, []byte, error)
	Close(ctx context.Context) error
}

type loadFunc func(ctx context.Context, path string) (module, error)

func defaultLoad(ctx context.Context, path string) (module, error) {
	wasmBytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	manifest := extism.Manifest{
		Wasm: []extism.Wasm{
			extism.WasmData{Data: wasmBytes},
		},
	}
	config := extism.PluginConfig{
		EnableWasi: true,
	}
	return extism.NewPlugin(ctx, manifest, config, nil)
}

// Engine runs .wasm plugins.
type Engine struct {
	load loadFunc
}

// New returns the wasm engine.
func New() *Engine { return &Engine{load: defaultLoad} }

// newWithLoader injects the module loader.
func newWithLoader(load loadFunc) *Engine { return &Engine{load: load} }

// Name implements engine.Engine.
func (e *Engine) Name() string { return "wasm" }

// Extensions implements engine.Engine.
func (e *Engine) Extensions() []string { return []string{".wasm"} }

// Init implements engine.Engine.
func (e *Engine) Init(context.Context) error { return nil }

// Create compiles the module. Guests run with WASI enabled.
func (e *Engine) Create(ctx context.Context, path string) (engine.Instance, error) {
	ctx, span := tracer.Start(ctx, "wasm.Create",
		trace.WithAttributes(attribute.String("plugin.path", path)))
	defer span.End()

	mod, err := e.load(ctx, path)
	if err != nil {
		err = oops.In("wasm").With("path", path).Hint("failed to load module").Wrap(err)
		span.RecordError(err)
		return nil, err
	}
	return &instance{path: path, mod: mod}, nil
}

// Shutdown implements engine.Engine.
func (e *Engine) Shutdown(context.Context) error { return nil }

// callInput is the JSON payload handed to guest hook functions.
type callInput struct {
	Args    []string `json:"args"`
	Message string   `json:"message,omitempty"`
}

// instance is one instantiated wasm guest. Extism plugin calls are
// not concurrency safe, so the mutex serializes them.
type instance struct {
	path string

	mu     sync.Mutex
	mod    module
	closed bool
}

func (i *instance) Notify(ctx context.Context, h hook.Hook, args ...string) error {
	_, span := tracer.Start(ctx, "wasm.Notify",
		trace.WithAttributes(
			attribute.String("plugin.path", i.path),
			attribute.String("hook", string(h)),
		))
	defer span.End()

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		err := oops.In("wasm").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
		span.RecordError(err)
		return err
	}
	if !i.mod.FunctionExists(string(h)) {
		return nil
	}

	input, err := json.Marshal(callInput{Args: args})
	if err != nil {
		return oops.In("wasm").With("path", i.path).With("hook", string(h)).Wrap(err)
	}
	if _, _, err := i.mod.Call(string(h), input); err != nil {
		err = oops.In("wasm").With("path", i.path).With("hook", string(h)).Wrap(err)
		span.RecordError(err)
		return err
	}
	return nil
}

func (i *instance) Transform(ctx context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	_, span := tracer.Start(ctx, "wasm.Transform",
		trace.WithAttributes(
			attribute.String("plugin.path", i.path),
			attribute.String("hook", string(h)),
		))
	defer span.End()

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		err := oops.In("wasm").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
		span.RecordError(err)
		return "", false, err
	}
	if !i.mod.FunctionExists(string(h)) {
		return "", false, nil
	}

	input, err := json.Marshal(callInput{Args: args, Message: message})
	if err != nil {
		return "", false, oops.In("wasm").With("path", i.path).With("hook", string(h)).Wrap(err)
	}
	_, output, err := i.mod.Call(string(h), input)
	if err != nil {
		err = oops.In("wasm").With("path", i.path).With("hook", string(h)).Wrap(err)
		span.RecordError(err)
		return "", false, err
	}
	if len(output) == 0 {
		return "", false, nil
	}
	return string(output), true, nil
}

func (i *instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.mod.Close(ctx)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package enginetest provides scriptable engine fakes for tests.
package enginetest

import (
	"context"
	"sync"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
)

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*Instance)(nil)
)

// Engine is an in-memory engine.Engine whose behavior tests steer
// through its public fields.
type Engine struct {
	EngineName string
	Exts       []string

	InitErr     error
	CreateErr   error
	ShutdownErr error

	// CreateFunc overrides instance creation when set. Otherwise
	// Create returns a fresh Instance recorded in Instances.
	CreateFunc func(ctx context.Context, path string) (engine.Instance, error)

	mu            sync.Mutex
	InitCalls     int
	ShutdownCalls int
	Instances     []*Instance
}

// NewEngine returns a fake claiming the given extensions.
func NewEngine(name string, exts ...string) *Engine {
	return &Engine{EngineName: name, Exts: exts}
}

func (e *Engine) Name() string         { return e.EngineName }
func (e *Engine) Extensions() []string { return e.Exts }

func (e *Engine) Init(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.InitCalls++
	return e.InitErr
}

func (e *Engine) Create(ctx context.Context, path string) (engine.Instance, error) {
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	if e.CreateFunc != nil {
		return e.CreateFunc(ctx, path)
	}
	inst := &Instance{Path: path}
	e.mu.Lock()
	e.Instances = append(e.Instances, inst)
	e.mu.Unlock()
	return inst, nil
}

func (e *Engine) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ShutdownCalls++
	return e.ShutdownErr
}

// Call records one hook invocation on an Instance.
type Call struct {
	Hook    hook.Hook
	Message string
	Args    []string
}

// Instance is an in-memory engine.Instance that records every hook
// invocation.
type Instance struct {
	Path string

	NotifyErr error

	// TransformFunc decides the transform result when set. The
	// default keeps the message (ok false).
	TransformFunc func(h hook.Hook, message string, args []string) (string, bool, error)

	// PanicOn makes both Notify and Transform panic for this hook.
	PanicOn hook.Hook

	CloseErr error

	mu         sync.Mutex
	Notifies   []Call
	Transforms []Call
	CloseCalls int
	Closed     bool
}

func (i *Instance) Notify(_ context.Context, h hook.Hook, args ...string) error {
	i.mu.Lock()
	i.Notifies = append(i.Notifies, Call{Hook: h, Args: append([]string(nil), args...)})
	i.mu.Unlock()
	if i.PanicOn != "" && i.PanicOn == h {
		panic("enginetest: scripted panic in " + string(h))
	}
	return i.NotifyErr
}

func (i *Instance) Transform(_ context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	i.mu.Lock()
	i.Transforms = append(i.Transforms, Call{Hook: h, Message: message, Args: append([]string(nil), args...)})
	i.mu.Unlock()
	if i.PanicOn != "" && i.PanicOn == h {
		panic("enginetest: scripted panic in " + string(h))
	}
	if i.TransformFunc == nil {
		return "", false, nil
	}
	return i.TransformFunc(h, message, args)
}

func (i *Instance) Close(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.CloseCalls++
	i.Closed = true
	return i.CloseErr
}

// Hooks returns the notification hooks seen so far, in order.
func (i *Instance) Hooks() []hook.Hook {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]hook.Hook, len(i.Notifies))
	for n, c := range i.Notifies {
		out[n] = c.Hook
	}
	return out
}

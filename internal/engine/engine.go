// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package engine defines the contract every plugin language runtime
// implements, and the Set that tracks which runtimes are usable in
// the current session.
package engine

import (
	"context"

	"github.com/parley-chat/parley/pkg/hook"
)

// Engine embeds one plugin language. An Engine is initialized at most
// once per session, creates any number of plugin instances, and is
// shut down exactly once after every instance it created has been
// closed.
type Engine interface {
	// Name identifies the runtime ("lua", "starlark", "native", ...).
	Name() string

	// Extensions lists the file extensions this engine claims,
	// including the leading dot.
	Extensions() []string

	// Init prepares the shared runtime. An error here disables the
	// engine for the whole session; it is never retried.
	Init(ctx context.Context) error

	// Create loads the file at path into a fresh plugin instance.
	// Engines must not share mutable interpreter state between
	// instances.
	Create(ctx context.Context, path string) (Instance, error)

	// Shutdown releases the shared runtime. All instances are closed
	// before this is called.
	Shutdown(ctx context.Context) error
}

// Instance is one loaded plugin inside its engine. A hook the plugin
// does not implement is a silent no-op for both methods.
type Instance interface {
	// Notify invokes a notification hook for effect.
	Notify(ctx context.Context, h hook.Hook, args ...string) error

	// Transform invokes a transform hook. The binding receives args
	// in order with message appended last. ok reports whether the
	// plugin produced a replacement; when ok is false the caller
	// keeps its current message.
	Transform(ctx context.Context, h hook.Hook, message string, args ...string) (replacement string, ok bool, err error)

	// Close destroys the instance. Further calls on the instance
	// fail.
	Close(ctx context.Context) error
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package plugin loads, tracks, and dispatches to the extensions a
// session runs. The Host owns the whole lifecycle; everything else in
// the package serves it.
package plugin

import (
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/parley-chat/parley/internal/engine"
)

// Plugin is one loaded extension. It is created by exactly one engine
// and keeps that association for its whole life.
type Plugin struct {
	// ID is the per-process instance id.
	ID ulid.ULID
	// Path is the file the plugin was loaded from.
	Path string
	// Name is the file's base name, used in logs and listings.
	Name string
	// Engine names the engine that owns the instance.
	Engine string

	inst engine.Instance
}

func newPlugin(path, engineName string, inst engine.Instance) *Plugin {
	return &Plugin{
		ID:     newID(),
		Path:   path,
		Name:   filepath.Base(path),
		Engine: engineName,
		inst:   inst,
	}
}

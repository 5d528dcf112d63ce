// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

// State tracks where the host is in its single-session lifecycle.
// States only move forward; Terminated is absorbing.
type State int

const (
	// StateUninitialized is the zero state before Start.
	StateUninitialized State = iota
	// StateEnginesReady means every engine had its one Init chance.
	StateEnginesReady
	// StatePluginsLoaded means the whole load batch is in the
	// registry but no plugin has seen init yet.
	StatePluginsLoaded
	// StateRunning accepts hook dispatch.
	StateRunning
	// StateShuttingDown is the teardown walk in progress.
	StateShuttingDown
	// StateTerminated is final; dispatch is a no-op forever after.
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEnginesReady:
		return "engines-ready"
	case StatePluginsLoaded:
		return "plugins-loaded"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

import "sync"

// Registry keeps loaded plugins in load order, which is also dispatch
// order for every hook. It only grows during a load batch and is
// drained once at teardown. Duplicate paths are allowed; each load
// gets its own entry and id.
type Registry struct {
	mu   sync.RWMutex
	list []*Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends p, preserving insertion order.
func (r *Registry) Add(p *Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, p)
}

// All returns an ordered snapshot.
func (r *Registry) All() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, len(r.list))
	copy(out, r.list)
	return out
}

// Len reports the number of loaded plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Drain empties the registry and returns what it held, in order.
func (r *Registry) Drain() []*Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.list
	r.list = nil
	return out
}

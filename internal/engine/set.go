// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/oops"
)

// Set holds the engines configured for a session, keyed by the file
// extensions they claim. Engines whose Init fails are disabled and
// stay disabled until the next session; lookups for their extensions
// report the stored failure.
type Set struct {
	mu       sync.RWMutex
	order    []Engine
	byExt    map[string]Engine
	disabled map[string]error
	ready    bool
	closed   bool
}

// New builds a Set from the given engines. It panics when two engines
// claim the same extension, since the engine roster is fixed wiring.
func New(engines ...Engine) *Set {
	s := &Set{
		byExt:    make(map[string]Engine),
		disabled: make(map[string]error),
	}
	for _, e := range engines {
		for _, ext := range e.Extensions() {
			ext = normalizeExt(ext)
			if prev, ok := s.byExt[ext]; ok {
				panic(fmt.Sprintf("engine: %s and %s both claim %s", prev.Name(), e.Name(), ext))
			}
			s.byExt[ext] = e
		}
		s.order = append(s.order, e)
	}
	return s
}

// Init initializes every engine once. A failing engine is logged and
// disabled; the session continues with the rest. Calling Init again
// is a no-op.
func (s *Set) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready || s.closed {
		return
	}
	for _, e := range s.order {
		if err := e.Init(ctx); err != nil {
			s.disabled[e.Name()] = err
			slog.Warn("plugin engine disabled",
				"engine", e.Name(),
				"error", err)
			continue
		}
		slog.Debug("plugin engine ready", "engine", e.Name())
	}
	s.ready = true
}

// ForExtension resolves the engine claiming ext. It returns
// ErrUnsupported when no engine claims the extension and the stored
// init failure when the claiming engine is disabled.
func (s *Set) ForExtension(ext string) (Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, oops.In("engine").With("extension", ext).Wrap(ErrClosed)
	}
	e, ok := s.byExt[normalizeExt(ext)]
	if !ok {
		return nil, oops.In("engine").With("extension", ext).Wrap(ErrUnsupported)
	}
	if err, down := s.disabled[e.Name()]; down {
		return nil, oops.In("engine").With("engine", e.Name()).With("extension", ext).Hint("engine failed to initialize").Wrap(err)
	}
	if !s.ready {
		return nil, oops.In("engine").With("engine", e.Name()).Wrap(ErrNotInitialized)
	}
	return e, nil
}

// Engines returns the enabled engines in registration order.
func (s *Set) Engines() []Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Engine, 0, len(s.order))
	for _, e := range s.order {
		if _, down := s.disabled[e.Name()]; down {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Extensions returns every extension claimed by an enabled engine, in
// engine registration order.
func (s *Set) Extensions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, e := range s.order {
		if _, down := s.disabled[e.Name()]; down {
			continue
		}
		for _, ext := range e.Extensions() {
			out = append(out, normalizeExt(ext))
		}
	}
	return out
}

// Disabled reports engines rejected during Init and why.
func (s *Set) Disabled() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]error, len(s.disabled))
	for name, err := range s.disabled {
		out[name] = err
	}
	return out
}

// Shutdown stops every engine that initialized, in registration
// order, and closes the Set. It is idempotent; engines that never
// ran Init are left untouched.
func (s *Set) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if !s.ready {
		return nil
	}

	var errs []error
	for _, e := range s.order {
		if _, down := s.disabled[e.Name()]; down {
			continue
		}
		if err := e.Shutdown(ctx); err != nil {
			errs = append(errs, oops.In("engine").With("engine", e.Name()).With("operation", "shutdown").Wrap(err))
		}
	}
	return errors.Join(errs...)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

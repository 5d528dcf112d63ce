// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package gobind maps Go function values onto the hook table. Both
// engines that dispatch to real Go functions (interpreted source and
// native modules) resolve their symbols through it, so the accepted
// signatures stay identical across the two.
package gobind

import (
	"errors"

	"github.com/parley-chat/parley/pkg/hook"
)

// ErrWrongShape reports a symbol that exists under a hook name but
// does not match the signature the hook table requires.
var ErrWrongShape = errors.New("hook has the wrong signature")

// Table holds resolved hook bindings. Notification bindings take the
// context args; transform bindings additionally take the message and
// return nil to keep it.
type Table struct {
	notify     map[hook.Hook]func([]string)
	transforms map[hook.Hook]func([]string, string) *string
}

// NewTable returns an empty binding table.
func NewTable() *Table {
	return &Table{
		notify:     make(map[hook.Hook]func([]string)),
		transforms: make(map[hook.Hook]func([]string, string) *string),
	}
}

// Bind registers sym under spec. The symbol's shape must match the
// spec's kind and arity exactly; anything else is ErrWrongShape.
func (t *Table) Bind(spec hook.Spec, sym any) error {
	if spec.Kind == hook.Notification {
		var bound func([]string)
		switch spec.NumArgs {
		case 0:
			if fn, ok := sym.(func()); ok {
				bound = func([]string) { fn() }
			}
		case 2:
			if fn, ok := sym.(func(string, string)); ok {
				bound = func(a []string) { fn(a[0], a[1]) }
			}
		case 3:
			if fn, ok := sym.(func(string, string, string)); ok {
				bound = func(a []string) { fn(a[0], a[1], a[2]) }
			}
		}
		if bound == nil {
			return ErrWrongShape
		}
		t.notify[spec.Name] = bound
		return nil
	}

	var bound func([]string, string) *string
	switch spec.NumArgs {
	case 0:
		if fn, ok := sym.(func(string) *string); ok {
			bound = func(_ []string, msg string) *string { return fn(msg) }
		}
	case 1:
		if fn, ok := sym.(func(string, string) *string); ok {
			bound = func(a []string, msg string) *string { return fn(a[0], msg) }
		}
	case 2:
		if fn, ok := sym.(func(string, string, string) *string); ok {
			bound = func(a []string, msg string) *string { return fn(a[0], a[1], msg) }
		}
	}
	if bound == nil {
		return ErrWrongShape
	}
	t.transforms[spec.Name] = bound
	return nil
}

// Notify invokes the bound notification, reporting whether a binding
// existed.
func (t *Table) Notify(h hook.Hook, args []string) bool {
	fn, ok := t.notify[h]
	if !ok {
		return false
	}
	fn(args)
	return true
}

// Transform invokes the bound transform. ok reports whether the
// binding produced a replacement.
func (t *Table) Transform(h hook.Hook, message string, args []string) (string, bool) {
	fn, ok := t.transforms[h]
	if !ok {
		return "", false
	}
	out := fn(args, message)
	if out == nil {
		return "", false
	}
	return *out, true
}

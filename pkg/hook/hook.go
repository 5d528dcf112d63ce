// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package hook defines the extension points Parley exposes to plugins.
//
// Every plugin language binding sees the same fixed table of hooks. A
// hook is either a notification (fire-and-forget, no return value) or
// a transform (may return a replacement for the message it was given).
// Plugins are free to implement any subset; an unimplemented hook is a
// no-op.
package hook

// Hook names a single extension point. The string value is the symbol
// plugins bind in script languages (Python-dialect, Lua), where the
// names below are valid identifiers as-is.
type Hook string

// The complete hook table. Load order of plugins is dispatch order for
// every hook, always.
const (
	// Init is invoked exactly once per plugin, after the entire load
	// batch completes, with the host's name, version, and status.
	Init Hook = "init"

	// OnStart fires once the client has started.
	OnStart Hook = "onStart"

	// OnConnect fires when an account comes online. Args: account
	// name, full JID.
	OnConnect Hook = "onConnect"

	// OnDisconnect fires when an account goes offline. Args: account
	// name, full JID.
	OnDisconnect Hook = "onDisconnect"

	// BeforeMessageDisplayed may rewrite any message just before the
	// UI renders it.
	BeforeMessageDisplayed Hook = "beforeMessageDisplayed"

	// OnMessageReceived may rewrite an incoming chat message. Args:
	// sender JID.
	OnMessageReceived Hook = "onMessageReceived"

	// OnPrivateMessageReceived may rewrite an incoming room private
	// message. Args: room, nick.
	OnPrivateMessageReceived Hook = "onPrivateMessageReceived"

	// OnRoomMessageReceived may rewrite an incoming room message.
	// Args: room, nick.
	OnRoomMessageReceived Hook = "onRoomMessageReceived"

	// OnMessageSend may rewrite an outgoing chat message. Args:
	// recipient JID.
	OnMessageSend Hook = "onMessageSend"

	// OnPrivateMessageSend may rewrite an outgoing room private
	// message. Args: room, nick.
	OnPrivateMessageSend Hook = "onPrivateMessageSend"

	// OnRoomMessageSend may rewrite an outgoing room message. Args:
	// room.
	OnRoomMessageSend Hook = "onRoomMessageSend"

	// OnShutdown fires once before plugins are destroyed.
	OnShutdown Hook = "onShutdown"
)

// Kind distinguishes the two dispatch shapes.
type Kind int

const (
	// Notification hooks are invoked for effect; return values are
	// ignored.
	Notification Kind = iota
	// Transform hooks receive the current message as their final
	// argument and may return a replacement for it.
	Transform
)

// String returns "notification" or "transform".
func (k Kind) String() string {
	if k == Transform {
		return "transform"
	}
	return "notification"
}

// Spec describes one entry of the hook-function table.
type Spec struct {
	// Name is the binding symbol for script languages.
	Name Hook
	// GoName is the exported binding symbol for compiled and
	// interpreted-Go plugins.
	GoName string
	// Kind selects the dispatch shape.
	Kind Kind
	// NumArgs is the number of context arguments. For transform hooks
	// it excludes the message, which is always passed last.
	NumArgs int
}

// specs is the fixed hook-function table, in dispatch declaration
// order. Engines consult it to bind symbols and check arity; the
// dispatcher consults it to pick the walk shape.
var specs = []Spec{
	{Init, "Init", Notification, 3},
	{OnStart, "OnStart", Notification, 0},
	{OnConnect, "OnConnect", Notification, 2},
	{OnDisconnect, "OnDisconnect", Notification, 2},
	{BeforeMessageDisplayed, "BeforeMessageDisplayed", Transform, 0},
	{OnMessageReceived, "OnMessageReceived", Transform, 1},
	{OnPrivateMessageReceived, "OnPrivateMessageReceived", Transform, 2},
	{OnRoomMessageReceived, "OnRoomMessageReceived", Transform, 2},
	{OnMessageSend, "OnMessageSend", Transform, 1},
	{OnPrivateMessageSend, "OnPrivateMessageSend", Transform, 2},
	{OnRoomMessageSend, "OnRoomMessageSend", Transform, 1},
	{OnShutdown, "OnShutdown", Notification, 0},
}

// byName indexes specs for Lookup.
var byName = func() map[Hook]Spec {
	m := make(map[Hook]Spec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return m
}()

// Lookup returns the table entry for h.
func Lookup(h Hook) (Spec, bool) {
	s, ok := byName[h]
	return s, ok
}

// Specs returns a copy of the hook-function table in declaration
// order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package plugin

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/parley-chat/parley/pkg/hook"
)

// Notification dispatch. Each method walks the registry in load
// order; a failing or panicking plugin is logged and skipped, never
// the walk aborted. Outside Running the walk is a no-op.

// OnStart tells every plugin the client has started.
func (h *Host) OnStart(ctx context.Context) {
	h.notifyAll(ctx, hook.OnStart)
}

// OnConnect tells every plugin an account came online.
func (h *Host) OnConnect(ctx context.Context, account, fullJID string) {
	h.notifyAll(ctx, hook.OnConnect, account, fullJID)
}

// OnDisconnect tells every plugin an account went offline.
func (h *Host) OnDisconnect(ctx context.Context, account, fullJID string) {
	h.notifyAll(ctx, hook.OnDisconnect, account, fullJID)
}

// Transform dispatch. Each method folds the message through the
// registry in load order: every plugin sees the current value and may
// replace it; declining or failing leaves it untouched. With no
// plugins loaded, or outside Running, the input comes back unchanged.

// BeforeMessageDisplayed runs a message through plugins just before
// the UI renders it.
func (h *Host) BeforeMessageDisplayed(ctx context.Context, message string) string {
	return h.transformAll(ctx, hook.BeforeMessageDisplayed, message)
}

// OnMessageReceived runs an incoming chat message through plugins.
func (h *Host) OnMessageReceived(ctx context.Context, jid, message string) string {
	return h.transformAll(ctx, hook.OnMessageReceived, message, jid)
}

// OnPrivateMessageReceived runs an incoming room private message
// through plugins.
func (h *Host) OnPrivateMessageReceived(ctx context.Context, room, nick, message string) string {
	return h.transformAll(ctx, hook.OnPrivateMessageReceived, message, room, nick)
}

// OnRoomMessageReceived runs an incoming room message through
// plugins.
func (h *Host) OnRoomMessageReceived(ctx context.Context, room, nick, message string) string {
	return h.transformAll(ctx, hook.OnRoomMessageReceived, message, room, nick)
}

// OnMessageSend runs an outgoing chat message through plugins.
func (h *Host) OnMessageSend(ctx context.Context, jid, message string) string {
	return h.transformAll(ctx, hook.OnMessageSend, message, jid)
}

// OnPrivateMessageSend runs an outgoing room private message through
// plugins.
func (h *Host) OnPrivateMessageSend(ctx context.Context, room, nick, message string) string {
	return h.transformAll(ctx, hook.OnPrivateMessageSend, message, room, nick)
}

// OnRoomMessageSend runs an outgoing room message through plugins.
func (h *Host) OnRoomMessageSend(ctx context.Context, room, message string) string {
	return h.transformAll(ctx, hook.OnRoomMessageSend, message, room)
}

func (h *Host) notifyAll(ctx context.Context, hk hook.Hook, args ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != StateRunning {
		return
	}

	ctx, span := tracer.Start(ctx, "Host.notify",
		trace.WithAttributes(attribute.String("hook", string(hk))))
	defer span.End()

	HookDispatches.WithLabelValues(string(hk)).Inc()
	for _, p := range h.registry.All() {
		h.invokeNotify(ctx, p, hk, args...)
	}
}

func (h *Host) transformAll(ctx context.Context, hk hook.Hook, message string, args ...string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != StateRunning {
		return message
	}

	ctx, span := tracer.Start(ctx, "Host.transform",
		trace.WithAttributes(attribute.String("hook", string(hk))))
	defer span.End()

	HookDispatches.WithLabelValues(string(hk)).Inc()
	current := message
	for _, p := range h.registry.All() {
		out, replaced, err := safeTransform(ctx, p, hk, current, args)
		if err != nil {
			HookFailures.WithLabelValues(string(hk), p.Engine).Inc()
			slog.Warn("plugin hook failed",
				"plugin", p.Name,
				"hook", string(hk),
				"engine", p.Engine,
				"error", err)
			continue
		}
		if replaced {
			MessageReplacements.WithLabelValues(string(hk)).Inc()
			current = out
		}
	}
	return current
}

// invokeNotify dispatches one notification with fault isolation.
func (h *Host) invokeNotify(ctx context.Context, p *Plugin, hk hook.Hook, args ...string) {
	if err := safeNotify(ctx, p, hk, args); err != nil {
		HookFailures.WithLabelValues(string(hk), p.Engine).Inc()
		slog.Warn("plugin hook failed",
			"plugin", p.Name,
			"hook", string(hk),
			"engine", p.Engine,
			"error", err)
	}
}

// safeNotify converts a panicking plugin into an error so one bad
// extension cannot take the session down.
func safeNotify(ctx context.Context, p *Plugin, hk hook.Hook, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.In("plugin").With("plugin", p.Name).With("hook", string(hk)).With("panic", r).New("plugin panicked")
		}
	}()
	return p.inst.Notify(ctx, hk, args...)
}

// safeTransform is safeNotify's transform twin; a panic keeps the
// current message.
func safeTransform(ctx context.Context, p *Plugin, hk hook.Hook, message string, args []string) (out string, replaced bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, replaced = "", false
			err = oops.In("plugin").With("plugin", p.Name).With("hook", string(hk)).With("panic", r).New("plugin panicked")
		}
	}()
	return p.inst.Transform(ctx, hk, message, args...)
}

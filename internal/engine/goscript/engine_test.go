// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package goscript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
)

func writePlugin(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.go")
	require.NoError(t, os.WriteFile(path, []byte(code), 0o600))
	return path
}

const testPlugin = `package main

import (
	"strconv"
	"strings"
)

var (
	banner string
	starts int
)

func Init(name, version, status string) {
	banner = name + "/" + version + "/" + status
}

func OnStart() {
	starts++
}

func OnMessageReceived(jid, message string) *string {
	if message == "quiet" {
		return nil
	}
	out := strings.ToUpper(message) + " <" + jid + ">"
	return &out
}

func OnRoomMessageSend(room, message string) *string {
	return &banner
}

func OnMessageSend(jid, message string) *string {
	out := message + ":" + strconv.Itoa(starts)
	return &out
}
`

func TestEngineIdentity(t *testing.T) {
	e := New()
	assert.Equal(t, "go", e.Name())
	assert.Equal(t, []string{".go"}, e.Extensions())
	require.NoError(t, e.Init(context.Background()))
}

func TestCreateErrors(t *testing.T) {
	e := New()

	t.Run("missing file", func(t *testing.T) {
		_, err := e.Create(context.Background(), filepath.Join(t.TempDir(), "nope.go"))
		assert.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := e.Create(context.Background(), writePlugin(t, "package main\nfunc Init( {"))
		assert.Error(t, err)
	})

	t.Run("wrong notification signature", func(t *testing.T) {
		_, err := e.Create(context.Background(), writePlugin(t, "package main\n\nfunc OnStart(n int) {}\n"))
		assert.ErrorContains(t, err, "wrong signature")
	})

	t.Run("wrong transform signature", func(t *testing.T) {
		code := "package main\n\nfunc OnMessageReceived(message string) *string { return nil }\n"
		_, err := e.Create(context.Background(), writePlugin(t, code))
		assert.ErrorContains(t, err, "wrong signature")
	})
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	inst, err := New().Create(ctx, writePlugin(t, testPlugin))
	require.NoError(t, err)
	defer inst.Close(ctx) //nolint:errcheck

	t.Run("init reaches plugin state", func(t *testing.T) {
		require.NoError(t, inst.Notify(ctx, hook.Init, "parley", "1.2.3", "release"))

		out, ok, err := inst.Transform(ctx, hook.OnRoomMessageSend, "ignored", "room")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "parley/1.2.3/release", out)
	})

	t.Run("notifications accumulate", func(t *testing.T) {
		require.NoError(t, inst.Notify(ctx, hook.OnStart))
		require.NoError(t, inst.Notify(ctx, hook.OnStart))

		out, ok, err := inst.Transform(ctx, hook.OnMessageSend, "m", "bob@example.org")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "m:2", out)
	})

	t.Run("replacement", func(t *testing.T) {
		out, ok, err := inst.Transform(ctx, hook.OnMessageReceived, "hello", "alice@example.org")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "HELLO <alice@example.org>", out)
	})

	t.Run("nil keeps the message", func(t *testing.T) {
		_, ok, err := inst.Transform(ctx, hook.OnMessageReceived, "quiet", "alice@example.org")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unimplemented hooks are no-ops", func(t *testing.T) {
		assert.NoError(t, inst.Notify(ctx, hook.OnShutdown))

		_, ok, err := inst.Transform(ctx, hook.BeforeMessageDisplayed, "hi")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHostPackage(t *testing.T) {
	ctx := context.Background()
	code := `package main

import "parley"

func OnStart() {
	parley.Log("debug", "started")
}
`
	inst, err := New().Create(ctx, writePlugin(t, code))
	require.NoError(t, err)
	defer inst.Close(ctx) //nolint:errcheck

	assert.NoError(t, inst.Notify(ctx, hook.OnStart))
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	inst, err := New().Create(ctx, writePlugin(t, testPlugin))
	require.NoError(t, err)

	require.NoError(t, inst.Close(ctx))

	err = inst.Notify(ctx, hook.OnStart)
	assert.ErrorIs(t, err, engine.ErrClosed)
}

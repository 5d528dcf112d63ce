// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package sdk

import (
	"net"
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopback wires a HookClient to a HookServer over an in-memory pipe,
// exercising the same net/rpc path go-plugin uses.
func loopback(t *testing.T, hooks *Hooks) Conn {
	t.Helper()

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("Plugin", &HookServer{Impl: hooks}))

	clientConn, serverConn := net.Pipe()
	go srv.ServeConn(serverConn)

	client := rpc.NewClient(clientConn)
	t.Cleanup(func() { _ = client.Close() })

	return &HookClient{client: client}
}

func TestNotifyRoundTrip(t *testing.T) {
	var initArgs []string
	var started bool
	conn := loopback(t, &Hooks{
		Init:    func(name, version, status string) { initArgs = []string{name, version, status} },
		OnStart: func() { started = true },
	})

	require.NoError(t, conn.Notify("init", []string{"parley", "1.2.3", "release"}))
	assert.Equal(t, []string{"parley", "1.2.3", "release"}, initArgs)

	require.NoError(t, conn.Notify("onStart", nil))
	assert.True(t, started)
}

func TestNotifyUnimplemented(t *testing.T) {
	conn := loopback(t, &Hooks{})
	assert.NoError(t, conn.Notify("onConnect", []string{"work", "me@example.org"}))
}

func TestNotifyShortArgs(t *testing.T) {
	conn := loopback(t, &Hooks{
		OnConnect: func(account, jid string) {},
	})
	err := conn.Notify("onConnect", []string{"only-one"})
	assert.ErrorContains(t, err, "needs 2 args")
}

func TestTransformRoundTrip(t *testing.T) {
	conn := loopback(t, &Hooks{
		OnMessageReceived: func(jid, message string) *string {
			if message == "quiet" {
				return nil
			}
			out := "[" + jid + "] " + message
			return &out
		},
		BeforeMessageDisplayed: func(message string) *string {
			empty := ""
			return &empty
		},
	})

	t.Run("replacement", func(t *testing.T) {
		out, replaced, err := conn.Transform("onMessageReceived", []string{"alice@example.org"}, "hi")
		require.NoError(t, err)
		require.True(t, replaced)
		assert.Equal(t, "[alice@example.org] hi", out)
	})

	t.Run("nil keeps the message", func(t *testing.T) {
		_, replaced, err := conn.Transform("onMessageReceived", []string{"alice@example.org"}, "quiet")
		require.NoError(t, err)
		assert.False(t, replaced)
	})

	t.Run("empty replacement is expressible", func(t *testing.T) {
		out, replaced, err := conn.Transform("beforeMessageDisplayed", nil, "hi")
		require.NoError(t, err)
		require.True(t, replaced)
		assert.Equal(t, "", out)
	})

	t.Run("unimplemented keeps the message", func(t *testing.T) {
		_, replaced, err := conn.Transform("onRoomMessageSend", []string{"den"}, "hi")
		require.NoError(t, err)
		assert.False(t, replaced)
	})
}

func TestUnknownHookIsNoOp(t *testing.T) {
	conn := loopback(t, &Hooks{})

	assert.NoError(t, conn.Notify("onCoffee", nil))

	_, replaced, err := conn.Transform("onCoffee", nil, "hi")
	require.NoError(t, err)
	assert.False(t, replaced)
}

func TestServeRejectsNil(t *testing.T) {
	assert.Panics(t, func() { Serve(nil) })
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

//go:build integration

package host_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/parley-chat/parley/internal/plugin"
)

var _ = Describe("Plugin host lifecycle", func() {
	var (
		ctx context.Context
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
	})

	It("loads one plugin per language and reports them in load order", func() {
		writePlugin(dir, "hello.py", "def init(name, version, status):\n    pass\n")
		writePlugin(dir, "hello.go", "package main\n\nfunc Init(name, version, status string) {}\n")
		writePlugin(dir, "hello.lua", "function init(name, version, status) end\n")

		host := startHost(ctx, dir, "hello.py", "hello.go", "hello.lua")

		plugins := host.Plugins()
		Expect(plugins).To(HaveLen(3))
		Expect(plugins[0].Name).To(Equal("hello.py"))
		Expect(plugins[0].Engine).To(Equal("starlark"))
		Expect(plugins[1].Name).To(Equal("hello.go"))
		Expect(plugins[1].Engine).To(Equal("go"))
		Expect(plugins[2].Name).To(Equal("hello.lua"))
		Expect(plugins[2].Engine).To(Equal("lua"))
		Expect(host.State()).To(Equal(plugin.StateRunning))
	})

	It("delivers the host identity through init after the whole batch loads", func() {
		writePlugin(dir, "witness.lua", `
local who = "nobody"

function init(name, version, status)
    who = name .. " " .. version .. " " .. status
end

function beforeMessageDisplayed(message)
    return who
end
`)

		host := startHost(ctx, dir, "witness.lua")

		Expect(host.BeforeMessageDisplayed(ctx, "ignored")).To(Equal("parley 1.2.3 release"))
	})

	It("keeps per-plugin state between invocations in Lua", func() {
		writePlugin(dir, "counter.lua", `
local seen = 0

function onMessageReceived(jid, message)
    seen = seen + 1
    return message .. ":" .. seen
end
`)

		host := startHost(ctx, dir, "counter.lua")

		Expect(host.OnMessageReceived(ctx, "alice@example.org", "m")).To(Equal("m:1"))
		Expect(host.OnMessageReceived(ctx, "alice@example.org", "m")).To(Equal("m:2"))
	})

	It("keeps per-plugin state between invocations in interpreted Go", func() {
		writePlugin(dir, "counter.go", `package main

import "fmt"

var seen int

func OnMessageReceived(jid, message string) *string {
	seen++
	out := fmt.Sprintf("%s:%d", message, seen)
	return &out
}
`)

		host := startHost(ctx, dir, "counter.go")

		Expect(host.OnMessageReceived(ctx, "alice@example.org", "m")).To(Equal("m:1"))
		Expect(host.OnMessageReceived(ctx, "alice@example.org", "m")).To(Equal("m:2"))
	})

	It("folds transforms across languages in load order", func() {
		writePlugin(dir, "a.lua", `
function onMessageReceived(jid, message)
    return message .. "-lua"
end
`)
		writePlugin(dir, "b.py", `
def onMessageReceived(jid, message):
    return message + "-star"
`)
		writePlugin(dir, "c.go", `package main

func OnMessageReceived(jid, message string) *string {
	out := message + "-go"
	return &out
}
`)

		host := startHost(ctx, dir, "a.lua", "b.py", "c.go")

		Expect(host.OnMessageReceived(ctx, "alice@example.org", "hi")).To(Equal("hi-lua-star-go"))
	})

	It("keeps the message when a plugin returns the language's empty value", func() {
		writePlugin(dir, "quiet.py", `
def onMessageReceived(jid, message):
    return None
`)
		writePlugin(dir, "quiet.go", `package main

func OnMessageReceived(jid, message string) *string {
	return nil
}
`)
		writePlugin(dir, "loud.lua", `
function onMessageReceived(jid, message)
    return message .. "!"
end
`)

		host := startHost(ctx, dir, "quiet.py", "quiet.go", "loud.lua")

		Expect(host.OnMessageReceived(ctx, "alice@example.org", "hi")).To(Equal("hi!"))
	})

	It("ignores hooks a plugin does not bind", func() {
		writePlugin(dir, "partial.lua", `
function onRoomMessageSend(room, message)
    return message .. " [sent]"
end
`)

		host := startHost(ctx, dir, "partial.lua")

		host.OnStart(ctx)
		host.OnConnect(ctx, "work", "alice@example.org/parley")
		Expect(host.OnMessageReceived(ctx, "bob@example.org", "hi")).To(Equal("hi"))
		Expect(host.OnRoomMessageSend(ctx, "room@muc.example.org", "hi")).To(Equal("hi [sent]"))
	})

	It("skips files no engine claims and keeps loading", func() {
		writePlugin(dir, "ghost.rb", "puts 'hi'\n")
		writePlugin(dir, "ok.lua", "function init() end\n")

		host := startHost(ctx, dir, "ghost.rb", "ok.lua")

		plugins := host.Plugins()
		Expect(plugins).To(HaveLen(1))
		Expect(plugins[0].Name).To(Equal("ok.lua"))
	})

	It("skips a plugin whose top level fails and keeps loading", func() {
		writePlugin(dir, "broken.lua", "function (\n")
		writePlugin(dir, "ok.py", "def init(name, version, status):\n    pass\n")

		host := startHost(ctx, dir, "broken.lua", "ok.py")

		plugins := host.Plugins()
		Expect(plugins).To(HaveLen(1))
		Expect(plugins[0].Name).To(Equal("ok.py"))
	})

	It("isolates a failing transform and keeps the current value", func() {
		writePlugin(dir, "angry.py", `
def onMessageReceived(jid, message):
    fail("no thanks")
`)
		writePlugin(dir, "calm.lua", `
function onMessageReceived(jid, message)
    return message .. "-calm"
end
`)

		host := startHost(ctx, dir, "angry.py", "calm.lua")

		Expect(host.OnMessageReceived(ctx, "alice@example.org", "hi")).To(Equal("hi-calm"))
		Expect(host.State()).To(Equal(plugin.StateRunning))
	})

	It("notifies plugins on shutdown and then goes inert", func() {
		marker := filepath.Join(dir, "shutdown.marker")
		writePlugin(dir, "bye.go", fmt.Sprintf(`package main

import "os"

func OnShutdown() {
	os.WriteFile(%q, []byte("bye"), 0o600)
}
`, marker))

		host := startHost(ctx, dir, "bye.go")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		Expect(host.Shutdown(shutdownCtx)).To(Succeed())

		Expect(marker).To(BeAnExistingFile())
		Expect(host.State()).To(Equal(plugin.StateTerminated))
		Expect(host.OnMessageReceived(ctx, "alice@example.org", "hi")).To(Equal("hi"))

		_, err := os.Stat(marker)
		Expect(err).NotTo(HaveOccurred())
	})
})

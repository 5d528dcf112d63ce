// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package sdk builds standalone Parley plugins. A plugin is an
// executable that fills in the hook functions it cares about and
// hands them to Serve; the client launches it as a subprocess and
// dispatches hooks over HashiCorp go-plugin.
//
// Example usage:
//
//	package main
//
//	import (
//		"strings"
//
//		"github.com/parley-chat/parley/pkg/sdk"
//	)
//
//	func main() {
//		sdk.Serve(&sdk.Hooks{
//			OnMessageReceived: func(jid, message string) *string {
//				out := strings.ToUpper(message)
//				return &out
//			},
//		})
//	}
//
// Transform hooks return *string; nil keeps the message as it was.
// Nil hook fields are simply never dispatched.
package sdk

import (
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"
)

// Hooks carries a plugin's hook implementations. Every field is
// optional.
type Hooks struct {
	Init         func(name, version, status string)
	OnStart      func()
	OnConnect    func(account, jid string)
	OnDisconnect func(account, jid string)

	BeforeMessageDisplayed   func(message string) *string
	OnMessageReceived        func(jid, message string) *string
	OnPrivateMessageReceived func(room, nick, message string) *string
	OnRoomMessageReceived    func(room, nick, message string) *string
	OnMessageSend            func(jid, message string) *string
	OnPrivateMessageSend     func(room, nick, message string) *string
	OnRoomMessageSend        func(room, message string) *string

	OnShutdown func()
}

// HandshakeConfig is the go-plugin handshake. Host and plugins must
// agree on it; a mismatch refuses the subprocess at launch.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PARLEY_PLUGIN",
	MagicCookieValue: "parley-v1",
}

// PluginName is the dispense key both sides use.
const PluginName = "hooks"

// PluginMap is the go-plugin plugin set served and consumed over the
// handshake.
var PluginMap = map[string]hashiplug.Plugin{
	PluginName: &HookPlugin{},
}

// Serve starts the plugin server. Call it from main; it blocks for
// the life of the plugin process.
func Serve(hooks *Hooks) {
	if hooks == nil {
		panic("sdk: hooks cannot be nil")
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]hashiplug.Plugin{
			PluginName: &HookPlugin{Impl: hooks},
		},
	})
}

// HookPlugin implements go-plugin's Plugin interface over net/rpc.
type HookPlugin struct {
	Impl *Hooks
}

// Server returns the RPC server side (runs in the plugin process).
func (p *HookPlugin) Server(*hashiplug.MuxBroker) (any, error) {
	return &HookServer{Impl: p.Impl}, nil
}

// Client returns the RPC client side (runs in the host process).
func (p *HookPlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (any, error) {
	return &HookClient{client: c}, nil
}

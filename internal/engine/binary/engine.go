// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package binary runs each .plugin executable as a subprocess using
// HashiCorp's go-plugin system over net/rpc. The executable links
// pkg/sdk and serves the hook table; killing the process is the only
// teardown a plugin needs.
package binary

import (
	"context"
	"os"
	"os/exec"
	"sync"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"

	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/pkg/hook"
	"github.com/parley-chat/parley/pkg/sdk"
)

// Compile-time interface checks.
var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.Instance = (*instance)(nil)
)

// PluginClient wraps the go-plugin client for testability.
type PluginClient interface {
	// Client returns the RPC client protocol.
	Client() (hashiplug.ClientProtocol, error)
	// Kill terminates the plugin process.
	Kill()
}

// ClientFactory creates plugin clients.
type ClientFactory interface {
	// NewClient creates a client for the given executable path.
	NewClient(execPath string) PluginClient
}

// defaultClientFactory creates real go-plugin clients.
type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(execPath string) PluginClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  sdk.HandshakeConfig,
		Plugins:          sdk.PluginMap,
		Cmd:              exec.Command(execPath), // #nosec G204 -- path comes from the plugins directory scan
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
	})
}

// Engine runs .plugin executables.
type Engine struct {
	factory ClientFactory
}

// New returns the binary engine.
func New() *Engine { return &Engine{factory: defaultClientFactory{}} }

// NewWithFactory injects a client factory.
// Panics if factory is nil.
func NewWithFactory(factory ClientFactory) *Engine {
	if factory == nil {
		panic("binary: factory cannot be nil")
	}
	return &Engine{factory: factory}
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return "binary" }

// Extensions implements engine.Engine.
func (e *Engine) Extensions() []string { return []string{".plugin"} }

// Init implements engine.Engine.
func (e *Engine) Init(context.Context) error { return nil }

// Create launches the executable and completes the go-plugin
// handshake. Any failure kills the subprocess before returning.
func (e *Engine) Create(_ context.Context, path string) (engine.Instance, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, oops.In("binary").With("path", path).Hint("plugin executable not found").Wrap(err)
	}

	client := e.factory.NewClient(path)

	proto, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, oops.In("binary").With("path", path).Hint("failed to connect to plugin process").Wrap(err)
	}

	raw, err := proto.Dispense(sdk.PluginName)
	if err != nil {
		client.Kill()
		return nil, oops.In("binary").With("path", path).Hint("failed to dispense hooks").Wrap(err)
	}

	conn, ok := raw.(sdk.Conn)
	if !ok {
		client.Kill()
		return nil, oops.In("binary").With("path", path).New("plugin does not serve the hook interface")
	}

	return &instance{path: path, client: client, conn: conn}, nil
}

// Shutdown implements engine.Engine. Processes belong to their
// instances, so there is nothing engine-wide to stop.
func (e *Engine) Shutdown(context.Context) error { return nil }

// instance is one plugin subprocess. The lock only guards the closed
// flag; net/rpc calls are released before dispatch so plugins do not
// serialize each other.
type instance struct {
	path   string
	client PluginClient
	conn   sdk.Conn

	mu     sync.RWMutex
	closed bool
}

func (i *instance) Notify(_ context.Context, h hook.Hook, args ...string) error {
	i.mu.RLock()
	if i.closed {
		i.mu.RUnlock()
		return oops.In("binary").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}
	i.mu.RUnlock()

	if err := i.conn.Notify(string(h), args); err != nil {
		return oops.In("binary").With("path", i.path).With("hook", string(h)).Wrap(err)
	}
	return nil
}

func (i *instance) Transform(_ context.Context, h hook.Hook, message string, args ...string) (string, bool, error) {
	i.mu.RLock()
	if i.closed {
		i.mu.RUnlock()
		return "", false, oops.In("binary").With("path", i.path).With("hook", string(h)).Wrap(engine.ErrClosed)
	}
	i.mu.RUnlock()

	out, replaced, err := i.conn.Transform(string(h), args, message)
	if err != nil {
		return "", false, oops.In("binary").With("path", i.path).With("hook", string(h)).Wrap(err)
	}
	return out, replaced, nil
}

func (i *instance) Close(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.client.Kill()
	return nil
}

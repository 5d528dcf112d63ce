// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/engine"
	"github.com/parley-chat/parley/internal/engine/binary"
	"github.com/parley-chat/parley/internal/engine/goscript"
	"github.com/parley-chat/parley/internal/engine/lua"
	"github.com/parley-chat/parley/internal/engine/native"
	"github.com/parley-chat/parley/internal/engine/starlark"
	"github.com/parley-chat/parley/internal/engine/wasm"
	"github.com/parley-chat/parley/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the parley CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley - extensible console XMPP chat",
		Long: `Parley is a console XMPP chat client whose behavior is extended
by plugins written in Lua, Starlark, Go, WebAssembly, or any language
that speaks the binary plugin protocol.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/parley/parley.yaml)")
	cmd.PersistentFlags().String("log-format", "json", "log format (json or text)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("plugins-dir", "", "plugins directory (default: XDG_DATA_HOME/parley/plugins)")
	cmd.PersistentFlags().String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address")
	cmd.PersistentFlags().Bool("metrics", false, "serve metrics/health endpoints while the host runs")

	// Add subcommands
	cmd.AddCommand(NewPluginsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the parley version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(cmd.Root().Version)
		},
	}
}

// loadConfig resolves the configuration for a subcommand: the
// explicit --config file, else the default XDG location when present,
// overlaid with any recognized flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		candidate := filepath.Join(xdg.ConfigDir(), "parley.yaml")
		if fileExists(candidate) {
			path = candidate
		}
	}
	return config.Load(path, cmd.Flags())
}

// fileExists returns true if the file exists, false otherwise.
// Permission errors are treated as "file exists" so they surface as
// read errors instead of being silently skipped.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// engineRoster is the fixed engine construction order. Dispatch order
// between plugins follows the load list, never this roster, but a
// stable roster keeps extension claims deterministic.
func engineRoster() []engine.Engine {
	return []engine.Engine{
		lua.New(),
		starlark.New(),
		goscript.New(),
		native.New(),
		binary.New(),
		wasm.New(),
	}
}

// newEngineSet builds the engine set the configuration enables. An
// empty plugins.engines list enables every engine.
func newEngineSet(cfg *config.Config) (*engine.Set, error) {
	roster := engineRoster()
	if len(cfg.Plugins.Engines) == 0 {
		return engine.New(roster...), nil
	}

	want := make(map[string]bool, len(cfg.Plugins.Engines))
	for _, name := range cfg.Plugins.Engines {
		want[strings.ToLower(name)] = true
	}

	var picked []engine.Engine
	for _, e := range roster {
		if want[e.Name()] {
			picked = append(picked, e)
			delete(want, e.Name())
		}
	}
	if len(want) > 0 {
		names := make([]string, 0, len(want))
		for name := range want {
			names = append(names, name)
		}
		slices.Sort(names)
		return nil, fmt.Errorf("unknown engines in plugins.engines: %s", strings.Join(names, ", "))
	}
	return engine.New(picked...), nil
}

// claimsByExtension maps each extension an engine in the set claims
// to that engine's name, without initializing anything.
func claimsByExtension(set *engine.Set) map[string]string {
	claims := make(map[string]string)
	for _, e := range set.Engines() {
		for _, ext := range e.Extensions() {
			claims[strings.ToLower(ext)] = e.Name()
		}
	}
	return claims
}

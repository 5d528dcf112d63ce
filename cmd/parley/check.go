// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/logging"
	"github.com/parley-chat/parley/internal/observability"
	"github.com/parley-chat/parley/internal/plugin"
	"github.com/parley-chat/parley/pkg/errutil"
	"github.com/parley-chat/parley/pkg/hook"
)

// checkShutdownTimeout bounds the teardown of a check run.
const checkShutdownTimeout = 5 * time.Second

// checkResult is the per-plugin outcome of a check run.
type checkResult struct {
	Name   string
	Status string
	OK     bool
}

// NewPluginsCheckCmd creates the plugins check subcommand.
func NewPluginsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured plugins and report their status",
		Long: `Bring up the plugin engines, load every plugin in the configured
load list, report per-plugin status, and tear everything down again.
The command fails when any configured plugin does not load.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runPluginsCheckWithDeps(cmd.Context(), &cfg, cmd, nil)
		},
	}
}

// runPluginsCheckWithDeps runs the check with injectable dependencies.
// If deps is nil, default implementations are used.
func runPluginsCheckWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *CheckDeps) error {
	if deps == nil {
		deps = &CheckDeps{}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}

	logging.SetDefault("parley", version, cfg.Log.Format, cfg.Log.Level)

	set, err := newEngineSet(cfg)
	if err != nil {
		return err
	}

	// Claims must be captured before Start so files of engines that
	// fail Init can still be attributed to them in the report.
	claims := claimsByExtension(set)

	host := plugin.NewHost(cfg.Plugins.Dir, hook.NewHostInfo("parley", version), set)

	var obsServer ObservabilityServer
	if cfg.Observability.Enabled {
		obsServer = deps.ObservabilityServerFactory(cfg.Observability.Addr, func() bool {
			return host.State() == plugin.StateRunning
		})
		if _, err := obsServer.Start(); err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		defer stopObservability(obsServer)
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	if err := host.Start(ctx, cfg.Plugins.Load); err != nil {
		return fmt.Errorf("failed to start plugin host: %w", err)
	}

	results := collectCheckResults(cfg, host, claims)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), checkShutdownTimeout)
	defer cancel()
	if err := host.Shutdown(shutdownCtx); err != nil {
		errutil.LogError(slog.Default(), "plugin host did not shut down cleanly", err)
	}

	cmd.Println(formatCheckTable(results))

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d configured plugins failed to load", failed, len(results))
	}
	return nil
}

// stopObservability stops the metrics server with its own deadline.
func stopObservability(srv ObservabilityServer) {
	ctx, cancel := context.WithTimeout(context.Background(), checkShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// collectCheckResults resolves each configured plugin to its outcome.
// Must run before Shutdown drains the registry.
func collectCheckResults(cfg *config.Config, host *plugin.Host, claims map[string]string) []checkResult {
	loadedBy := make(map[string]string)
	for _, p := range host.Plugins() {
		loadedBy[p.Path] = p.Engine
	}
	disabled := host.Engines().Disabled()

	results := make([]checkResult, 0, len(cfg.Plugins.Load))
	for _, name := range cfg.Plugins.Load {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Plugins.Dir, name)
		}
		if engineName, ok := loadedBy[path]; ok {
			results = append(results, checkResult{Name: name, Status: "ok (" + engineName + ")", OK: true})
			continue
		}
		results = append(results, checkResult{Name: name, Status: failureStatus(name, claims, disabled)})
	}
	return results
}

// failureStatus explains why a configured plugin is not loaded.
func failureStatus(name string, claims map[string]string, disabled map[string]error) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "no file extension"
	}
	engineName, claimed := claims[ext]
	switch {
	case !claimed:
		return fmt.Sprintf("no engine claims %s files", ext)
	case disabled[engineName] != nil:
		return fmt.Sprintf("%s engine unavailable", engineName)
	default:
		return "failed to load"
	}
}

// formatCheckTable formats check results as a human-readable table.
func formatCheckTable(results []checkResult) string {
	if len(results) == 0 {
		return "no plugins configured"
	}

	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PLUGIN\tSTATUS")
	_, _ = fmt.Fprintln(w, "------\t------")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Status)
	}

	_ = w.Flush()
	return strings.TrimRight(string(buf), "\n")
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/xdg"
)

// NewPluginsInstallCmd creates the plugins install subcommand.
func NewPluginsInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <file>",
		Short: "Copy a plugin file into the plugins directory",
		Long: `Copy a plugin file into the plugins directory, creating the
directory if needed. Files whose extension no enabled engine claims
are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPluginsInstall(cmd, args[0])
		},
	}
}

// runPluginsInstall executes the plugins install command.
func runPluginsInstall(cmd *cobra.Command, src string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	set, err := newEngineSet(&cfg)
	if err != nil {
		return err
	}

	name := filepath.Base(src)
	engineName, ok := claimsByExtension(set)[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return fmt.Errorf("no enabled engine claims %q files, refusing to install %s", filepath.Ext(name), name)
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a plugin file", src)
	}

	if err := xdg.EnsureDir(cfg.Plugins.Dir); err != nil {
		return err
	}

	dst := filepath.Join(cfg.Plugins.Dir, name)
	if fileExists(dst) {
		return fmt.Errorf("%s is already installed, remove it first", name)
	}

	if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
		return err
	}

	cmd.Printf("Installed %s (%s engine) into %s\n", name, engineName, cfg.Plugins.Dir)
	return nil
}

// copyFile copies src to dst with the given permissions. The binary
// engine needs the executable bit preserved, so the source mode is
// carried over rather than normalized.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // src is the operator's own argument
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) //nolint:gosec // dst lives inside the plugins directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

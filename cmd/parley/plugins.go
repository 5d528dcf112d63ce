// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewPluginsCmd creates the plugins command group.
func NewPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect and manage plugin files",
		Long: `List installed plugin files, install new ones, and check that the
configured plugins load cleanly.`,
	}

	cmd.AddCommand(NewPluginsListCmd())
	cmd.AddCommand(NewPluginsInstallCmd())
	cmd.AddCommand(NewPluginsCheckCmd())

	return cmd
}

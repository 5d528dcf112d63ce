// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// PluginFile describes one candidate file in the plugins directory.
type PluginFile struct {
	Name       string `json:"name" yaml:"name"`
	Engine     string `json:"engine,omitempty" yaml:"engine,omitempty"`
	Configured bool   `json:"configured" yaml:"configured"`
}

// listConfig holds configuration for the plugins list command.
type listConfig struct {
	filter string
	output string
}

// NewPluginsListCmd creates the plugins list subcommand.
func NewPluginsListCmd() *cobra.Command {
	cfg := &listConfig{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugin files in the plugins directory",
		Long: `List every file in the plugins directory together with the engine
claiming it (if any) and whether it is in the configured load list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPluginsList(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.filter, "filter", "", "only list files matching this glob (e.g. '*.lua')")
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "text", "output format (text, json, or yaml)")

	return cmd
}

// runPluginsList executes the plugins list command.
func runPluginsList(cmd *cobra.Command, listCfg *listConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	set, err := newEngineSet(&cfg)
	if err != nil {
		return err
	}

	files, err := collectPluginFiles(cfg.Plugins.Dir, listCfg.filter, claimsByExtension(set), cfg.Plugins.Load)
	if err != nil {
		return err
	}

	var output string
	switch listCfg.output {
	case "text":
		output = formatPluginsTable(files)
	case "json":
		output, err = formatPluginsJSON(files)
	case "yaml":
		output, err = formatPluginsYAML(files)
	default:
		return fmt.Errorf("output format must be 'text', 'json', or 'yaml', got %q", listCfg.output)
	}
	if err != nil {
		return err
	}

	cmd.Println(output)
	return nil
}

// collectPluginFiles walks the plugins directory and describes every
// regular file that matches the filter. A missing directory is an
// empty listing, not an error.
func collectPluginFiles(dir, filter string, claims map[string]string, load []string) ([]PluginFile, error) {
	var matcher glob.Glob
	if filter != "" {
		var err error
		matcher, err = glob.Compile(filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugins directory %s: %w", dir, err)
	}

	configured := make(map[string]bool, len(load))
	for _, name := range load {
		configured[filepath.Base(name)] = true
	}

	var files []PluginFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		files = append(files, PluginFile{
			Name:       name,
			Engine:     claims[strings.ToLower(filepath.Ext(name))],
			Configured: configured[name],
		})
	}
	return files, nil
}

// formatPluginsTable formats the listing as a human-readable table.
func formatPluginsTable(files []PluginFile) string {
	if len(files) == 0 {
		return "no plugin files found"
	}

	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "NAME\tENGINE\tCONFIGURED")
	_, _ = fmt.Fprintln(w, "----\t------\t----------")

	for _, f := range files {
		engineName := f.Engine
		if engineName == "" {
			engineName = "-"
		}
		configured := "no"
		if f.Configured {
			configured = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, engineName, configured)
	}

	_ = w.Flush()
	return strings.TrimRight(string(buf), "\n")
}

// formatPluginsJSON formats the listing as JSON.
func formatPluginsJSON(files []PluginFile) (string, error) {
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal listing: %w", err)
	}
	return string(data), nil
}

// formatPluginsYAML formats the listing as YAML.
func formatPluginsYAML(files []PluginFile) (string, error) {
	data, err := yaml.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("failed to marshal listing: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}

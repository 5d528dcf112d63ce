package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// installCmd executes "plugins install <src>" against a fresh root
// command and returns the combined output and error.
func installCmd(t *testing.T, cfgPath, src string) (string, error) {
	t.Helper()

	configFile = ""
	t.Cleanup(func() { configFile = "" })

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"plugins", "install", src, "--config", cfgPath})

	err := cmd.Execute()
	return buf.String(), err
}

func TestPluginsInstallCommand_Installs(t *testing.T) {
	pluginsDir := filepath.Join(t.TempDir(), "plugins")
	cfgPath := writeListTestConfig(t, pluginsDir)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "hello.lua")
	content := []byte("function init(name, version, status) end\n")
	if err := os.WriteFile(src, content, 0o755); err != nil { //nolint:gosec // executable bit is the point
		t.Fatalf("WriteFile() error = %v", err)
	}

	output, err := installCmd(t, cfgPath, src)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(output, "Installed hello.lua (lua engine)") {
		t.Errorf("unexpected output: %s", output)
	}

	dst := filepath.Join(pluginsDir, "hello.lua")
	got, err := os.ReadFile(dst) //nolint:gosec // test-owned path
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("installed file content differs from source")
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("installed mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestPluginsInstallCommand_CreatesPluginsDir(t *testing.T) {
	pluginsDir := filepath.Join(t.TempDir(), "nested", "plugins")
	cfgPath := writeListTestConfig(t, pluginsDir)

	src := filepath.Join(t.TempDir(), "greeter.py")
	if err := os.WriteFile(src, []byte("def init(name, version, status):\n    pass\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := installCmd(t, cfgPath, src); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !fileExists(filepath.Join(pluginsDir, "greeter.py")) {
		t.Error("plugin not installed into freshly created directory")
	}
}

func TestPluginsInstallCommand_RefusesUnknownExtension(t *testing.T) {
	cfgPath := writeListTestConfig(t, t.TempDir())

	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("not a plugin"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := installCmd(t, cfgPath, src)
	if err == nil {
		t.Fatal("expected error for unclaimed extension")
	}
	if !strings.Contains(err.Error(), "no enabled engine claims") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPluginsInstallCommand_RefusesDisabledEngineExtension(t *testing.T) {
	pluginsDir := t.TempDir()
	cfgPath := writeListTestConfig(t, pluginsDir)
	appendToFile(t, cfgPath, "  engines:\n    - starlark\n")

	src := filepath.Join(t.TempDir(), "hello.lua")
	if err := os.WriteFile(src, []byte("-- lua\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := installCmd(t, cfgPath, src)
	if err == nil {
		t.Fatal("expected error when the claiming engine is not enabled")
	}
	if !strings.Contains(err.Error(), ".lua") {
		t.Errorf("error should name the extension, got: %v", err)
	}
}

func TestPluginsInstallCommand_RefusesDirectory(t *testing.T) {
	cfgPath := writeListTestConfig(t, t.TempDir())

	src := filepath.Join(t.TempDir(), "bundle.lua")
	if err := os.Mkdir(src, 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	_, err := installCmd(t, cfgPath, src)
	if err == nil {
		t.Fatal("expected error for directory source")
	}
	if !strings.Contains(err.Error(), "directory") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPluginsInstallCommand_RefusesOverwrite(t *testing.T) {
	pluginsDir := t.TempDir()
	cfgPath := writeListTestConfig(t, pluginsDir)
	if err := os.WriteFile(filepath.Join(pluginsDir, "hello.lua"), []byte("-- old\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	src := filepath.Join(t.TempDir(), "hello.lua")
	if err := os.WriteFile(src, []byte("-- new\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := installCmd(t, cfgPath, src)
	if err == nil {
		t.Fatal("expected error for existing destination")
	}
	if !strings.Contains(err.Error(), "already installed") {
		t.Errorf("unexpected error: %v", err)
	}

	// The existing file must be untouched.
	got, readErr := os.ReadFile(filepath.Join(pluginsDir, "hello.lua"))
	if readErr != nil {
		t.Fatalf("ReadFile() error = %v", readErr)
	}
	if string(got) != "-- old\n" {
		t.Error("existing plugin was overwritten")
	}
}

func TestPluginsInstallCommand_MissingSource(t *testing.T) {
	cfgPath := writeListTestConfig(t, t.TempDir())

	_, err := installCmd(t, cfgPath, filepath.Join(t.TempDir(), "ghost.lua"))
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := copyFile(filepath.Join(dir, "absent.lua"), filepath.Join(dir, "dst.lua"), 0o600)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if fileExists(filepath.Join(dir, "dst.lua")) {
		t.Error("destination should not exist after failed copy")
	}
}

// appendToFile appends content to an existing file.
func appendToFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // test-owned path
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
}

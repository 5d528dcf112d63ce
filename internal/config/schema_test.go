// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package config_test

import (
	"strings"
	"testing"

	"github.com/parley-chat/parley/internal/config"
)

func TestGenerateSchema(t *testing.T) {
	schema, err := config.GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}

	s := string(schema)
	for _, want := range []string{
		config.GetSchemaID(),
		`"log"`,
		`"plugins"`,
		`"observability"`,
		`"additionalProperties"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("schema missing %s", want)
		}
	}
}

func TestValidateSchema_Valid(t *testing.T) {
	yaml := `
log:
  format: json
  level: warn
plugins:
  dir: /opt/parley/plugins
  load:
    - greeter.py
  engines:
    - starlark
observability:
  enabled: false
`
	if err := config.ValidateSchema([]byte(yaml)); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}

func TestValidateSchema_EmptyFileIsValid(t *testing.T) {
	if err := config.ValidateSchema(nil); err != nil {
		t.Errorf("ValidateSchema(nil) error = %v, want nil", err)
	}
	if err := config.ValidateSchema([]byte("# just a comment\n")); err != nil {
		t.Errorf("ValidateSchema(comment) error = %v, want nil", err)
	}
}

func TestValidateSchema_UnknownKey(t *testing.T) {
	yaml := `
plugnis:
  load:
    - greeter.py
`
	if err := config.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for misspelled top-level key")
	}
}

func TestValidateSchema_WrongType(t *testing.T) {
	yaml := `
plugins:
  load: greeter.py
`
	if err := config.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for scalar plugins.load")
	}
}

func TestValidateSchema_BadEnum(t *testing.T) {
	yaml := `
log:
  level: loud
`
	if err := config.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for unknown log level")
	}
}

func TestValidateSchema_InvalidYAML(t *testing.T) {
	err := config.ValidateSchema([]byte("log: [unclosed"))
	if err == nil {
		t.Fatal("ValidateSchema() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("error = %v, want mention of invalid YAML", err)
	}
}

func TestValidateSchema_CachedCompile(t *testing.T) {
	config.ResetSchemaCache()
	defer config.ResetSchemaCache()

	// First call compiles, second call hits the cache.
	for range 2 {
		if err := config.ValidateSchema([]byte("log:\n  format: json\n")); err != nil {
			t.Fatalf("ValidateSchema() error = %v", err)
		}
	}
}

func TestFormatSchemaError(t *testing.T) {
	if got := config.FormatSchemaError(nil); got != "" {
		t.Errorf("FormatSchemaError(nil) = %q, want empty", got)
	}

	err := config.ValidateSchema([]byte("log:\n  format: xml\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := config.FormatSchemaError(err)
	if strings.HasPrefix(msg, "schema validation failed:") {
		t.Errorf("FormatSchemaError() = %q, want prefix stripped", msg)
	}
}

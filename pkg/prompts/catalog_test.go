package prompts

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestCatalog_SystemPrompt(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"known id", "weltbau", Base + "\n" + builtin["weltbau"]},
		{"unknown id", "gibt-es-nicht", Base + "\n" + DefaultTask},
		{"empty id", "", Base + "\n" + DefaultTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.SystemPrompt(tt.id); got != tt.want {
				t.Errorf("SystemPrompt(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestCatalog_IDs(t *testing.T) {
	ids := New().IDs()

	if len(ids) != len(builtin) {
		t.Errorf("IDs() len = %d, want %d", len(ids), len(builtin))
	}
	if !slices.IsSorted(ids) {
		t.Error("IDs() not sorted")
	}
	if !slices.Contains(ids, "idea-code-poet") {
		t.Error("IDs() misses idea-code-poet")
	}
}

func writeOverlay(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "prompts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Overlay(t *testing.T) {
	path := writeOverlay(t, t.TempDir(), `
base: "Du bist knapp."
prompts:
  weltbau: "Aufgabe: Nur ein Satz."
  haiku: "Aufgabe: Schreibe ein Haiku."
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := c.SystemPrompt("weltbau"); got != "Du bist knapp.\nAufgabe: Nur ein Satz." {
		t.Errorf("overridden prompt = %q", got)
	}
	if got := c.SystemPrompt("haiku"); !strings.HasSuffix(got, "Haiku.") {
		t.Errorf("added prompt = %q", got)
	}
	if got := c.SystemPrompt("poesie-html"); !strings.HasPrefix(got, "Du bist knapp.\n") {
		t.Errorf("built-in prompt should use overlay base, got %q", got)
	}
	if c.Len() != len(builtin)+1 {
		t.Errorf("Len() = %d, want %d", c.Len(), len(builtin)+1)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeOverlay(t, dir, "prompts: [unterminated")); err == nil {
		t.Error("expected error for invalid YAML")
	}
	if _, err := Load(writeOverlay(t, dir, "prompts:\n  leer: \"\"\n")); err == nil {
		t.Error("expected error for empty prompt text")
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeOverlay(t, dir, "prompts:\n  haiku: \"Aufgabe: Haiku.\"\n")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	writeOverlay(t, dir, "prompts: [broken")
	if err := c.Reload(); err == nil {
		t.Fatal("Reload() expected error")
	}
	if !c.Has("haiku") {
		t.Error("previous overlay lost after failed reload")
	}
}

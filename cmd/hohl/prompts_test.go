package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hohl-rocks/relay/pkg/cli"
)

func TestPromptsText(t *testing.T) {
	cmd, buf := newTestCmd(t)
	promptsFlags.output = "text"

	if err := runPrompts(cmd, nil); err != nil {
		t.Fatalf("runPrompts() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("output = %q", buf.String())
	}
	found := false
	for _, l := range lines {
		if l == "weltbau" {
			found = true
		}
	}
	if !found {
		t.Errorf("built-in id missing from %v", lines)
	}
}

func TestPromptsJSONWithOverlay(t *testing.T) {
	cmd, buf := newTestCmd(t)

	overlay := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(overlay, []byte("prompts:\n  zz-eigener-prompt: \"Aufgabe: Teste.\"\n"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	writeConfig(t, "prompts:\n  file: "+overlay+"\n")

	promptsFlags.output = "json"
	t.Cleanup(func() { promptsFlags.output = "text" })

	if err := runPrompts(cmd, nil); err != nil {
		t.Fatalf("runPrompts() error = %v", err)
	}

	var got promptsResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got.Count != len(got.IDs) || got.IDs[len(got.IDs)-1] != "zz-eigener-prompt" {
		t.Errorf("result = %+v", got)
	}
}

func TestPromptsInvalidOutput(t *testing.T) {
	cmd, _ := newTestCmd(t)
	promptsFlags.output = "xml"
	t.Cleanup(func() { promptsFlags.output = "text" })

	err := runPrompts(cmd, nil)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("runPrompts() error = %v, want *cli.ConfigError", err)
	}
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode() = %d", cli.ExitCode(err))
	}
}

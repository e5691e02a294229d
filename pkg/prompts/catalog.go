// Package prompts holds the system prompt catalog keyed by prompt id.
//
// The built-in German table can be extended or overridden by a YAML file:
//
//	base: "Du bist ..."          # optional, replaces Base
//	prompts:
//	  weltbau: "Aufgabe: ..."
//	  mein-prompt: "Aufgabe: ..."
//
// A Watcher reloads that file while the server runs.
package prompts

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Overlay is the on-disk format of a catalog file.
type Overlay struct {
	Base    string            `yaml:"base"`
	Prompts map[string]string `yaml:"prompts"`
}

// Catalog resolves prompt ids to system prompts. It is safe for concurrent
// use; Reload swaps the overlay atomically.
type Catalog struct {
	path string

	mu      sync.RWMutex
	base    string
	overlay map[string]string
}

// New returns a catalog with only the built-in prompts.
func New() *Catalog {
	return &Catalog{base: Base}
}

// Load returns a catalog with the overlay at path merged over the built-in
// prompts. An empty path is the same as New.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path, base: Base}
	if path == "" {
		return c, nil
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the overlay file, if any.
func (c *Catalog) Path() string {
	return c.path
}

// Reload re-reads the overlay file. On error the previous overlay stays
// active.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read prompt file: %w", err)
	}

	var ov Overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("failed to parse prompt file %s: %w", c.path, err)
	}
	if err := ov.validate(); err != nil {
		return fmt.Errorf("invalid prompt file %s: %w", c.path, err)
	}

	base := Base
	if strings.TrimSpace(ov.Base) != "" {
		base = strings.TrimSpace(ov.Base)
	}

	c.mu.Lock()
	c.base = base
	c.overlay = ov.Prompts
	c.mu.Unlock()

	slog.Info("prompt catalog loaded",
		"path", c.path,
		"overlay_prompts", len(ov.Prompts),
	)
	return nil
}

func (ov *Overlay) validate() error {
	var errs []error
	for id, task := range ov.Prompts {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("empty prompt id"))
		}
		if strings.TrimSpace(task) == "" {
			errs = append(errs, fmt.Errorf("prompt %q has no text", id))
		}
	}
	return errors.Join(errs...)
}

// SystemPrompt returns the base instruction followed by the task for id.
// Unknown and empty ids get DefaultTask.
func (c *Catalog) SystemPrompt(id string) string {
	task, ok := c.task(id)
	if !ok {
		task = DefaultTask
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base + "\n" + task
}

// Has reports whether id is a known prompt.
func (c *Catalog) Has(id string) bool {
	_, ok := c.task(id)
	return ok
}

func (c *Catalog) task(id string) (string, bool) {
	if id == "" {
		return "", false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if task, ok := c.overlay[id]; ok {
		return task, true
	}
	task, ok := builtin[id]
	return task, ok
}

// IDs returns all known prompt ids, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make(map[string]struct{}, len(builtin)+len(c.overlay))
	for id := range builtin {
		ids[id] = struct{}{}
	}
	for id := range c.overlay {
		ids[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(ids))
}

// Len returns the number of known prompts.
func (c *Catalog) Len() int {
	return len(c.IDs())
}

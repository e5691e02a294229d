package providerfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"hohl-rocks/relay/pkg/providers"
)

// Entry is one ready-to-use provider: its wire adapter and its transport.
type Entry struct {
	Adapter providers.Adapter
	Client  *providers.HTTPClient
}

// Manager owns the adapters and HTTP clients of all configured providers.
// It is built once at startup and is safe for concurrent use.
type Manager struct {
	opts    Options
	entries map[providers.Name]Entry
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewManager creates an empty manager.
func NewManager(opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		opts:    opts,
		entries: make(map[providers.Name]Entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a credential. An existing entry for the same provider is
// closed and replaced.
func (m *Manager) Add(cred providers.Credential) error {
	adapter, err := New(cred, m.opts)
	if err != nil {
		return err
	}

	cfg := m.opts.Client
	cfg.Name = string(cred.Provider)
	entry := Entry{Adapter: adapter, Client: providers.NewHTTPClient(cfg)}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[cred.Provider]; ok {
		slog.Warn("replacing existing provider", "provider", cred.Provider)
		existing.Client.Close()
	}
	m.entries[cred.Provider] = entry

	slog.Info("provider registered",
		"provider", cred.Provider,
		"model", adapter.Model(),
		"total_providers", len(m.entries),
	)
	return nil
}

// Load registers every credential, collecting failures.
func (m *Manager) Load(creds []providers.Credential) error {
	var errs []error
	for _, cred := range creds {
		if err := m.Add(cred); err != nil {
			slog.Error("failed to load provider", "provider", cred.Provider, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns the entry for name.
func (m *Manager) Get(name providers.Name) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[name]
	return e, ok
}

// Names returns the registered provider names, sorted.
func (m *Manager) Names() []providers.Name {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]providers.Name, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of registered providers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// StartHealthChecks starts the background pinger of every provider. The
// checkers stop when the manager is closed.
func (m *Manager) StartHealthChecks() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		e.Client.StartHealthChecker(m.ctx, e.Adapter)
	}
}

// Probe pings every provider once and returns the per-provider result.
func (m *Manager) Probe(ctx context.Context) map[providers.Name]error {
	m.mu.RLock()
	entries := make(map[providers.Name]Entry, len(m.entries))
	for name, e := range m.entries {
		entries[name] = e
	}
	m.mu.RUnlock()

	results := make(map[providers.Name]error, len(entries))
	var (
		wg  sync.WaitGroup
		rmu sync.Mutex
	)
	for name, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := e.Client.Ping(ctx, e.Adapter)
			rmu.Lock()
			results[name] = err
			rmu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// HealthSummary returns a snapshot of provider health.
func (m *Manager) HealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.entries),
		Details: make(map[providers.Name]providers.ProviderHealth, len(m.entries)),
	}
	for name, e := range m.entries {
		health := e.Client.GetHealth()
		summary.Details[name] = health
		if health.IsHealthy {
			summary.Healthy++
		}
	}
	summary.Unhealthy = summary.Total - summary.Healthy
	return summary
}

// Close stops health checking and closes every client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancel()

	var errs []error
	for name, e := range m.entries {
		if err := e.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}
	m.entries = make(map[providers.Name]Entry)

	slog.Info("provider manager closed")
	return errors.Join(errs...)
}

// HealthSummary provides an overview of provider health.
type HealthSummary struct {
	Total     int
	Healthy   int
	Unhealthy int
	Details   map[providers.Name]providers.ProviderHealth
}

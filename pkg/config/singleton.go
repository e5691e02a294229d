package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the process-wide configuration.
	globalConfig *Config

	// configMutex protects globalConfig.
	configMutex sync.RWMutex
)

// Initialize loads configuration from path with environment overrides and
// stores it as the process-wide configuration. Calling it again replaces the
// stored configuration only if loading succeeds.
func Initialize(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	SetConfig(cfg)
	return cfg, nil
}

// GetConfig returns the process-wide configuration, or nil before Initialize.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the process-wide configuration. Tests use it to inject
// a configuration; nil clears it.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig reloads from path. On failure the existing configuration is
// kept.
func ReloadConfig(path string) error {
	if _, err := Initialize(path); err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	return nil
}

// MustGetConfig returns the process-wide configuration and panics if it was
// never initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

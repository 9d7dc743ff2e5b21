package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/pledge/internal/domain/config"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// LocalConfigFile is the per-checkout config file inside the data directory
const LocalConfigFile = "config.local.json"

// LocalConfigStoreAdapter keeps the checkout's identity and storage choice in
// .pledge/config.local.json, the same file viper reads at startup
type LocalConfigStoreAdapter struct {
	path string
}

// NewLocalConfigStoreAdapter creates a store for the runtime data directory
func NewLocalConfigStoreAdapter(cfg *config.RuntimeConfig) *LocalConfigStoreAdapter {
	return &LocalConfigStoreAdapter{path: filepath.Join(cfg.DataDir, LocalConfigFile)}
}

// Exists reports whether a config file has been written
func (s *LocalConfigStoreAdapter) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns the saved config, or the defaults when none was saved
func (s *LocalConfigStoreAdapter) Load(ctx context.Context) (*config.LocalConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return config.DefaultLocalConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := config.DefaultLocalConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	if cfg.Storage == "" {
		cfg.Storage = config.StorageFile
	}
	if cfg.Storage != config.StorageFile && cfg.Storage != config.StorageBolt {
		return nil, fmt.Errorf("config file %s: unknown storage backend %q", s.path, cfg.Storage)
	}
	return cfg, nil
}

// Save replaces the config file. The write goes through a temp file so a
// crash never leaves viper a truncated document.
func (s *LocalConfigStoreAdapter) Save(ctx context.Context, cfg *config.LocalConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// GetPath returns the config file location
func (s *LocalConfigStoreAdapter) GetPath() string {
	return s.path
}

var _ usecase.LocalConfigStore = (*LocalConfigStoreAdapter)(nil)

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/pledge/internal/domain/config"
)

// loadEnvFiles loads .env and .env.local so pledge.toml can reference them
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadProjectConfig loads and parses pledge.toml if it exists.
// Without one the defaults are returned with source "defaults".
func loadProjectConfig(projectRoot string) (*config.ProjectConfig, string, error) {
	cfg := config.DefaultProjectConfig()

	path := filepath.Join(projectRoot, ProjectFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, "defaults", nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}

	// Expand environment variables in all string fields that name things
	cfg.Ledger.FeeRecipient = os.ExpandEnv(cfg.Ledger.FeeRecipient)
	cfg.Ledger.Treasury = os.ExpandEnv(cfg.Ledger.Treasury)
	cfg.Storage.Path = os.ExpandEnv(cfg.Storage.Path)
	cfg.Mirror.NatsURL = os.ExpandEnv(cfg.Mirror.NatsURL)
	cfg.Metrics.Listen = os.ExpandEnv(cfg.Metrics.Listen)

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = config.StorageFile
	}
	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(projectRoot, cfg.Storage.Path)
	}

	return cfg, ProjectFile, nil
}

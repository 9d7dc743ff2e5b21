package config

import (
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Identity the CLI acts as; zero when none was given
	Caller common.Address

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Config source tracking
	ConfigSource string // "pledge.toml" or "defaults"

	// Resolved configurations
	Project *ProjectConfig
	Local   *LocalConfig
}

// HasCaller reports whether an identity was configured
func (c *RuntimeConfig) HasCaller() bool {
	return c.Caller != (common.Address{})
}

// DefaultBoltFile is the database name used when [storage] sets no path
const DefaultBoltFile = "ledger.db"

// StorePath resolves where the configured backend keeps the ledger: a
// directory for the file backend, a database file for bolt
func (c *RuntimeConfig) StorePath() string {
	storage := c.Project.Storage
	if storage.Path != "" {
		return storage.Path
	}
	if storage.Backend == StorageBolt {
		return filepath.Join(c.DataDir, DefaultBoltFile)
	}
	return c.DataDir
}

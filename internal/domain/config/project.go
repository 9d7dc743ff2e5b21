package config

import "time"

// Storage backends
const (
	StorageFile = "file"
	StorageBolt = "bolt"
)

// ProjectConfig represents the full pledge.toml configuration file
type ProjectConfig struct {
	Ledger  LedgerConfig  `toml:"ledger"`
	Storage StorageConfig `toml:"storage"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Metrics MetricsConfig `toml:"metrics"`
	Token   TokenConfig   `toml:"token"`
}

// LedgerConfig seeds the settings store the first time it is opened
type LedgerConfig struct {
	FeeBps       uint16 `toml:"fee_bps"`
	FeeRecipient string `toml:"fee_recipient,omitempty"`
	Treasury     string `toml:"treasury,omitempty"`
}

// StorageConfig represents the [storage] section
type StorageConfig struct {
	Backend string `toml:"backend"` // "file" or "bolt"
	Path    string `toml:"path,omitempty"`
}

// MirrorConfig represents the [mirror] section. An empty URL disables the mirror.
type MirrorConfig struct {
	NatsURL string        `toml:"nats_url,omitempty"`
	Subject string        `toml:"subject"`
	Timeout time.Duration `toml:"timeout"`
}

// MetricsConfig represents the [metrics] section
type MetricsConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// TokenConfig describes the escrowed asset
type TokenConfig struct {
	Symbol   string `toml:"symbol"`
	Decimals uint8  `toml:"decimals"`
}

// DefaultProjectConfig returns the configuration used without a pledge.toml
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Storage: StorageConfig{Backend: StorageFile},
		Mirror: MirrorConfig{
			Subject: "pledge.challenges",
			Timeout: 2 * time.Second,
		},
		Token: TokenConfig{Symbol: "USDC", Decimals: 6},
	}
}

package config

// LocalConfig represents the local pledge configuration
type LocalConfig struct {
	Identity string `json:"identity,omitempty"`
	Storage  string `json:"storage,omitempty"`
}

// ConfigKey represents a configuration key
type ConfigKey string

const (
	ConfigKeyIdentity ConfigKey = "identity"
	ConfigKeyStorage  ConfigKey = "storage"
)

// DefaultLocalConfig returns the default local configuration
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Storage: StorageFile,
	}
}

// ValidConfigKeys returns all valid configuration keys
func ValidConfigKeys() []ConfigKey {
	return []ConfigKey{
		ConfigKeyIdentity,
		ConfigKeyStorage,
	}
}

// IsValidConfigKey checks if a key is valid
func IsValidConfigKey(key string) bool {
	for _, validKey := range ValidConfigKeys() {
		if string(validKey) == key || (key == "as" && validKey == ConfigKeyIdentity) {
			return true
		}
	}
	return false
}

// NormalizeConfigKey normalizes a config key (e.g., "as" -> "identity")
func NormalizeConfigKey(key string) ConfigKey {
	if key == "as" {
		return ConfigKeyIdentity
	}
	return ConfigKey(key)
}

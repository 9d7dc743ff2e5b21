package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/config"
)

// ProjectFile is the name of the project configuration file
const ProjectFile = "pledge.toml"

// DataDirName is the directory holding ledger state and local config
const DataDirName = ".pledge"

// ErrNoProject is returned when no project marker is found above the working directory
var ErrNoProject = errors.New("not in a pledge project (pledge.toml or .pledge not found)")

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	loadEnvFiles(projectRoot)

	project, source, err := loadProjectConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		ConfigSource:   source,
		Project:        project,
		Local: &config.LocalConfig{
			Identity: v.GetString("identity"),
			Storage:  v.GetString("storage"),
		},
	}

	if identity := cfg.Local.Identity; identity != "" {
		caller, err := ParseAddress(identity)
		if err != nil {
			return nil, fmt.Errorf("invalid identity: %w", err)
		}
		cfg.Caller = caller
	}

	// Local storage choice wins over the project file
	if backend := cfg.Local.Storage; backend != "" && backend != cfg.Project.Storage.Backend {
		// A path configured for the other backend does not carry over
		cfg.Project.Storage = config.StorageConfig{Backend: backend}
	}
	switch cfg.Project.Storage.Backend {
	case config.StorageFile, config.StorageBolt:
	default:
		return nil, fmt.Errorf("unknown storage backend %q: expected %s or %s",
			cfg.Project.Storage.Backend, config.StorageFile, config.StorageBolt)
	}

	return cfg, nil
}

// ParseAddress parses a 0x-prefixed hex address
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// FindProjectRoot walks up from current directory to find pledge.toml or .pledge
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{ProjectFile, DataDirName} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	// Set up environment variables
	v.SetEnvPrefix("PLEDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "1m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return v
}

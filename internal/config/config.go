package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds the node configuration loaded from environment variables.
type Config struct {
	// HTTPPort is the port the node's HTTP API listens on.
	// Default: 4590
	HTTPPort int

	// DataDir is where the SQLite state database lives.
	// Default: ./data
	DataDir string

	// StorageBackend selects "memory" or "sqlite".
	// Default: memory
	StorageBackend string

	// EnabledModules is the list of runtime modules to mount.
	// Example: "userstate,usermap"
	EnabledModules []string

	// BlockTime is the interval between produced blocks. Zero disables block production.
	// Default: 6s
	BlockTime time.Duration

	// GenesisBlock is the height the chain clock starts at.
	GenesisBlock uint64

	// LogLevel controls the verbosity of logging (debug, info, warn, error).
	// Default: "info"
	LogLevel string
}

// Load creates a Config by reading environment variables.
// Missing values are replaced with defaults; malformed values are errors.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:       4590,
		DataDir:        "./data",
		StorageBackend: BackendMemory,
		EnabledModules: []string{"userstate", "usermap"},
		BlockTime:      6 * time.Second,
		LogLevel:       "info",
	}

	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_PORT %q: %w", portStr, err)
		}
		cfg.HTTPPort = port
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		cfg.StorageBackend = strings.ToLower(strings.TrimSpace(backend))
	}

	if modulesStr := os.Getenv("ENABLED_MODULES"); modulesStr != "" {
		modules := strings.Split(modulesStr, ",")
		enabled := make([]string, 0, len(modules))
		for _, m := range modules {
			m = strings.TrimSpace(m)
			if m != "" {
				enabled = append(enabled, m)
			}
		}
		if len(enabled) > 0 {
			cfg.EnabledModules = enabled
		}
	}

	if blockTime := os.Getenv("BLOCK_TIME"); blockTime != "" {
		d, err := time.ParseDuration(blockTime)
		if err != nil {
			return nil, fmt.Errorf("invalid duration for BLOCK_TIME: %q (%w)", blockTime, err)
		}
		cfg.BlockTime = d
	}

	if genesis := os.Getenv("GENESIS_BLOCK"); genesis != "" {
		n, err := strconv.ParseUint(genesis, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GENESIS_BLOCK %q: %w", genesis, err)
		}
		cfg.GenesisBlock = n
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

// IsModuleEnabled checks if a given module name is in the EnabledModules list.
func (c *Config) IsModuleEnabled(name string) bool {
	for _, m := range c.EnabledModules {
		if m == name {
			return true
		}
	}
	return false
}

// Validate performs basic validation on the configuration.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort >= 65536 {
		return fmt.Errorf("invalid HTTP_PORT: %d (must be 1-65535)", c.HTTPPort)
	}
	switch c.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR cannot be empty for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %q (must be %s or %s)", c.StorageBackend, BackendMemory, BackendSQLite)
	}
	if c.BlockTime < 0 {
		return fmt.Errorf("BLOCK_TIME cannot be negative")
	}
	return nil
}

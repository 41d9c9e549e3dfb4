package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "DATA_DIR", "STORAGE_BACKEND", "ENABLED_MODULES", "BLOCK_TIME", "GENESIS_BLOCK", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4590, cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 6*time.Second, cfg.BlockTime)
	assert.True(t, cfg.IsModuleEnabled("userstate"))
	assert.True(t, cfg.IsModuleEnabled("usermap"))
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("DATA_DIR", "/tmp/userstate")
	t.Setenv("ENABLED_MODULES", " usermap , ")
	t.Setenv("BLOCK_TIME", "250ms")
	t.Setenv("GENESIS_BLOCK", "100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, []string{"usermap"}, cfg.EnabledModules)
	assert.False(t, cfg.IsModuleEnabled("userstate"))
	assert.Equal(t, 250*time.Millisecond, cfg.BlockTime)
	assert.Equal(t, uint64(100), cfg.GenesisBlock)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Malformed(t *testing.T) {
	t.Setenv("BLOCK_TIME", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{HTTPPort: 0, StorageBackend: BackendMemory}
	assert.Error(t, cfg.Validate())

	cfg = &Config{HTTPPort: 80, StorageBackend: "redis"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{HTTPPort: 80, StorageBackend: BackendSQLite}
	assert.Error(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenPathEmpty(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsYAMLOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog_dir: /tmp/services\nbase_port: 20000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/services", cfg.CatalogDir)
	assert.Equal(t, 20000, cfg.BasePort)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_port: 20000\n"), 0o644))

	t.Setenv("TRADEMESH_BASE_PORT", "30000")
	t.Setenv("TRADEMESH_CATALOG_DIR", "/env/services")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.BasePort)
	assert.Equal(t, "/env/services", cfg.CatalogDir)
}

func TestLoadInvalidEnvIntIsIgnored(t *testing.T) {
	t.Setenv("TRADEMESH_BASE_PORT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().BasePort, cfg.BasePort)
}

func TestLoadEnvDurationOverride(t *testing.T) {
	t.Setenv("TRADEMESH_RECONCILE_TICK", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(5*1e9), cfg.ReconcileTick.Nanoseconds())
}

func TestLoadEnvExternalHealthOverrides(t *testing.T) {
	t.Setenv("TRADEMESH_EXTERNAL_HEALTH_URL", "http://dep.internal/health")
	t.Setenv("TRADEMESH_EXTERNAL_HEALTH_INTERVAL", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://dep.internal/health", cfg.ExternalHealthURL)
	assert.Equal(t, int64(5*1e9), cfg.ExternalHealthInterval.Nanoseconds())
}

func TestLoadEnvSnapshotPathOverride(t *testing.T) {
	t.Setenv("TRADEMESH_SNAPSHOT_PATH", "/tmp/custom-snapshot.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-snapshot.db", cfg.SnapshotPath)
}

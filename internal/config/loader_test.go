package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10*time.Second, cfg.Upload.CallTimeout)
	assert.Equal(t, "speculative", cfg.Upload.ReferenceMode)
	assert.Equal(t, []string{"1"}, cfg.Upload.NationalIDTypes)
	assert.Equal(t, "NADI@2024", cfg.Upload.InitialCredential)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := `
database:
  host: db.internal
  port: 6543
upload:
  call_timeout: 3s
  reference_mode: snapshot
  national_id_types: ["1", "4"]
log:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	t.Setenv("MEMBERLOAD_DATABASE_HOST", "override.internal")
	t.Setenv("MEMBERLOAD_UPLOAD_QUOTED_FIELDS", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.Source)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 3*time.Second, cfg.Upload.CallTimeout)
	assert.Equal(t, "snapshot", cfg.Upload.ReferenceMode)
	assert.True(t, cfg.Upload.QuotedFields)
	assert.Equal(t, []string{"1", "4"}, cfg.Upload.NationalIDTypes)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MEMBERLOAD_UPLOAD_REFERENCE_MODE", "guess")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReferenceMode")
}

package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadDefaults()
	require.NoError(t, err)

	assert.Equal(t, MySQL, cfg.DB.Type)
	assert.Equal(t, "kids_db", cfg.DB.Database)
	assert.Equal(t, AssetBackendLocal, cfg.Upload.Backend)
	assert.EqualValues(t, 2*1024*1024, cfg.Upload.MaxIconBytes)
	assert.EqualValues(t, 4*1024*1024, cfg.Upload.MaxCoverBytes)
	assert.Equal(t, 20, cfg.Upload.MaxBulkFiles)
	assert.False(t, cfg.Jobs.OrphanSweep.Delete)
	assert.Equal(t, "X-Role", cfg.Auth.RoleHeader)
	require.NoError(t, Validate(cfg))
}

func TestInitConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	body := []byte("server:\n  port: 8088\n  public_origin: https://sheets.example.com/\ndb:\n  type: sqlite\n  database: test\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o600))

	require.NoError(t, InitConfig(dir))

	cfg := GetConfig()
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "https://sheets.example.com", cfg.Server.Origin())
	assert.Equal(t, "file:test.db", cfg.DB.GetDSN())
	assert.Equal(t, "SQLite", cfg.DB.GetDBType())
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Setenv("WORKSHEETHUB_SERVER_PUBLIC_ORIGIN", "http://10.0.0.5:5000")

	require.NoError(t, InitConfig(t.TempDir()))
	assert.Equal(t, "http://10.0.0.5:5000", GetConfig().Server.Origin())
}

func TestInitConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	body := []byte("upload:\n  backend: ftp\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o600))

	assert.Error(t, InitConfig(dir))
}

func TestUploadMIMEAllowList(t *testing.T) {
	up := UploadConfig{ImageTypes: []string{"image/*"}, DocumentTypes: []string{"application/pdf"}}

	assert.True(t, up.AllowsImage("image/png"))
	assert.True(t, up.AllowsImage("IMAGE/JPEG"))
	assert.False(t, up.AllowsImage("application/pdf"))
	assert.True(t, up.AllowsDocument("application/pdf"))
	assert.True(t, up.AllowsDocument("application/pdf; charset=binary"))
	assert.True(t, up.AllowsDocument("image/webp"))
	assert.False(t, up.AllowsDocument("text/html"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestConfig_Defaults(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(":8080", cfg.Server.Addr)
	assert.Equal(5*time.Second, cfg.Gravatar.Timeout)
	assert.Equal("pebble", cfg.Store.Driver)
	assert.Equal("local", cfg.Files.Driver)
	assert.Equal(80, cfg.Icons.Size)
}

func TestConfig_ShouldLayerFileAndEnvironment(t *testing.T) {
	assert := assert.New(t)

	path := writeFile(t, "avatar.yaml", `
server:
  addr: ":9000"
gravatar:
  timeout: 2s
  rate: 5
icons:
  default: wavatar
  size: 96
files:
  driver: minio
  minio:
    endpoint: minio:9000
    bucket: icons
`)
	t.Setenv("AVATAR_ICONS_SIZE", "128")
	t.Setenv("AVATAR_FILES_MINIO_USE_SSL", "true")
	t.Setenv("AVATAR_STORE_DRIVER", "memory")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(":9000", cfg.Server.Addr)
	assert.Equal(10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(2*time.Second, cfg.Gravatar.Timeout)
	assert.Equal(5.0, cfg.Gravatar.Rate)
	assert.Equal("wavatar", cfg.Icons.Default)
	assert.Equal(128, cfg.Icons.Size)
	assert.Equal("minio", cfg.Files.Driver)
	assert.Equal("icons", cfg.Files.Minio.Bucket)
	assert.True(cfg.Files.Minio.UseSSL)
	assert.Equal("memory", cfg.Store.Driver)
}

func TestConfig_ShouldReadDotEnv(t *testing.T) {
	envPath := writeFile(t, ".env", "AVATAR_LOG_LEVEL=debug\nAVATAR_GRAVATAR_ENDPOINT=http://localhost:8081\n")
	t.Setenv("AVATAR_LOG_LEVEL", "")
	os.Unsetenv("AVATAR_LOG_LEVEL")
	t.Setenv("AVATAR_GRAVATAR_ENDPOINT", "")
	os.Unsetenv("AVATAR_GRAVATAR_ENDPOINT")

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://localhost:8081", cfg.Gravatar.Endpoint)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestConfig_ShouldRejectInvalidSettings(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"store driver", "store:\n  driver: redis\n"},
		{"file driver", "files:\n  driver: ftp\n"},
		{"minio without bucket", "files:\n  driver: minio\n  minio:\n    endpoint: minio:9000\n"},
		{"icon size", "icons:\n  size: 0\n"},
		{"negative rate", "gravatar:\n  rate: -1\n"},
		{"malformed", "server: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "avatar.yaml", tc.yaml), "")
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagConfig = ""
		flagTailnet = ""
		flagAPIKey = ""
		flagClientID = ""
		flagClientSecret = ""
		flagTimeout = ""
		flagLogLevel = ""
		flagTokenFile = ""
		flagRedisAddr = ""
	})
}

func TestLoadConfig_FromYAML(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "tsadm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tailnet: example.com
oauth_client_id: id
oauth_client_secret: secret
token_file: /tmp/ts-token.json
`), 0600))

	flagConfig = path
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.Tailnet)
	assert.Equal(t, "id", cfg.OAuthClientID)
	assert.Equal(t, "secret", cfg.OAuthClientSecret)
	assert.Equal(t, "/tmp/ts-token.json", cfg.TokenFile)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "tsadm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tailnet: from-file\napi_key: from-file\n"), 0600))

	flagConfig = path
	t.Setenv("TS_TAILNET", "from-env")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Tailnet)
	assert.Equal(t, "from-file", cfg.APIKey)
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	resetFlags(t)

	t.Setenv("TS_TAILNET", "from-env")
	flagTailnet = "from-flag"
	flagTimeout = "3s"

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Tailnet)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestLoadConfig_RejectsInvalidTimeout(t *testing.T) {
	resetFlags(t)

	flagTimeout = "not-a-duration"
	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --timeout")
}

func TestLoadConfig_RejectsBrokenYAML(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "tsadm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tailnet: [broken"), 0600))

	flagConfig = path
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestNewTokenStorage(t *testing.T) {
	t.Run("none configured", func(t *testing.T) {
		storage, err := newTokenStorage(&config{})
		require.NoError(t, err)
		assert.Nil(t, storage)
	})

	t.Run("token file", func(t *testing.T) {
		storage, err := newTokenStorage(&config{
			TokenFile: filepath.Join(t.TempDir(), "token.json"),
		})
		require.NoError(t, err)
		assert.NotNil(t, storage)
	})
}

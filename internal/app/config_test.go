package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/sealion/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	RefreshTestMode()
	t.Setenv("SEALION_TOKEN_FILE", filepath.Join(t.TempDir(), "tokens.json"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8000/api", cfg.APIURL)
	require.Equal(t, TokenStoreFile, cfg.TokenStore)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	RefreshTestMode()
	t.Setenv("SEALION_API_URL", "not a url")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "SEALION_API_URL")

	t.Setenv("SEALION_API_URL", "http://api.example.test/api")
	t.Setenv("SEALION_TOKEN_STORE", "etcd")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "SEALION_TOKEN_STORE")
}

func TestLoadMockConfig(t *testing.T) {
	RefreshTestMode()
	t.Setenv("MOCK_ACCESS_TTL", "90s")
	cfg, err := LoadMockConfig()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.AccessTTL)
	require.True(t, cfg.Seed)

	t.Setenv("MOCK_JWT_SECRET", " ")
	_, err = LoadMockConfig()
	require.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", "debug").Debug("hello", "k", "v")
	require.True(t, strings.HasPrefix(buf.String(), "{"))
	require.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	newLogger(&buf, "pretty", "").Info("hidden")
	require.Empty(t, buf.String())
}

func TestTestModeFlag(t *testing.T) {
	t.Cleanup(RefreshTestMode)

	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "maybe")
	RefreshTestMode()
	require.False(t, InTestMode())
}

func TestLoadConfigRedisStore(t *testing.T) {
	RefreshTestMode()
	t.Setenv("SEALION_TOKEN_STORE", "redis")
	t.Setenv("REDIS_ADDR", "10.0.0.5:6380")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, TokenStoreRedis, cfg.TokenStore)
	require.Equal(t, "10.0.0.5:6380", cfg.RedisAddr)
	require.Equal(t, 2, cfg.RedisDB)
	require.Equal(t, "sealion:", cfg.RedisPrefix)
}

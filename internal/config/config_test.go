package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"LINKACE_API_URL", "LINKACE_API_TOKEN", "HTTP_CLIENT_TIMEOUT_MS",
		"CACHE_TTL_MS", "DEBOUNCE_MS", "SUGGESTION_LIMIT", "VALIDATE_RESPONSES",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 4096, cfg.CacheMaxItems)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 100*time.Millisecond, cfg.ActivateSettle)
	assert.Equal(t, 10, cfg.SuggestionLimit)
	assert.True(t, cfg.ValidateResponses)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Configured())
	assert.Empty(t, cfg.File)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("LINKACE_API_URL", "https://links.test")
	t.Setenv("LINKACE_API_TOKEN", "secret")
	t.Setenv("HTTP_CLIENT_TIMEOUT_MS", "10000")
	t.Setenv("VALIDATE_RESPONSES", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Configured())
	assert.Equal(t, "https://links.test", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	assert.False(t, cfg.ValidateResponses)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "linkace.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
linkace_api_url = "https://from-file.test"
linkace_api_token = "file-token"
debounce_ms = 400
suggestion_limit = 5
`), 0o600))
	t.Setenv("SUGGESTION_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.test", cfg.APIURL)
	assert.Equal(t, 400*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 7, cfg.SuggestionLimit)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_DefaultLocation(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "linkace")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`cache_ttl_ms = 1000`), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.CacheTTL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lsmpricer.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesFileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "pricer-test"

[pricing]
paths = 2000
solver = "cholesky"
`)

	var conf Config
	require.NoError(t, Load(path, &conf))

	assert.Equal(t, "pricer-test", conf.Server.Name)
	assert.Equal(t, 8080, conf.Server.HTTP.Port)
	assert.Equal(t, 2000, conf.Pricing.Paths)
	assert.Equal(t, 50, conf.Pricing.Steps)
	assert.Equal(t, "cholesky", conf.Pricing.Solver)
	assert.Equal(t, 10*time.Minute, conf.Cache.TTL)
	assert.Equal(t, "info", conf.Log.Level)
	assert.NotNil(t, GetViper())
}

func TestReloadHookReceivesNewConfig(t *testing.T) {
	path := writeConfig(t, "[pricing]\npaths = 2000\n")

	var seen atomic.Int64
	RegisterReloadHook(func(c *Config) { seen.Store(int64(c.Pricing.Paths)) })

	var conf Config
	require.NoError(t, Load(path, &conf))
	require.NoError(t, os.WriteFile(path, []byte("[pricing]\npaths = 3000\n"), 0o600))

	assert.Eventually(t, func() bool { return seen.Load() == 3000 }, 5*time.Second, 20*time.Millisecond)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("APP_PRICING_DEGREE", "3")

	var conf Config
	require.NoError(t, Load("", &conf))
	assert.Equal(t, 3, conf.Pricing.Degree)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
[pricing]
degree = 20
`)

	var conf Config
	err := Load(path, &conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadMissingFile(t *testing.T) {
	var conf Config
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.toml"), &conf))
}

func TestMaskHidesSecrets(t *testing.T) {
	m := map[string]any{
		"tracing": map[string]any{"token": "abc", "enabled": true},
		"name":    "x",
	}
	mask(m)
	assert.Equal(t, "******", m["tracing"].(map[string]any)["token"])
	assert.Equal(t, "x", m["name"])
}

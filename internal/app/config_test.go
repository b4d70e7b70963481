package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 30*time.Second, cfg.AppRequestTimeout)
	require.Equal(t, DataSourcePostgres, cfg.DataSource)
	require.Equal(t, "/login", cfg.LoginPath)
	require.Equal(t, "/dashboard", cfg.LandingPath)
	require.Equal(t, 5*time.Minute, cfg.PrincipalCacheTTL)
	require.False(t, cfg.IsProduction())
	require.False(t, cfg.UsesMemoryData())
}

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_SOURCE", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.True(t, cfg.UsesMemoryData())
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{SessionSecret: "x", DataSource: DataSourceMemory, LoginPath: "/login", LandingPath: "/dashboard", LogLevel: "info"}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.DataSource = "sqlite"
	require.ErrorContains(t, bad.Validate(), "unknown data source")

	bad = valid
	bad.LoginPath = "login"
	require.Error(t, bad.Validate())

	bad = valid
	bad.LogLevel = "loud"
	require.ErrorContains(t, bad.Validate(), "invalid log level")
}

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	require.Zero(t, buf.Len())

	logger.Warn("shown")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestInTestModeFollowsEnvironment(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())
}

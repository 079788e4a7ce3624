package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50.0, cfg.Ranking.DefaultRadiusKM)
	assert.Equal(t, 20, cfg.Ranking.DefaultMaxResults)
	assert.Equal(t, 100, cfg.Outreach.SweepLimit)
	assert.Equal(t, 1, cfg.Outreach.SweepConcurrency)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BELLEZA_LOG_LEVEL", "debug")
	t.Setenv("BELLEZA_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate_Store(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: "postgres", DatabaseURL: "postgres://localhost/app"}}
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.DatabaseURL = ""
	assert.Error(t, cfg.Validate("store"))

	cfg.Store = StoreConfig{Driver: "mysql", DatabaseURL: "x"}
	assert.Error(t, cfg.Validate("store"))

	cfg.Store = StoreConfig{Driver: "sqlite", DatabaseURL: "app.db"}
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidate_Outreach(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate("outreach"))

	cfg.Outreach.RegistrationBaseURL = "https://app.bellezapp.mx"
	assert.NoError(t, cfg.Validate("outreach"))
}

func TestValidate_UnknownSubsystemIsNoop(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate("something-else"))
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level", Format: "json"}))
}

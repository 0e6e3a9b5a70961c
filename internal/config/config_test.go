package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "process", cfg.Irradiance.Provider)
	assert.Equal(t, "pvsim", cfg.Irradiance.BinPath)
	assert.Equal(t, 30, cfg.Production.SimulationTimeoutSecs)
	assert.Equal(t, "static", cfg.Tariff.Source)
	assert.Empty(t, cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "https://api.bcb.gov.br/dados/serie", cfg.Bacen.BaseURL)
	assert.Equal(t, 10, cfg.Bacen.TimeoutSecs)
	assert.Equal(t, 432, cfg.Bacen.SelicSeries)
	assert.Equal(t, 4389, cfg.Bacen.CDISeries)
	assert.Equal(t, 433, cfg.Bacen.IPCASeries)
	assert.InDelta(t, 10.50, cfg.Bacen.Defaults.Selic, 0.001)
	assert.InDelta(t, 10.40, cfg.Bacen.Defaults.CDI, 0.001)
	assert.InDelta(t, 0.40, cfg.Bacen.Defaults.IPCA, 0.001)
	assert.Equal(t, 25, cfg.Finance.ProjectionYears)
	assert.InDelta(t, 0.5, cfg.Finance.DegradationPct, 0.001)
	assert.InDelta(t, 1.0, cfg.Finance.SurplusCreditFactor, 0.001)
	assert.True(t, cfg.Financing.IOFEnabled)
	assert.InDelta(t, 0.38, cfg.Financing.IOFFlatPct, 0.0001)
	assert.Equal(t, "annotate", cfg.Viability.CompliancePolicy)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, "solar-proposals", cfg.Temporal.TaskQueue)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
irradiance:
  provider: pvgis
tariff:
  source: store
store:
  driver: sqlite
  database_url: file:solar.db
bacen:
  defaults:
    selic: 11.25
viability:
  compliance_policy: reject
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "pvgis", cfg.Irradiance.Provider)
	assert.Equal(t, "store", cfg.Tariff.Source)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:solar.db", cfg.Store.DatabaseURL)
	assert.InDelta(t, 11.25, cfg.Bacen.Defaults.Selic, 0.001)
	// Untouched keys keep their defaults.
	assert.InDelta(t, 10.40, cfg.Bacen.Defaults.CDI, 0.001)
	assert.Equal(t, "reject", cfg.Viability.CompliancePolicy)
}

func TestLoadEnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SOLAR_SERVER_PORT", "7070")
	t.Setenv("SOLAR_IRRADIANCE_PROVIDER", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Irradiance.Provider)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	base := Config{
		Irradiance: IrradianceConfig{Provider: "none"},
		Tariff:     TariffConfig{Source: "static"},
		Viability:  ViabilityConfig{CompliancePolicy: "annotate"},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Irradiance.Provider = "sam" }, `unknown irradiance provider "sam"`},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, `unknown store driver "mysql"`},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres" }, "requires store.database_url"},
		{"unknown tariff source", func(c *Config) { c.Tariff.Source = "aneel" }, `unknown tariff source "aneel"`},
		{"store source without store", func(c *Config) { c.Tariff.Source = "store" }, "requires store.driver"},
		{"unknown policy", func(c *Config) { c.Viability.CompliancePolicy = "ignore" }, `unknown compliance policy "ignore"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))

	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

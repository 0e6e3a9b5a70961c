package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Irradiance IrradianceConfig `yaml:"irradiance" mapstructure:"irradiance"`
	Production ProductionConfig `yaml:"production" mapstructure:"production"`
	Tariff     TariffConfig     `yaml:"tariff" mapstructure:"tariff"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Bacen      BacenConfig      `yaml:"bacen" mapstructure:"bacen"`
	Finance    FinanceConfig    `yaml:"finance" mapstructure:"finance"`
	Financing  FinancingConfig  `yaml:"financing" mapstructure:"financing"`
	Viability  ViabilityConfig  `yaml:"viability" mapstructure:"viability"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Temporal   TemporalConfig   `yaml:"temporal" mapstructure:"temporal"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// IrradianceConfig selects and configures the irradiance simulation provider.
type IrradianceConfig struct {
	// Provider is one of "process", "pvgis" or "none".
	Provider   string   `yaml:"provider" mapstructure:"provider"`
	BinPath    string   `yaml:"bin_path" mapstructure:"bin_path"`
	Args       []string `yaml:"args" mapstructure:"args"`
	PVGISURL   string   `yaml:"pvgis_url" mapstructure:"pvgis_url"`
	PVGISRadDB string   `yaml:"pvgis_raddatabase" mapstructure:"pvgis_raddatabase"`
}

// ProductionConfig configures the loss & production estimator.
type ProductionConfig struct {
	SimulationTimeoutSecs int     `yaml:"simulation_timeout_secs" mapstructure:"simulation_timeout_secs"`
	MinAmbientTempC       float64 `yaml:"min_ambient_temp_c" mapstructure:"min_ambient_temp_c"`
}

// TariffConfig selects the base-rate source used by the tariff resolver.
type TariffConfig struct {
	// Source is "static" (built-in table, optionally overridden by TablePath)
	// or "store" (the tariff_rates table of the configured store).
	Source    string `yaml:"source" mapstructure:"source"`
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
}

// StoreConfig configures persistence for tariff rates and financing proposals.
type StoreConfig struct {
	// Driver is "", "postgres" or "sqlite". Empty disables persistence.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BacenConfig configures the central-bank SGS rate feed.
type BacenConfig struct {
	BaseURL        string       `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int          `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64      `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	SelicSeries    int          `yaml:"selic_series" mapstructure:"selic_series"`
	CDISeries      int          `yaml:"cdi_series" mapstructure:"cdi_series"`
	IPCASeries     int          `yaml:"ipca_series" mapstructure:"ipca_series"`
	Defaults       RateDefaults `yaml:"defaults" mapstructure:"defaults"`
}

// RateDefaults are the static fallbacks used when a series fetch fails.
type RateDefaults struct {
	Selic float64 `yaml:"selic" mapstructure:"selic"`
	CDI   float64 `yaml:"cdi" mapstructure:"cdi"`
	IPCA  float64 `yaml:"ipca" mapstructure:"ipca"`
}

// FinanceConfig configures the savings projection.
type FinanceConfig struct {
	ProjectionYears     int     `yaml:"projection_years" mapstructure:"projection_years"`
	DegradationPct      float64 `yaml:"degradation_pct" mapstructure:"degradation_pct"`
	TariffEscalationPct float64 `yaml:"tariff_escalation_pct" mapstructure:"tariff_escalation_pct"`
	SurplusCreditFactor float64 `yaml:"surplus_credit_factor" mapstructure:"surplus_credit_factor"`
}

// FinancingConfig configures schedule generation and CET.
type FinancingConfig struct {
	IOFEnabled     bool    `yaml:"iof_enabled" mapstructure:"iof_enabled"`
	IOFFlatPct     float64 `yaml:"iof_flat_pct" mapstructure:"iof_flat_pct"`
	IOFDailyPct    float64 `yaml:"iof_daily_pct" mapstructure:"iof_daily_pct"`
	ProposalTTLHrs int     `yaml:"proposal_ttl_hours" mapstructure:"proposal_ttl_hours"`
}

// ViabilityConfig configures the orchestrator.
type ViabilityConfig struct {
	// CompliancePolicy is "annotate" (default) or "reject".
	CompliancePolicy string `yaml:"compliance_policy" mapstructure:"compliance_policy"`
}

// BreakerConfig configures the circuit breakers around external calls.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// TemporalConfig configures the proposal lifecycle worker.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 60)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("irradiance.provider", "process")
	v.SetDefault("irradiance.bin_path", "pvsim")
	v.SetDefault("irradiance.pvgis_url", "https://re.jrc.ec.europa.eu/api/v5_2")
	v.SetDefault("irradiance.pvgis_raddatabase", "PVGIS-SARAH3")
	v.SetDefault("production.simulation_timeout_secs", 30)
	v.SetDefault("production.min_ambient_temp_c", 0.0)
	v.SetDefault("tariff.source", "static")
	v.SetDefault("tariff.table_path", "")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("bacen.base_url", "https://api.bcb.gov.br/dados/serie")
	v.SetDefault("bacen.timeout_secs", 10)
	v.SetDefault("bacen.requests_per_sec", 5.0)
	v.SetDefault("bacen.selic_series", 432)
	v.SetDefault("bacen.cdi_series", 4389)
	v.SetDefault("bacen.ipca_series", 433)
	v.SetDefault("bacen.defaults.selic", 10.50)
	v.SetDefault("bacen.defaults.cdi", 10.40)
	v.SetDefault("bacen.defaults.ipca", 0.40)
	v.SetDefault("finance.projection_years", 25)
	v.SetDefault("finance.degradation_pct", 0.5)
	v.SetDefault("finance.tariff_escalation_pct", 4.0)
	v.SetDefault("finance.surplus_credit_factor", 1.0)
	v.SetDefault("financing.iof_enabled", true)
	v.SetDefault("financing.iof_flat_pct", 0.38)
	v.SetDefault("financing.iof_daily_pct", 0.0082)
	v.SetDefault("financing.proposal_ttl_hours", 72)
	v.SetDefault("viability.compliance_policy", "annotate")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "solar-proposals")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.Irradiance.Provider {
	case "process", "pvgis", "none":
	default:
		return eris.Errorf("config: unknown irradiance provider %q", c.Irradiance.Provider)
	}
	switch c.Store.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			return eris.Errorf("config: store driver %q requires store.database_url", c.Store.Driver)
		}
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.Tariff.Source {
	case "static":
	case "store":
		if c.Store.Driver == "" {
			return eris.New("config: tariff source \"store\" requires store.driver")
		}
	default:
		return eris.Errorf("config: unknown tariff source %q", c.Tariff.Source)
	}
	switch c.Viability.CompliancePolicy {
	case "annotate", "reject":
	default:
		return eris.Errorf("config: unknown compliance policy %q", c.Viability.CompliancePolicy)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

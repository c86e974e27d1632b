// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/aristath/sentinel-risk/internal/engine"
	"github.com/aristath/sentinel-risk/internal/modules/analysis"
	"github.com/aristath/sentinel-risk/internal/modules/scenarios"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

const envPrefix = "risk"

// Config holds application configuration
type Config struct {
	Log       LogConfig          `mapstructure:"log"`
	Server    ServerConfig       `mapstructure:"server"`
	Engine    EngineConfig       `mapstructure:"engine"`
	Liquidity LiquidityConfig    `mapstructure:"liquidity"`
	Scenarios map[string]float64 `mapstructure:"scenarios"` // Family -> default magnitude
}

// LogConfig controls the zerolog logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ServerConfig controls the HTTP surface
type ServerConfig struct {
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DevMode         bool          `mapstructure:"dev_mode"`
}

// EngineConfig controls the analysis engine
type EngineConfig struct {
	Policy             string  `mapstructure:"policy"`
	Workers            int     `mapstructure:"workers"` // 0 = logical CPU count
	Confidence         float64 `mapstructure:"confidence"`
	AnnualRiskFreeRate float64 `mapstructure:"annual_risk_free_rate"`
	PeriodsPerYear     int     `mapstructure:"periods_per_year"`
}

// LiquidityConfig controls the liquidity model
type LiquidityConfig struct {
	ParticipationRate float64 `mapstructure:"participation_rate"`
	HorizonDays       float64 `mapstructure:"horizon_days"`
}

// RiskFreeRate is the annual risk-free rate converted to the return periodicity.
func (c EngineConfig) RiskFreeRate() float64 {
	return formulas.PeriodicRate(c.AnnualRiskFreeRate, c.PeriodsPerYear)
}

// EngineOptions maps the configuration onto engine options.
func (c *Config) EngineOptions() engine.Options {
	magnitudes := make(map[string]float64, len(c.Scenarios))
	for k, v := range c.Scenarios {
		magnitudes[k] = v
	}
	return engine.Options{
		Magnitudes:   magnitudes,
		Policy:       engine.FailurePolicy(c.Engine.Policy),
		Confidence:   c.Engine.Confidence,
		RiskFreeRate: c.Engine.RiskFreeRate(),
		Workers:      c.Engine.Workers,
		Analysis: analysis.Config{
			ParticipationRate: c.Liquidity.ParticipationRate,
			HorizonDays:       c.Liquidity.HorizonDays,
		},
	}
}

// Load reads configuration from an optional YAML file and RISK_* environment
// variables, after loading a .env file if one exists. path may be empty.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("server.port", 8001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.dev_mode", false)

	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.confidence", engine.DefaultConfidence)
	v.SetDefault("engine.annual_risk_free_rate", 0.02)
	v.SetDefault("engine.periods_per_year", formulas.TradingDaysPerYear)
	v.SetDefault("engine.policy", string(engine.PolicyPartial))

	v.SetDefault("liquidity.participation_rate", 0.20)
	v.SetDefault("liquidity.horizon_days", 10.0)

	for family, magnitude := range scenarios.DefaultMagnitudes() {
		v.SetDefault("scenarios."+family, magnitude)
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port %d must lie in [1,65535]", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		err = multierr.Append(err, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Engine.Workers < 0 {
		err = multierr.Append(err, errors.New("engine.workers must not be negative"))
	}
	if !(c.Engine.Confidence > 0 && c.Engine.Confidence < 1) {
		err = multierr.Append(err, fmt.Errorf("engine.confidence %v must lie in (0,1)", c.Engine.Confidence))
	}
	if c.Engine.PeriodsPerYear <= 0 {
		err = multierr.Append(err, errors.New("engine.periods_per_year must be positive"))
	}
	if _, perr := engine.ParsePolicy(c.Engine.Policy); perr != nil {
		err = multierr.Append(err, fmt.Errorf("engine.policy: %w", perr))
	}
	if !(c.Liquidity.ParticipationRate > 0 && c.Liquidity.ParticipationRate <= 1) {
		err = multierr.Append(err, errors.New("liquidity.participation_rate must lie in (0,1]"))
	}
	if !(c.Liquidity.HorizonDays > 0) {
		err = multierr.Append(err, errors.New("liquidity.horizon_days must be positive"))
	}

	known := scenarios.DefaultMagnitudes()
	for family := range c.Scenarios {
		if _, ok := known[family]; !ok {
			err = multierr.Append(err, fmt.Errorf("scenarios.%s: unknown scenario family", family))
		}
	}

	return err
}

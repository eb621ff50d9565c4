package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	Providers struct {
		Yahoo     Provider `yaml:"yahoo"`
		FRED      Provider `yaml:"fred"`
		CoinGecko Provider `yaml:"coingecko"`
	} `yaml:"providers"`
	Acquisition struct {
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"1h"`
		CacheSize    int           `yaml:"cache_size" default:"512" validate:"min=1"`
		RetryBackoff time.Duration `yaml:"retry_backoff" default:"1s"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"15s" validate:"gt=0"`
		BreakerTrip  uint32        `yaml:"breaker_trip" default:"5"`
		BreakerOpen  time.Duration `yaml:"breaker_open" default:"1m"`
		Fallback     bool          `yaml:"fallback" default:"true"`
		Redis        struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379" validate:"required_if=Enabled true"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"moneypulse"`
			// series payloads are small; a handful of connections covers the fan-out
			PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
		} `yaml:"redis"`
	} `yaml:"acquisition"`
	Analysis struct {
		RiskFreeRate  float64  `yaml:"risk_free_rate" default:"0"`
		TopN          int      `yaml:"top_n" default:"5" validate:"min=1"`
		DefaultPeriod string   `yaml:"default_period" default:"5Y" validate:"oneof=1Y 3Y 5Y 10Y ALL"`
		Assets        []string `yaml:"assets"`
	} `yaml:"analysis"`
	Signal struct {
		HedgeAsset         string        `yaml:"hedge_asset" default:"BTC-USD" validate:"required"`
		DivergenceWeight   float64       `yaml:"divergence_weight" default:"1" validate:"gte=0"`
		MomentumWeight     float64       `yaml:"momentum_weight" default:"1" validate:"gte=0"`
		AccelerationWeight float64       `yaml:"acceleration_weight" default:"1" validate:"gte=0"`
		WatchThreshold     float64       `yaml:"watch_threshold" default:"0.5"`
		ElevatedThreshold  float64       `yaml:"elevated_threshold" default:"1.0"`
		HighThreshold      float64       `yaml:"high_threshold" default:"2.0"`
		ClipBound          float64       `yaml:"clip_bound" default:"3" validate:"gt=0"`
		Window             int           `yaml:"window" default:"12" validate:"min=2"`
		MomentumLookback   int           `yaml:"momentum_lookback" default:"20" validate:"min=1"`
		DivergenceScale    float64       `yaml:"divergence_scale" default:"0.02" validate:"gt=0"`
		MomentumScale      float64       `yaml:"momentum_scale" default:"0.10" validate:"gt=0"`
		AccelerationScale  float64       `yaml:"acceleration_scale" default:"0.02" validate:"gt=0"`
		MaxStaleness       time.Duration `yaml:"max_staleness" default:"2880h"`
		History            time.Duration `yaml:"history" default:"43800h"`
	} `yaml:"signal"`
	Kafka struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers" validate:"required_if=Enabled true"`
		AlertTopic  string   `yaml:"alert_topic" default:"moneypulse.alerts"`
		LogTopic    string   `yaml:"log_topic" default:"moneypulse.logs"`
		Compression string   `yaml:"compression" default:"gzip" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts int      `yaml:"max_attempts" default:"3"`
	} `yaml:"kafka"`
}

// Provider configures one upstream data source.
type Provider struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	MinInterval time.Duration `yaml:"min_interval" default:"500ms"`
	Timeout     time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	// CoinGecko's public tier is stricter than the others.
	c.Providers.CoinGecko.MinInterval = time.Second
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (when present) and the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FRED_API_KEY"); v != "" {
		c.Providers.FRED.APIKey = v
	}
	if v := getenv("COINGECKO_API_KEY"); v != "" {
		c.Providers.CoinGecko.APIKey = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Acquisition.Redis.Addr = v
		c.Acquisition.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitTrim(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = strings.ToLower(v)
	}
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
}

var validate = validator.New()

// Validate checks struct tags and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	s := c.Signal
	if !(s.WatchThreshold < s.ElevatedThreshold && s.ElevatedThreshold < s.HighThreshold) {
		return fmt.Errorf("signal thresholds must increase: watch %.2f, elevated %.2f, high %.2f",
			s.WatchThreshold, s.ElevatedThreshold, s.HighThreshold)
	}
	if s.DivergenceWeight+s.MomentumWeight+s.AccelerationWeight <= 0 {
		return errors.New("signal weights must not all be zero")
	}
	return nil
}

func splitTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

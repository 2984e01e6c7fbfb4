package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
		TrustedProxies  []string      `yaml:"trusted_proxies"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"10"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"console"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"costcast.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Estimate struct {
		DefaultHorizon     int           `yaml:"default_horizon" default:"24"`
		MaxHorizon         int           `yaml:"max_horizon" default:"240"`
		Timeout            time.Duration `yaml:"timeout" default:"20s"`
		AnchorDate         string        `yaml:"anchor_date" default:"2023-01-01"`
		StrictSpotCoverage bool          `yaml:"strict_spot_coverage"`
	} `yaml:"estimate"`
	Oracle struct {
		Backend    string        `yaml:"backend" default:"local"`
		ModelDir   string        `yaml:"model_dir" default:"models"`
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout" default:"15s"`
		Retries    int           `yaml:"retries" default:"2"`
		Cache      struct {
			Backend string        `yaml:"backend" default:"memory"`
			TTL     time.Duration `yaml:"ttl" default:"1h"`
			MaxSize int           `yaml:"max_size" default:"256"`
		} `yaml:"cache"`
	} `yaml:"oracle"`
	History struct {
		Backend string `yaml:"backend" default:"csv"`
		DataDir string `yaml:"data_dir" default:"data"`
		Table   string `yaml:"table" default:"material_history"`
	} `yaml:"history"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"costcast"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async" default:"true"`
		EventsTopic  string        `yaml:"events_topic" default:"costcast.estimates"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"costcast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is loaded first when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ORACLE_BACKEND"); v != "" {
		c.Oracle.Backend = v
	}
	if v := os.Getenv("ORACLE_SERVICE_URL"); v != "" {
		c.Oracle.ServiceURL = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// AnchorTime parses Estimate.AnchorDate.
func (c *Config) AnchorTime() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.Estimate.AnchorDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("estimate.anchor_date: %w", err)
	}
	return t, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Oracle.Backend {
	case "local":
		if c.Oracle.ModelDir == "" {
			return fmt.Errorf("oracle.model_dir is required for the local backend")
		}
	case "http":
		if c.Oracle.ServiceURL == "" {
			return fmt.Errorf("oracle.service_url is required for the http backend")
		}
	default:
		return fmt.Errorf("oracle.backend must be 'local' or 'http', got '%s'", c.Oracle.Backend)
	}
	switch c.Oracle.Cache.Backend {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("oracle.cache.backend must be one of none, memory, redis, layered, got '%s'", c.Oracle.Cache.Backend)
	}
	switch c.History.Backend {
	case "csv":
		if c.History.DataDir == "" {
			return fmt.Errorf("history.data_dir is required for the csv backend")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse history backend")
		}
	default:
		return fmt.Errorf("history.backend must be 'csv' or 'clickhouse', got '%s'", c.History.Backend)
	}
	if c.Estimate.DefaultHorizon < 1 {
		return fmt.Errorf("estimate.default_horizon must be >= 1")
	}
	if c.Estimate.MaxHorizon < c.Estimate.DefaultHorizon {
		return fmt.Errorf("estimate.max_horizon must be >= estimate.default_horizon")
	}
	if _, err := c.AnchorTime(); err != nil {
		return err
	}
	for _, cidr := range c.Server.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("server.trusted_proxies: %w", err)
		}
	}
	if c.Logging.Collector.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when logging.collector is enabled")
	}
	return nil
}

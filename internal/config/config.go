package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"tariff-backtest/internal/data"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	CSV        CSVConfig        `yaml:"csv"`
	Simulation SimulationConfig `yaml:"simulation"`
	Prices     PricesConfig     `yaml:"prices"`

	// Directory of tariff preset files (e.g. examples/tariffs/*.yaml).
	TariffsDir string `yaml:"tariffs_dir"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	Env         string   `yaml:"env"`
	StaticDir   string   `yaml:"static_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CSVConfig mirrors data.CSVLayout in a YAML-friendly form.
type CSVConfig struct {
	Delimiter       string  `yaml:"delimiter"`
	TimestampColumn int     `yaml:"timestamp_column"`
	PriceColumn     int     `yaml:"price_column"`
	TimestampHeader string  `yaml:"timestamp_header"`
	PriceHeader     string  `yaml:"price_header"`
	TimestampLayout string  `yaml:"timestamp_layout"`
	PriceScale      float64 `yaml:"price_scale"`
	Timezone        string  `yaml:"timezone"`
	IntervalMinutes int     `yaml:"interval_minutes"`
}

type SimulationConfig struct {
	DefaultBlockDays int `yaml:"default_block_days"`
	MaxIterations    int `yaml:"max_iterations"`
	MaxBlockDays     int `yaml:"max_block_days"`
	// Workers bounds trial parallelism; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

type PricesConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	EnableCache  bool          `yaml:"enable_cache"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheCleanup time.Duration `yaml:"cache_cleanup"`
}

const DefaultPricesBaseURL = "https://api.awattar.de/v1/marketdata"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			Env:       "development",
			StaticDir: "./web/dist",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		CSV:     CSVConfig{TimestampColumn: 0, PriceColumn: 1},
		Simulation: SimulationConfig{
			DefaultBlockDays: 7,
			MaxIterations:    20000,
			MaxBlockDays:     366,
		},
		Prices: PricesConfig{
			BaseURL:      DefaultPricesBaseURL,
			Timeout:      15 * time.Second,
			EnableCache:  true,
			CacheTTL:     time.Hour,
			CacheCleanup: 5 * time.Minute,
		},
		TariffsDir: "./examples/tariffs",
	}
}

// Load reads path (optional; empty uses defaults only), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked overlays the file onto the defaults, but does not validate.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("TARIFF_DIR"); v != "" {
		c.TariffsDir = v
	}
	if v := getenv("ENABLE_PRICE_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Prices.EnableCache = b
		}
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Simulation.DefaultBlockDays < 1 {
		return errors.New("simulation.default_block_days must be >= 1")
	}
	if c.Simulation.MaxBlockDays < c.Simulation.DefaultBlockDays {
		return errors.New("simulation.max_block_days must be >= default_block_days")
	}
	if c.Simulation.MaxIterations < 10 {
		return errors.New("simulation.max_iterations must be >= 10")
	}
	if c.Simulation.Workers < 0 {
		return errors.New("simulation.workers must be >= 0")
	}
	if c.Prices.EnableCache && c.Prices.CacheTTL <= 0 {
		return errors.New("prices.cache_ttl must be > 0 when the cache is enabled")
	}
	if _, err := c.CSV.Layout(); err != nil {
		return fmt.Errorf("csv config invalid: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// Layout converts the CSV section to a parser layout.
func (c CSVConfig) Layout() (data.CSVLayout, error) {
	l := data.CSVLayout{
		TimestampColumn: c.TimestampColumn,
		PriceColumn:     c.PriceColumn,
		TimestampHeader: c.TimestampHeader,
		PriceHeader:     c.PriceHeader,
		TimestampLayout: c.TimestampLayout,
		PriceScale:      c.PriceScale,
		IntervalMinutes: c.IntervalMinutes,
	}
	if c.TimestampColumn < 0 || c.PriceColumn < 0 {
		return l, errors.New("column indices must be >= 0")
	}
	if c.PriceScale < 0 {
		return l, errors.New("price_scale must be >= 0")
	}
	switch c.IntervalMinutes {
	case 0, 15, 60:
	default:
		return l, fmt.Errorf("interval_minutes must be 0, 15 or 60, got %d", c.IntervalMinutes)
	}
	switch c.Delimiter {
	case "":
	case `\t`, "tab":
		l.Delimiter = '\t'
	default:
		r := []rune(c.Delimiter)
		if len(r) != 1 {
			return l, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
		}
		l.Delimiter = r[0]
	}
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return l, fmt.Errorf("timezone: %w", err)
		}
		l.Location = loc
	}
	return l, nil
}

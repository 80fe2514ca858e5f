// Package config loads runtime settings from defaults, an optional YAML file,
// an optional .env file and ROULETTE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

const (
	appConfigDirName = "roulette-sim"
	dbFileName       = "roulette.db"
	envPrefix        = "ROULETTE_"
)

// Config is the full runtime configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Simulation SimulationConfig `yaml:"simulation"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DBConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type RedisConfig struct {
	URL          string `yaml:"url"`
	StreamPrefix string `yaml:"stream_prefix"`
}

type SimulationConfig struct {
	Variant  string `yaml:"variant"`
	Budget   string `yaml:"budget"`
	MaxSpins int    `yaml:"max_spins"`
	Sessions int    `yaml:"sessions"`
	Workers  int    `yaml:"workers"`
	Seed     int64  `yaml:"seed"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 60 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		DB: DBConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(appDataDir(), dbFileName),
		},
		Redis: RedisConfig{
			StreamPrefix: "roulette.batches",
		},
		Simulation: SimulationConfig{
			Variant:  "european",
			Budget:   "1000",
			MaxSpins: 1000,
			Sessions: 1000,
			Workers:  0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. yamlPath and envPath are optional; a
// missing .env file is not an error, a missing YAML file named explicitly is.
func Load(yamlPath, envPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		raw, err := os.ReadFile(yamlPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Server.Addr = envString("ADDR", c.Server.Addr)
	c.Server.AllowedOrigins = envList("ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	c.DB.Driver = envString("DB_DRIVER", c.DB.Driver)
	c.DB.SQLitePath = envString("SQLITE_PATH", c.DB.SQLitePath)
	c.DB.PostgresDSN = envString("POSTGRES_DSN", c.DB.PostgresDSN)
	// REDIS_URL is honoured without the prefix as well.
	c.Redis.URL = envString("REDIS_URL", os.Getenv("REDIS_URL"), c.Redis.URL)
	c.Redis.StreamPrefix = envString("STREAM_PREFIX", c.Redis.StreamPrefix)
	c.Simulation.Variant = envString("VARIANT", c.Simulation.Variant)
	c.Simulation.Budget = envString("BUDGET", c.Simulation.Budget)
	c.Log.Level = envString("LOG_LEVEL", c.Log.Level)

	var err error
	if c.Server.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout); err != nil {
		return err
	}
	if c.Simulation.MaxSpins, err = envInt("MAX_SPINS", c.Simulation.MaxSpins); err != nil {
		return err
	}
	if c.Simulation.Sessions, err = envInt("SESSIONS", c.Simulation.Sessions); err != nil {
		return err
	}
	if c.Simulation.Workers, err = envInt("WORKERS", c.Simulation.Workers); err != nil {
		return err
	}
	seed, err := envInt("SEED", int(c.Simulation.Seed))
	if err != nil {
		return err
	}
	c.Simulation.Seed = int64(seed)
	if s := os.Getenv(envPrefix + "DEVELOPMENT"); s != "" {
		dev, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid %sDEVELOPMENT: %w", envPrefix, err)
		}
		c.Log.Development = dev
	}
	return nil
}

// Validate checks the configuration for values the program cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr must not be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return errors.New("sqlite path must not be empty")
		}
	case "postgres":
		if c.DB.PostgresDSN == "" {
			return errors.New("postgres dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	if _, err := roulette.ParseVariant(c.Simulation.Variant); err != nil {
		return err
	}
	if _, err := c.Simulation.BudgetDecimal(); err != nil {
		return err
	}
	if c.Simulation.MaxSpins < 0 {
		return errors.New("max spins must not be negative")
	}
	if c.Simulation.Sessions < 1 {
		return errors.New("sessions must be at least 1")
	}
	if c.Simulation.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}

// BudgetDecimal parses the default initial budget.
func (s SimulationConfig) BudgetDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s.Budget)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid budget %q: %w", s.Budget, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("budget must be positive, got %s", d)
	}
	return d, nil
}

// appDataDir returns an OS-appropriate writable directory.
func appDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}

// envString returns the first non-empty of the prefixed variable and the
// fallbacks.
func envString(k string, defs ...string) string {
	if s := os.Getenv(envPrefix + k); s != "" {
		return s
	}
	for _, d := range defs {
		if d != "" {
			return d
		}
	}
	return ""
}

func envList(k string, def []string) []string {
	s := os.Getenv(envPrefix + k)
	if s == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(k string, def int) (int, error) {
	s := os.Getenv(envPrefix + k)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s%s: %w", envPrefix, k, err)
	}
	return v, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(envPrefix + k)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s%s: %w", envPrefix, k, err)
	}
	return v, nil
}

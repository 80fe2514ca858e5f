package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if !strings.HasSuffix(cfg.DB.SQLitePath, dbFileName) {
		t.Errorf("sqlite path = %q", cfg.DB.SQLitePath)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writeFile(t, dir, "config.yaml", `
server:
  addr: ":9000"
  request_timeout: 30s
simulation:
  variant: american
  budget: "500"
  sessions: 200
log:
  level: debug
`)
	envPath := writeFile(t, dir, ".env", "ROULETTE_SESSIONS=300\nROULETTE_WORKERS=4\n")
	t.Setenv("ROULETTE_ADDR", ":9100")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Loaded from the .env file, so clean up what godotenv set.
	t.Cleanup(func() {
		os.Unsetenv("ROULETTE_SESSIONS")
		os.Unsetenv("ROULETTE_WORKERS")
	})

	if cfg.Server.Addr != ":9100" {
		t.Errorf("addr = %q, env should win over yaml", cfg.Server.Addr)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("timeout = %s", cfg.Server.RequestTimeout)
	}
	if cfg.Simulation.Variant != "american" || cfg.Simulation.Budget != "500" {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Simulation.Sessions != 300 || cfg.Simulation.Workers != 4 {
		t.Errorf("sessions/workers = %d/%d, .env should win over yaml", cfg.Simulation.Sessions, cfg.Simulation.Workers)
	}
	if cfg.Simulation.MaxSpins != 1000 {
		t.Errorf("max spins = %d, default should survive", cfg.Simulation.MaxSpins)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("redis url = %q", cfg.Redis.URL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Error("missing yaml file should fail")
	}
}

func TestLoadBadEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ROULETTE_MAX_SPINS", "many"},
		{"ROULETTE_REQUEST_TIMEOUT", "soon"},
		{"ROULETTE_DEVELOPMENT", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load("", ""); err == nil {
				t.Errorf("%s=%s: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DB.Driver = "postgres" }},
		{"bad variant", func(c *Config) { c.Simulation.Variant = "french" }},
		{"bad budget", func(c *Config) { c.Simulation.Budget = "lots" }},
		{"zero budget", func(c *Config) { c.Simulation.Budget = "0" }},
		{"negative spins", func(c *Config) { c.Simulation.MaxSpins = -1 }},
		{"no sessions", func(c *Config) { c.Simulation.Sessions = 0 }},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("ROULETTE_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	got := envList("ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("envList = %v", got)
	}
}

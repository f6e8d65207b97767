package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir into an empty dir so a developer's .env does not leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "REDIS_ADDR", "LIVE_TICK_INTERVAL", "PLATFORM_CAP", "WIZARD_TTL"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AppPort != "8080" || c.DBDriver != DriverSQLite || c.RedisAddr != "" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.LiveTickInterval != 10*time.Second || c.LiveTickProbability != 0.3 || c.LiveTickMaxIncrement != 20 {
		t.Fatalf("tick defaults: %v %v %v", c.LiveTickInterval, c.LiveTickProbability, c.LiveTickMaxIncrement)
	}
	if c.PlatformCap != 500 || c.LoadLatency != 1500*time.Millisecond || c.SettlementDelay != 2*time.Second || c.WizardTTL != 30*time.Minute {
		t.Fatalf("domain defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate defaults: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LIVE_TICK_INTERVAL", "250ms")
	t.Setenv("SETTLEMENT_DELAY", "0s")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBDriver != DriverMySQL || c.RedisDB != 3 || c.LiveTickInterval != 250*time.Millisecond || c.SettlementDelay != 0 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if !strings.Contains(c.MySQLDSN(), "@tcp(mysql:3306)/seedflow?") {
		t.Fatalf("dsn: %s", c.MySQLDSN())
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PLATFORM_CAP", "")
	os.Unsetenv("PLATFORM_CAP")
	if err := os.WriteFile(filepath.Join(".", ".env"), []byte("PLATFORM_CAP=250\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PlatformCap != 250 {
		t.Fatalf("PlatformCap = %v, want 250", c.PlatformCap)
	}
}

func TestLoad_RejectsMalformedNumbers(t *testing.T) {
	isolate(t)
	for k, v := range map[string]string{
		"REDIS_DB":              "two",
		"LIVE_TICK_INTERVAL":    "often",
		"LIVE_TICK_PROBABILITY": "high",
		"WIZARD_TTL":            "forever",
	} {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", k, v)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppPort: "8080", DBDriver: DriverSQLite, SQLitePath: "x.db",
			LiveTickInterval: time.Second, LiveTickProbability: 0.3, PlatformCap: 500, IdempTTLSecs: 300,
			WizardTTL: time.Minute,
		}
	}
	cases := map[string]func(*Config){
		"no port":         func(c *Config) { c.AppPort = "" },
		"bad driver":      func(c *Config) { c.DBDriver = "postgres" },
		"mysql no host":   func(c *Config) { c.DBDriver = DriverMySQL },
		"zero interval":   func(c *Config) { c.LiveTickInterval = 0 },
		"probability >1":  func(c *Config) { c.LiveTickProbability = 1.5 },
		"zero cap":        func(c *Config) { c.PlatformCap = 0 },
		"zero wizard ttl": func(c *Config) { c.WizardTTL = 0 },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mut(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
}

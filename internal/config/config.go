package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	AppPort  string
	LogLevel string

	DBDriver   string
	SQLitePath string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	// Empty disables Redis: idempotency is off and the oracle inbox is in memory.
	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	LiveTickInterval     time.Duration
	LiveTickProbability  float64
	LiveTickMaxIncrement float64

	PlatformCap     float64
	LoadLatency     time.Duration
	SettlementDelay time.Duration
	IntakeLatency   time.Duration
	ClaimDelay      time.Duration
	// Funding wizards older than this are dropped, finished or not.
	WizardTTL time.Duration
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:   getenv("DB_DRIVER", DriverSQLite),
		SQLitePath: getenv("SQLITE_PATH", "seedflow.db"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "seedflow"),
		MySQLUser: getenv("MYSQL_USER", "seedflow"),
		MySQLPass: getenv("MYSQL_PASS", "seedflow"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
	}

	var err error
	if c.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if c.IdempTTLSecs, err = intEnv("IDEMPOTENCY_TTL_SECONDS", 300); err != nil {
		return nil, err
	}
	if c.LiveTickInterval, err = durationEnv("LIVE_TICK_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if c.LiveTickProbability, err = floatEnv("LIVE_TICK_PROBABILITY", 0.3); err != nil {
		return nil, err
	}
	if c.LiveTickMaxIncrement, err = floatEnv("LIVE_TICK_MAX_INCREMENT", 20); err != nil {
		return nil, err
	}
	if c.PlatformCap, err = floatEnv("PLATFORM_CAP", 500); err != nil {
		return nil, err
	}
	if c.LoadLatency, err = durationEnv("LOAD_LATENCY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if c.SettlementDelay, err = durationEnv("SETTLEMENT_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if c.IntakeLatency, err = durationEnv("INTAKE_LATENCY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if c.ClaimDelay, err = durationEnv("CLAIM_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if c.WizardTTL, err = durationEnv("WIZARD_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	return c, nil
}

func intEnv(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

func floatEnv(k string, d float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return f, nil
}

func durationEnv(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return dur, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverMySQL)
	}
	if c.LiveTickInterval <= 0 {
		return errors.New("LIVE_TICK_INTERVAL must be positive")
	}
	if c.LiveTickProbability < 0 || c.LiveTickProbability > 1 {
		return fmt.Errorf("LIVE_TICK_PROBABILITY %v outside [0, 1]", c.LiveTickProbability)
	}
	if c.LiveTickMaxIncrement < 0 {
		return errors.New("LIVE_TICK_MAX_INCREMENT must not be negative")
	}
	if c.PlatformCap <= 0 {
		return errors.New("PLATFORM_CAP must be positive")
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.WizardTTL <= 0 {
		return errors.New("WIZARD_TTL must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// UNIXSock is the IPC binding path. Overrides Addr and Port
	UNIXSock string
	// Data is the data directory
	Data string
	// DSN points to where iqra stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your iqra instance.
	InstanceURL string

	// Review configuration
	MaxDailyReviews int // IQRA_MAX_DAILY_REVIEWS (default: 20)

	// Rate limiting, per client IP
	RateLimitPerSecond float64 // IQRA_RATE_LIMIT_RPS (default: 10)
	RateLimitBurst     int     // IQRA_RATE_LIMIT_BURST (default: 20)

	// Cache configuration
	CacheRedisAddr     string // IQRA_CACHE_REDIS_ADDR (empty disables the Redis L2 cache)
	CacheRedisPassword string // IQRA_CACHE_REDIS_PASSWORD
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRedisEnabled returns true if a Redis address is configured for the L2 cache.
func (p *Profile) IsRedisEnabled() bool {
	return p.CacheRedisAddr != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid integer env value", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("ignoring invalid float env value", "key", key, "value", value)
		return defaultValue
	}
	return f
}

// FromEnv loads the domain configuration from IQRA_* environment variables.
// Server binding options (mode, addr, port, data, driver, dsn) come from flags; see cmd/iqra.
func (p *Profile) FromEnv() {
	p.MaxDailyReviews = getIntEnvOrDefault("IQRA_MAX_DAILY_REVIEWS", 20)
	p.RateLimitPerSecond = getFloatEnvOrDefault("IQRA_RATE_LIMIT_RPS", 10)
	p.RateLimitBurst = getIntEnvOrDefault("IQRA_RATE_LIMIT_BURST", 20)
	p.CacheRedisAddr = os.Getenv("IQRA_CACHE_REDIS_ADDR")
	p.CacheRedisPassword = os.Getenv("IQRA_CACHE_REDIS_PASSWORD")
	p.InstanceURL = getEnvOrDefault("IQRA_INSTANCE_URL", p.InstanceURL)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only sqlite and postgres are supported", p.Driver)
	}
	if p.MaxDailyReviews <= 0 {
		p.MaxDailyReviews = 20
	}
	if p.RateLimitPerSecond <= 0 {
		p.RateLimitPerSecond = 10
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = 20
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "iqra")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/iqra"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("iqra_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}

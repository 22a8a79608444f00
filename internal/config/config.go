package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrDatabaseURLRequired indicates neither DATABASE_URL nor PG_DSN is set.
	ErrDatabaseURLRequired = errors.New("config: DATABASE_URL or PG_DSN is required")
	// ErrJWTSecretRequired indicates AUTH_JWT_SECRET is not set.
	ErrJWTSecretRequired = errors.New("config: AUTH_JWT_SECRET is required")
)

// BuildingOverride holds per-building settings. Zero values inherit defaults.
type BuildingOverride struct {
	Tolerance float64 `yaml:"tolerance"`
	Currency  string  `yaml:"currency"`
}

// Config is the service configuration.
type Config struct {
	AppName          string                      `yaml:"app_name"`
	DatabaseURL      string                      `yaml:"database_url"`
	HTTPAddr         string                      `yaml:"http_addr"`
	TenantID         string                      `yaml:"tenant_id"`
	Currency         string                      `yaml:"currency"`
	Tolerance        float64                     `yaml:"tolerance"`
	JWTSecret        string                      `yaml:"jwt_secret"`
	LogLevel         string                      `yaml:"log_level"`
	AllowedOrigins   []string                    `yaml:"allowed_origins"`
	DispatchInterval time.Duration               `yaml:"dispatch_interval"`
	Buildings        map[string]BuildingOverride `yaml:"buildings"`
}

// Defaults returns the configuration used before yaml and env are applied.
func Defaults() Config {
	return Config{
		AppName:          "condo-billing",
		HTTPAddr:         ":8080",
		TenantID:         "tenant-demo",
		Currency:         "TWD",
		Tolerance:        1,
		LogLevel:         "info",
		DispatchInterval: 5 * time.Second,
	}
}

// Load reads CHARGES_CONFIG when set, then applies env overrides.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CHARGES_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks required settings and clamps invalid values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) {
		c.Tolerance = 0
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = Defaults().DispatchInterval
	}
	return nil
}

// ForBuilding returns the settings for a building, defaults merged with its override.
func (c Config) ForBuilding(buildingID string) BuildingOverride {
	base := BuildingOverride{Tolerance: c.Tolerance, Currency: c.Currency}
	if c.Buildings != nil {
		if override, ok := c.Buildings[buildingID]; ok {
			return mergeOverride(base, override)
		}
	}
	return base
}

func mergeOverride(base, override BuildingOverride) BuildingOverride {
	if override.Tolerance > 0 {
		base.Tolerance = override.Tolerance
	}
	if override.Currency != "" {
		base.Currency = override.Currency
	}
	return base
}

func applyEnv(cfg *Config) {
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.TenantID = getenvDefault("TENANT_ID", cfg.TenantID)
	cfg.Currency = getenvDefault("CURRENCY", cfg.Currency)
	cfg.Tolerance = getenvFloatDefault("RECONCILE_TOLERANCE", cfg.Tolerance)
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.JWTSecret))
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.DispatchInterval = getenvDuration("OUTBOX_DISPATCH_INTERVAL", cfg.DispatchInterval)
	if origins := splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

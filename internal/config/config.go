package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Admin    struct {
		// Shared secret for the admin endpoints. Compared in constant time,
		// never logged.
		PortalPassword string
	}
	Pricing struct {
		// Unit sale price in euro, used by the admin financials.
		UnitPriceEUR float64
	}
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getenvDefault("APP_PORT", "8080")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	if cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("config: DB_HOST is required")
	}
	cfg.Postgres.Port = getenvDefault("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	if cfg.Postgres.User == "" {
		return nil, fmt.Errorf("config: DB_USER is required")
	}
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	if cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("config: DB_NAME is required")
	}
	cfg.Postgres.SSLMode = getenvDefault("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getenvDefault("MIGRATIONS_PATH", "migrations")

	cfg.Admin.PortalPassword = os.Getenv("ADMIN_PORTAL_PASSWORD")

	cfg.Pricing.UnitPriceEUR = 35.0
	if raw := os.Getenv("UNIT_PRICE_EUR"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("config: invalid UNIT_PRICE_EUR %q", raw)
		}
		cfg.Pricing.UnitPriceEUR = price
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

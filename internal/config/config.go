package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Session  struct {
		IdleTimeout time.Duration
	}
	AMQP struct {
		// Empty URL disables event publishing.
		URL   string
		Queue string
	}
}

// Load reads configuration from the environment, optionally seeding it
// from a .env file at path first.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")

	cfg.Postgres.Host = getEnv("DB_HOST", "localhost")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	if cfg.Postgres.User == "" {
		return nil, fmt.Errorf("config: DB_USER is required")
	}
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	if cfg.Postgres.Password == "" {
		return nil, fmt.Errorf("config: DB_PASSWORD is required")
	}
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	if cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("config: DB_NAME is required")
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConns = int32(maxConns)

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MinConns = int32(minConns)

	lifetimeMin, err := getEnvInt("DB_MAX_CONN_LIFETIME_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConnLifetime = time.Duration(lifetimeMin) * time.Minute

	idleMin, err := getEnvInt("SESSION_IDLE_TIMEOUT_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg.Session.IdleTimeout = time.Duration(idleMin) * time.Minute

	cfg.AMQP.URL = os.Getenv("AMQP_URL")
	cfg.AMQP.Queue = getEnv("AMQP_ORDER_QUEUE", "order.created")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return n, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

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

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

type PricingConfig struct {
	CODFee          float64
	OnlineDiscount  float64
	FreeShippingMin float64
}

type GatewayConfig struct {
	BaseURL   string
	ServerKey string
	Timeout   time.Duration
}

type ShippingConfig struct {
	BaseURL    string
	OriginCity string
	Timeout    time.Duration
}

type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

type IdentityConfig struct {
	BaseURL string
	Timeout time.Duration
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Pricing  PricingConfig
	Gateway  GatewayConfig
	Shipping ShippingConfig
	Catalog  CatalogConfig
	Identity IdentityConfig
}

// NewConfig loads configuration from the environment. A .env file is read
// first when present so local runs do not need exported variables.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.ShutdownTimeout = getDuration("APP_SHUTDOWN_TIMEOUT", 5*time.Second)

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")
	cfg.Postgres.MaxConns = int32(getInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getInt("DB_MIN_CONNS", 2))
	cfg.Postgres.MaxConnLifetime = getDuration("DB_MAX_CONN_LIFETIME", time.Hour)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getInt("REDIS_DB", 0)
	cfg.Redis.CartTTL = getDuration("CART_TTL", 30*24*time.Hour)

	cfg.Pricing.CODFee = getFloat("PRICING_COD_FEE", 2500)
	cfg.Pricing.OnlineDiscount = getFloat("PRICING_ONLINE_DISCOUNT", 3000)
	cfg.Pricing.FreeShippingMin = getFloat("PRICING_FREE_SHIPPING_MIN", 0)

	if cfg.Gateway.BaseURL, err = requireEnv("GATEWAY_BASE_URL"); err != nil {
		return nil, err
	}
	if cfg.Gateway.ServerKey, err = requireEnv("GATEWAY_SERVER_KEY"); err != nil {
		return nil, err
	}
	cfg.Gateway.Timeout = getDuration("GATEWAY_TIMEOUT", 10*time.Second)

	if cfg.Shipping.BaseURL, err = requireEnv("SHIPPING_BASE_URL"); err != nil {
		return nil, err
	}
	cfg.Shipping.OriginCity = getEnv("SHIPPING_ORIGIN_CITY", "Jakarta")
	cfg.Shipping.Timeout = getDuration("SHIPPING_TIMEOUT", 5*time.Second)

	if cfg.Catalog.BaseURL, err = requireEnv("CATALOG_BASE_URL"); err != nil {
		return nil, err
	}
	cfg.Catalog.Timeout = getDuration("CATALOG_TIMEOUT", 5*time.Second)

	if cfg.Identity.BaseURL, err = requireEnv("IDENTITY_BASE_URL"); err != nil {
		return nil, err
	}
	cfg.Identity.Timeout = getDuration("IDENTITY_TIMEOUT", 5*time.Second)

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is required", key)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Service  string
	Port     string
	LogLevel string

	Server  ServerConfig
	Catalog CatalogConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Admin   AdminConfig
	Metrics MetricsConfig
	Cart    CartConfig
	Shop    ShopConfig
}

type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type CatalogConfig struct {
	// File is an optional JSON array of products used to seed the store.
	File        string
	DatabaseURL string
	CacheTTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      []string
	ProductTopic string
}

type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration

	// SecretGenerated is set when JWT_SECRET was empty and a random
	// per-process secret was used. Tokens do not survive a restart.
	SecretGenerated bool
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

type CartConfig struct {
	SecureCookie bool
}

type ShopConfig struct {
	Name          string
	CheckoutPhone string
}

var ErrWeakSecret = errors.New("JWT_SECRET must be at least 32 chars")

// Load reads an optional .env file and then the process environment.
// Environment variables already set win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Service:  getEnv("SERVICE_NAME", "storefront"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Catalog: CatalogConfig{
			File:        getEnv("CATALOG_FILE", ""),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			CacheTTL:    getEnvAsDuration("CATALOG_CACHE_TTL", time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvAsSlice("KAFKA_BROKERS", nil),
			ProductTopic: getEnv("KAFKA_PRODUCT_TOPIC", "catalog.products"),
		},
		Admin: AdminConfig{
			Username:  getEnv("ADMIN_USERNAME", "admin"),
			Password:  getEnv("ADMIN_PASSWORD", "admin123"),
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Token:   getEnv("METRICS_TOKEN", ""),
		},
		Cart: CartConfig{
			SecureCookie: getEnvAsBool("COOKIE_SECURE", false),
		},
		Shop: ShopConfig{
			Name:          getEnv("SHOP_NAME", "Build Computers"),
			CheckoutPhone: getEnv("CHECKOUT_PHONE", "+96407517039790"),
		},
	}

	if cfg.Admin.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.Admin.JWTSecret = secret
		cfg.Admin.SecretGenerated = true
	}
	if len(cfg.Admin.JWTSecret) < 32 {
		return Config{}, ErrWeakSecret
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvAsBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvAsSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

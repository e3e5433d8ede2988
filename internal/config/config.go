package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oftalmo/records/internal/apperr"
	"github.com/oftalmo/records/internal/security"
)

// PlaceholderSecret is the literal shipped in sample env files. It is never accepted.
const PlaceholderSecret = "default-secret-key"

const minProdSecretLen = 32

type Config struct {
	Env        string
	Port       int
	DBURL      string
	DBMaxConns int

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	AdminUsername string
	AdminPassword string
	AdminName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimit  int
	LoginRateWindow time.Duration

	OTLPEndpoint  string
	CORSOrigins   []string
	MaxBodyBytes  int64
	RunMigrations bool
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	// a missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	return Config{
		Env:        getEnv("APP_ENV", "dev"),
		Port:       getEnvInt("PORT", 3001),
		DBURL:      buildDBURL(),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 5),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		BcryptCost:   getEnvInt("BCRYPT_COST", security.DefaultCost),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),

		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
	}
}

// Validate reports configuration faults. The server must not start when it fails.
func (c Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return apperr.Configuration("JWT_SECRET is required")
	case c.JWTSecret == PlaceholderSecret:
		return apperr.Configuration("JWT_SECRET must not be the placeholder value")
	case c.IsProd() && len(c.JWTSecret) < minProdSecretLen:
		return apperr.Configuration("JWT_SECRET must be at least 32 bytes in prod")
	case c.JWTExpiresIn <= 0:
		return apperr.Configuration("JWT_EXPIRES_IN must be positive")
	case c.BcryptCost < security.MinCost || c.BcryptCost > security.MaxCost:
		return apperr.Configuration("BCRYPT_COST must be between 10 and 12")
	case c.Port <= 0 || c.Port > 65535:
		return apperr.Configuration("PORT is out of range")
	case c.DBMaxConns <= 0:
		return apperr.Configuration("DB_MAX_CONNS must be positive")
	case c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0:
		return apperr.Configuration("login rate limit and window must be positive")
	case c.MaxBodyBytes <= 0:
		return apperr.Configuration("MAX_BODY_BYTES must be positive")
	}
	return nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "oftalmo")
	pass := getEnv("DB_PASSWORD", "oftalmo")
	name := getEnv("DB_NAME", "oftalmo")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid int env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90m") and bare seconds ("3600").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	slog.Warn("invalid duration env, using default", "key", key, "value", v)
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

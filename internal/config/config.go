package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const devSecret = "dev-secret-change-in-production"

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

var ErrDefaultSecret = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port        string
	Env         string
	LogLevel    slog.Level
	StoreDriver string
	DatabaseDSN string
	JWTSecret   string
	JWTExpiry   time.Duration

	ResetTokenTTL time.Duration
	FrontendURL   string
	CORSOrigin    string

	EmailHost string
	EmailPort int
	EmailUser string
	EmailPass string

	RedisAddr     string
	RedisPassword string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "5000")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("store_driver", DriverMySQL)
	v.SetDefault("database_dsn", "root:password@tcp(127.0.0.1:3306)/invmanager")
	v.SetDefault("jwt_secret", devSecret)
	v.SetDefault("jwt_expiry", "24h")
	v.SetDefault("reset_token_ttl", "30m")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("email_port", 587)
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)

	cfg := Config{
		Port:           v.GetString("port"),
		Env:            v.GetString("env"),
		StoreDriver:    strings.ToLower(v.GetString("store_driver")),
		JWTSecret:      v.GetString("jwt_secret"),
		JWTExpiry:      v.GetDuration("jwt_expiry"),
		ResetTokenTTL:  v.GetDuration("reset_token_ttl"),
		FrontendURL:    strings.TrimRight(v.GetString("frontend_url"), "/"),
		CORSOrigin:     v.GetString("cors_origin"),
		EmailHost:      v.GetString("email_host"),
		EmailPort:      v.GetInt("email_port"),
		EmailUser:      v.GetString("email_user"),
		EmailPass:      v.GetString("email_pass"),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		S3Bucket:       v.GetString("s3_bucket"),
		S3Region:       v.GetString("s3_region"),
		S3Endpoint:     v.GetString("s3_endpoint"),
		S3AccessKey:    v.GetString("s3_access_key"),
		S3SecretKey:    v.GetString("s3_secret_key"),
		S3PublicURL:    v.GetString("s3_public_url"),
		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = cfg.FrontendURL
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		dsn, err := normalizeDSN(v.GetString("database_dsn"))
		if err != nil {
			return Config{}, err
		}
		cfg.DatabaseDSN = dsn
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTExpiry <= 0 {
		return Config{}, errors.New("JWT_EXPIRY must be positive")
	}
	if cfg.ResetTokenTTL <= 0 {
		return Config{}, errors.New("RESET_TOKEN_TTL must be positive")
	}

	if cfg.EmailHost != "" && cfg.EmailUser == "" {
		return Config{}, errors.New("EMAIL_USER must be set when EMAIL_HOST is set")
	}

	if cfg.IsProduction() && cfg.JWTSecret == devSecret {
		return Config{}, ErrDefaultSecret
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SMTPConfigured reports whether an outbound mail relay is set.
func (c Config) SMTPConfigured() bool {
	return c.EmailHost != "" && c.EmailUser != ""
}

// NewLogger writes JSON records in production and text records elsewhere.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// normalizeDSN forces the driver options the repositories rely on:
// UTC time parsing and matched-row counts for updates.
func normalizeDSN(dsn string) (string, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_DSN: %w", err)
	}
	parsed.ParseTime = true
	parsed.Loc = time.UTC
	parsed.ClientFoundRows = true
	return parsed.FormatDSN(), nil
}

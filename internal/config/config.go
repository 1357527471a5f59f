// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Environment Environment
	Log         Log
	GRPC        GRPCServer
	DatabaseURL string `env:"DATABASE_URL,required"`
	AMQPURL     string `env:"AMQP_URL"`
	OrderPrefix string `env:"ORDER_ID_PREFIX" envDefault:"VW"`

	Redis     Redis     `envPrefix:"REDIS_"`
	Session   Session   `envPrefix:"SESSION_"`
	Catalog   Catalog   `envPrefix:"CATALOG_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	OTP       OTP       `envPrefix:"OTP_"`
	Pricing   Pricing   `envPrefix:"PRICING_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type GRPCServer struct {
	Host string `env:"GRPC_HOST" envDefault:"0.0.0.0"`
	Port string `env:"GRPC_PORT" envDefault:"50051"`
}

func (g GRPCServer) Addr() string { return g.Host + ":" + g.Port }

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Session struct {
	Store string        `env:"STORE" envDefault:"redis"`
	TTL   time.Duration `env:"TTL" envDefault:"2h"`
}

type Catalog struct {
	BaseURL  string        `env:"BASE_URL" envDefault:"http://localhost:5000/api/v1"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"2h"`
}

type OTP struct {
	Mode           string        `env:"MODE" envDefault:"strict"`
	CodeTTL        time.Duration `env:"CODE_TTL" envDefault:"5m"`
	ResendCooldown time.Duration `env:"RESEND_COOLDOWN" envDefault:"30s"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"5"`
}

type Pricing struct {
	FreeShippingThreshold int64           `env:"FREE_SHIPPING_THRESHOLD" envDefault:"500"`
	FlatShippingFee       int64           `env:"FLAT_SHIPPING_FEE" envDefault:"50"`
	TaxRate               decimal.Decimal `env:"TAX_RATE" envDefault:"0.18"`
	Currency              string          `env:"CURRENCY" envDefault:"INR"`
}

type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"10"`
}

const (
	OTPModeStrict = "strict"
	OTPModeStub   = "stub"

	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Load reads .env when present and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.OTP.Mode {
	case OTPModeStrict, OTPModeStub:
	default:
		errs = append(errs, fmt.Errorf("OTP_MODE must be %s or %s, got %q", OTPModeStrict, OTPModeStub, c.OTP.Mode))
	}
	switch c.Session.Store {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %s or %s, got %q", SessionStoreRedis, SessionStoreMemory, c.Session.Store))
	}
	if c.OTP.MaxAttempts < 1 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must be at least 1"))
	}
	if c.OTP.ResendCooldown <= 0 || c.OTP.CodeTTL <= 0 {
		errs = append(errs, errors.New("OTP_RESEND_COOLDOWN and OTP_CODE_TTL must be positive"))
	}
	if c.Pricing.TaxRate.IsNegative() {
		errs = append(errs, errors.New("PRICING_TAX_RATE must not be negative"))
	}
	if c.Pricing.FreeShippingThreshold < 0 || c.Pricing.FlatShippingFee < 0 {
		errs = append(errs, errors.New("PRICING shipping values must not be negative"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if len(c.OrderPrefix) == 0 || len(c.OrderPrefix) > 8 {
		errs = append(errs, errors.New("ORDER_ID_PREFIX must be 1 to 8 characters"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from the Log section.
func (l Log) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

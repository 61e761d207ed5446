package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// Config holds every runtime setting. Values come from the process
// environment, optionally seeded from a .env file.
type Config struct {
	AppPort string `env:"APP_PORT,default=8080"`
	AppMode string `env:"APP_MODE,default=debug"`
	LogMode string `env:"LOG_MODE,default=development"`

	DBHost     string `env:"DB_HOST,default=localhost"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=postgres"`
	DBPassword string `env:"DB_PASSWORD,default=postgres"`
	DBName     string `env:"DB_NAME,default=truthgate"`
	DBSSLMode  string `env:"DB_SSLMODE,default=disable"`

	JWTSecret    string `env:"JWT_SECRET,default=change-me"`
	JWTExpiryMin int    `env:"JWT_EXPIRY_MINUTES,default=60"`

	RedisEnabled  bool   `env:"REDIS_ENABLED,default=false"`
	RedisHost     string `env:"REDIS_HOST,default=localhost"`
	RedisPort     string `env:"REDIS_PORT,default=6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	GatewayBaseURL     string        `env:"GATEWAY_BASE_URL,default=https://api.paystack.co"`
	GatewaySecretKey   string        `env:"GATEWAY_SECRET_KEY"`
	GatewayTimeout     time.Duration `env:"GATEWAY_TIMEOUT,default=10s"`
	GatewayCurrency    string        `env:"GATEWAY_CURRENCY,default=NGN"`
	GatewayCallbackURL string        `env:"GATEWAY_CALLBACK_URL"`

	TrustedCookieName  string `env:"TRUSTED_COOKIE_NAME,default=truthgate_trusted_device"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	RetentionSweepInterval time.Duration `env:"RETENTION_SWEEP_INTERVAL,default=15m"`
	MessageRateLimit       int           `env:"MESSAGE_RATE_LIMIT,default=30"`
	MessageRateWindow      time.Duration `env:"MESSAGE_RATE_WINDOW,default=60s"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		log.Fatalf("Failed to map environment into config: %v", err)
	}
	return cfg
}

func (c *Config) IsDebug() bool {
	return c.AppMode == DebugMode
}

func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// DatabaseURL is the lib/pq form used by goose.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas. A nil result means
// any origin.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			return nil
		}
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

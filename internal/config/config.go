package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhit/go-str2duration/v2"
)

var ErrConfiguration = errors.New("configuration error")

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type JWT struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type RateLimit struct {
	Max    int
	Window time.Duration
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWT        JWT
	BcryptCost int

	KafkaBrokers []string
	Redis        Redis
	RateLimit    RateLimit
}

// Load reads the process environment, optionally seeded from a .env file.
// Missing signing secrets are reported as ErrConfiguration.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. using system environment variables", err)
	}

	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "tour_service"),
		Port:        EnvDefault("PORT", "3000"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "postgres")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		BcryptCost: EnvIntDefault("BCRYPT_COST", 10),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       EnvIntDefault("REDIS_DB", 0),
		},
		RateLimit: RateLimit{
			Max: EnvIntDefault("RATE_LIMIT_MAX", 20),
		},
	}

	var err error
	if cfg.JWT, err = LoadJWT(); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.Window, err = durationDefault("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("%w: DATABASE_URL is required", ErrConfiguration)
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return Config{}, fmt.Errorf("%w: unsupported DB_DRIVER %q", ErrConfiguration, cfg.DBDriver)
	}

	return cfg, nil
}

// LoadJWT reads the token signing settings on their own.
func LoadJWT() (JWT, error) {
	access := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if access == "" {
		return JWT{}, fmt.Errorf("%w: JWT_SECRET is required", ErrConfiguration)
	}
	refresh := strings.TrimSpace(os.Getenv("JWT_REFRESH_SECRET"))
	if refresh == "" {
		return JWT{}, fmt.Errorf("%w: JWT_REFRESH_SECRET is required", ErrConfiguration)
	}

	accessTTL, err := durationDefault("JWT_EXPIRES_IN", DefaultAccessTTL)
	if err != nil {
		return JWT{}, err
	}
	refreshTTL, err := durationDefault("JWT_REFRESH_EXPIRES_IN", DefaultRefreshTTL)
	if err != nil {
		return JWT{}, err
	}

	return JWT{
		AccessSecret:  []byte(access),
		RefreshSecret: []byte(refresh),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}, nil
}

// ParseDuration accepts Go durations plus day and week units ("7d", "2w").
func ParseDuration(v string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", v)
	}
	return d, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", ErrConfiguration, key, err)
	}
	return d, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
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

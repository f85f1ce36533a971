package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes accepted in AUTH_MODE.
const (
	AuthModeLocal = "local"
	AuthModeJWKS  = "jwks"
)

// Report weight strategies accepted in REPORT_WEIGHT_STRATEGY.
const (
	WeightStrategyDominant = "dominant"
	WeightStrategyMean     = "mean"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"https://crime-analysis-zeta.vercel.app",
}

type Config struct {
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimezone  string
	DBMaxConns  int32
	AutoMigrate bool

	AuthMode      string
	SecretKey     string
	TokenTTL      time.Duration
	JWKSURL       string
	JWTIssuer     string
	JWTAudience   string
	JWTRoleClaim  string
	JWTEmailClaim string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LoginRateLimit  int
	LoginRateWindow time.Duration

	LogLevel  string
	LogFormat string

	CORSOrigins       []string
	CORSOriginPattern string

	ReportWeightStrategy string
}

// Load reads the environment (and a local .env file in dev) into a Config.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase is Load for tools that only talk to the database; auth
// settings are read but not required.
func LoadDatabase() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() (*Config, error) {
	_ = godotenv.Load(".env.local", ".env")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		DBTimezone:  getEnv("DB_TIMEZONE", "UTC"),

		AuthMode:      strings.ToLower(getEnv("AUTH_MODE", AuthModeLocal)),
		SecretKey:     os.Getenv("SECRET_KEY"),
		JWKSURL:       os.Getenv("JWKS_URL"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		JWTRoleClaim:  getEnv("JWT_ROLE_CLAIM", "role"),
		JWTEmailClaim: getEnv("JWT_EMAIL_CLAIM", "email"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", strings.Join(defaultCORSOrigins, ","))),
		CORSOriginPattern: getEnv("CORS_ORIGIN_PATTERN", `^https://crime-analysis-.*\.vercel\.app$`),

		ReportWeightStrategy: strings.ToLower(getEnv("REPORT_WEIGHT_STRATEGY", WeightStrategyDominant)),
	}

	var err error
	if cfg.AutoMigrate, err = getBool("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	maxConns, err := getInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)
	ttlMinutes, err := getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24)
	if err != nil {
		return nil, err
	}
	cfg.TokenTTL = time.Duration(ttlMinutes) * time.Minute
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = getInt("LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = getDuration("LOGIN_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL == "" && (c.DBHost == "" || c.DBUser == "" || c.DBName == "") {
		return fmt.Errorf("database not configured: set DATABASE_URL or DB_HOST, DB_USER and DB_NAME")
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	switch c.AuthMode {
	case AuthModeLocal:
		if c.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required when AUTH_MODE=%s", AuthModeLocal)
		}
		if c.TokenTTL <= 0 {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
		}
	case AuthModeJWKS:
		if c.JWKSURL == "" {
			return fmt.Errorf("JWKS_URL is required when AUTH_MODE=%s", AuthModeJWKS)
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}
	switch c.ReportWeightStrategy {
	case WeightStrategyDominant, WeightStrategyMean:
	default:
		return fmt.Errorf("unsupported REPORT_WEIGHT_STRATEGY %q", c.ReportWeightStrategy)
	}
	return nil
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

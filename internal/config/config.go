package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// InsecureDefaultSecret is only used when ALLOW_INSECURE_DEFAULT_SECRET=true.
const InsecureDefaultSecret = "supersecret123"

const maxVerifyTimeout = 30 * time.Second

type Role string

const (
	RoleAuth Role = "auth"
	RoleTask Role = "task"
)

type Config struct {
	Role                    Role
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	MaxBodyBytes            int64

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret                  string
	JWTTTL                     time.Duration
	AllowInsecureDefaultSecret bool
	BcryptCost                 int

	AuthServiceURL string
	VerifyTimeout  time.Duration
	VerifyCacheTTL time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	LogLevel  string
	LogFormat string
}

// LoadAuth reads the identity service configuration.
func LoadAuth() (*Config, error) {
	cfg := load(RoleAuth, "3001")
	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	cfg.JWTTTL = getDuration("JWT_TTL", 24*time.Hour)
	cfg.AllowInsecureDefaultSecret = getBool("ALLOW_INSECURE_DEFAULT_SECRET", false)
	cfg.BcryptCost = getInt("BCRYPT_COST", 10)

	if cfg.JWTSecret == "" && cfg.AllowInsecureDefaultSecret {
		slog.Warn("JWT_SECRET not set; falling back to the built-in signing key", "insecure", true)
		cfg.JWTSecret = InsecureDefaultSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadTask reads the task service configuration.
func LoadTask() (*Config, error) {
	cfg := load(RoleTask, "3002")
	cfg.AuthServiceURL = strings.TrimRight(getEnv("AUTH_SERVICE_URL", "http://localhost:3001"), "/")
	cfg.VerifyTimeout = getDuration("VERIFY_TIMEOUT", 3*time.Second)
	cfg.VerifyCacheTTL = getDuration("VERIFY_CACHE_TTL", 30*time.Second)
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func load(role Role, defaultPort string) *Config {
	_ = godotenv.Load()

	return &Config{
		Role:                    role,
		ServerPort:              getEnv("SERVER_PORT", defaultPort),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 15*time.Second),
		MaxBodyBytes:            getInt64("MAX_BODY_BYTES", 1<<20),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 20),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "pretty"),
	}
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS are inconsistent")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	switch c.Role {
	case RoleAuth:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		if c.JWTTTL < 0 {
			return fmt.Errorf("JWT_TTL cannot be negative")
		}
		if c.BcryptCost < 4 || c.BcryptCost > 31 {
			return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
		}
	case RoleTask:
		if c.AuthServiceURL == "" {
			return fmt.Errorf("AUTH_SERVICE_URL cannot be empty")
		}
		if c.VerifyTimeout <= 0 || c.VerifyTimeout > maxVerifyTimeout {
			return fmt.Errorf("VERIFY_TIMEOUT must be in (0, %s]", maxVerifyTimeout)
		}
		if c.VerifyCacheTTL < 0 {
			return fmt.Errorf("VERIFY_CACHE_TTL cannot be negative")
		}
	default:
		return fmt.Errorf("unknown service role %q", c.Role)
	}

	return nil
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}

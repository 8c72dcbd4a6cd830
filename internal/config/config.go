package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development fallback. Production refuses it.
const DefaultJWTSecret = "change-me"

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDebug    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	ServerPort  string
	CORSOrigins []string
	LogMode     string

	SessionTTL time.Duration
}

// Load reads .env when present and then the process environment.
func Load() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learnpath"),
		DBDebug:    getBool("DB_DEBUG", false),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:   getEnv("JWT_SECRET", DefaultJWTSecret),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		LogMode:     getEnv("LOG_MODE", "dev"),

		SessionTTL: getDuration("SESSION_TTL", 2*time.Hour),
	}, envLoaded
}

// Production reports whether LogMode selects the production setup.
func (c *Config) Production() bool {
	mode := strings.ToLower(c.LogMode)
	return mode == "prod" || mode == "production"
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	if c.Production() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

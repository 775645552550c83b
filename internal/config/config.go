package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret  string
	ServerPort string
	LogLevel   string

	// Students that stop polling for this many seconds are dropped from
	// the connected-player count.
	PlayerTimeoutSec int

	// Rate limit applied to the polling endpoints, per client IP.
	PollRatePerSec float64
	PollRateBurst  int
}

func Load() *Config {
	_ = godotenv.Load()

	timeout, _ := strconv.Atoi(getEnv("PLAYER_TIMEOUT", "30"))
	rate, _ := strconv.ParseFloat(getEnv("POLL_RATE", "5"), 64)
	burst, _ := strconv.Atoi(getEnv("POLL_BURST", "10"))

	return &Config{
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "matches"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		JWTSecret:        getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PlayerTimeoutSec: timeout,
		PollRatePerSec:   rate,
		PollRateBurst:    burst,
	}
}

// Validate checks required fields before anything connects.
func (c *Config) Validate() error {
	if c.DBHost == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DBUser == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DBName == "" {
		return errors.New("config: DB_NAME is required")
	}
	if c.PlayerTimeoutSec <= 0 {
		return errors.New("config: PLAYER_TIMEOUT must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

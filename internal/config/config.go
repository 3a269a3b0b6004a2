package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Session token Config
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Upload Config
	UploadDir         string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS"`
	MaxUploadBytes    int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// Reclaim worker Config
	ReclaimMaxRetries int           `env:"RECLAIM_MAX_RETRIES" envDefault:"3"`
	ReclaimBaseDelay  time.Duration `env:"RECLAIM_BASE_DELAY" envDefault:"1s"`
}

// defaultExtensions - расширения изображений, разрешенные по умолчанию
var defaultExtensions = []string{"png", "jpg", "jpeg", "gif"}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:    getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
		ReclaimMaxRetries: getEnvAsInt("RECLAIM_MAX_RETRIES", 3),
		ReclaimBaseDelay:  getEnvAsDuration("RECLAIM_BASE_DELAY", time.Second),
	}

	// Загрузка списка разрешенных расширений
	extensionsStr := os.Getenv("ALLOWED_EXTENSIONS")
	if extensionsStr != "" {
		cfg.AllowedExtensions = strings.Split(extensionsStr, ",")
		for i, ext := range cfg.AllowedExtensions {
			cfg.AllowedExtensions[i] = strings.ToLower(strings.TrimSpace(ext))
		}
	} else {
		cfg.AllowedExtensions = defaultExtensions
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsInt64 возвращает значение переменной окружения как int64 или значение по умолчанию
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

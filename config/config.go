package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-super-secret-jwt-key-here"

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Upload UploadConfig
	App    AppConfig
}

type ServerConfig struct {
	Port      string
	ClientURL string
}

// RedisConfig points at the document store. An empty Addr starts an
// in-process store instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type UploadConfig struct {
	Dir            string
	MaxBytes       int64
	TempTTL        time.Duration
	UnitWriteDelay time.Duration
	PricingDelay   time.Duration
	NotifyDelay    time.Duration
	Timeout        time.Duration
	RatePerMinute  int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	ServiceName string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "5000"),
			ClientURL: getEnv("CLIENT_URL", "http://localhost:5173"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
			TokenTTL:  time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Upload: UploadConfig{
			Dir:            getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes:       int64(getEnvAsInt("UPLOAD_MAX_BYTES", 50*1024*1024)),
			TempTTL:        time.Duration(getEnvAsInt("UPLOAD_TEMP_TTL_MINUTES", 60)) * time.Minute,
			UnitWriteDelay: time.Duration(getEnvAsInt("UNIT_WRITE_DELAY_MS", 50)) * time.Millisecond,
			PricingDelay:   time.Duration(getEnvAsInt("PRICING_DELAY_MS", 500)) * time.Millisecond,
			NotifyDelay:    time.Duration(getEnvAsInt("NOTIFY_DELAY_MS", 300)) * time.Millisecond,
			Timeout:        time.Duration(getEnvAsInt("UPLOAD_TIMEOUT_MINUTES", 10)) * time.Minute,
			RatePerMinute:  getEnvAsInt("UPLOAD_RATE_PER_MINUTE", 10),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ServiceName: getEnv("SERVICE_NAME", "inventory-backend"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	if c.Upload.Dir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed in production")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

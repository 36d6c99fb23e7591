package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the Lakra API server. Values come from
// an optional YAML file (LAKRA_CONFIG) overridden by environment variables.
type Config struct {
	Port string `yaml:"port"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"-"`
	TokenTTLHours int           `yaml:"token_ttl_hours"`

	// SecondsPerQuestion is the proficiency-test countdown budget per question.
	SecondsPerQuestion int `yaml:"seconds_per_question"`

	// UploadDir is where voice recordings are stored.
	UploadDir string `yaml:"upload_dir"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080",
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "lakra_user",
		DBPassword:         "lakra_password",
		DBName:             "lakra",
		DBSSLMode:          "disable",
		JWTSecret:          "lakra-staging-signing-key-2026",
		TokenTTLHours:      72,
		SecondsPerQuestion: 90,
		UploadDir:          "uploads/voice",
		AllowedOrigins:     []string{"*"},
	}

	if path := os.Getenv("LAKRA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)

	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TokenTTLHours = n
		}
	}
	if v := os.Getenv("SECONDS_PER_QUESTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SecondsPerQuestion = n
		}
	}

	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = 72
	}
	if cfg.SecondsPerQuestion <= 0 {
		cfg.SecondsPerQuestion = 90
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLHours) * time.Hour

	return cfg, nil
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

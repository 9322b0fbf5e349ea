package main

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the inventory/sales service.
type Config struct {
	Port      string // HTTP port (default: 5010)
	Env       string // "production" enables JSON logs and gin release mode
	UploadDir string // directory watched for CSV uploads

	RedisAddr     string // empty disables the report cache
	RedisPassword string

	PostgresDB string // empty disables import history persistence
}

// LoadConfig loads environment variables into a Config struct. A local .env
// file is honored when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "5010"),
		Env:           getEnv("APP_ENV", "development"),
		UploadDir:     getEnv("CSV_UPLOAD_DIR", "./out/upload"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		PostgresDB:    os.Getenv("POSTGRES_DB"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

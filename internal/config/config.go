package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort            string
	AppDBPath           string
	MfgDBDriver         string
	MfgDBDSN            string
	JWTSecret           string
	TokenTTLHours       int
	MaxRowLimit         int
	QueryTimeoutSeconds int
	LogLevel            string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		AppDBPath:           getEnv("APP_DB_PATH", "plantquery.db"),
		MfgDBDriver:         getEnv("MFG_DB_DRIVER", ""), // Empty means sniff from the DSN
		MfgDBDSN:            getEnv("MFG_DB_DSN", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTLHours:       getEnvAsInt("TOKEN_TTL_HOURS", 24),
		MaxRowLimit:         getEnvAsInt("MAX_ROW_LIMIT", 100),
		QueryTimeoutSeconds: getEnvAsInt("QUERY_TIMEOUT_SECONDS", 30),
		LogLevel:            getEnv("LOG_LEVEL", "INFO"),
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	if AppConfig.MfgDBDSN == "" {
		log.Fatal("MFG_DB_DSN environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

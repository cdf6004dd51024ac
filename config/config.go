package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Issuer  IssuerConfig
	Default DefaultLocationConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	// Addr empty disables the duplicate-request guard.
	Addr     string
	Password string
	DB       int
}

type IssuerConfig struct {
	IDLength      int
	IDMaxAttempts int
}

// DefaultLocationConfig seeds the initial storage location and backs restock
// requests that name none. The engine itself never assumes a location.
type DefaultLocationConfig struct {
	LocationName     string
	LocationCapacity int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPPort: getEnv("HTTP_PORT", ":8080"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOGGER_LEVEL", "info"),
			Encoding: getEnv("LOGGER_ENCODING", "console"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("DATABASE_NAME", "inventory.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Issuer: IssuerConfig{
			IDLength:      getEnvInt("ORDER_ID_LENGTH", 8),
			IDMaxAttempts: getEnvInt("ORDER_ID_MAX_ATTEMPTS", 100),
		},
		Default: DefaultLocationConfig{
			LocationName:     getEnv("DEFAULT_LOCATION_NAME", "Main Warehouse"),
			LocationCapacity: getEnvInt("DEFAULT_LOCATION_CAPACITY", 1000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

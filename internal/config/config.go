package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	PaymentConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBackendURL() string
	GetBackendTimeout() time.Duration
	GetAppSecret() string
	GetRedisURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Payment
}

// New loads a .env file in development before returning the env-backed config.
func New() Config {
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "DEV" {
		_ = godotenv.Load()
	}
	return mainConfig{}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	backendURLVar    = "BACKEND_URL"
	backendTimeout   = "BACKEND_TIMEOUT"
	appSecretVar     = "APP_SECRET"
	redisURLVar      = "REDIS_URL"
	logLevelVar      = "LOG_LEVEL"
	defaultAppSecret = "dev-only-secret-change-me"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Painel Consultas")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetBackendURL returns the base URL of the PHP API (e.g., "https://api.example.com/v1")
func (EnvVars) GetBackendURL() string {
	return strings.TrimRight(GetEnv(backendURLVar, "http://localhost:8000/api"), "/")
}

func (EnvVars) GetBackendTimeout() time.Duration {
	return GetEnvDuration(backendTimeout, 15*time.Second)
}

// GetAppSecret is the master secret the cookie signing key is derived from
func (EnvVars) GetAppSecret() string {
	return GetEnv(appSecretVar, defaultAppSecret)
}

// GetRedisURL is optional; when empty sessions are kept in memory
func (EnvVars) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func GetEnvFloat(envVar string, defaultValue float64) float64 {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

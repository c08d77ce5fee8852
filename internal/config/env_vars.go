package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	baseURLVar       = "BASE_URL"
	backendAPIVar    = "BACKEND_API_BASE"
	backendWSVar     = "BACKEND_WS_URL"
	sessionSecretVar = "SESSION_SECRET"
	sessionMaxAgeVar = "SESSION_MAX_AGE"
	requestTimeout   = "REQUEST_TIMEOUT"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ BackendConfig = EnvVars{}
var _ SessionConfig = EnvVars{}
var _ GoogleConfig = EnvVars{}

// LoadDotEnv loads a .env file into the process environment if one exists.
// A missing file is not an error - production deployments set real env vars.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "3000")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "SmartFAQ")
}

// GetBaseURL returns the public URL of this gateway (used for the Google
// sign-in redirect URI).
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:3000")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBackendAPIBase returns the base URL of the SmartFAQ backend REST API.
func (EnvVars) GetBackendAPIBase() string {
	return GetEnv(backendAPIVar, "http://localhost:8000/v1")
}

// GetBackendWSURL returns the backend generation stream endpoint.
func (EnvVars) GetBackendWSURL() string {
	return GetEnv(backendWSVar, "ws://localhost:8000/ws/faq/")
}

func (EnvVars) GetRequestTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv(requestTimeout, "15"))
	if err != nil || seconds <= 0 {
		seconds = 15
	}
	return time.Duration(seconds) * time.Second
}

// GetSessionSecret returns the HMAC key that signs the session cookie.
func (EnvVars) GetSessionSecret() []byte {
	return []byte(GetEnv(sessionSecretVar, "dev-only-session-secret"))
}

func (EnvVars) GetSessionMaxAge() time.Duration {
	hours, err := strconv.Atoi(GetEnv(sessionMaxAgeVar, "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func (EnvVars) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (EnvVars) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	BackendConfig
	SessionConfig
	GoogleConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
}

type BackendConfig interface {
	GetBackendAPIBase() string
	GetBackendWSURL() string
	GetRequestTimeout() time.Duration
}

type SessionConfig interface {
	GetSessionSecret() []byte
	GetSessionMaxAge() time.Duration
}

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
}

func New() Config {
	return mainConfig{}
}

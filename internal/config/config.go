package config

import "time"

type Config interface {
	EnvConfig
	IdentityConfig
	APIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetCredentialsFile() string
}

type IdentityConfig interface {
	GetRegion() string
	GetUserPoolID() string
	GetClientID() string
	GetIdentityEndpoint() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Identity
	API
}

func New() Config {
	return mainConfig{}
}

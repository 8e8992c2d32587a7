package config

import "time"

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetCredentialsPath() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
